package shared

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// GetContextString 从上下文读取字符串值
func GetContextString(c *gin.Context, key string) (string, bool) {
	value, exists := c.Get(key)
	if !exists {
		return "", false
	}
	text, ok := value.(string)
	if !ok {
		return "", false
	}
	text = strings.TrimSpace(text)
	return text, text != ""
}

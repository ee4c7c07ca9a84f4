package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// minorUnitExponent 处理方最小货币单位与主单位的换算位数（1 卢比 = 100 派沙）
const minorUnitExponent = 2

// ErrMoneyPrecision 金额精度超出最小货币单位
var ErrMoneyPrecision = errors.New("amount precision exceeds minor unit")

// ErrMoneyRange 金额换算为最小货币单位后超出 int64 范围
var ErrMoneyRange = errors.New("amount out of range")

var (
	minorUnitMax = decimal.NewFromInt(math.MaxInt64)
	minorUnitMin = decimal.NewFromInt(math.MinInt64)
)

// Money 统一金额类型（主货币单位，保留 2 位小数）
type Money struct {
	decimal.Decimal
}

// NewMoneyFromDecimal 从 decimal 创建金额
func NewMoneyFromDecimal(amount decimal.Decimal) Money {
	return Money{Decimal: amount.Round(minorUnitExponent)}
}

// NewMoneyFromMinor 从最小货币单位创建金额，例如 50000 派沙 -> 500.00
func NewMoneyFromMinor(minor int64) Money {
	return Money{Decimal: decimal.NewFromInt(minor).Shift(-minorUnitExponent)}
}

// ToMinor 转换为最小货币单位，例如 500 -> 50000
func (m Money) ToMinor() (int64, error) {
	shifted := m.Decimal.Shift(minorUnitExponent)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, ErrMoneyPrecision
	}
	if shifted.GreaterThan(minorUnitMax) || shifted.LessThan(minorUnitMin) {
		return 0, ErrMoneyRange
	}
	return shifted.IntPart(), nil
}

// IsPositive 金额是否大于零
func (m Money) IsPositive() bool {
	return m.Decimal.GreaterThan(decimal.Zero)
}

// MarshalJSON 输出数值，保持与处理方 / 客户端一致的数字格式
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.Round(minorUnitExponent).String()), nil
}

// UnmarshalJSON 解析金额（字符串或数字），不做舍入以便上层校验精度
func (m *Money) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return err
		}
		m.Decimal = d
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return err
	}
	m.Decimal = d
	return nil
}

// Value 用于数据库写入
func (m Money) Value() (driver.Value, error) {
	return m.Decimal.Round(minorUnitExponent).Value()
}

// Scan 用于数据库读取
func (m *Money) Scan(value interface{}) error {
	if err := m.Decimal.Scan(value); err != nil {
		return err
	}
	m.Decimal = m.Decimal.Round(minorUnitExponent)
	return nil
}

// String 返回 2 位小数格式
func (m Money) String() string {
	return m.Decimal.Round(minorUnitExponent).StringFixed(minorUnitExponent)
}

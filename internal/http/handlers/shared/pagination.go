package shared

const maxPageSize = 200

// NormalizePagination 归一化分页参数，pageSize <= 0 表示不分页。
func NormalizePagination(page, pageSize int) (int, int) {
	if pageSize <= 0 {
		return 0, 0
	}
	if page < 1 {
		page = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

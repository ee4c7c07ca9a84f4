package repository

// PaymentRecordListFilter 查询支付记录列表的过滤条件
type PaymentRecordListFilter struct {
	Page     int
	PageSize int
	Status   string
}

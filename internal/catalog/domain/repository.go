package domain

import "context"

// ProductRepository 商品仓储
type ProductRepository interface {
	// WithTx 在同一事务上下文中执行回调，回调内的仓储调用共享事务
	WithTx(ctx context.Context, fn func(txCtx context.Context) error) error
	// GetWithLock 行级写锁读取（SELECT ... FOR UPDATE），必须在事务内调用
	GetWithLock(ctx context.Context, id uint) (*Product, error)
	GetByID(ctx context.Context, id uint) (*Product, error)
	Save(ctx context.Context, product *Product) error
	// UpdateInfo 只更新商品资料列，绝不触碰 estoque 和告警标志，
	// 避免把并发事务已提交的扣减写回旧值
	UpdateInfo(ctx context.Context, product *Product) error
	// UpdateAlertFlags 只更新两个告警标志列
	UpdateAlertFlags(ctx context.Context, productID uint, lowNotified, outNotified bool) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, category string, offset, limit int) ([]*Product, int64, error)
	// ListBelowThreshold 列出库存不高于阈值的商品，按库存升序
	ListBelowThreshold(ctx context.Context, lowThreshold int) ([]*Product, error)
	// RearmAlertsAbove 将库存高于阈值的商品的告警标志复位
	RearmAlertsAbove(ctx context.Context, lowThreshold int) error
}

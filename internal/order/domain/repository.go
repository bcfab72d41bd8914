package domain

import "context"

// OrderRepository 订单仓储
type OrderRepository interface {
	// WithTx 在单个数据库事务中执行 fn，事务句柄通过 context 传递
	WithTx(ctx context.Context, fn func(txCtx context.Context) error) error
	// Create 持久化新订单及其订单项
	Create(ctx context.Context, order *Order) error
	// GetByID 按 ID 查询订单（含订单项）
	GetByID(ctx context.Context, orderID uint) (*Order, error)
	// GetWithLock 按 ID 行锁查询订单（含订单项）
	GetWithLock(ctx context.Context, orderID uint) (*Order, error)
	// ListByUser 查询用户的订单列表，按创建时间倒序
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]Order, int64, error)
	// MarkPaid 条件更新：仅当订单仍为 pendente 时置为 pago。
	// 返回 true 表示本次调用完成了流转，false 表示订单已不处于 pendente。
	MarkPaid(ctx context.Context, orderID uint) (bool, error)
	// UpdateStatus 保存订单状态及时间戳字段
	UpdateStatus(ctx context.Context, order *Order) error
}

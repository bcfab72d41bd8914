package domain

import "context"

// CartRepository 购物车仓储
type CartRepository interface {
	GetByUserID(ctx context.Context, userID string) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	// Clear 删除用户购物车及其条目；支付成功后在订单事务内调用
	Clear(ctx context.Context, userID string) error
}

// CouponRepository 优惠券仓储
type CouponRepository interface {
	// GetByCode 按券码查询；不存在返回 ErrCouponInvalid
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	Save(ctx context.Context, coupon *Coupon) error
	// MarkUsed 条件更新 usado=false -> true，返回是否抢到；在订单事务内调用
	MarkUsed(ctx context.Context, couponID uint) (bool, error)
}

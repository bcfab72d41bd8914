package application

import (
	"context"
	"errors"
	"time"

	"github.com/wyfcoding/cardstore/internal/cart/domain"
)

// AddItemCommand 加购命令
type AddItemCommand struct {
	UserID    string
	ProductID uint
	Quantity  int
}

// UpdateQuantityCommand 修改数量命令
type UpdateQuantityCommand struct {
	UserID    string
	ProductID uint
	Quantity  int
}

// RemoveItemCommand 移除命令
type RemoveItemCommand struct {
	UserID    string
	ProductID uint
}

// CartCommandService 购物车命令服务
type CartCommandService struct {
	carts   domain.CartRepository
	coupons domain.CouponRepository
}

// NewCartCommandService 创建购物车命令服务实例
func NewCartCommandService(carts domain.CartRepository, coupons domain.CouponRepository) *CartCommandService {
	return &CartCommandService{carts: carts, coupons: coupons}
}

// AddItem 处理加购
func (s *CartCommandService) AddItem(ctx context.Context, cmd AddItemCommand) error {
	if cmd.Quantity <= 0 {
		return errors.New("quantidade deve ser positiva")
	}
	cart, err := s.carts.GetByUserID(ctx, cmd.UserID)
	if err != nil {
		if !errors.Is(err, domain.ErrCartNotFound) {
			return err
		}
		cart = &domain.Cart{UserID: cmd.UserID}
	}
	cart.AddItem(cmd.ProductID, cmd.Quantity)
	return s.carts.Save(ctx, cart)
}

// UpdateQuantity 处理数量调整
func (s *CartCommandService) UpdateQuantity(ctx context.Context, cmd UpdateQuantityCommand) error {
	cart, err := s.carts.GetByUserID(ctx, cmd.UserID)
	if err != nil {
		return err
	}
	cart.SetQuantity(cmd.ProductID, cmd.Quantity)
	return s.carts.Save(ctx, cart)
}

// RemoveItem 处理移除
func (s *CartCommandService) RemoveItem(ctx context.Context, cmd RemoveItemCommand) error {
	cart, err := s.carts.GetByUserID(ctx, cmd.UserID)
	if err != nil {
		return err
	}
	cart.RemoveItem(cmd.ProductID)
	return s.carts.Save(ctx, cart)
}

// ClearCart 清空购物车；无车视为已清空
func (s *CartCommandService) ClearCart(ctx context.Context, userID string) error {
	return s.carts.Clear(ctx, userID)
}

// ValidateCoupon 校验券码对用户是否可用；不消费券，消费发生在结账事务内
func (s *CartCommandService) ValidateCoupon(ctx context.Context, userID, code string) (*domain.Coupon, error) {
	if code == "" {
		return nil, domain.ErrCouponCodeEmpty
	}
	coupon, err := s.coupons.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := coupon.Validate(userID, time.Now()); err != nil {
		return nil, err
	}
	return coupon, nil
}

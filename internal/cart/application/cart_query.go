package application

import (
	"context"
	"errors"

	"github.com/wyfcoding/cardstore/internal/cart/domain"
)

// CartQueryService 购物车查询服务
type CartQueryService struct {
	carts domain.CartRepository
}

// NewCartQueryService 创建购物车查询服务实例
func NewCartQueryService(carts domain.CartRepository) *CartQueryService {
	return &CartQueryService{carts: carts}
}

// GetCart 获取用户购物车；不存在时返回空车
func (s *CartQueryService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.carts.GetByUserID(ctx, userID)
	if errors.Is(err, domain.ErrCartNotFound) {
		return &domain.Cart{UserID: userID}, nil
	}
	return cart, err
}

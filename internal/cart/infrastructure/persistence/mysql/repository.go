package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/cardstore/internal/cart/domain"
	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"
)

type cartRepository struct{ db *gorm.DB }

// NewCartRepository 创建购物车仓储
func NewCartRepository(db *gorm.DB) domain.CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) GetByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.getDB(ctx).WithContext(ctx).Preload("Items").Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCartNotFound
		}
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	return r.getDB(ctx).WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(cart).Error
}

func (r *cartRepository) Clear(ctx context.Context, userID string) error {
	db := r.getDB(ctx).WithContext(ctx)
	var cart domain.Cart
	if err := db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if err := db.Where("carrinho_id = ?", cart.ID).Delete(&domain.CartItem{}).Error; err != nil {
		return err
	}
	return db.Delete(&cart).Error
}

func (r *cartRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db
}

type couponRepository struct{ db *gorm.DB }

// NewCouponRepository 创建优惠券仓储
func NewCouponRepository(db *gorm.DB) domain.CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var coupon domain.Coupon
	err := r.getDB(ctx).WithContext(ctx).Where("codigo = ?", code).First(&coupon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCouponInvalid
		}
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepository) Save(ctx context.Context, coupon *domain.Coupon) error {
	return r.getDB(ctx).WithContext(ctx).Save(coupon).Error
}

// MarkUsed 由数据库裁决"是否已用"，避免读后写竞态
func (r *couponRepository) MarkUsed(ctx context.Context, couponID uint) (bool, error) {
	res := r.getDB(ctx).WithContext(ctx).Model(&domain.Coupon{}).
		Where("id = ? AND usado = ?", couponID, false).
		Update("usado", true)
	return res.RowsAffected == 1, res.Error
}

func (r *couponRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db
}

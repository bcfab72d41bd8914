package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/cardstore/internal/order/domain"
	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) domain.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db
}

func (r *orderRepository) WithTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(contextx.WithTx(ctx, tx))
	})
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	return r.getDB(ctx).WithContext(ctx).Create(order).Error
}

func (r *orderRepository) GetByID(ctx context.Context, orderID uint) (*domain.Order, error) {
	var order domain.Order
	err := r.getDB(ctx).WithContext(ctx).Preload("Items").First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetWithLock(ctx context.Context, orderID uint) (*domain.Order, error) {
	var order domain.Order
	err := r.getDB(ctx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items").
		First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]domain.Order, int64, error) {
	db := r.getDB(ctx).WithContext(ctx).Model(&domain.Order{}).Where("user_id = ?", userID)
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var orders []domain.Order
	err := db.Preload("Items").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// MarkPaid 条件更新裁决 pendente -> pago，重复确认在此被挡下
func (r *orderRepository) MarkPaid(ctx context.Context, orderID uint) (bool, error) {
	res := r.getDB(ctx).WithContext(ctx).Model(&domain.Order{}).
		Where("id = ? AND status = ?", orderID, domain.StatusPending).
		Update("status", domain.StatusPaid)
	return res.RowsAffected == 1, res.Error
}

func (r *orderRepository) UpdateStatus(ctx context.Context, order *domain.Order) error {
	return r.getDB(ctx).WithContext(ctx).Model(&domain.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"status":          order.Status,
			"codigo_rastreio": order.TrackingCode,
			"pago_em":         order.PaidAt,
			"enviado_em":      order.ShippedAt,
			"entregue_em":     order.DeliveredAt,
			"cancelado_em":    order.CancelledAt,
		}).Error
}

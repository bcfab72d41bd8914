package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/cardstore/internal/payment/domain"
	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"
)

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建支付仓储
func NewPaymentRepository(db *gorm.DB) domain.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db
}

func (r *paymentRepository) Save(ctx context.Context, payment *domain.Payment) error {
	return r.getDB(ctx).WithContext(ctx).Save(payment).Error
}

func (r *paymentRepository) GetByOrderID(ctx context.Context, orderID uint) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.getDB(ctx).WithContext(ctx).Where("pedido_id = ?", orderID).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) GetByProviderID(ctx context.Context, providerPaymentID string) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.getDB(ctx).WithContext(ctx).Where("provider_payment_id = ?", providerPaymentID).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, paymentID uint, status domain.Status, detail string) error {
	return r.getDB(ctx).WithContext(ctx).Model(&domain.Payment{}).
		Where("id = ?", paymentID).
		Updates(map[string]any{"status": status, "status_detail": detail}).Error
}

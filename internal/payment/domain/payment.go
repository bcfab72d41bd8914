package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrPaymentNotFound 本地支付记录不存在
var ErrPaymentNotFound = errors.New("pagamento nao encontrado")

// Method 支付方式
type Method string

const (
	MethodCredit Method = "credito"
	MethodDebit  Method = "debito"
	MethodPix    Method = "pix"
)

// Status 本地支付状态
type Status string

const (
	StatusApproved Status = "aprovado"
	StatusDeclined Status = "recusado"
	StatusPending  Status = "pendente"
)

// Payment 支付记录，与订单一一对应。
// ProviderPaymentID 是 Webhook 回查订单的连接键，不信任客户端提交的订单号。
type Payment struct {
	gorm.Model
	OrderID           uint   `gorm:"column:pedido_id;uniqueIndex;not null" json:"pedido_id"`
	Method            Method `gorm:"column:metodo;type:varchar(16);not null" json:"metodo"`
	Status            Status `gorm:"column:status;type:varchar(16);index;not null" json:"status"`
	ProviderPaymentID string `gorm:"column:provider_payment_id;type:varchar(64);uniqueIndex" json:"provider_payment_id"`
	StatusDetail      string `gorm:"column:status_detail;type:varchar(100)" json:"status_detail"`
}

func (Payment) TableName() string { return "pagamentos" }

// PaymentRepository 支付记录仓储
type PaymentRepository interface {
	Save(ctx context.Context, payment *Payment) error
	GetByOrderID(ctx context.Context, orderID uint) (*Payment, error)
	GetByProviderID(ctx context.Context, providerPaymentID string) (*Payment, error)
	// UpdateStatus 更新支付状态与明细
	UpdateStatus(ctx context.Context, paymentID uint, status Status, detail string) error
}

package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrProviderUnavailable 与支付网关通信失败（网络或 5xx）
var ErrProviderUnavailable = errors.New("falha de comunicacao com o provedor de pagamento")

// ProviderStatus 网关侧支付状态
type ProviderStatus string

const (
	ProviderApproved  ProviderStatus = "approved"
	ProviderPending   ProviderStatus = "pending"
	ProviderInProcess ProviderStatus = "in_process"
	ProviderRejected  ProviderStatus = "rejected"
	ProviderCancelled ProviderStatus = "cancelled"
)

// CardCharge 卡支付请求（信用/借记，token 化卡号）
type CardCharge struct {
	OrderNo      string
	Amount       decimal.Decimal
	Token        string
	Installments int
	Method       Method
	PayerEmail   string
	PayerDoc     string
}

// PixCharge PIX 支付请求
type PixCharge struct {
	OrderNo    string
	Amount     decimal.Decimal
	PayerEmail string
	PayerDoc   string
}

// GatewayResult 网关返回
type GatewayResult struct {
	ProviderPaymentID string
	Status            ProviderStatus
	StatusDetail      string
	// PIX 专用：二维码 payload 与复制粘贴码
	QRCode       string
	QRCodeBase64 string
	TicketURL    string
}

// Gateway 支付网关出站端口。
// 每次调用携带新生成的幂等键；订单级的恰好一次由状态条件更新保证，不依赖这里。
type Gateway interface {
	CreateCardPayment(ctx context.Context, charge *CardCharge) (*GatewayResult, error)
	CreatePixPayment(ctx context.Context, charge *PixCharge) (*GatewayResult, error)
	// GetPayment 服务端对服务端回查权威状态，Webhook 侧绝不信任回调报文内嵌状态
	GetPayment(ctx context.Context, providerPaymentID string) (*GatewayResult, error)
}

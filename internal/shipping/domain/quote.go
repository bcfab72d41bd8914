// 生成摘要：运费报价领域模型。报价由外部物流网关计算，此处只定义端口与数据结构。
package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrQuoteUnavailable 物流网关不可用或无法报价
var ErrQuoteUnavailable = errors.New("cotacao de frete indisponivel")

// ItemDimensions 单件商品的体积与重量
type ItemDimensions struct {
	Quantity int             `json:"quantity"`
	WeightKg decimal.Decimal `json:"weight_kg"`
	WidthCm  decimal.Decimal `json:"width_cm"`
	HeightCm decimal.Decimal `json:"height_cm"`
	LengthCm decimal.Decimal `json:"length_cm"`
}

// QuoteRequest 运费报价请求
type QuoteRequest struct {
	OriginCEP      string           `json:"origin_cep"`
	DestinationCEP string           `json:"destination_cep"`
	Items          []ItemDimensions `json:"items"`
}

// QuoteOption 一种可选的配送方案
type QuoteOption struct {
	Service      string          `json:"service"`
	Price        decimal.Decimal `json:"price"`
	DeliveryDays int             `json:"delivery_days"`
}

// Quoter 运费报价端口
type Quoter interface {
	Quote(ctx context.Context, req *QuoteRequest) ([]QuoteOption, error)
}

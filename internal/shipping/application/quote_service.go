package application

import (
	"context"

	"github.com/wyfcoding/cardstore/internal/shipping/domain"
)

// QuoteService 运费报价查询服务
type QuoteService struct {
	quoter    domain.Quoter
	originCEP string
}

// NewQuoteService 创建运费报价服务；originCEP 为仓库发货邮编
func NewQuoteService(quoter domain.Quoter, originCEP string) *QuoteService {
	return &QuoteService{quoter: quoter, originCEP: originCEP}
}

// Quote 以仓库为起点计算到目的邮编的配送方案
func (s *QuoteService) Quote(ctx context.Context, destinationCEP string, items []domain.ItemDimensions) ([]domain.QuoteOption, error) {
	return s.quoter.Quote(ctx, &domain.QuoteRequest{
		OriginCEP:      s.originCEP,
		DestinationCEP: destinationCEP,
		Items:          items,
	})
}

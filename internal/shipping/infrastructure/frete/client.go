// 生成摘要：外部运费计算网关的 HTTP 客户端（SuperFrete 风格接口）。
package frete

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/cardstore/internal/shipping/domain"
)

// Client 运费网关客户端
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient 创建运费客户端
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type calculateRequest struct {
	From     endpoint  `json:"from"`
	To       endpoint  `json:"to"`
	Services string    `json:"services"`
	Products []product `json:"products"`
}

type endpoint struct {
	PostalCode string `json:"postal_code"`
}

type product struct {
	Quantity int             `json:"quantity"`
	Weight   decimal.Decimal `json:"weight"`
	Width    decimal.Decimal `json:"width"`
	Height   decimal.Decimal `json:"height"`
	Length   decimal.Decimal `json:"length"`
}

type calculateResponse struct {
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	DeliveryTime int             `json:"delivery_time"`
	Error        string          `json:"error,omitempty"`
}

// Quote 调用网关计算可选配送方案
func (c *Client) Quote(ctx context.Context, req *domain.QuoteRequest) ([]domain.QuoteOption, error) {
	payload := calculateRequest{
		From:     endpoint{PostalCode: req.OriginCEP},
		To:       endpoint{PostalCode: req.DestinationCEP},
		Services: "1,2,17",
	}
	for _, item := range req.Items {
		payload.Products = append(payload.Products, product{
			Quantity: item.Quantity,
			Weight:   item.WeightKg,
			Width:    item.WidthCm,
			Height:   item.HeightCm,
			Length:   item.LengthCm,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v0/calculator", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQuoteUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQuoteUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrQuoteUnavailable, resp.StatusCode)
	}

	var results []calculateResponse
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, fmt.Errorf("%w: resposta invalida: %v", domain.ErrQuoteUnavailable, err)
	}

	options := make([]domain.QuoteOption, 0, len(results))
	for _, r := range results {
		if r.Error != "" {
			continue
		}
		options = append(options, domain.QuoteOption{
			Service:      r.Name,
			Price:        r.Price,
			DeliveryDays: r.DeliveryTime,
		})
	}
	if len(options) == 0 {
		return nil, domain.ErrQuoteUnavailable
	}
	return options, nil
}

// 生成摘要：Mercado Pago 风格支付网关的 HTTP 客户端。
// 卡支付同步建单，PIX 返回二维码后异步确认；每次请求携带新的幂等键。
package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/cardstore/internal/payment/domain"
)

// Client Mercado Pago 支付客户端
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// NewClient 创建支付客户端
func NewClient(baseURL, accessToken string) *Client {
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

type paymentRequest struct {
	ExternalReference string          `json:"external_reference"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	Token             string          `json:"token,omitempty"`
	Installments      int             `json:"installments,omitempty"`
	PaymentMethodID   string          `json:"payment_method_id"`
	Payer             payer           `json:"payer"`
}

type payer struct {
	Email          string          `json:"email"`
	Identification *identification `json:"identification,omitempty"`
}

type identification struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

type paymentResponse struct {
	ID                 json.Number `json:"id"`
	Status             string      `json:"status"`
	StatusDetail       string      `json:"status_detail"`
	PointOfInteraction struct {
		TransactionData struct {
			QRCode       string `json:"qr_code"`
			QRCodeBase64 string `json:"qr_code_base64"`
			TicketURL    string `json:"ticket_url"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
}

// CreateCardPayment 同步卡支付
func (c *Client) CreateCardPayment(ctx context.Context, charge *domain.CardCharge) (*domain.GatewayResult, error) {
	methodID := "credit_card"
	if charge.Method == domain.MethodDebit {
		methodID = "debit_card"
	}
	req := paymentRequest{
		ExternalReference: charge.OrderNo,
		TransactionAmount: charge.Amount,
		Token:             charge.Token,
		Installments:      charge.Installments,
		PaymentMethodID:   methodID,
		Payer:             buildPayer(charge.PayerEmail, charge.PayerDoc),
	}
	return c.createPayment(ctx, &req)
}

// CreatePixPayment 创建 PIX 支付，返回二维码数据；确认经 Webhook 异步到达
func (c *Client) CreatePixPayment(ctx context.Context, charge *domain.PixCharge) (*domain.GatewayResult, error) {
	req := paymentRequest{
		ExternalReference: charge.OrderNo,
		TransactionAmount: charge.Amount,
		PaymentMethodID:   "pix",
		Payer:             buildPayer(charge.PayerEmail, charge.PayerDoc),
	}
	return c.createPayment(ctx, &req)
}

// GetPayment 回查权威支付状态
func (c *Client) GetPayment(ctx context.Context, providerPaymentID string) (*domain.GatewayResult, error) {
	url := fmt.Sprintf("%s/v1/payments/%s", c.baseURL, providerPaymentID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	return c.do(httpReq)
}

func (c *Client) createPayment(ctx context.Context, req *paymentRequest) (*domain.GatewayResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payments", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	// 网关层幂等，防止 HTTP 重试重复扣款
	httpReq.Header.Set("X-Idempotency-Key", uuid.NewString())
	return c.do(httpReq)
}

func (c *Client) do(req *http.Request) (*domain.GatewayResult, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("provedor rejeitou a requisicao: status %d body %s", resp.StatusCode, raw)
	}

	var pr paymentResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return nil, fmt.Errorf("%w: resposta invalida: %v", domain.ErrProviderUnavailable, err)
	}

	return &domain.GatewayResult{
		ProviderPaymentID: pr.ID.String(),
		Status:            domain.ProviderStatus(pr.Status),
		StatusDetail:      pr.StatusDetail,
		QRCode:            pr.PointOfInteraction.TransactionData.QRCode,
		QRCodeBase64:      pr.PointOfInteraction.TransactionData.QRCodeBase64,
		TicketURL:         pr.PointOfInteraction.TransactionData.TicketURL,
	}, nil
}

func buildPayer(email, doc string) payer {
	p := payer{Email: email}
	if doc != "" {
		p.Identification = &identification{Type: "CPF", Number: doc}
	}
	return p
}

// 生成摘要：支付提供方 Webhook 入口。
// 仅信任通知中的支付 ID，金额与状态一律回查提供方；任何处理结果都返回 200，
// 避免提供方无限重试。签名校验按配置可选开启。
package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
)

// PaymentConfirmer 回查提供方并落账支付确认
type PaymentConfirmer interface {
	ConfirmPayment(ctx context.Context, providerPaymentID string) error
}

// WebhookHandler 支付 Webhook 处理器
type WebhookHandler struct {
	confirmer PaymentConfirmer
	secret    string
}

// NewWebhookHandler 创建 Webhook 处理器；secret 为空时跳过签名校验
func NewWebhookHandler(confirmer PaymentConfirmer, secret string) *WebhookHandler {
	return &WebhookHandler{confirmer: confirmer, secret: secret}
}

// RegisterRoutes 注册路由
func (h *WebhookHandler) RegisterRoutes(r *gin.Engine) {
	r.POST("/payment-webhook", h.Handle)
}

type webhookPayload struct {
	Type string `json:"type"`
	Data struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

// Handle 接收支付状态通知
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		logging.Error(c.Request.Context(), "读取 webhook 请求体失败", "error", err)
		c.Status(http.StatusOK)
		return
	}

	if h.secret != "" && !h.verifySignature(c, body) {
		logging.Warn(c.Request.Context(), "webhook 签名校验失败")
		c.Status(http.StatusOK)
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		logging.Warn(c.Request.Context(), "webhook 负载解析失败", "error", err)
		c.Status(http.StatusOK)
		return
	}
	if payload.Type != "payment" || payload.Data.ID.String() == "" {
		c.Status(http.StatusOK)
		return
	}

	if err := h.confirmer.ConfirmPayment(c.Request.Context(), payload.Data.ID.String()); err != nil {
		// 记录后仍返回 200，失败的对账由提供方重发或人工回查兜底
		logging.Error(c.Request.Context(), "支付对账失败",
			"provider_payment_id", payload.Data.ID.String(), "error", err)
	}
	c.Status(http.StatusOK)
}

// verifySignature 校验 x-signature 头：格式 "ts=...,v1=<hmac-sha256(ts.body)>"
func (h *WebhookHandler) verifySignature(c *gin.Context, body []byte) bool {
	header := c.GetHeader("x-signature")
	if header == "" {
		return false
	}
	var ts, v1 string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "ts":
			ts = kv[1]
		case "v1":
			v1 = kv[1]
		}
	}
	if ts == "" || v1 == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(v1))
}

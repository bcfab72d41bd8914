// 生成摘要：订单 HTTP 接口：结账、订单查询、取消，以及后台发货/送达操作。
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	cartdomain "github.com/wyfcoding/cardstore/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/cardstore/internal/catalog/domain"
	"github.com/wyfcoding/cardstore/internal/order/application"
	"github.com/wyfcoding/cardstore/internal/order/domain"
	paymentdomain "github.com/wyfcoding/cardstore/internal/payment/domain"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"
)

// OrderHandler 订单 HTTP 处理器
type OrderHandler struct {
	checkout *application.CheckoutService
	cmd      *application.OrderCommandService
	query    *application.OrderQueryService
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(checkout *application.CheckoutService, cmd *application.OrderCommandService, query *application.OrderQueryService) *OrderHandler {
	return &OrderHandler{checkout: checkout, cmd: cmd, query: query}
}

// RegisterRoutes 注册路由
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/orders")
	{
		api.POST("/checkout", h.Checkout)
		api.GET("", h.ListOrders)
		api.GET("/:id", h.GetOrder)
		api.GET("/:id/status", h.GetOrderStatus)
		api.POST("/:id/cancel", h.CancelOrder)
	}
	admin := router.Group("/admin/orders")
	{
		admin.POST("/:id/ship", h.MarkShipped)
		admin.POST("/:id/deliver", h.MarkDelivered)
	}
}

// AddressRequest 收货地址
type AddressRequest struct {
	RecipientName string `json:"destinatario" binding:"required"`
	CEP           string `json:"cep" binding:"required"`
	Street        string `json:"rua" binding:"required"`
	Number        string `json:"numero" binding:"required"`
	City          string `json:"cidade" binding:"required"`
	State         string `json:"uf" binding:"required,len=2"`
}

// CheckoutRequest 结账请求
type CheckoutRequest struct {
	UserID         string         `json:"user_id" binding:"required"`
	Method         string         `json:"metodo" binding:"required,oneof=credito debito pix"`
	CardToken      string         `json:"card_token"`
	Installments   int            `json:"parcelas"`
	PayerEmail     string         `json:"email" binding:"required,email"`
	PayerDoc       string         `json:"cpf"`
	CouponCode     string         `json:"cupom"`
	ShippingCost   string         `json:"frete" binding:"required"`
	ShippingMethod string         `json:"servico_frete"`
	Address        AddressRequest `json:"endereco" binding:"required"`
}

// Checkout 结账
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	method := paymentdomain.Method(req.Method)
	if method != paymentdomain.MethodPix && req.CardToken == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "card_token obrigatorio para pagamento com cartao", "")
		return
	}
	shippingCost, err := decimal.NewFromString(req.ShippingCost)
	if err != nil || shippingCost.IsNegative() {
		response.ErrorWithStatus(c, http.StatusBadRequest, "frete invalido", "")
		return
	}

	result, err := h.checkout.Checkout(c.Request.Context(), application.CheckoutCommand{
		UserID:         req.UserID,
		Method:         method,
		CardToken:      req.CardToken,
		Installments:   req.Installments,
		PayerEmail:     req.PayerEmail,
		PayerDoc:       req.PayerDoc,
		CouponCode:     req.CouponCode,
		ShippingCost:   shippingCost,
		ShippingMethod: req.ShippingMethod,
		Address: domain.Address{
			RecipientName: req.Address.RecipientName,
			CEP:           req.Address.CEP,
			Street:        req.Address.Street,
			Number:        req.Address.Number,
			City:          req.Address.City,
			State:         req.Address.State,
		},
	})
	if err != nil {
		h.writeCheckoutError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *OrderHandler) writeCheckoutError(c *gin.Context, err error) {
	var insufficient *catalogdomain.ErrInsufficientStock
	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
	case errors.As(err, &insufficient):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "")
	case errors.Is(err, domain.ErrPaymentDeclined):
		response.ErrorWithStatus(c, http.StatusPaymentRequired, err.Error(), "")
	case errors.Is(err, cartdomain.ErrCouponInvalid), errors.Is(err, cartdomain.ErrCouponExpired):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, catalogdomain.ErrProductNotFound):
		response.ErrorWithStatus(c, http.StatusConflict, "produto do carrinho indisponivel", "")
	case errors.Is(err, paymentdomain.ErrProviderUnavailable):
		response.ErrorWithStatus(c, http.StatusBadGateway, err.Error(), "")
	default:
		logging.Error(c.Request.Context(), "Checkout failed", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
	}
}

// ListOrders 用户订单列表
func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "user_id obrigatorio", "")
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	orders, total, err := h.query.ListOrders(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to list orders", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, gin.H{"pedidos": orders, "total": total})
}

// GetOrder 订单详情
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}
	detail, err := h.query.GetOrder(c.Request.Context(), orderID, c.Query("user_id"))
	if err != nil {
		h.writeOrderError(c, err)
		return
	}
	response.Success(c, detail)
}

// GetOrderStatus 订单状态（PIX 支付轮询）
func (h *OrderHandler) GetOrderStatus(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}
	status, err := h.query.GetOrderStatus(c.Request.Context(), orderID, c.Query("user_id"))
	if err != nil {
		h.writeOrderError(c, err)
		return
	}
	response.Success(c, gin.H{"status": status})
}

// CancelRequest 取消请求
type CancelRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// CancelOrder 取消订单
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}
	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	if err := h.cmd.CancelOrder(c.Request.Context(), orderID, req.UserID); err != nil {
		h.writeOrderError(c, err)
		return
	}
	response.Success(c, gin.H{"status": domain.StatusCancelled})
}

// ShipRequest 发货请求
type ShipRequest struct {
	TrackingCode string `json:"codigo_rastreio" binding:"required"`
}

// MarkShipped 后台发货
func (h *OrderHandler) MarkShipped(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}
	var req ShipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	if err := h.cmd.MarkShipped(c.Request.Context(), orderID, req.TrackingCode); err != nil {
		h.writeOrderError(c, err)
		return
	}
	response.Success(c, gin.H{"status": domain.StatusShipped})
}

// MarkDelivered 后台标记送达
func (h *OrderHandler) MarkDelivered(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}
	if err := h.cmd.MarkDelivered(c.Request.Context(), orderID); err != nil {
		h.writeOrderError(c, err)
		return
	}
	response.Success(c, gin.H{"status": domain.StatusDelivered})
}

func (h *OrderHandler) orderID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "id invalido", "")
		return 0, false
	}
	return uint(id), true
}

func (h *OrderHandler) writeOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, application.ErrNotOrderOwner):
		response.ErrorWithStatus(c, http.StatusForbidden, err.Error(), "")
	case errors.Is(err, domain.ErrInvalidTransition):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "")
	default:
		logging.Error(c.Request.Context(), "Order operation failed", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
	}
}

package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/cardstore/internal/shipping/application"
	"github.com/wyfcoding/cardstore/internal/shipping/domain"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"
)

// ShippingHandler 运费报价 HTTP 处理器
type ShippingHandler struct {
	service *application.QuoteService
}

// NewShippingHandler 创建运费处理器
func NewShippingHandler(service *application.QuoteService) *ShippingHandler {
	return &ShippingHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *ShippingHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/shipping/quote", h.Quote)
}

// QuoteRequest 报价请求体
type QuoteRequest struct {
	DestinationCEP string                  `json:"cep_destino" binding:"required"`
	Items          []domain.ItemDimensions `json:"itens" binding:"required,min=1"`
}

// Quote 计算配送方案
func (h *ShippingHandler) Quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	options, err := h.service.Quote(c.Request.Context(), req.DestinationCEP, req.Items)
	if err != nil {
		if errors.Is(err, domain.ErrQuoteUnavailable) {
			response.ErrorWithStatus(c, http.StatusBadGateway, "cotacao de frete indisponivel", "")
			return
		}
		logging.Error(c.Request.Context(), "计算运费失败", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, options)
}

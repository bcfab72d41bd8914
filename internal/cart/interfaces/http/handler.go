package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/cardstore/internal/cart/application"
	"github.com/wyfcoding/cardstore/internal/cart/domain"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"
)

// CartHandler HTTP 处理器
type CartHandler struct {
	cmd   *application.CartCommandService
	query *application.CartQueryService
}

// NewCartHandler 创建 HTTP 处理器实例
func NewCartHandler(cmd *application.CartCommandService, query *application.CartQueryService) *CartHandler {
	return &CartHandler{cmd: cmd, query: query}
}

// RegisterRoutes 注册路由
func (h *CartHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/cart")
	{
		api.GET("", h.GetCart)
		api.POST("/items", h.AddItem)
		api.PUT("/items/:productId", h.UpdateQuantity)
		api.DELETE("/items/:productId", h.RemoveItem)
		api.DELETE("", h.ClearCart)
		api.POST("/coupon", h.ApplyCoupon)
	}
}

// GetCart 查询用户购物车；不存在时返回空车
func (h *CartHandler) GetCart(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "user_id is required", "")
		return
	}
	cart, err := h.query.GetCart(c.Request.Context(), userID)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to get cart", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, cart)
}

// AddItemRequest 加购请求
type AddItemRequest struct {
	UserID    string `json:"user_id" binding:"required"`
	ProductID uint   `json:"produto_id" binding:"required"`
	Quantity  int    `json:"quantidade" binding:"required,gt=0"`
}

// AddItem 加购
func (h *CartHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	if err := h.cmd.AddItem(c.Request.Context(), application.AddItemCommand{
		UserID:    req.UserID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	}); err != nil {
		logging.Error(c.Request.Context(), "Failed to add cart item", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, gin.H{"status": "ok"})
}

// UpdateQuantityRequest 数量调整请求
type UpdateQuantityRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	Quantity int    `json:"quantidade" binding:"required"`
}

// UpdateQuantity 调整数量
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	productID, err := parseProductID(c)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "produto_id invalido", "")
		return
	}
	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	if err := h.cmd.UpdateQuantity(c.Request.Context(), application.UpdateQuantityCommand{
		UserID:    req.UserID,
		ProductID: productID,
		Quantity:  req.Quantity,
	}); err != nil {
		if errors.Is(err, domain.ErrCartNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
			return
		}
		logging.Error(c.Request.Context(), "Failed to update cart item", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, gin.H{"status": "ok"})
}

// RemoveItem 移除条目
func (h *CartHandler) RemoveItem(c *gin.Context) {
	productID, err := parseProductID(c)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "produto_id invalido", "")
		return
	}
	userID := c.Query("user_id")
	if userID == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "user_id is required", "")
		return
	}
	if err := h.cmd.RemoveItem(c.Request.Context(), application.RemoveItemCommand{
		UserID:    userID,
		ProductID: productID,
	}); err != nil {
		if errors.Is(err, domain.ErrCartNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
			return
		}
		logging.Error(c.Request.Context(), "Failed to remove cart item", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, gin.H{"status": "ok"})
}

// ClearCart 清空
func (h *CartHandler) ClearCart(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "user_id is required", "")
		return
	}
	if err := h.cmd.ClearCart(c.Request.Context(), userID); err != nil {
		logging.Error(c.Request.Context(), "Failed to clear cart", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, gin.H{"status": "ok"})
}

// ApplyCouponRequest 应用券码请求
type ApplyCouponRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Code   string `json:"codigo"`
}

// ApplyCoupon 校验券码，返回券信息供前端展示折扣
func (h *CartHandler) ApplyCoupon(c *gin.Context) {
	var req ApplyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	coupon, err := h.cmd.ValidateCoupon(c.Request.Context(), req.UserID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCouponCodeEmpty):
			response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		case errors.Is(err, domain.ErrCouponInvalid), errors.Is(err, domain.ErrCouponExpired):
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
		default:
			logging.Error(c.Request.Context(), "Failed to validate coupon", "error", err)
			response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		}
		return
	}
	response.Success(c, gin.H{
		"codigo": coupon.Code,
		"tipo":   coupon.Type,
		"valor":  coupon.Value.String(),
	})
}

func parseProductID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("productId"), 10, 32)
	return uint(id), err
}

package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/cardstore/internal/catalog/application"
	"github.com/wyfcoding/cardstore/internal/catalog/domain"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"
)

// CatalogHandler HTTP 处理器
type CatalogHandler struct {
	cmd          *application.CatalogCommandService
	query        *application.CatalogQueryService
	lowThreshold int
}

// NewCatalogHandler 创建 HTTP 处理器实例
func NewCatalogHandler(cmd *application.CatalogCommandService, query *application.CatalogQueryService, lowThreshold int) *CatalogHandler {
	return &CatalogHandler{cmd: cmd, query: query, lowThreshold: lowThreshold}
}

// RegisterRoutes 注册路由
func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/products")
	{
		products.GET("", h.ListProducts)
		products.GET("/:id", h.GetProduct)
	}
	admin := router.Group("/admin/products")
	{
		admin.POST("", h.CreateProduct)
		admin.PUT("/:id", h.UpdateProduct)
		admin.DELETE("/:id", h.DeleteProduct)
		admin.POST("/:id/restock", h.Restock)
		admin.GET("/low-stock", h.ListLowStock)
	}
}

// ProductRequest 商品维护请求
type ProductRequest struct {
	Name            string `json:"nome" binding:"required"`
	Description     string `json:"descricao"`
	Price           string `json:"preco" binding:"required"`
	DiscountPercent string `json:"desconto_percentual"`
	ImageURL        string `json:"imagem_url"`
	Category        string `json:"categoria"`
	Stock           int    `json:"estoque"`
	OnSale          bool   `json:"promocao"`
	IsNew           bool   `json:"novo"`
}

func (req *ProductRequest) amounts() (price, discount decimal.Decimal, err error) {
	price, err = decimal.NewFromString(req.Price)
	if err != nil {
		return
	}
	discount = decimal.Zero
	if req.DiscountPercent != "" {
		discount, err = decimal.NewFromString(req.DiscountPercent)
	}
	return
}

// CreateProduct 创建商品
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	price, discount, err := req.amounts()
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "preco invalido", "")
		return
	}

	id, err := h.cmd.CreateProduct(c.Request.Context(), application.CreateProductCommand{
		Name:            req.Name,
		Description:     req.Description,
		Price:           price,
		DiscountPercent: discount,
		ImageURL:        req.ImageURL,
		Category:        req.Category,
		Stock:           req.Stock,
		OnSale:          req.OnSale,
		IsNew:           req.IsNew,
	})
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to create product", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, gin.H{"product_id": id})
}

// UpdateProduct 更新商品
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "id invalido", "")
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	price, discount, err := req.amounts()
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "preco invalido", "")
		return
	}

	err = h.cmd.UpdateProduct(c.Request.Context(), application.UpdateProductCommand{
		ID:              id,
		Name:            req.Name,
		Description:     req.Description,
		Price:           price,
		DiscountPercent: discount,
		ImageURL:        req.ImageURL,
		Category:        req.Category,
		OnSale:          req.OnSale,
		IsNew:           req.IsNew,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, gin.H{"product_id": id})
}

// DeleteProduct 删除商品
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "id invalido", "")
		return
	}
	if err := h.cmd.DeleteProduct(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, gin.H{"product_id": id})
}

// RestockRequest 补货请求
type RestockRequest struct {
	Quantity int `json:"quantidade" binding:"required,gt=0"`
}

// Restock 补货
func (h *CatalogHandler) Restock(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "id invalido", "")
		return
	}
	var req RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	if err := h.cmd.Restock(c.Request.Context(), application.RestockCommand{ProductID: id, Quantity: req.Quantity}); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, gin.H{"product_id": id})
}

// GetProduct 商品详情
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "id invalido", "")
		return
	}
	product, err := h.query.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, product)
}

// ListProducts 商品列表
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	products, total, err := h.query.ListProducts(c.Request.Context(), c.Query("categoria"), offset, limit)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to list products", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, gin.H{"items": products, "total": total})
}

// ListLowStock 低库存面板
func (h *CatalogHandler) ListLowStock(c *gin.Context) {
	products, err := h.query.ListLowStock(c.Request.Context(), h.lowThreshold)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to list low stock", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, products)
}

func (h *CatalogHandler) writeError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrProductNotFound) {
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
		return
	}
	logging.Error(c.Request.Context(), "catalog request failed", "error", err)
	response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
}

func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	return uint(id), err
}

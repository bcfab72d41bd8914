package application

import (
	"context"

	"github.com/wyfcoding/cardstore/internal/catalog/domain"
)

// CatalogQueryService 商品目录查询服务
type CatalogQueryService struct {
	repo domain.ProductRepository
}

// NewCatalogQueryService 创建商品目录查询服务实例
func NewCatalogQueryService(repo domain.ProductRepository) *CatalogQueryService {
	return &CatalogQueryService{repo: repo}
}

// GetProduct 获取商品详情
func (s *CatalogQueryService) GetProduct(ctx context.Context, id uint) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// ListProducts 分页列出商品
func (s *CatalogQueryService) ListProducts(ctx context.Context, category string, offset, limit int) ([]*domain.Product, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.List(ctx, category, offset, limit)
}

// ListLowStock 列出库存不高于阈值的商品（后台面板）
func (s *CatalogQueryService) ListLowStock(ctx context.Context, lowThreshold int) ([]*domain.Product, error) {
	return s.repo.ListBelowThreshold(ctx, lowThreshold)
}

package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/cardstore/internal/catalog/domain"
	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type productRepository struct{ db *gorm.DB }

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) domain.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) WithTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(contextx.WithTx(ctx, tx))
	})
}

// GetWithLock SELECT ... FOR UPDATE
func (r *productRepository) GetWithLock(ctx context.Context, id uint) (*domain.Product, error) {
	var p domain.Product
	err := r.getDB(ctx).WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrProductNotFound
	}
	return &p, err
}

func (r *productRepository) GetByID(ctx context.Context, id uint) (*domain.Product, error) {
	var p domain.Product
	err := r.getDB(ctx).WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrProductNotFound
	}
	return &p, err
}

func (r *productRepository) Save(ctx context.Context, product *domain.Product) error {
	return r.getDB(ctx).WithContext(ctx).Save(product).Error
}

func (r *productRepository) UpdateInfo(ctx context.Context, product *domain.Product) error {
	return r.getDB(ctx).WithContext(ctx).Model(product).
		Select("nome", "descricao", "preco", "desconto_percentual", "imagem_url", "categoria", "promocao", "novo").
		Updates(product).Error
}

func (r *productRepository) UpdateAlertFlags(ctx context.Context, productID uint, lowNotified, outNotified bool) error {
	return r.getDB(ctx).WithContext(ctx).Model(&domain.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{"low_stock_notified": lowNotified, "out_of_stock_notified": outNotified}).Error
}

func (r *productRepository) Delete(ctx context.Context, id uint) error {
	return r.getDB(ctx).WithContext(ctx).Delete(&domain.Product{}, id).Error
}

func (r *productRepository) List(ctx context.Context, category string, offset, limit int) ([]*domain.Product, int64, error) {
	var products []*domain.Product
	var total int64
	q := r.getDB(ctx).WithContext(ctx).Model(&domain.Product{})
	if category != "" {
		q = q.Where("categoria = ?", category)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("id DESC").Offset(offset).Limit(limit).Find(&products).Error
	return products, total, err
}

func (r *productRepository) ListBelowThreshold(ctx context.Context, lowThreshold int) ([]*domain.Product, error) {
	var products []*domain.Product
	err := r.getDB(ctx).WithContext(ctx).
		Where("estoque <= ?", lowThreshold).
		Order("estoque ASC, nome ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepository) RearmAlertsAbove(ctx context.Context, lowThreshold int) error {
	return r.getDB(ctx).WithContext(ctx).Model(&domain.Product{}).
		Where("estoque > ?", lowThreshold).
		Updates(map[string]any{"low_stock_notified": false, "out_of_stock_notified": false}).Error
}

func (r *productRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db
}

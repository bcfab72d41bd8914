package application

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/cardstore/internal/catalog/domain"
	"github.com/wyfcoding/pkg/messagequeue"
)

// CreateProductCommand 创建商品命令
type CreateProductCommand struct {
	Name            string
	Description     string
	Price           decimal.Decimal
	DiscountPercent decimal.Decimal
	ImageURL        string
	Category        string
	Stock           int
	OnSale          bool
	IsNew           bool
}

// UpdateProductCommand 更新商品命令
type UpdateProductCommand struct {
	ID              uint
	Name            string
	Description     string
	Price           decimal.Decimal
	DiscountPercent decimal.Decimal
	ImageURL        string
	Category        string
	OnSale          bool
	IsNew           bool
}

// RestockCommand 后台补货命令
type RestockCommand struct {
	ProductID uint
	Quantity  int
}

// CatalogCommandService 商品目录命令服务（后台维护）
type CatalogCommandService struct {
	repo      domain.ProductRepository
	ledger    *StockLedger
	publisher messagequeue.EventPublisher
}

// NewCatalogCommandService 创建商品目录命令服务实例
func NewCatalogCommandService(repo domain.ProductRepository, ledger *StockLedger, publisher messagequeue.EventPublisher) *CatalogCommandService {
	return &CatalogCommandService{
		repo:      repo,
		ledger:    ledger,
		publisher: publisher,
	}
}

// CreateProduct 处理创建商品
func (s *CatalogCommandService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (uint, error) {
	product := &domain.Product{
		Name:            cmd.Name,
		Description:     cmd.Description,
		Price:           cmd.Price,
		DiscountPercent: cmd.DiscountPercent,
		ImageURL:        cmd.ImageURL,
		Category:        cmd.Category,
		Stock:           cmd.Stock,
		OnSale:          cmd.OnSale,
		IsNew:           cmd.IsNew,
	}

	if err := s.repo.Save(ctx, product); err != nil {
		return 0, err
	}

	event := domain.ProductCreatedEvent{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price.String(),
		Stock:     product.Stock,
		Category:  product.Category,
		Timestamp: time.Now(),
	}
	_ = s.publisher.Publish(ctx, domain.ProductCreatedEventType, product.Name, event)

	return product.ID, nil
}

// UpdateProduct 处理更新商品信息。库存不走这里，见 Restock。
func (s *CatalogCommandService) UpdateProduct(ctx context.Context, cmd UpdateProductCommand) error {
	product, err := s.repo.GetByID(ctx, cmd.ID)
	if err != nil {
		return err
	}

	product.Name = cmd.Name
	product.Description = cmd.Description
	product.Price = cmd.Price
	product.DiscountPercent = cmd.DiscountPercent
	product.ImageURL = cmd.ImageURL
	product.Category = cmd.Category
	product.OnSale = cmd.OnSale
	product.IsNew = cmd.IsNew

	// 列级更新，不回写读取时的 estoque 和告警标志快照
	if err := s.repo.UpdateInfo(ctx, product); err != nil {
		return err
	}

	event := domain.ProductUpdatedEvent{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price.String(),
		Stock:     product.Stock,
		Timestamp: time.Now(),
	}
	_ = s.publisher.Publish(ctx, domain.ProductUpdatedEventType, product.Name, event)

	return nil
}

// Restock 后台补货，经台账回补以复位告警标志
func (s *CatalogCommandService) Restock(ctx context.Context, cmd RestockCommand) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		return s.ledger.Increment(txCtx, cmd.ProductID, cmd.Quantity)
	})
}

// DeleteProduct 处理删除商品
func (s *CatalogCommandService) DeleteProduct(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

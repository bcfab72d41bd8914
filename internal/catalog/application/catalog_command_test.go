package application

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/cardstore/internal/catalog/domain"
)

func TestUpdateProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("atualiza apenas colunas cadastrais", func(t *testing.T) {
		repo := newFakeProductRepo()
		seeded := domain.Product{
			Name:             "Charizard Holo",
			Price:            decimal.RequireFromString("150.00"),
			Stock:            8,
			LowStockNotified: true,
		}
		seeded.ID = 9
		repo.put(seeded)
		// 读与写之间另一笔结账把库存从 8 扣到 6
		repo.afterGet = func(r *fakeProductRepo) { r.setStock(9, 6) }

		svc := NewCatalogCommandService(repo, nil, &fakeAlertPublisher{})
		err := svc.UpdateProduct(ctx, UpdateProductCommand{
			ID:    9,
			Name:  "Charizard Holo PSA",
			Price: decimal.RequireFromString("180.00"),
		})
		require.NoError(t, err)

		got := repo.get(9)
		assert.Equal(t, "Charizard Holo PSA", got.Name)
		assert.True(t, got.Price.Equal(decimal.RequireFromString("180.00")))
		assert.Equal(t, 6, got.Stock)
		assert.True(t, got.LowStockNotified)
	})

	t.Run("produto inexistente", func(t *testing.T) {
		repo := newFakeProductRepo()
		svc := NewCatalogCommandService(repo, nil, &fakeAlertPublisher{})
		err := svc.UpdateProduct(ctx, UpdateProductCommand{ID: 404, Name: "x"})
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})
}

package application

import (
	"context"

	catalogdomain "github.com/wyfcoding/cardstore/internal/catalog/domain"
)

// StockLedger 库存台账端口，由 catalog 模块的应用服务实现。
// 所有方法都要求调用方已开启事务并通过 context 传递事务句柄。
type StockLedger interface {
	LockAndRead(ctx context.Context, productID uint) (*catalogdomain.Product, error)
	Decrement(ctx context.Context, product *catalogdomain.Product, qty int) error
	Increment(ctx context.Context, productID uint, qty int) error
}

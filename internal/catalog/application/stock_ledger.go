// 生成摘要：库存台账服务。行锁读取、扣减、回补，以及阈值告警事件的事务内发布。
// 假设：扣减只发生在支付确认之后；告警事件写入 Outbox，与库存变更同事务提交。
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/cardstore/internal/catalog/domain"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/messagequeue"
)

// StockLedger 库存台账服务。
// 低库存阈值由配置注入，不在调用点散落字面量。
type StockLedger struct {
	repo         domain.ProductRepository
	publisher    messagequeue.EventPublisher
	lowThreshold int
}

// NewStockLedger 创建库存台账服务实例
func NewStockLedger(repo domain.ProductRepository, publisher messagequeue.EventPublisher, lowThreshold int) *StockLedger {
	return &StockLedger{
		repo:         repo,
		publisher:    publisher,
		lowThreshold: lowThreshold,
	}
}

// LowThreshold 当前低库存阈值
func (l *StockLedger) LowThreshold() int { return l.lowThreshold }

// LockAndRead 行锁读取商品，必须在已开启的事务内调用。
// 同一商品上的并发结账在此串行化。
func (l *StockLedger) LockAndRead(ctx context.Context, productID uint) (*domain.Product, error) {
	return l.repo.GetWithLock(ctx, productID)
}

// Decrement 扣减已锁定商品的库存并落库；阈值穿越产生的告警事件随事务写入 Outbox。
func (l *StockLedger) Decrement(ctx context.Context, product *domain.Product, qty int) error {
	alerts, err := product.ApplyDecrement(qty, l.lowThreshold)
	if err != nil {
		return err
	}
	if err := l.repo.Save(ctx, product); err != nil {
		return fmt.Errorf("falha ao atualizar estoque: %w", err)
	}
	return l.publishAlerts(ctx, alerts)
}

// Increment 回补库存（取消返还、后台补货）。锁定、回补、复位告警标志。
func (l *StockLedger) Increment(ctx context.Context, productID uint, qty int) error {
	product, err := l.repo.GetWithLock(ctx, productID)
	if err != nil {
		return err
	}
	if err := product.ApplyIncrement(qty, l.lowThreshold); err != nil {
		return err
	}
	if err := l.repo.Save(ctx, product); err != nil {
		return fmt.Errorf("falha ao repor estoque: %w", err)
	}
	return nil
}

func (l *StockLedger) publishAlerts(ctx context.Context, alerts []domain.StockAlert) error {
	for _, alert := range alerts {
		event := domain.StockAlertEvent{
			ProductID: alert.ProductID,
			Name:      alert.Name,
			Stock:     alert.Stock,
			Kind:      alert.Kind,
			Timestamp: time.Now(),
		}
		topic := domain.StockLowEventType
		if alert.Kind == domain.AlertOutStock {
			topic = domain.StockOutEventType
		}
		if err := l.publisher.PublishInTx(ctx, contextx.GetTx(ctx), topic, alert.Name, event); err != nil {
			return fmt.Errorf("falha ao publicar alerta de estoque: %w", err)
		}
	}
	return nil
}

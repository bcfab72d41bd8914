// 生成摘要：库存周期巡检。兜底事务路径之外的库存变动（如人工改库），
// 复位已回升商品的告警标志，并为漏告警的商品补发 LOW/OUT 事件。
package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/wyfcoding/cardstore/internal/catalog/domain"
	"github.com/wyfcoding/pkg/messagequeue"
)

// StockWatcher 库存巡检工作器
type StockWatcher struct {
	repo         domain.ProductRepository
	publisher    messagequeue.EventPublisher
	lowThreshold int
	interval     time.Duration
	logger       *slog.Logger
}

// NewStockWatcher 创建库存巡检工作器
func NewStockWatcher(repo domain.ProductRepository, publisher messagequeue.EventPublisher, lowThreshold int, interval time.Duration, logger *slog.Logger) *StockWatcher {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &StockWatcher{
		repo:         repo,
		publisher:    publisher,
		lowThreshold: lowThreshold,
		interval:     interval,
		logger:       logger,
	}
}

// Run 阻塞运行，直到 ctx 取消。启动时先跑一轮。
func (w *StockWatcher) Run(ctx context.Context) error {
	if err := w.Scan(ctx); err != nil {
		w.logger.Error("initial stock scan failed", "error", err)
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.Scan(ctx); err != nil {
				w.logger.Error("periodic stock scan failed", "error", err)
			}
		}
	}
}

// Scan 单轮巡检：先复位回升商品的标志，再为区间内未告警的商品补发事件。
func (w *StockWatcher) Scan(ctx context.Context) error {
	if err := w.repo.RearmAlertsAbove(ctx, w.lowThreshold); err != nil {
		return err
	}

	products, err := w.repo.ListBelowThreshold(ctx, w.lowThreshold)
	if err != nil {
		return err
	}

	for _, p := range products {
		switch {
		case p.Stock == 0 && !p.OutOfStockNotified:
			if err := w.notify(ctx, p, domain.AlertOutStock); err != nil {
				w.logger.Error("failed to notify OUT", "product_id", p.ID, "error", err)
				continue
			}
			p.OutOfStockNotified = true
			p.LowStockNotified = true
		case p.Stock > 0 && !p.LowStockNotified:
			if err := w.notify(ctx, p, domain.AlertLowStock); err != nil {
				w.logger.Error("failed to notify LOW", "product_id", p.ID, "error", err)
				continue
			}
			p.LowStockNotified = true
		default:
			continue
		}
		// 标志落库只写两个标志列。巡检读的是无锁快照，整行写回
		// 会把并发结账已提交的扣减覆盖掉
		if err := w.repo.UpdateAlertFlags(ctx, p.ID, p.LowStockNotified, p.OutOfStockNotified); err != nil {
			w.logger.Error("failed to persist alert flags", "product_id", p.ID, "error", err)
		}
	}
	return nil
}

func (w *StockWatcher) notify(ctx context.Context, p *domain.Product, kind domain.StockAlertKind) error {
	event := domain.StockAlertEvent{
		ProductID: p.ID,
		Name:      p.Name,
		Stock:     p.Stock,
		Kind:      kind,
		Timestamp: time.Now(),
	}
	topic := domain.StockLowEventType
	if kind == domain.AlertOutStock {
		topic = domain.StockOutEventType
	}
	return w.publisher.Publish(ctx, topic, p.Name, event)
}

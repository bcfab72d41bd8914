// 生成摘要：订单与库存事件的 Kafka 消费入口。
// 事件经 Outbox 中继到达；邮件发送失败不重投（分发层已吞掉错误），
// 只有反序列化失败才返回错误。
package consumer

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
	catalogdomain "github.com/wyfcoding/cardstore/internal/catalog/domain"
	"github.com/wyfcoding/cardstore/internal/notification/application"
	orderdomain "github.com/wyfcoding/cardstore/internal/order/domain"
	"github.com/wyfcoding/pkg/logging"
)

// StoreEventHandler 店面事件处理器
type StoreEventHandler struct {
	dispatcher *application.Dispatcher
}

// NewStoreEventHandler 创建事件处理器
func NewStoreEventHandler(dispatcher *application.Dispatcher) *StoreEventHandler {
	return &StoreEventHandler{dispatcher: dispatcher}
}

// Topics 本处理器关心的全部主题
func (h *StoreEventHandler) Topics() []string {
	return []string{
		orderdomain.OrderConfirmationEventType,
		orderdomain.OrderShippedEventType,
		orderdomain.OrderDeliveredEventType,
		orderdomain.OrderCancelledEventType,
		catalogdomain.StockLowEventType,
		catalogdomain.StockOutEventType,
	}
}

// Handle 按主题分发事件
func (h *StoreEventHandler) Handle(ctx context.Context, msg kafkago.Message) error {
	switch msg.Topic {
	case orderdomain.OrderConfirmationEventType,
		orderdomain.OrderShippedEventType,
		orderdomain.OrderDeliveredEventType,
		orderdomain.OrderCancelledEventType:
		return h.handleOrderEvent(ctx, msg)
	case catalogdomain.StockLowEventType, catalogdomain.StockOutEventType:
		return h.handleStockEvent(ctx, msg)
	default:
		logging.Warn(ctx, "topico desconhecido ignorado", "topic", msg.Topic)
		return nil
	}
}

func (h *StoreEventHandler) handleOrderEvent(ctx context.Context, msg kafkago.Message) error {
	var event orderdomain.OrderEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		logging.Error(ctx, "evento de pedido invalido", "topic", msg.Topic, "error", err)
		return err
	}
	switch msg.Topic {
	case orderdomain.OrderConfirmationEventType:
		h.dispatcher.NotifyOrderPaid(ctx, &event)
	case orderdomain.OrderShippedEventType:
		h.dispatcher.NotifyOrderShipped(ctx, &event)
	case orderdomain.OrderDeliveredEventType:
		h.dispatcher.NotifyOrderDelivered(ctx, &event)
	case orderdomain.OrderCancelledEventType:
		h.dispatcher.NotifyOrderCancelled(ctx, &event)
	}
	return nil
}

func (h *StoreEventHandler) handleStockEvent(ctx context.Context, msg kafkago.Message) error {
	var event catalogdomain.StockAlertEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		logging.Error(ctx, "evento de estoque invalido", "topic", msg.Topic, "error", err)
		return err
	}
	h.dispatcher.NotifyStockAlert(ctx, &event)
	return nil
}

// 生成摘要：订单生命周期命令：Webhook 对账确认、取消返还库存、发货与送达。
// 对账只信任提供方支付 ID，金额与状态一律回查提供方；pago 流转由条件更新裁决，
// 天然幂等，重复通知不会二次扣库存。
package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/wyfcoding/cardstore/internal/order/domain"
	paymentdomain "github.com/wyfcoding/cardstore/internal/payment/domain"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/messagequeue"
)

// ErrNotOrderOwner 订单不属于该用户
var ErrNotOrderOwner = errors.New("pedido nao pertence ao usuario")

// OrderCommandService 订单生命周期命令服务
type OrderCommandService struct {
	orders    domain.OrderRepository
	payments  paymentdomain.PaymentRepository
	carts     CartCleaner
	ledger    StockLedger
	gateway   paymentdomain.Gateway
	publisher messagequeue.EventPublisher
}

// CartCleaner 支付确认后清空购物车的端口
type CartCleaner interface {
	Clear(ctx context.Context, userID string) error
}

// NewOrderCommandService 创建订单命令服务
func NewOrderCommandService(
	orders domain.OrderRepository,
	payments paymentdomain.PaymentRepository,
	carts CartCleaner,
	ledger StockLedger,
	gateway paymentdomain.Gateway,
	publisher messagequeue.EventPublisher,
) *OrderCommandService {
	return &OrderCommandService{
		orders:    orders,
		payments:  payments,
		carts:     carts,
		ledger:    ledger,
		gateway:   gateway,
		publisher: publisher,
	}
}

// ConfirmPayment Webhook 对账入口。
// 以提供方为准回查支付状态；approved 时条件更新抢占 pendente -> pago，
// 抢到的一方在同一事务内扣库存、清购物车并发布事件，没抢到直接返回。
func (s *OrderCommandService) ConfirmPayment(ctx context.Context, providerPaymentID string) error {
	authoritative, err := s.gateway.GetPayment(ctx, providerPaymentID)
	if err != nil {
		return fmt.Errorf("falha ao consultar pagamento no provedor: %w", err)
	}

	payment, err := s.payments.GetByProviderID(ctx, providerPaymentID)
	if err != nil {
		if errors.Is(err, paymentdomain.ErrPaymentNotFound) {
			// 不是本系统发起的支付，忽略
			logging.Warn(ctx, "pagamento desconhecido no webhook", "provider_payment_id", providerPaymentID)
			return nil
		}
		return err
	}

	switch authoritative.Status {
	case paymentdomain.ProviderApproved:
		return s.settleApproved(ctx, payment, authoritative)
	case paymentdomain.ProviderRejected, paymentdomain.ProviderCancelled:
		// 订单保持 pendente，用户可重新尝试支付
		return s.payments.UpdateStatus(ctx, payment.ID, paymentdomain.StatusDeclined, authoritative.StatusDetail)
	default:
		// pending / in_process 等中间态不落账
		return nil
	}
}

func (s *OrderCommandService) settleApproved(ctx context.Context, payment *paymentdomain.Payment, authoritative *paymentdomain.GatewayResult) error {
	return s.orders.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.orders.GetWithLock(txCtx, payment.OrderID)
		if err != nil {
			return err
		}
		won, err := s.orders.MarkPaid(txCtx, order.ID)
		if err != nil {
			return err
		}
		if !won {
			// 已被同步路径或先到的通知确认过
			return nil
		}
		if err := order.MarkPaid(txCtx); err != nil {
			return err
		}

		for i := range order.Items {
			item := &order.Items[i]
			product, err := s.ledger.LockAndRead(txCtx, item.ProductID)
			if err != nil {
				return err
			}
			if err := s.ledger.Decrement(txCtx, product, item.Quantity); err != nil {
				return err
			}
		}

		if err := s.orders.UpdateStatus(txCtx, order); err != nil {
			return err
		}
		if err := s.payments.UpdateStatus(txCtx, payment.ID, paymentdomain.StatusApproved, authoritative.StatusDetail); err != nil {
			return err
		}
		if err := s.carts.Clear(txCtx, order.UserID); err != nil {
			return err
		}
		return s.publishEvents(txCtx, order, domain.OrderPaidEventType, domain.OrderConfirmationEventType)
	})
}

// CancelOrder 取消订单并返还库存。仅 pago 状态可取消。
func (s *OrderCommandService) CancelOrder(ctx context.Context, orderID uint, userID string) error {
	return s.orders.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.orders.GetWithLock(txCtx, orderID)
		if err != nil {
			return err
		}
		if userID != "" && order.UserID != userID {
			return ErrNotOrderOwner
		}
		if err := order.Cancel(txCtx); err != nil {
			return err
		}
		for i := range order.Items {
			item := &order.Items[i]
			if err := s.ledger.Increment(txCtx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		if err := s.orders.UpdateStatus(txCtx, order); err != nil {
			return err
		}
		return s.publishEvents(txCtx, order, domain.OrderCancelledEventType)
	})
}

// MarkShipped 后台标记发货并记录物流单号
func (s *OrderCommandService) MarkShipped(ctx context.Context, orderID uint, trackingCode string) error {
	return s.orders.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.orders.GetWithLock(txCtx, orderID)
		if err != nil {
			return err
		}
		if err := order.MarkShipped(txCtx, trackingCode); err != nil {
			return err
		}
		if err := s.orders.UpdateStatus(txCtx, order); err != nil {
			return err
		}
		return s.publishEvents(txCtx, order, domain.OrderShippedEventType)
	})
}

// MarkDelivered 后台标记送达
func (s *OrderCommandService) MarkDelivered(ctx context.Context, orderID uint) error {
	return s.orders.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.orders.GetWithLock(txCtx, orderID)
		if err != nil {
			return err
		}
		if err := order.MarkDelivered(txCtx); err != nil {
			return err
		}
		if err := s.orders.UpdateStatus(txCtx, order); err != nil {
			return err
		}
		return s.publishEvents(txCtx, order, domain.OrderDeliveredEventType)
	})
}

func (s *OrderCommandService) publishEvents(txCtx context.Context, order *domain.Order, topics ...string) error {
	event := domain.NewOrderEvent(order)
	for _, topic := range topics {
		if err := s.publisher.PublishInTx(txCtx, contextx.GetTx(txCtx), topic, order.OrderNo, event); err != nil {
			return fmt.Errorf("falha ao publicar evento %s: %w", topic, err)
		}
	}
	return nil
}

package application

import (
	"context"
	"errors"

	"github.com/wyfcoding/cardstore/internal/order/domain"
	paymentdomain "github.com/wyfcoding/cardstore/internal/payment/domain"
)

// OrderQueryService 订单查询服务
type OrderQueryService struct {
	orders   domain.OrderRepository
	payments paymentdomain.PaymentRepository
}

// NewOrderQueryService 创建订单查询服务
func NewOrderQueryService(orders domain.OrderRepository, payments paymentdomain.PaymentRepository) *OrderQueryService {
	return &OrderQueryService{orders: orders, payments: payments}
}

// OrderDetail 订单详情视图
type OrderDetail struct {
	Order   *domain.Order          `json:"pedido"`
	Payment *paymentdomain.Payment `json:"pagamento,omitempty"`
}

// GetOrder 查询订单详情；userID 非空时校验归属
func (s *OrderQueryService) GetOrder(ctx context.Context, orderID uint, userID string) (*OrderDetail, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if userID != "" && order.UserID != userID {
		return nil, ErrNotOrderOwner
	}
	detail := &OrderDetail{Order: order}
	payment, err := s.payments.GetByOrderID(ctx, orderID)
	switch {
	case err == nil:
		detail.Payment = payment
	case errors.Is(err, paymentdomain.ErrPaymentNotFound):
		// 没有支付记录的订单（卡被拒后重试前）正常返回
	default:
		return nil, err
	}
	return detail, nil
}

// ListOrders 查询用户订单列表
func (s *OrderQueryService) ListOrders(ctx context.Context, userID string, page, pageSize int) ([]domain.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.orders.ListByUser(ctx, userID, (page-1)*pageSize, pageSize)
}

// GetOrderStatus 查询订单当前状态（前端轮询 PIX 支付结果用）
func (s *OrderQueryService) GetOrderStatus(ctx context.Context, orderID uint, userID string) (domain.Status, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return "", err
	}
	if userID != "" && order.UserID != userID {
		return "", ErrNotOrderOwner
	}
	return order.Status, nil
}

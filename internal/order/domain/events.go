package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// 订单事件主题
const (
	OrderConfirmationEventType = "order.confirmation"
	OrderPaidEventType         = "order.paid"
	OrderShippedEventType      = "order.shipped"
	OrderDeliveredEventType    = "order.delivered"
	OrderCancelledEventType    = "order.cancelled"
)

// OrderEvent 订单生命周期事件
type OrderEvent struct {
	OrderID      uint            `json:"order_id"`
	OrderNo      string          `json:"order_no"`
	UserID       string          `json:"user_id"`
	Email        string          `json:"email"`
	Status       Status          `json:"status"`
	Total        decimal.Decimal `json:"total"`
	TrackingCode string          `json:"tracking_code,omitempty"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// NewOrderEvent 由订单当前快照生成事件
func NewOrderEvent(o *Order) *OrderEvent {
	return &OrderEvent{
		OrderID:      o.ID,
		OrderNo:      o.OrderNo,
		UserID:       o.UserID,
		Email:        o.CustomerEmail,
		Status:       o.Status,
		Total:        o.Total,
		TrackingCode: o.TrackingCode,
		OccurredAt:   time.Now(),
	}
}

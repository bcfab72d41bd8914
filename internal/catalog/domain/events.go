package domain

import "time"

// 事件主题
const (
	StockLowEventType       = "stock.low"
	StockOutEventType       = "stock.out"
	ProductCreatedEventType = "product.created"
	ProductUpdatedEventType = "product.updated"
)

// StockAlertEvent 库存阈值告警事件，经 Outbox 中继到消息队列
type StockAlertEvent struct {
	ProductID uint           `json:"product_id"`
	Name      string         `json:"name"`
	Stock     int            `json:"stock"`
	Kind      StockAlertKind `json:"kind"`
	Timestamp time.Time      `json:"timestamp"`
}

// ProductCreatedEvent 商品创建事件
type ProductCreatedEvent struct {
	ProductID uint      `json:"product_id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Stock     int       `json:"stock"`
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
}

// ProductUpdatedEvent 商品更新事件
type ProductUpdatedEvent struct {
	ProductID uint      `json:"product_id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Stock     int       `json:"stock"`
	Timestamp time.Time `json:"timestamp"`
}

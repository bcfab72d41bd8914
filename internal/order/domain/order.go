// 生成摘要：订单聚合根与订单项。
// 订单项在下单时刻冻结折后单价，后续改价不影响已生成的订单；
// 状态流转由状态机约束：pendente → pago → enviado → entregue，pago 可转 cancelado。
// 假设：订单金额精度由 decimal 保证，持久化为 DECIMAL(20,2)。
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/fsm"
	"github.com/wyfcoding/pkg/idgen"
	"gorm.io/gorm"
)

// Status 订单状态
type Status string

const (
	StatusPending   Status = "pendente"
	StatusPaid      Status = "pago"
	StatusShipped   Status = "enviado"
	StatusDelivered Status = "entregue"
	StatusCancelled Status = "cancelado"
)

var (
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = errors.New("pedido nao encontrado")
	// ErrEmptyCart 购物车为空，无法下单
	ErrEmptyCart = errors.New("carrinho vazio")
	// ErrPaymentDeclined 支付被提供方拒绝
	ErrPaymentDeclined = errors.New("pagamento recusado")
	// ErrInvalidTransition 非法的订单状态流转
	ErrInvalidTransition = errors.New("transicao de status invalida")
)

// Order 订单聚合根
type Order struct {
	gorm.Model
	OrderNo        string          `gorm:"column:numero;type:varchar(32);uniqueIndex;not null" json:"numero"`
	UserID         string          `gorm:"column:user_id;type:varchar(36);index;not null" json:"user_id"`
	Status         Status          `gorm:"column:status;type:varchar(16);index;not null" json:"status"`
	ItemsTotal     decimal.Decimal `gorm:"column:total_itens;type:decimal(20,2);not null" json:"total_itens"`
	Discount       decimal.Decimal `gorm:"column:desconto;type:decimal(20,2);not null" json:"desconto"`
	ShippingCost   decimal.Decimal `gorm:"column:frete;type:decimal(20,2);not null" json:"frete"`
	ShippingMethod string          `gorm:"column:servico_frete;type:varchar(32)" json:"servico_frete,omitempty"`
	Total          decimal.Decimal `gorm:"column:total;type:decimal(20,2);not null" json:"total"`
	CouponCode     string          `gorm:"column:cupom;type:varchar(32)" json:"cupom,omitempty"`
	CustomerEmail  string          `gorm:"column:email;type:varchar(100);not null" json:"email"`
	RecipientName  string          `gorm:"column:destinatario;type:varchar(100);not null" json:"destinatario"`
	AddressCEP     string          `gorm:"column:endereco_cep;type:varchar(16);not null" json:"endereco_cep"`
	AddressStreet  string          `gorm:"column:endereco_rua;type:varchar(200);not null" json:"endereco_rua"`
	AddressNumber  string          `gorm:"column:endereco_numero;type:varchar(16);not null" json:"endereco_numero"`
	AddressCity    string          `gorm:"column:endereco_cidade;type:varchar(100);not null" json:"endereco_cidade"`
	AddressState   string          `gorm:"column:endereco_uf;type:varchar(2);not null" json:"endereco_uf"`
	TrackingCode   string          `gorm:"column:codigo_rastreio;type:varchar(64)" json:"codigo_rastreio,omitempty"`
	PaidAt         *time.Time      `gorm:"column:pago_em" json:"pago_em,omitempty"`
	ShippedAt      *time.Time      `gorm:"column:enviado_em" json:"enviado_em,omitempty"`
	DeliveredAt    *time.Time      `gorm:"column:entregue_em" json:"entregue_em,omitempty"`
	CancelledAt    *time.Time      `gorm:"column:cancelado_em" json:"cancelado_em,omitempty"`
	Items          []OrderItem     `gorm:"foreignKey:OrderID" json:"itens"`
	fsm            *fsm.Machine[string, string]
}

func (Order) TableName() string {
	return "pedidos"
}

// OrderItem 订单项，单价在下单时刻冻结
type OrderItem struct {
	gorm.Model
	OrderID     uint            `gorm:"column:pedido_id;index;not null" json:"pedido_id"`
	ProductID   uint            `gorm:"column:produto_id;not null" json:"produto_id"`
	ProductName string          `gorm:"column:produto_nome;type:varchar(200);not null" json:"produto_nome"`
	UnitPrice   decimal.Decimal `gorm:"column:preco_unitario;type:decimal(20,2);not null" json:"preco_unitario"`
	Quantity    int             `gorm:"column:quantidade;not null" json:"quantidade"`
}

func (OrderItem) TableName() string {
	return "pedido_itens"
}

// LineTotal 单行小计
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Address 收货地址快照
type Address struct {
	RecipientName string
	CEP           string
	Street        string
	Number        string
	City          string
	State         string
}

// NewOrder 创建待支付订单。items 的单价必须已是折后冻结价。
func NewOrder(userID string, items []OrderItem, discount, shippingCost decimal.Decimal, couponCode string, addr Address) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	itemsTotal := decimal.Zero
	for i := range items {
		itemsTotal = itemsTotal.Add(items[i].LineTotal())
	}
	if discount.GreaterThan(itemsTotal) {
		discount = itemsTotal
	}
	o := &Order{
		OrderNo:       fmt.Sprintf("PED%d", idgen.GenID()),
		UserID:        userID,
		Status:        StatusPending,
		ItemsTotal:    itemsTotal,
		Discount:      discount,
		ShippingCost:  shippingCost,
		Total:         itemsTotal.Sub(discount).Add(shippingCost),
		CouponCode:    couponCode,
		RecipientName: addr.RecipientName,
		AddressCEP:    addr.CEP,
		AddressStreet: addr.Street,
		AddressNumber: addr.Number,
		AddressCity:   addr.City,
		AddressState:  addr.State,
		Items:         items,
	}
	o.initFSM()
	return o, nil
}

func (o *Order) initFSM() {
	m := fsm.NewMachine[string, string](string(o.Status))
	m.AddTransition(string(StatusPending), "PAY", string(StatusPaid))
	m.AddTransition(string(StatusPaid), "SHIP", string(StatusShipped))
	m.AddTransition(string(StatusShipped), "DELIVER", string(StatusDelivered))
	m.AddTransition(string(StatusPaid), "CANCEL", string(StatusCancelled))
	o.fsm = m
}

// InitFSM 确保状态机已初始化
func (o *Order) InitFSM() {
	if o.fsm == nil {
		o.initFSM()
	}
}

// MarkPaid 支付确认
func (o *Order) MarkPaid(ctx context.Context) error {
	o.InitFSM()
	if err := o.fsm.Trigger(ctx, "PAY"); err != nil {
		return fmt.Errorf("%w: %s -> pago", ErrInvalidTransition, o.Status)
	}
	o.Status = StatusPaid
	now := time.Now()
	o.PaidAt = &now
	return nil
}

// MarkShipped 标记发货并记录物流单号
func (o *Order) MarkShipped(ctx context.Context, trackingCode string) error {
	o.InitFSM()
	if err := o.fsm.Trigger(ctx, "SHIP"); err != nil {
		return fmt.Errorf("%w: %s -> enviado", ErrInvalidTransition, o.Status)
	}
	o.Status = StatusShipped
	o.TrackingCode = trackingCode
	now := time.Now()
	o.ShippedAt = &now
	return nil
}

// MarkDelivered 标记送达
func (o *Order) MarkDelivered(ctx context.Context) error {
	o.InitFSM()
	if err := o.fsm.Trigger(ctx, "DELIVER"); err != nil {
		return fmt.Errorf("%w: %s -> entregue", ErrInvalidTransition, o.Status)
	}
	o.Status = StatusDelivered
	now := time.Now()
	o.DeliveredAt = &now
	return nil
}

// Cancel 取消订单。仅已支付订单可取消，取消后库存需回补。
func (o *Order) Cancel(ctx context.Context) error {
	o.InitFSM()
	if err := o.fsm.Trigger(ctx, "CANCEL"); err != nil {
		return fmt.Errorf("%w: %s -> cancelado", ErrInvalidTransition, o.Status)
	}
	o.Status = StatusCancelled
	now := time.Now()
	o.CancelledAt = &now
	return nil
}

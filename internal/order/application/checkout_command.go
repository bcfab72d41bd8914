// 生成摘要：结账编排。
// 卡支付为同步路径：授权通过则在同一事务内扣库存、落订单、清购物车；
// 被拒则整体回滚，不留任何痕迹。PIX 为异步路径：订单以 pendente 落库，
// 库存扣减推迟到 Webhook 确认。
// 假设：同一用户不会并发提交结账；跨商品加锁按 ID 升序避免死锁。
package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	cartdomain "github.com/wyfcoding/cardstore/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/cardstore/internal/catalog/domain"
	"github.com/wyfcoding/cardstore/internal/order/domain"
	paymentdomain "github.com/wyfcoding/cardstore/internal/payment/domain"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/messagequeue"
)

// CheckoutCommand 结账命令
type CheckoutCommand struct {
	UserID         string
	Method         paymentdomain.Method
	CardToken      string
	Installments   int
	PayerEmail     string
	PayerDoc       string
	CouponCode     string
	ShippingCost   decimal.Decimal
	ShippingMethod string
	Address        domain.Address
}

// CheckoutResult 结账结果。PIX 路径携带二维码数据供前端展示。
type CheckoutResult struct {
	Order         *domain.Order         `json:"pedido"`
	PaymentStatus paymentdomain.Status  `json:"status_pagamento"`
	StatusDetail  string                `json:"detalhe_status,omitempty"`
	QRCode        string                `json:"qr_code,omitempty"`
	QRCodeBase64  string                `json:"qr_code_base64,omitempty"`
	TicketURL     string                `json:"ticket_url,omitempty"`
}

// CheckoutService 结账编排服务
type CheckoutService struct {
	orders    domain.OrderRepository
	payments  paymentdomain.PaymentRepository
	carts     cartdomain.CartRepository
	coupons   cartdomain.CouponRepository
	ledger    StockLedger
	gateway   paymentdomain.Gateway
	publisher messagequeue.EventPublisher
}

// NewCheckoutService 创建结账服务
func NewCheckoutService(
	orders domain.OrderRepository,
	payments paymentdomain.PaymentRepository,
	carts cartdomain.CartRepository,
	coupons cartdomain.CouponRepository,
	ledger StockLedger,
	gateway paymentdomain.Gateway,
	publisher messagequeue.EventPublisher,
) *CheckoutService {
	return &CheckoutService{
		orders:    orders,
		payments:  payments,
		carts:     carts,
		coupons:   coupons,
		ledger:    ledger,
		gateway:   gateway,
		publisher: publisher,
	}
}

type lockedLine struct {
	product  *catalogdomain.Product
	quantity int
}

// Checkout 执行结账
func (s *CheckoutService) Checkout(ctx context.Context, cmd CheckoutCommand) (*CheckoutResult, error) {
	cart, err := s.carts.GetByUserID(ctx, cmd.UserID)
	if err != nil {
		if errors.Is(err, cartdomain.ErrCartNotFound) {
			return nil, domain.ErrEmptyCart
		}
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	coupon, err := s.resolveCoupon(ctx, cmd.UserID, cmd.CouponCode)
	if err != nil {
		return nil, err
	}

	var result *CheckoutResult
	err = s.orders.WithTx(ctx, func(txCtx context.Context) error {
		lines, orderItems, err := s.lockLines(txCtx, cart)
		if err != nil {
			return err
		}

		itemsTotal := decimal.Zero
		for i := range orderItems {
			itemsTotal = itemsTotal.Add(orderItems[i].LineTotal())
		}
		discount := decimal.Zero
		couponCode := ""
		if coupon != nil {
			discount = coupon.DiscountOn(itemsTotal)
			couponCode = coupon.Code
		}

		order, err := domain.NewOrder(cmd.UserID, orderItems, discount, cmd.ShippingCost, couponCode, cmd.Address)
		if err != nil {
			return err
		}
		order.CustomerEmail = cmd.PayerEmail
		order.ShippingMethod = cmd.ShippingMethod
		if err := s.orders.Create(txCtx, order); err != nil {
			return fmt.Errorf("falha ao criar pedido: %w", err)
		}

		if coupon != nil {
			used, err := s.coupons.MarkUsed(txCtx, coupon.ID)
			if err != nil {
				return err
			}
			if !used {
				return cartdomain.ErrCouponInvalid
			}
		}

		if cmd.Method == paymentdomain.MethodPix {
			result, err = s.chargePix(txCtx, order, cmd)
			return err
		}
		result, err = s.chargeCard(txCtx, order, lines, cmd)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// resolveCoupon 校验优惠券；核销在订单事务内通过条件更新完成
func (s *CheckoutService) resolveCoupon(ctx context.Context, userID, code string) (*cartdomain.Coupon, error) {
	if code == "" {
		return nil, nil
	}
	coupon, err := s.coupons.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := coupon.Validate(userID, time.Now()); err != nil {
		return nil, err
	}
	return coupon, nil
}

// lockLines 按商品 ID 升序行锁全部条目，并在扣减前先整体校验库存。
// 单价在此刻冻结为折后价，写入订单项。
func (s *CheckoutService) lockLines(txCtx context.Context, cart *cartdomain.Cart) ([]lockedLine, []domain.OrderItem, error) {
	items := make([]cartdomain.CartItem, len(cart.Items))
	copy(items, cart.Items)
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

	lines := make([]lockedLine, 0, len(items))
	orderItems := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		product, err := s.ledger.LockAndRead(txCtx, item.ProductID)
		if err != nil {
			return nil, nil, err
		}
		if !product.HasSufficientStock(item.Quantity) {
			return nil, nil, &catalogdomain.ErrInsufficientStock{ProductName: product.Name}
		}
		lines = append(lines, lockedLine{product: product, quantity: item.Quantity})
		orderItems = append(orderItems, domain.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.UnitPrice(),
			Quantity:    item.Quantity,
		})
	}
	return lines, orderItems, nil
}

// chargeCard 同步卡支付。授权通过才扣库存、置 pago、清购物车；被拒直接回滚。
func (s *CheckoutService) chargeCard(txCtx context.Context, order *domain.Order, lines []lockedLine, cmd CheckoutCommand) (*CheckoutResult, error) {
	res, err := s.gateway.CreateCardPayment(txCtx, &paymentdomain.CardCharge{
		OrderNo:      order.OrderNo,
		Amount:       order.Total,
		Token:        cmd.CardToken,
		Installments: cmd.Installments,
		Method:       cmd.Method,
		PayerEmail:   cmd.PayerEmail,
		PayerDoc:     cmd.PayerDoc,
	})
	if err != nil {
		return nil, err
	}
	if res.Status != paymentdomain.ProviderApproved {
		return nil, fmt.Errorf("%w: %s", domain.ErrPaymentDeclined, res.StatusDetail)
	}

	for _, line := range lines {
		if err := s.ledger.Decrement(txCtx, line.product, line.quantity); err != nil {
			return nil, err
		}
	}

	if err := order.MarkPaid(txCtx); err != nil {
		return nil, err
	}
	won, err := s.orders.MarkPaid(txCtx, order.ID)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, fmt.Errorf("pedido %s ja confirmado", order.OrderNo)
	}
	if err := s.orders.UpdateStatus(txCtx, order); err != nil {
		return nil, err
	}

	payment := &paymentdomain.Payment{
		OrderID:           order.ID,
		Method:            cmd.Method,
		Status:            paymentdomain.StatusApproved,
		ProviderPaymentID: res.ProviderPaymentID,
		StatusDetail:      res.StatusDetail,
	}
	if err := s.payments.Save(txCtx, payment); err != nil {
		return nil, err
	}
	if err := s.carts.Clear(txCtx, order.UserID); err != nil {
		return nil, err
	}
	if err := s.publishPaid(txCtx, order); err != nil {
		return nil, err
	}
	return &CheckoutResult{
		Order:         order,
		PaymentStatus: paymentdomain.StatusApproved,
		StatusDetail:  res.StatusDetail,
	}, nil
}

// chargePix 异步 PIX 支付。订单保持 pendente，不扣库存、不清购物车，
// 确认由 Webhook 对账路径完成。
func (s *CheckoutService) chargePix(txCtx context.Context, order *domain.Order, cmd CheckoutCommand) (*CheckoutResult, error) {
	res, err := s.gateway.CreatePixPayment(txCtx, &paymentdomain.PixCharge{
		OrderNo:    order.OrderNo,
		Amount:     order.Total,
		PayerEmail: cmd.PayerEmail,
		PayerDoc:   cmd.PayerDoc,
	})
	if err != nil {
		return nil, err
	}

	payment := &paymentdomain.Payment{
		OrderID:           order.ID,
		Method:            paymentdomain.MethodPix,
		Status:            paymentdomain.StatusPending,
		ProviderPaymentID: res.ProviderPaymentID,
		StatusDetail:      res.StatusDetail,
	}
	if err := s.payments.Save(txCtx, payment); err != nil {
		return nil, err
	}
	return &CheckoutResult{
		Order:         order,
		PaymentStatus: paymentdomain.StatusPending,
		StatusDetail:  res.StatusDetail,
		QRCode:        res.QRCode,
		QRCodeBase64:  res.QRCodeBase64,
		TicketURL:     res.TicketURL,
	}, nil
}

func (s *CheckoutService) publishPaid(txCtx context.Context, order *domain.Order) error {
	event := domain.NewOrderEvent(order)
	for _, topic := range []string{domain.OrderPaidEventType, domain.OrderConfirmationEventType} {
		if err := s.publisher.PublishInTx(txCtx, contextx.GetTx(txCtx), topic, order.OrderNo, event); err != nil {
			return fmt.Errorf("falha ao publicar evento %s: %w", topic, err)
		}
	}
	return nil
}

package application

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	cartdomain "github.com/wyfcoding/cardstore/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/cardstore/internal/catalog/domain"
	"github.com/wyfcoding/cardstore/internal/order/domain"
	paymentdomain "github.com/wyfcoding/cardstore/internal/payment/domain"
)

// fakeStore 以内存表模拟仓储。WithTx 持有事务锁串行化并发事务（对应行锁语义），
// 失败时恢复快照模拟回滚。
type fakeStore struct {
	txMu      sync.Mutex
	mu        sync.Mutex
	threshold int

	products map[uint]catalogdomain.Product
	carts    map[string]cartdomain.Cart
	coupons  map[uint]cartdomain.Coupon
	orders   map[uint]domain.Order
	payments map[uint]paymentdomain.Payment

	nextOrderID   uint
	nextPaymentID uint
	alerts        []catalogdomain.StockAlert

	// failDecrementAt 让第 N 次扣减返回 decrementErr，模拟写库中途失败
	failDecrementAt int
	decrementCalls  int
	decrementErr    error

	// paymentLookupErr 让支付查询返回基础设施错误
	paymentLookupErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		threshold: 5,
		products:  map[uint]catalogdomain.Product{},
		carts:     map[string]cartdomain.Cart{},
		coupons:   map[uint]cartdomain.Coupon{},
		orders:    map[uint]domain.Order{},
		payments:  map[uint]paymentdomain.Payment{},
	}
}

type storeSnapshot struct {
	products map[uint]catalogdomain.Product
	carts    map[string]cartdomain.Cart
	coupons  map[uint]cartdomain.Coupon
	orders   map[uint]domain.Order
	payments map[uint]paymentdomain.Payment

	nextOrderID   uint
	nextPaymentID uint
	alerts        []catalogdomain.StockAlert
}

func (s *fakeStore) snapshot() storeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := storeSnapshot{
		products:      map[uint]catalogdomain.Product{},
		carts:         map[string]cartdomain.Cart{},
		coupons:       map[uint]cartdomain.Coupon{},
		orders:        map[uint]domain.Order{},
		payments:      map[uint]paymentdomain.Payment{},
		nextOrderID:   s.nextOrderID,
		nextPaymentID: s.nextPaymentID,
		alerts:        append([]catalogdomain.StockAlert(nil), s.alerts...),
	}
	for k, v := range s.products {
		snap.products[k] = v
	}
	for k, v := range s.carts {
		v.Items = append([]cartdomain.CartItem(nil), v.Items...)
		snap.carts[k] = v
	}
	for k, v := range s.coupons {
		snap.coupons[k] = v
	}
	for k, v := range s.orders {
		v.Items = append([]domain.OrderItem(nil), v.Items...)
		snap.orders[k] = v
	}
	for k, v := range s.payments {
		snap.payments[k] = v
	}
	return snap
}

func (s *fakeStore) restore(snap storeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = snap.products
	s.carts = snap.carts
	s.coupons = snap.coupons
	s.orders = snap.orders
	s.payments = snap.payments
	s.nextOrderID = snap.nextOrderID
	s.nextPaymentID = snap.nextPaymentID
	s.alerts = snap.alerts
}

// --- domain.OrderRepository ---

func (s *fakeStore) WithTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	snap := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *fakeStore) Create(ctx context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextOrderID++
	order.ID = s.nextOrderID
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	s.orders[order.ID] = *order
	return nil
}

func (s *fakeStore) GetByID(ctx context.Context, orderID uint) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	order.Items = append([]domain.OrderItem(nil), order.Items...)
	return &order, nil
}

func (s *fakeStore) GetWithLock(ctx context.Context, orderID uint) (*domain.Order, error) {
	return s.GetByID(ctx, orderID)
}

func (s *fakeStore) ListByUser(ctx context.Context, userID string, offset, limit int) ([]domain.Order, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var orders []domain.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			orders = append(orders, o)
		}
	}
	return orders, int64(len(orders)), nil
}

func (s *fakeStore) MarkPaid(ctx context.Context, orderID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok || order.Status != domain.StatusPending {
		return false, nil
	}
	order.Status = domain.StatusPaid
	s.orders[orderID] = order
	return true, nil
}

func (s *fakeStore) UpdateStatus(ctx context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	stored.Status = order.Status
	stored.TrackingCode = order.TrackingCode
	stored.PaidAt = order.PaidAt
	stored.ShippedAt = order.ShippedAt
	stored.DeliveredAt = order.DeliveredAt
	stored.CancelledAt = order.CancelledAt
	s.orders[order.ID] = stored
	return nil
}

// --- cartdomain.CartRepository（Save 由适配器补齐） ---

func (s *fakeStore) GetByUserID(ctx context.Context, userID string) (*cartdomain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart, ok := s.carts[userID]
	if !ok {
		return nil, cartdomain.ErrCartNotFound
	}
	cart.Items = append([]cartdomain.CartItem(nil), cart.Items...)
	return &cart, nil
}

func (s *fakeStore) Clear(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
	return nil
}

// --- cartdomain.CouponRepository（Save 由适配器补齐） ---

func (s *fakeStore) GetByCode(ctx context.Context, code string) (*cartdomain.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.coupons {
		if c.Code == code {
			c := c
			return &c, nil
		}
	}
	return nil, cartdomain.ErrCouponInvalid
}

func (s *fakeStore) MarkUsed(ctx context.Context, couponID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.coupons[couponID]
	if !ok || c.Used {
		return false, nil
	}
	c.Used = true
	s.coupons[couponID] = c
	return true, nil
}

// --- StockLedger port ---

func (s *fakeStore) LockAndRead(ctx context.Context, productID uint) (*catalogdomain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return nil, catalogdomain.ErrProductNotFound
	}
	return &p, nil
}

func (s *fakeStore) Decrement(ctx context.Context, product *catalogdomain.Product, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decrementCalls++
	if s.failDecrementAt > 0 && s.decrementCalls == s.failDecrementAt {
		return s.decrementErr
	}
	alerts, err := product.ApplyDecrement(qty, s.threshold)
	if err != nil {
		return err
	}
	s.products[product.ID] = *product
	s.alerts = append(s.alerts, alerts...)
	return nil
}

func (s *fakeStore) Increment(ctx context.Context, productID uint, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return catalogdomain.ErrProductNotFound
	}
	if err := p.ApplyIncrement(qty, s.threshold); err != nil {
		return err
	}
	s.products[productID] = p
	return nil
}

// paymentRepoAdapter 以独立类型实现 PaymentRepository，避免与订单仓储的方法名冲突
type paymentRepoAdapter struct{ store *fakeStore }

func (a paymentRepoAdapter) Save(ctx context.Context, payment *paymentdomain.Payment) error {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	if payment.ID == 0 {
		a.store.nextPaymentID++
		payment.ID = a.store.nextPaymentID
	}
	a.store.payments[payment.ID] = *payment
	return nil
}

func (a paymentRepoAdapter) GetByOrderID(ctx context.Context, orderID uint) (*paymentdomain.Payment, error) {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	if a.store.paymentLookupErr != nil {
		return nil, a.store.paymentLookupErr
	}
	for _, p := range a.store.payments {
		if p.OrderID == orderID {
			p := p
			return &p, nil
		}
	}
	return nil, paymentdomain.ErrPaymentNotFound
}

func (a paymentRepoAdapter) GetByProviderID(ctx context.Context, providerPaymentID string) (*paymentdomain.Payment, error) {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	for _, p := range a.store.payments {
		if p.ProviderPaymentID == providerPaymentID {
			p := p
			return &p, nil
		}
	}
	return nil, paymentdomain.ErrPaymentNotFound
}

func (a paymentRepoAdapter) UpdateStatus(ctx context.Context, paymentID uint, status paymentdomain.Status, detail string) error {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	p, ok := a.store.payments[paymentID]
	if !ok {
		return paymentdomain.ErrPaymentNotFound
	}
	p.Status = status
	p.StatusDetail = detail
	a.store.payments[paymentID] = p
	return nil
}

// cartRepoAdapter 补齐 CartRepository 接口中与结账无关的 Save 方法
type cartRepoAdapter struct{ *fakeStore }

func (a cartRepoAdapter) Save(ctx context.Context, cart *cartdomain.Cart) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.carts[cart.UserID] = *cart
	return nil
}

// couponRepoAdapter 补齐 CouponRepository 接口的 Save 方法
type couponRepoAdapter struct{ *fakeStore }

func (a couponRepoAdapter) Save(ctx context.Context, coupon *cartdomain.Coupon) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if coupon.ID == 0 {
		coupon.ID = uint(len(a.coupons) + 1)
	}
	a.coupons[coupon.ID] = *coupon
	return nil
}

// --- 网关与发布器 ---

type fakeGateway struct {
	mu         sync.Mutex
	cardResult *paymentdomain.GatewayResult
	cardErr    error
	pixResult  *paymentdomain.GatewayResult
	pixErr     error
	getResult  *paymentdomain.GatewayResult
	getErr     error

	cardCharges []paymentdomain.CardCharge
	pixCharges  []paymentdomain.PixCharge
}

func (g *fakeGateway) CreateCardPayment(ctx context.Context, charge *paymentdomain.CardCharge) (*paymentdomain.GatewayResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cardCharges = append(g.cardCharges, *charge)
	return g.cardResult, g.cardErr
}

func (g *fakeGateway) CreatePixPayment(ctx context.Context, charge *paymentdomain.PixCharge) (*paymentdomain.GatewayResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pixCharges = append(g.pixCharges, *charge)
	return g.pixResult, g.pixErr
}

func (g *fakeGateway) GetPayment(ctx context.Context, providerPaymentID string) (*paymentdomain.GatewayResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.getResult, g.getErr
}

type publishedEvent struct {
	topic string
	key   string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) Publish(ctx context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{topic: topic, key: key})
	return nil
}

func (p *fakePublisher) PublishInTx(ctx context.Context, tx any, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{topic: topic, key: key})
	return nil
}

func (p *fakePublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.topic)
	}
	return out
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedProduct(s *fakeStore, id uint, name, price string, discountPercent string, stock int) {
	p := catalogdomain.Product{
		Name:            name,
		Price:           dec(price),
		DiscountPercent: dec(discountPercent),
		Stock:           stock,
	}
	p.ID = id
	s.products[id] = p
}

func seedCart(s *fakeStore, userID string, items ...cartdomain.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart := cartdomain.Cart{UserID: userID, Items: items}
	cart.ID = 1
	s.carts[userID] = cart
}

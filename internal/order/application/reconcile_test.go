package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cartdomain "github.com/wyfcoding/cardstore/internal/cart/domain"
	"github.com/wyfcoding/cardstore/internal/order/domain"
	paymentdomain "github.com/wyfcoding/cardstore/internal/payment/domain"
)

// seedPixOrder 预置一个 PIX 结账后的状态：pendente 订单 + pendente 支付，库存未扣。
func seedPixOrder(t *testing.T, store *fakeStore) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder("user-1",
		[]domain.OrderItem{{ProductID: 1, ProductName: "Booster Box", UnitPrice: dec("50.00"), Quantity: 2}},
		dec("0"), dec("0"), "", domain.Address{RecipientName: "Ana", CEP: "01001-000", Street: "Praca", Number: "1", City: "SP", State: "SP"})
	require.NoError(t, err)
	order.CustomerEmail = "ana@example.com"
	require.NoError(t, store.Create(context.Background(), order))

	payments := paymentRepoAdapter{store: store}
	require.NoError(t, payments.Save(context.Background(), &paymentdomain.Payment{
		OrderID:           order.ID,
		Method:            paymentdomain.MethodPix,
		Status:            paymentdomain.StatusPending,
		ProviderPaymentID: "mp-3001",
	}))
	return order
}

func newOrderCommandService(store *fakeStore, gateway *fakeGateway, publisher *fakePublisher) *OrderCommandService {
	return NewOrderCommandService(
		store,
		paymentRepoAdapter{store: store},
		cartRepoAdapter{store},
		store,
		gateway,
		publisher,
	)
}

func TestConfirmPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("approved confirmation settles exactly once", func(t *testing.T) {
		store := newFakeStore()
		seedProduct(store, 1, "Booster Box", "50.00", "0", 10)
		seedCart(store, "user-1", cartdomain.CartItem{ProductID: 1, Quantity: 2})
		order := seedPixOrder(t, store)

		gateway := &fakeGateway{getResult: &paymentdomain.GatewayResult{
			ProviderPaymentID: "mp-3001",
			Status:            paymentdomain.ProviderApproved,
			StatusDetail:      "accredited",
		}}
		publisher := &fakePublisher{}
		svc := newOrderCommandService(store, gateway, publisher)

		require.NoError(t, svc.ConfirmPayment(ctx, "mp-3001"))

		assert.Equal(t, domain.StatusPaid, store.orders[order.ID].Status)
		assert.Equal(t, 8, store.products[1].Stock)
		_, stillThere := store.carts["user-1"]
		assert.False(t, stillThere, "cart cleared on confirmation")
		assert.Equal(t, paymentdomain.StatusApproved, store.payments[1].Status)
		assert.Contains(t, publisher.topics(), domain.OrderPaidEventType)

		// 重复通知：无二次扣减、无重复事件
		eventsBefore := len(publisher.topics())
		require.NoError(t, svc.ConfirmPayment(ctx, "mp-3001"))
		assert.Equal(t, 8, store.products[1].Stock, "stock decremented exactly once")
		assert.Len(t, publisher.topics(), eventsBefore, "no duplicate events")
	})

	t.Run("rejected confirmation keeps order pendente", func(t *testing.T) {
		store := newFakeStore()
		seedProduct(store, 1, "Booster Box", "50.00", "0", 10)
		order := seedPixOrder(t, store)

		gateway := &fakeGateway{getResult: &paymentdomain.GatewayResult{
			ProviderPaymentID: "mp-3001",
			Status:            paymentdomain.ProviderRejected,
			StatusDetail:      "expired",
		}}
		svc := newOrderCommandService(store, gateway, &fakePublisher{})

		require.NoError(t, svc.ConfirmPayment(ctx, "mp-3001"))
		assert.Equal(t, domain.StatusPending, store.orders[order.ID].Status)
		assert.Equal(t, 10, store.products[1].Stock)
		assert.Equal(t, paymentdomain.StatusDeclined, store.payments[1].Status)
	})

	t.Run("unknown provider payment id is a no-op", func(t *testing.T) {
		store := newFakeStore()
		gateway := &fakeGateway{getResult: &paymentdomain.GatewayResult{
			ProviderPaymentID: "mp-9999",
			Status:            paymentdomain.ProviderApproved,
		}}
		svc := newOrderCommandService(store, gateway, &fakePublisher{})

		assert.NoError(t, svc.ConfirmPayment(ctx, "mp-9999"))
		assert.Empty(t, store.orders)
	})

	t.Run("pending status does not settle", func(t *testing.T) {
		store := newFakeStore()
		seedProduct(store, 1, "Booster Box", "50.00", "0", 10)
		order := seedPixOrder(t, store)

		gateway := &fakeGateway{getResult: &paymentdomain.GatewayResult{
			ProviderPaymentID: "mp-3001",
			Status:            paymentdomain.ProviderInProcess,
		}}
		svc := newOrderCommandService(store, gateway, &fakePublisher{})

		require.NoError(t, svc.ConfirmPayment(ctx, "mp-3001"))
		assert.Equal(t, domain.StatusPending, store.orders[order.ID].Status)
		assert.Equal(t, 10, store.products[1].Stock)
	})

	t.Run("provider outage surfaces as error", func(t *testing.T) {
		store := newFakeStore()
		gateway := &fakeGateway{getErr: paymentdomain.ErrProviderUnavailable}
		svc := newOrderCommandService(store, gateway, &fakePublisher{})

		err := svc.ConfirmPayment(ctx, "mp-3001")
		assert.ErrorIs(t, err, paymentdomain.ErrProviderUnavailable)
	})
}

func TestCancelOrder(t *testing.T) {
	ctx := context.Background()

	paidOrder := func(t *testing.T, store *fakeStore) *domain.Order {
		t.Helper()
		order := seedPixOrder(t, store)
		won, err := store.MarkPaid(ctx, order.ID)
		require.NoError(t, err)
		require.True(t, won)
		// 支付确认时库存已扣
		product := store.products[1]
		product.Stock -= 2
		store.products[1] = product
		return order
	}

	t.Run("cancel restores stock and emits event", func(t *testing.T) {
		store := newFakeStore()
		seedProduct(store, 1, "Booster Box", "50.00", "0", 10)
		order := paidOrder(t, store)
		publisher := &fakePublisher{}
		svc := newOrderCommandService(store, &fakeGateway{}, publisher)

		require.NoError(t, svc.CancelOrder(ctx, order.ID, "user-1"))

		assert.Equal(t, domain.StatusCancelled, store.orders[order.ID].Status)
		assert.Equal(t, 10, store.products[1].Stock, "stock restored")
		assert.Contains(t, publisher.topics(), domain.OrderCancelledEventType)
	})

	t.Run("pendente order cannot be cancelled", func(t *testing.T) {
		store := newFakeStore()
		seedProduct(store, 1, "Booster Box", "50.00", "0", 10)
		order := seedPixOrder(t, store)
		svc := newOrderCommandService(store, &fakeGateway{}, &fakePublisher{})

		err := svc.CancelOrder(ctx, order.ID, "user-1")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		assert.Equal(t, 10, store.products[1].Stock)
	})

	t.Run("other users cannot cancel the order", func(t *testing.T) {
		store := newFakeStore()
		seedProduct(store, 1, "Booster Box", "50.00", "0", 10)
		order := paidOrder(t, store)
		svc := newOrderCommandService(store, &fakeGateway{}, &fakePublisher{})

		err := svc.CancelOrder(ctx, order.ID, "user-2")
		assert.ErrorIs(t, err, ErrNotOrderOwner)
	})

	t.Run("double cancel fails on second attempt", func(t *testing.T) {
		store := newFakeStore()
		seedProduct(store, 1, "Booster Box", "50.00", "0", 10)
		order := paidOrder(t, store)
		svc := newOrderCommandService(store, &fakeGateway{}, &fakePublisher{})

		require.NoError(t, svc.CancelOrder(ctx, order.ID, "user-1"))
		err := svc.CancelOrder(ctx, order.ID, "user-1")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		assert.Equal(t, 10, store.products[1].Stock, "no double restitution")
	})
}

func TestShippingLifecycle(t *testing.T) {
	ctx := context.Background()

	store := newFakeStore()
	seedProduct(store, 1, "Booster Box", "50.00", "0", 10)
	order := seedPixOrder(t, store)
	won, err := store.MarkPaid(ctx, order.ID)
	require.NoError(t, err)
	require.True(t, won)

	publisher := &fakePublisher{}
	svc := newOrderCommandService(store, &fakeGateway{}, publisher)

	require.NoError(t, svc.MarkShipped(ctx, order.ID, "BR123456789BR"))
	assert.Equal(t, domain.StatusShipped, store.orders[order.ID].Status)
	assert.Equal(t, "BR123456789BR", store.orders[order.ID].TrackingCode)
	assert.Contains(t, publisher.topics(), domain.OrderShippedEventType)

	require.NoError(t, svc.MarkDelivered(ctx, order.ID))
	assert.Equal(t, domain.StatusDelivered, store.orders[order.ID].Status)
	assert.Contains(t, publisher.topics(), domain.OrderDeliveredEventType)

	// 已送达订单不可再次发货
	assert.ErrorIs(t, svc.MarkShipped(ctx, order.ID, "BR2"), domain.ErrInvalidTransition)
}

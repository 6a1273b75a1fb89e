package services_test

import (
	"context"
	"sync"
	"testing"

	"tokocommerce/internal/apperrors"
	"tokocommerce/internal/models"
	"tokocommerce/internal/repositories"
	"tokocommerce/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func placeOne(t *testing.T, store repositories.Store) *models.Order {
	t.Helper()
	p := addProduct(t, store, "Headphones", "99.90", 3)
	order, err := services.NewOrderService(store, nil, nil, nil, services.OrderOptions{}).
		PlaceOrder(context.Background(), alice, []models.OrderItemRequest{{ProductID: p.ID, Quantity: 1}})
	require.NoError(t, err)
	return order
}

func TestPaymentService_RecordPayment(t *testing.T) {
	eachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		order := placeOne(t, store)
		events := new(MockEventPublisher)
		events.On("Publish", services.EventPaymentRecorded, mock.Anything).Return(nil).Once()
		service := services.NewPaymentService(store, events, nil, nil)

		payment, err := service.RecordPayment(ctx, order.ID, "")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPaid, payment.Status)
		assert.Equal(t, order.ID, payment.OrderID)
		assert.False(t, payment.PaidAt.IsZero())

		_, err = service.RecordPayment(ctx, order.ID, models.PaymentStatusPaid)
		assert.True(t, apperrors.Is(err, apperrors.KindConflict), "got %v", err)

		stored, err := store.Orders().GetByID(ctx, order.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.Payment)
		assert.Equal(t, payment.ID, stored.Payment.ID)
		assert.Equal(t, models.OrderStatusPending, stored.Status, "recording a payment leaves the order status alone")
		events.AssertExpectations(t)
	})
}

func TestPaymentService_RecordPaymentErrors(t *testing.T) {
	eachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		order := placeOne(t, store)
		service := services.NewPaymentService(store, nil, nil, nil)

		_, err := service.RecordPayment(ctx, "missing", "")
		assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
		_, err = service.RecordPayment(ctx, "", "")
		assert.True(t, apperrors.Is(err, apperrors.KindValidation))
		_, err = service.RecordPayment(ctx, order.ID, "refunded")
		assert.True(t, apperrors.Is(err, apperrors.KindValidation))

		pending, err := service.RecordPayment(ctx, order.ID, models.PaymentStatusPending)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPending, pending.Status)
	})
}

func TestPaymentService_ConcurrentDoublePayment(t *testing.T) {
	store := repositories.NewMemoryStore()
	order := placeOne(t, store)
	service := services.NewPaymentService(store, nil, nil, nil)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.RecordPayment(context.Background(), order.ID, "")
		}(i)
	}
	wg.Wait()

	conflicts := 0
	for _, err := range errs {
		if apperrors.Is(err, apperrors.KindConflict) {
			conflicts++
		} else {
			assert.NoError(t, err)
		}
	}
	assert.Equal(t, 1, conflicts)
}

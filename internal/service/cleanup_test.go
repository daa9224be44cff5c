package service

import (
	"context"
	"testing"
	"time"

	"anime-storefront/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupService_CancelsOnlyExpiredPendingPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	old := f.seedOrder(t, "ORD2610190101", model.OrderStatusPendingPayment)
	recent := f.seedOrder(t, "ORD2610190102", model.OrderStatusPendingPayment)
	paid := f.seedOrder(t, "ORD2610190103", model.OrderStatusPaid)
	require.NoError(t, f.db.Model(&model.Order{}).Where("id IN ?", []uint{old.ID, paid.ID}).
		Update("order_date", now.Add(-3*time.Hour)).Error)
	require.NoError(t, f.db.Model(&model.Order{}).Where("id = ?", recent.ID).
		Update("order_date", now.Add(-time.Hour)).Error)

	svc := NewCleanupService(f.orders, 2*time.Hour, func() time.Time { return now }, testLogger())

	stats, err := svc.GetPendingOrderStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalPending)
	assert.Equal(t, int64(1), stats.ExpiredPending)
	assert.Equal(t, int64(1), stats.RecentPending)

	result, err := svc.CancelExpiredPendingOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.CancelledCount)
	require.Len(t, result.Orders, 1)
	assert.Equal(t, old.OrderNumber, result.Orders[0].OrderNumber)

	got := f.order(t, old.ID)
	assert.Equal(t, model.OrderStatusCancelled, got.Status)
	assert.Equal(t, model.PaymentStatusFailed, got.PaymentStatus)
	assert.Contains(t, got.Notes, "payment not completed within 2h0m0s")

	assert.Equal(t, model.OrderStatusPendingPayment, f.order(t, recent.ID).Status)
	assert.Equal(t, model.OrderStatusPaid, f.order(t, paid.ID).Status)

	result, err = svc.CancelExpiredPendingOrders(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.CancelledCount)
	assert.Empty(t, result.Orders)
}

func TestCleanupService_DefaultTimeout(t *testing.T) {
	f := newFixture(t)
	svc := NewCleanupService(f.orders, 0, nil, testLogger())

	stats, err := svc.GetPendingOrderStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultPendingTimeout.String(), stats.Timeout)
}

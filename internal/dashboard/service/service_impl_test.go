package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/dashboard/service"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	orderrepo "github.com/smallbiznis/storefront/internal/order/repository"
	paymentdomain "github.com/smallbiznis/storefront/internal/payment/domain"
	paymentrepo "github.com/smallbiznis/storefront/internal/payment/repository"
	"github.com/smallbiznis/storefront/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var seq int64

func placePaid(t *testing.T, db *gorm.DB, status orderdomain.Status, amount int64, paidAt time.Time) {
	t.Helper()
	ctx := context.Background()
	seq++
	order := &orderdomain.Order{
		ID:         seq,
		ExternalID: fmt.Sprintf("order_%d", seq),
		Email:      "buyer@example.com",
		Amount:     amount,
		Currency:   "IDR",
		Status:     status,
		CreatedAt:  paidAt.Add(-time.Minute).UTC(),
		UpdatedAt:  paidAt.UTC(),
	}
	require.NoError(t, orderrepo.Provide().Insert(ctx, db, order))

	payment := &paymentdomain.Payment{
		ID:         seq,
		OrderID:    order.ID,
		InvoiceID:  fmt.Sprintf("inv_%d", seq),
		ExternalID: order.ExternalID,
		Amount:     amount,
		Currency:   "IDR",
		Status:     status,
		CreatedAt:  order.CreatedAt,
		UpdatedAt:  paidAt.UTC(),
	}
	if status == orderdomain.StatusPaid {
		p := paidAt.UTC()
		payment.PaidAt = &p
	}
	require.NoError(t, paymentrepo.Provide().Insert(ctx, db, payment))
}

func TestSummaryAggregatesInStoreTimezone(t *testing.T) {
	seq = 0
	db := dbtest.Open(t)
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	// 2024-03-15 10:00 in Jakarta.
	now := time.Date(2024, 3, 15, 3, 0, 0, 0, time.UTC)
	placePaid(t, db, orderdomain.StatusPaid, 100000, time.Date(2024, 3, 15, 8, 0, 0, 0, jakarta))
	placePaid(t, db, orderdomain.StatusPaid, 200000, time.Date(2024, 3, 15, 0, 30, 0, 0, jakarta))
	placePaid(t, db, orderdomain.StatusPaid, 300000, time.Date(2024, 3, 10, 12, 0, 0, 0, jakarta))
	placePaid(t, db, orderdomain.StatusPaid, 400000, time.Date(2024, 2, 20, 12, 0, 0, 0, jakarta))
	placePaid(t, db, orderdomain.StatusPending, 500000, time.Date(2024, 3, 15, 9, 0, 0, 0, jakarta))
	placePaid(t, db, orderdomain.StatusFailed, 600000, time.Date(2024, 3, 14, 9, 0, 0, 0, jakarta))

	svc := service.NewService(service.Params{
		DB:    db,
		Log:   zap.NewNop(),
		Cfg:   config.Config{StoreCurrency: "idr", StoreTimezone: "Asia/Jakarta"},
		Clock: clock.NewFakeClock(now),
	})

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(6), summary.Orders.Total)
	assert.Equal(t, int64(4), summary.Orders.Paid)
	assert.Equal(t, int64(1), summary.Orders.Pending)
	assert.Equal(t, int64(1), summary.Orders.Failed)

	assert.Equal(t, "IDR", summary.Revenue.Currency)
	assert.Equal(t, int64(1000000), summary.Revenue.Total)
	assert.Equal(t, int64(600000), summary.Revenue.Month)
	assert.Equal(t, int64(300000), summary.Revenue.Today)

	require.Len(t, summary.SalesChart, 7)
	assert.Equal(t, "2024-03-09", summary.SalesChart[0].Date)
	assert.Equal(t, "2024-03-15", summary.SalesChart[6].Date)
	assert.Equal(t, int64(300000), summary.SalesChart[6].Total)
	assert.Equal(t, int64(2), summary.SalesChart[6].Count)
	assert.Equal(t, int64(300000), summary.SalesChart[1].Total)
	assert.Zero(t, summary.SalesChart[2].Total)

	require.Len(t, summary.RecentOrders, 6)
	assert.Equal(t, "order_5", summary.RecentOrders[0].ExternalID)
}

func TestSummaryOnEmptyStore(t *testing.T) {
	svc := service.NewService(service.Params{
		DB:    dbtest.Open(t),
		Log:   zap.NewNop(),
		Cfg:   config.Config{StoreTimezone: "Not/AZone"},
		Clock: clock.NewFakeClock(time.Date(2024, 3, 15, 3, 0, 0, 0, time.UTC)),
	})

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Orders.Total)
	assert.Zero(t, summary.Revenue.Total)
	assert.Len(t, summary.SalesChart, 7)
	assert.NotNil(t, summary.RecentOrders)
}

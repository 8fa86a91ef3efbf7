package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/storefront/internal/customer/domain"
	"github.com/smallbiznis/storefront/internal/customer/repository"
	"github.com/smallbiznis/storefront/internal/customer/service"
	"github.com/smallbiznis/storefront/pkg/db/dbtest"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func insertOrder(t *testing.T, db *gorm.DB, id int64, externalID string, createdAt time.Time) {
	t.Helper()
	err := db.Exec(
		`INSERT INTO orders (id, external_id, email, amount, currency, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, externalID, "buyer@example.com", 1000, "IDR", "PENDING", createdAt, createdAt,
	).Error
	if err != nil {
		t.Fatalf("insert order: %v", err)
	}
}

func TestAppendOrderIsIdempotent(t *testing.T) {
	db := dbtest.Open(t)
	repo := repository.Provide()
	ctx := context.Background()
	now := time.Now().UTC()
	insertOrder(t, db, 1, "order_a", now)

	entry := domain.OrderEntry{CustomerID: "acct_1", OrderID: 1, CreatedAt: now}
	for i := 0; i < 2; i++ {
		if err := repo.AppendOrder(ctx, db, entry); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	var count int64
	if err := db.Raw("SELECT COUNT(*) FROM customer_orders").Scan(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single history row, got %d", count)
	}
}

func TestListOrdersPaginates(t *testing.T) {
	db := dbtest.Open(t)
	repo := repository.Provide()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	for i := int64(1); i <= 3; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		insertOrder(t, db, i, "order_"+string(rune('a'+i)), at)
		if err := repo.AppendOrder(ctx, db, domain.OrderEntry{CustomerID: "acct_1", OrderID: i, CreatedAt: at}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	insertOrder(t, db, 9, "order_other", base)
	if err := repo.AppendOrder(ctx, db, domain.OrderEntry{CustomerID: "acct_2", OrderID: 9, CreatedAt: base}); err != nil {
		t.Fatalf("append: %v", err)
	}

	svc := service.New(service.Params{DB: db, Log: zap.NewNop(), Repo: repo})

	first, err := svc.ListOrders(ctx, domain.ListOrdersRequest{
		CustomerID: "acct_1",
		Pagination: pagination.Pagination{PageSize: 2},
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first.Orders) != 2 || !first.HasMore {
		t.Fatalf("expected a full first page, got %d orders has_more=%v", len(first.Orders), first.HasMore)
	}
	if first.Orders[0].OrderID != 3 {
		t.Fatalf("expected newest order first, got %d", first.Orders[0].OrderID)
	}

	second, err := svc.ListOrders(ctx, domain.ListOrdersRequest{
		CustomerID: "acct_1",
		Pagination: pagination.Pagination{PageSize: 2, PageToken: first.NextPageToken},
	})
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(second.Orders) != 1 || second.HasMore {
		t.Fatalf("expected last page with one order, got %d has_more=%v", len(second.Orders), second.HasMore)
	}
	if second.Orders[0].OrderID != 1 {
		t.Fatalf("expected oldest order on last page, got %d", second.Orders[0].OrderID)
	}
}

func TestListOrdersRequiresCustomer(t *testing.T) {
	svc := service.New(service.Params{DB: dbtest.Open(t), Log: zap.NewNop(), Repo: repository.Provide()})
	if _, err := svc.ListOrders(context.Background(), domain.ListOrdersRequest{}); err != domain.ErrInvalidCustomer {
		t.Fatalf("expected ErrInvalidCustomer, got %v", err)
	}
}

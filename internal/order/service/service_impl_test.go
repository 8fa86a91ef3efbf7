package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	catalogrepo "github.com/smallbiznis/storefront/internal/catalog/repository"
	catalogservice "github.com/smallbiznis/storefront/internal/catalog/service"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	customerrepo "github.com/smallbiznis/storefront/internal/customer/repository"
	"github.com/smallbiznis/storefront/internal/order/domain"
	"github.com/smallbiznis/storefront/internal/order/repository"
	"github.com/smallbiznis/storefront/internal/order/service"
	"github.com/smallbiznis/storefront/pkg/db/dbtest"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := dbtest.Open(t)
	node, err := snowflake.NewNode(10)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	f := fixture{db: db, node: node, clock: clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))}
	f.seed(t, "dunklow", 1000000)
	f.seed(t, "airForce1", 800000)
	return f
}

func (f fixture) seed(t *testing.T, slug string, price int64) {
	t.Helper()
	now := f.clock.Now()
	err := catalogrepo.Provide().Upsert(context.Background(), f.db, &catalogdomain.Product{
		ID:        f.node.Generate().Int64(),
		Slug:      slug,
		Name:      strings.ToUpper(slug),
		Price:     price,
		Images:    []string{"/img/" + slug + ".png"},
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seed %s: %v", slug, err)
	}
}

func (f fixture) service(reference domain.ReferenceGenerator) domain.Service {
	return service.New(service.Params{
		DB:    f.db,
		Log:   zap.NewNop(),
		Cfg:   config.Config{StoreCurrency: "idr"},
		GenID: f.node,
		Clock: f.clock,
		Repo:  repository.Provide(),
		Catalog: catalogservice.New(catalogservice.Params{
			DB:   f.db,
			Log:  zap.NewNop(),
			Repo: catalogrepo.Provide(),
		}),
		CustomerRepo: customerrepo.Provide(),
		Reference:    reference,
	})
}

func (f fixture) count(t *testing.T, table string) int64 {
	t.Helper()
	var n int64
	if err := f.db.Raw("SELECT COUNT(*) FROM " + table).Scan(&n).Error; err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestCreateIgnoresClientPrice(t *testing.T) {
	f := newFixture(t)
	svc := f.service(nil)

	order, err := svc.Create(context.Background(), domain.CreateRequest{
		Email: "buyer@example.com",
		Items: []domain.ItemRequest{{Slug: "dunklow", Quantity: 2, Price: json.RawMessage(`1`)}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2000000), order.Amount)
	assert.Equal(t, domain.StatusPending, order.Status)
	assert.Equal(t, "IDR", order.Currency)
	assert.True(t, strings.HasPrefix(order.ExternalID, domain.ReferencePrefix))

	stored, err := svc.Get(context.Background(), order.ExternalID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000000), stored.Amount)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, int64(1000000), stored.Items[0].Price)
	assert.Equal(t, "/img/dunklow.png", stored.Items[0].Image)
}

func TestCreateSumsLinesFromCatalog(t *testing.T) {
	f := newFixture(t)
	svc := f.service(nil)

	order, err := svc.Create(context.Background(), domain.CreateRequest{
		Email: "buyer@example.com",
		Items: []domain.ItemRequest{
			{Slug: "airForce1", Quantity: 1},
			{Slug: "dunklow", Quantity: 3},
		},
	})
	require.NoError(t, err)

	var sum int64
	for _, item := range order.Items {
		sum += item.LineTotal()
	}
	assert.Equal(t, sum, order.Amount)
	assert.Equal(t, int64(3800000), order.Amount)
}

func TestCreateUnknownProductWritesNothing(t *testing.T) {
	f := newFixture(t)
	svc := f.service(nil)

	_, err := svc.Create(context.Background(), domain.CreateRequest{
		Email:      "buyer@example.com",
		CustomerID: "acct_1",
		Items: []domain.ItemRequest{
			{Slug: "airForce1", Quantity: 1},
			{Slug: "ghost", Quantity: 1},
		},
	})

	var notFound *domain.ProductNotFoundError
	require.True(t, errors.As(err, &notFound), "expected ProductNotFoundError, got %v", err)
	assert.Equal(t, "ghost", notFound.Slug)
	assert.True(t, errors.Is(err, catalogdomain.ErrProductNotFound))

	assert.Zero(t, f.count(t, "orders"))
	assert.Zero(t, f.count(t, "order_items"))
	assert.Zero(t, f.count(t, "customer_orders"))
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	svc := f.service(nil)
	ctx := context.Background()

	cases := []struct {
		name string
		req  domain.CreateRequest
		want error
	}{
		{"empty cart", domain.CreateRequest{Email: "buyer@example.com"}, domain.ErrEmptyCart},
		{"bad email", domain.CreateRequest{Email: "nope", Items: []domain.ItemRequest{{Slug: "dunklow", Quantity: 1}}}, domain.ErrInvalidEmail},
		{"zero quantity", domain.CreateRequest{Email: "buyer@example.com", Items: []domain.ItemRequest{{Slug: "dunklow", Quantity: 0}}}, domain.ErrInvalidQuantity},
		{"huge quantity", domain.CreateRequest{Email: "buyer@example.com", Items: []domain.ItemRequest{{Slug: "dunklow", Quantity: domain.MaxQuantity + 1}}}, domain.ErrInvalidQuantity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Zero(t, f.count(t, "orders"))
}

func TestCreateAppendsAccountHistory(t *testing.T) {
	f := newFixture(t)
	svc := f.service(nil)

	order, err := svc.Create(context.Background(), domain.CreateRequest{
		Email:      "buyer@example.com",
		Phone:      "08123456789",
		CustomerID: "acct_1",
		Items:      []domain.ItemRequest{{Slug: "airForce1", Quantity: 1}},
	})
	require.NoError(t, err)
	require.NotNil(t, order.CustomerID)
	require.NotNil(t, order.Phone)
	assert.Equal(t, int64(1), f.count(t, "customer_orders"))
}

func TestCreateRetriesReferenceCollision(t *testing.T) {
	f := newFixture(t)

	refs := []string{"order_fixed", "order_fixed", "order_fresh"}
	next := 0
	svc := f.service(func() string {
		ref := refs[next]
		next++
		return ref
	})

	first, err := svc.Create(context.Background(), domain.CreateRequest{
		Email: "a@example.com",
		Items: []domain.ItemRequest{{Slug: "dunklow", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "order_fixed", first.ExternalID)

	second, err := svc.Create(context.Background(), domain.CreateRequest{
		Email: "b@example.com",
		Items: []domain.ItemRequest{{Slug: "dunklow", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "order_fresh", second.ExternalID)
	assert.Equal(t, int64(2), f.count(t, "orders"))
	assert.Equal(t, int64(2), f.count(t, "order_items"))
}

func TestCreateGivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newFixture(t)
	svc := f.service(func() string { return "order_stuck" })

	_, err := svc.Create(context.Background(), domain.CreateRequest{
		Email: "a@example.com",
		Items: []domain.ItemRequest{{Slug: "dunklow", Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), domain.CreateRequest{
		Email: "b@example.com",
		Items: []domain.ItemRequest{{Slug: "dunklow", Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrReference)
	assert.Equal(t, int64(1), f.count(t, "orders"))
}

func TestReferencesAreUnique(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		ref := domain.NewExternalReference()
		if _, ok := seen[ref]; ok {
			t.Fatalf("duplicate reference %s", ref)
		}
		seen[ref] = struct{}{}
	}
}

func TestListPaginatesNewestFirst(t *testing.T) {
	f := newFixture(t)
	svc := f.service(nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		f.clock.Advance(time.Minute)
		_, err := svc.Create(ctx, domain.CreateRequest{
			Email: "buyer@example.com",
			Items: []domain.ItemRequest{{Slug: "dunklow", Quantity: i + 1}},
		})
		require.NoError(t, err)
	}

	first, err := svc.List(ctx, domain.ListRequest{Pagination: pagination.Pagination{PageSize: 2}})
	require.NoError(t, err)
	require.Len(t, first.Orders, 2)
	assert.True(t, first.HasMore)
	assert.Equal(t, int64(3000000), first.Orders[0].Amount)

	second, err := svc.List(ctx, domain.ListRequest{Pagination: pagination.Pagination{PageSize: 2, PageToken: first.NextPageToken}})
	require.NoError(t, err)
	require.Len(t, second.Orders, 1)
	assert.False(t, second.HasMore)
	assert.Equal(t, int64(1000000), second.Orders[0].Amount)

	_, err = svc.List(ctx, domain.ListRequest{Status: "shipped"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestGetUnknownOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.service(nil).Get(context.Background(), "order_missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

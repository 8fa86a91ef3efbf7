package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/catalog/domain"
	"github.com/smallbiznis/storefront/internal/catalog/repository"
	"github.com/smallbiznis/storefront/internal/catalog/service"
	"github.com/smallbiznis/storefront/pkg/db/dbtest"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func seedProduct(t *testing.T, db *gorm.DB, node *snowflake.Node, slug string, price int64, active bool) {
	t.Helper()
	now := time.Now().UTC()
	err := repository.Provide().Upsert(context.Background(), db, &domain.Product{
		ID:        node.Generate().Int64(),
		Slug:      slug,
		Name:      slug,
		Price:     price,
		Images:    []string{"/img/" + slug + ".png"},
		Category:  "sneakers",
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
}

func TestFindBySlug(t *testing.T) {
	db := dbtest.Open(t)
	node, err := snowflake.NewNode(10)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	seedProduct(t, db, node, "airForce1", 800000, true)
	seedProduct(t, db, node, "retired", 100, false)

	svc := service.New(service.Params{DB: db, Log: zap.NewNop(), Repo: repository.Provide()})

	product, err := svc.FindBySlug(context.Background(), "airForce1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if product.Price != 800000 {
		t.Fatalf("expected price 800000, got %d", product.Price)
	}
	if product.PrimaryImage() != "/img/airForce1.png" {
		t.Fatalf("unexpected image %q", product.PrimaryImage())
	}

	if _, err := svc.FindBySlug(context.Background(), "missing"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if _, err := svc.FindBySlug(context.Background(), "retired"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected inactive product to be hidden, got %v", err)
	}
	if _, err := svc.FindBySlug(context.Background(), "  "); !errors.Is(err, domain.ErrInvalidSlug) {
		t.Fatalf("expected ErrInvalidSlug, got %v", err)
	}
}

func TestListOnlyActive(t *testing.T) {
	db := dbtest.Open(t)
	node, _ := snowflake.NewNode(10)
	seedProduct(t, db, node, "b-shoe", 10, true)
	seedProduct(t, db, node, "a-shoe", 20, true)
	seedProduct(t, db, node, "hidden", 30, false)

	svc := service.New(service.Params{DB: db, Log: zap.NewNop(), Repo: repository.Provide()})
	items, err := svc.List(context.Background(), domain.ListRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 active products, got %d", len(items))
	}
	if items[0].Slug != "a-shoe" {
		t.Fatalf("expected products ordered by name, got %s first", items[0].Slug)
	}
}

func TestUpsertRefreshesPrice(t *testing.T) {
	db := dbtest.Open(t)
	node, _ := snowflake.NewNode(10)
	seedProduct(t, db, node, "airForce1", 700000, true)
	seedProduct(t, db, node, "airForce1", 800000, true)

	var count int64
	if err := db.Raw("SELECT COUNT(*) FROM products").Scan(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected slug to stay unique, got %d rows", count)
	}

	product, err := repository.Provide().FindBySlug(context.Background(), db, "airForce1")
	if err != nil || product == nil {
		t.Fatalf("find: %v", err)
	}
	if product.Price != 800000 {
		t.Fatalf("expected refreshed price, got %d", product.Price)
	}
}

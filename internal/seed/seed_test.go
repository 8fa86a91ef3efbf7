package seed

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogrepo "github.com/smallbiznis/storefront/internal/catalog/repository"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/pkg/db/dbtest"
)

func TestEnsureDemoCatalogIsIdempotent(t *testing.T) {
	db := dbtest.Open(t)
	node, err := snowflake.NewNode(3)
	if err != nil {
		t.Fatalf("node: %v", err)
	}
	repo := catalogrepo.Provide()
	clk := clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	inserted, err := EnsureDemoCatalog(context.Background(), db, repo, node, clk)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if inserted != len(demoCatalog) {
		t.Fatalf("expected %d products, got %d", len(demoCatalog), inserted)
	}

	if err := db.Exec(`UPDATE products SET price = 1 WHERE slug = ?`, "airForce1").Error; err != nil {
		t.Fatalf("update: %v", err)
	}

	inserted, err = EnsureDemoCatalog(context.Background(), db, repo, node, clk)
	if err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if inserted != 0 {
		t.Fatalf("expected no inserts on reseed, got %d", inserted)
	}

	product, err := repo.FindBySlug(context.Background(), db, "airForce1")
	if err != nil || product == nil {
		t.Fatalf("find: %v", err)
	}
	if product.Price != 1 {
		t.Fatalf("reseed must not overwrite prices, got %d", product.Price)
	}

	generated, err := repo.FindBySlug(context.Background(), db, "jordan-1-retro-high")
	if err != nil || generated == nil {
		t.Fatalf("expected slug generated from name: %v", err)
	}
}

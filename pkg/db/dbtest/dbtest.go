// Package dbtest opens throwaway in-memory databases carrying the storefront schema.
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Int64

// Schema mirrors the postgres migrations using types sqlite understands.
var Schema = []string{
	`CREATE TABLE products (
		id BIGINT PRIMARY KEY,
		slug TEXT NOT NULL,
		name TEXT NOT NULL,
		price BIGINT NOT NULL,
		images TEXT NOT NULL DEFAULT '[]',
		category TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE UNIQUE INDEX ux_products_slug ON products(slug)`,
	`CREATE TABLE orders (
		id BIGINT PRIMARY KEY,
		external_id TEXT NOT NULL,
		email TEXT NOT NULL,
		customer_id TEXT,
		phone TEXT,
		amount BIGINT NOT NULL,
		currency TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		invoice_id TEXT,
		invoice_url TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE UNIQUE INDEX ux_orders_external_id ON orders(external_id)`,
	`CREATE TABLE order_items (
		order_id BIGINT NOT NULL,
		position INT NOT NULL,
		product_id BIGINT NOT NULL,
		slug TEXT NOT NULL,
		name TEXT NOT NULL,
		price BIGINT NOT NULL,
		quantity INT NOT NULL,
		image TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (order_id, position)
	)`,
	`CREATE TABLE payments (
		id BIGINT PRIMARY KEY,
		order_id BIGINT NOT NULL,
		invoice_id TEXT NOT NULL,
		external_id TEXT NOT NULL,
		amount BIGINT NOT NULL,
		currency TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		paid_at DATETIME,
		failure_code TEXT,
		raw_payload TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE UNIQUE INDEX ux_payments_order_id ON payments(order_id)`,
	`CREATE UNIQUE INDEX ux_payments_invoice_id ON payments(invoice_id)`,
	`CREATE UNIQUE INDEX ux_payments_external_id ON payments(external_id)`,
	`CREATE TABLE customer_orders (
		customer_id TEXT NOT NULL,
		order_id BIGINT NOT NULL,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (customer_id, order_id)
	)`,
}

// Open returns a fresh shared-cache in-memory database with Schema applied.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d_%d?mode=memory&cache=shared", time.Now().UnixNano(), seq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	// A single connection keeps concurrent writers from tripping shared-cache table locks.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	for _, stmt := range Schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

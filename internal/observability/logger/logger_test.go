package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	obscontext "github.com/smallbiznis/storefront/internal/observability/context"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestWithContextAddsRequestAndActor(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	base := zap.New(core)

	ctx := obscontext.WithRequestID(context.Background(), "req-1")
	ctx = obscontext.WithActor(ctx, "provider", "xendit")
	WithContext(ctx, base).Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] != "req-1" {
		t.Fatalf("expected request_id field, got %v", fields)
	}
	if fields["actor_type"] != "provider" || fields["actor_id"] != "xendit" {
		t.Fatalf("expected actor fields, got %v", fields)
	}
}

func TestGormLoggerSkipsRecordNotFound(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewGormLogger(zap.New(core), GormLoggerConfig{Level: gormlogger.Warn})

	sql := func() (string, int64) { return "SELECT * FROM payments WHERE invoice_id = ?", 0 }
	l.Trace(context.Background(), time.Now(), sql, gormlogger.ErrRecordNotFound)
	if logs.Len() != 0 {
		t.Fatalf("expected record-not-found to be silent, got %d entries", logs.Len())
	}

	l.Trace(context.Background(), time.Now(), sql, errors.New("connection reset"))
	if logs.Len() != 1 {
		t.Fatalf("expected one error entry, got %d", logs.Len())
	}
	if got := logs.All()[0].ContextMap()["operation"]; got != "SELECT" {
		t.Fatalf("expected SELECT operation, got %v", got)
	}
}

func TestStatementKind(t *testing.T) {
	cases := map[string]string{
		"  update orders set status = ?": "UPDATE",
		"(SELECT 1)":                     "SELECT",
		"CREATE TABLE x (id int)":        "OTHER",
	}
	for sql, want := range cases {
		if got := statementKind(sql); got != want {
			t.Fatalf("statementKind(%q) = %q, want %q", sql, got, want)
		}
	}
}

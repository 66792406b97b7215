package database

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/vietddude/lazygate/internal/core/domain"
)

func TestRedisConnector(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	conn := NewRedisConnector(Config{
		Driver:         DriverRedis,
		URL:            "redis://" + mr.Addr(),
		ConnectTimeout: time.Second,
	})

	if err := conn.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer func() { _ = conn.Close(ctx) }()

	if err := conn.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
	if err := conn.Client().Set(ctx, "gate", "open", 0).Err(); err != nil {
		t.Errorf("Set failed: %v", err)
	}
	if got, _ := mr.Get("gate"); got != "open" {
		t.Errorf("expected value open, got %q", got)
	}
}

func TestRedisConnector_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	conn := NewRedisConnector(Config{
		Driver:         DriverRedis,
		URL:            "redis://" + addr,
		ConnectTimeout: time.Second,
	})

	err := conn.Connect(context.Background())
	if err == nil {
		t.Fatal("expected connect error")
	}
	de, ok := domain.AsDriverError(err)
	if !ok {
		t.Fatalf("expected DriverError, got %T", err)
	}
	if de.Category != domain.FailureCategoryUnavailable {
		t.Errorf("expected unavailable, got %s (%v)", de.Category, err)
	}
	if conn.Client() != nil {
		t.Error("expected no client after failure")
	}
}

func TestRedisConnector_BadURL(t *testing.T) {
	conn := NewRedisConnector(Config{Driver: DriverRedis, URL: "http://nope"})

	err := conn.Connect(context.Background())
	if _, ok := domain.AsDriverError(err); !ok {
		t.Fatalf("expected DriverError, got %v", err)
	}
}

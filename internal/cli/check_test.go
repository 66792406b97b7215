package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vietddude/lazygate/internal/core/domain"
	"github.com/vietddude/lazygate/internal/gateway"
)

type stubConnector struct {
	err    error
	closed int
}

func (s *stubConnector) Driver() string                    { return "stub" }
func (s *stubConnector) Connect(ctx context.Context) error { return s.err }
func (s *stubConnector) Ping(ctx context.Context) error    { return s.err }
func (s *stubConnector) Close(ctx context.Context) error {
	s.closed++
	return nil
}

func TestCheckConnection_Connected(t *testing.T) {
	conn := &stubConnector{}
	var out bytes.Buffer

	if err := checkConnection(context.Background(), conn, true, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "connected") {
		t.Errorf("expected connected row, got:\n%s", out.String())
	}
	if conn.closed != 1 {
		t.Errorf("expected connector closed once, got %d", conn.closed)
	}
}

func TestCheckConnection_FailureClosesConnector(t *testing.T) {
	cause := domain.NewDriverError("stub", domain.FailureCategoryUnavailable, errors.New("connect ECONNREFUSED 127.0.0.1:5432"))
	conn := &stubConnector{err: cause}
	var out bytes.Buffer

	err := checkConnection(context.Background(), conn, true, &out)
	if err != cause {
		t.Fatalf("expected connect error, got %v", err)
	}
	if conn.closed != 1 {
		t.Errorf("expected connector closed on failure, got %d closes", conn.closed)
	}
	if !strings.Contains(out.String(), gateway.MessageUnavailable) || !strings.Contains(out.String(), "503") {
		t.Errorf("expected 503 unavailable row, got:\n%s", out.String())
	}
}

package gateway

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
)

// =============================================================================
// Stubs
// =============================================================================

type stubConnector struct {
	mu    sync.Mutex
	errs  []error // consumed one per call; the last one repeats
	calls atomic.Int32
}

func (s *stubConnector) Driver() string { return "stub" }

func (s *stubConnector) Connect(ctx context.Context) error {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.errs) == 0 {
		return nil
	}
	err := s.errs[0]
	if len(s.errs) > 1 {
		s.errs = s.errs[1:]
	}
	return err
}

// blockingConnector holds every Connect until release is closed.
type blockingConnector struct {
	calls   atomic.Int32
	release chan struct{}
}

func (b *blockingConnector) Driver() string { return "blocking" }

func (b *blockingConnector) Connect(ctx context.Context) error {
	b.calls.Add(1)
	<-b.release
	return nil
}

type statusError struct {
	code int
	msg  string
}

func (e *statusError) Error() string   { return e.msg }
func (e *statusError) StatusCode() int { return e.code }

func refusedError() error {
	return &net.OpError{
		Op:  "dial",
		Net: "tcp",
		Err: os.NewSyscallError("connect", syscall.ECONNREFUSED),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewJSONHandler(buf, nil)), buf
}

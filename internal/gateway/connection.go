package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/vietddude/lazygate/internal/metrics"
)

// Connector is the database capability the gate depends on.
type Connector interface {
	Driver() string
	Connect(ctx context.Context) error
}

// ConnectionManager tracks whether the shared connection has been
// established in this process.
//
// The connected check and the connect call are not serialized: requests that
// arrive before the first success may each call Connect. Once connected, the
// flag never goes back to false.
type ConnectionManager struct {
	connector Connector
	connected atomic.Bool
	hooks     []func()
	log       *slog.Logger
}

// NewConnectionManager creates a manager in the not-connected state.
func NewConnectionManager(connector Connector, log *slog.Logger) *ConnectionManager {
	if log == nil {
		log = slog.Default()
	}
	return &ConnectionManager{
		connector: connector,
		log:       log,
	}
}

// OnConnected registers fn to run once, after the first successful connect.
// Register hooks before serving requests.
func (m *ConnectionManager) OnConnected(fn func()) {
	m.hooks = append(m.hooks, fn)
}

// Connected reports whether a connect has succeeded.
func (m *ConnectionManager) Connected() bool {
	return m.connected.Load()
}

// EnsureConnected connects unless a previous call already succeeded.
func (m *ConnectionManager) EnsureConnected(ctx context.Context) error {
	if m.connected.Load() {
		return nil
	}

	driver := m.connector.Driver()
	if err := m.connector.Connect(ctx); err != nil {
		metrics.ConnectAttemptsTotal.WithLabelValues(driver, "failure").Inc()
		m.log.Error("Database connection failed", "driver", driver, "error", err)
		return err
	}
	metrics.ConnectAttemptsTotal.WithLabelValues(driver, "success").Inc()

	// Concurrent attempts may all succeed; only the first flips the flag.
	if m.connected.CompareAndSwap(false, true) {
		m.log.Info("Database connected on request", "driver", driver)
		for _, fn := range m.hooks {
			fn()
		}
	}
	return nil
}

// ConnectionGate makes sure the shared connection exists before the rest of
// the chain runs. A failed connect is answered here with 503 and is not
// passed on to the classifier.
func ConnectionGate(m *ConnectionManager) Stage {
	return func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) error {
			if err := m.EnsureConnected(r.Context()); err != nil {
				metrics.FailuresTotal.WithLabelValues(
					strconv.Itoa(http.StatusServiceUnavailable), string(KindConnectionGate),
				).Inc()
				if werr := writeJSON(w, http.StatusServiceUnavailable, errorBody{Message: MessageUnavailable}); werr != nil {
					m.log.Warn("Failed to write gate response", "error", werr)
				}
				return nil
			}
			return next(w, r)
		}
	}
}

// Package database provides the connectors the gateway uses to reach its
// backing store. Every connector reports failures as *domain.DriverError so
// callers never need to inspect driver-specific types; errors from the raw
// handles are tagged the same way by Detect.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/lazygate/internal/core/domain"
)

// Supported drivers.
const (
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongodb"
	DriverRedis    = "redis"

	// DriverUnknown tags failures recognised only by their message.
	DriverUnknown = domain.DriverUnknown
)

var (
	// ErrUnknownDriver is returned by New for an unsupported driver name.
	ErrUnknownDriver = errors.New("unknown database driver")
	// ErrEmptyURL is returned by New when no connection URL is configured.
	ErrEmptyURL = errors.New("database url cannot be empty")
	// ErrNotConnected is returned by Ping before a successful Connect.
	ErrNotConnected = errors.New("database not connected")
)

// Config holds database connection configuration.
type Config struct {
	Driver         string        `yaml:"driver"`
	URL            string        `yaml:"url"`
	Name           string        `yaml:"name"` // database name, mongodb only
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	MaxConns       int           `yaml:"max_conns"`
	MinConns       int           `yaml:"min_conns"`
	MigrationsDir  string        `yaml:"migrations_dir"` // SQL drivers only
}

// Connector establishes and owns a shared connection.
//
// Connect may be called concurrently; implementations keep the first handle
// that succeeds and discard the rest. Once a handle is held, Connect returns
// nil without touching the network.
type Connector interface {
	Driver() string
	Connect(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// New returns the connector for cfg.Driver. It does not connect.
func New(cfg Config) (Connector, error) {
	if cfg.URL == "" {
		return nil, ErrEmptyURL
	}

	switch cfg.Driver {
	case DriverPgx, DriverPostgres, DriverSQLite:
		return NewSQLConnector(cfg), nil
	case DriverMongo:
		return NewMongoConnector(cfg), nil
	case DriverRedis:
		return NewRedisConnector(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

func withConnectTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

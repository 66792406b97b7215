package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // registers "postgres"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // registers "sqlite"

	"github.com/vietddude/lazygate/internal/metrics"
)

// SQLConnector connects through database/sql for the pgx, postgres and
// sqlite drivers.
type SQLConnector struct {
	cfg Config

	mu sync.RWMutex
	db *sqlx.DB
}

// NewSQLConnector creates a connector for a database/sql driver.
func NewSQLConnector(cfg Config) *SQLConnector {
	return &SQLConnector{cfg: cfg}
}

func (c *SQLConnector) Driver() string {
	return c.cfg.Driver
}

// DB returns the shared handle, or nil before the first successful Connect.
func (c *SQLConnector) DB() *sqlx.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// Connect opens the pool, pings it and applies pending migrations.
func (c *SQLConnector) Connect(ctx context.Context) error {
	if c.DB() != nil {
		return nil
	}

	ctx, cancel := withConnectTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, c.cfg.Driver, c.cfg.URL)
	if err != nil {
		return Classify(c.cfg.Driver, fmt.Errorf("failed to connect database: %w", err))
	}

	// Set pool configuration
	if c.cfg.MaxConns > 0 {
		db.SetMaxOpenConns(c.cfg.MaxConns)
	} else {
		db.SetMaxOpenConns(10)
	}

	if c.cfg.MinConns > 0 {
		db.SetMaxIdleConns(c.cfg.MinConns)
	} else {
		db.SetMaxIdleConns(2)
	}

	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	if c.cfg.MigrationsDir != "" {
		if err := c.migrate(ctx, db); err != nil {
			_ = db.Close()
			return Classify(c.cfg.Driver, err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db != nil {
		// Lost the race against a concurrent Connect.
		_ = db.Close()
		return nil
	}
	c.db = db
	return nil
}

func (c *SQLConnector) migrate(ctx context.Context, db *sqlx.DB) error {
	dialect := goose.DialectPostgres
	if c.cfg.Driver == DriverSQLite {
		dialect = goose.DialectSQLite3
	}

	provider, err := goose.NewProvider(dialect, db.DB, os.DirFS(c.cfg.MigrationsDir))
	if errors.Is(err, goose.ErrNoMigrations) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to migrate db: %w", err)
	}
	return nil
}

// Ping checks if the database is healthy.
func (c *SQLConnector) Ping(ctx context.Context) error {
	db := c.DB()
	if db == nil {
		return ErrNotConnected
	}
	return Classify(c.cfg.Driver, db.PingContext(ctx))
}

// Close closes the pool if one is held.
func (c *SQLConnector) Close(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// StartMetricsCollector samples pool usage until ctx is done.
func (c *SQLConnector) StartMetricsCollector(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				db := c.DB()
				if db == nil {
					continue
				}
				stats := db.Stats()
				// MaxOpenConnections is 0 when unlimited
				if stats.MaxOpenConnections > 0 {
					usage := float64(stats.OpenConnections) / float64(stats.MaxOpenConnections) * 100
					metrics.DBConnectionPoolUsage.Set(usage)
				}
			}
		}
	}()
}

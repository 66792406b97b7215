package config

import (
	"time"

	"github.com/vietddude/lazygate/internal/infra/database"
)

// EnvironmentProduction switches the pipeline to production output.
const EnvironmentProduction = "production"

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Environment string          `yaml:"environment"`
	Server      ServerConfig    `yaml:"server"`
	Logging     LoggingConfig   `yaml:"logging"`
	Database    database.Config `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`
	GRPCPort     int           `yaml:"grpc_port"` // 0 = gRPC health disabled
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// IsProduction reports whether the production toggle is set.
func (c *AppConfig) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// Package container provides dependency injection and lifecycle management
// for the claims workflow service following Clean Architecture principles.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Lark notification configuration
	Lark LarkConfig

	// Server configuration
	Server ServerConfig

	// Workflow configuration
	Workflow WorkflowConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration

	// BusyTimeout bounds how long a transaction waits for the write lock
	BusyTimeout time.Duration
}

// LarkConfig holds Lark API settings.
type LarkConfig struct {
	// Enabled switches between Lark delivery and log-only notifications
	Enabled bool

	// AppID is the Lark application ID
	AppID string

	// AppSecret is the Lark application secret
	AppSecret string

	// ReceiveIDType is how recipients are addressed (user_id, open_id, email)
	ReceiveIDType string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host to bind to
	Host string

	// Port to listen on
	Port int

	// ReadTimeout for HTTP server
	ReadTimeout time.Duration

	// WriteTimeout for HTTP server
	WriteTimeout time.Duration
}

// WorkflowConfig holds validation and orchestration settings.
type WorkflowConfig struct {
	// BackdateLimit is the number of backdated DAILY submissions allowed per window
	BackdateLimit int

	// DefaultStartTime and DefaultEndTime fill blank item times (HH:MM)
	DefaultStartTime string
	DefaultEndTime   string

	// IDDigits is the zero-padded width of generated ids
	IDDigits int

	// ChainDepth bounds the reporting manager walk
	ChainDepth int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/claims.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			BusyTimeout:     5 * time.Second,
		},
		Lark: LarkConfig{
			ReceiveIDType: "user_id",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Workflow: WorkflowConfig{
			BackdateLimit:    2,
			DefaultStartTime: "00:00",
			DefaultEndTime:   "23:59",
			IDDigits:         6,
			ChainDepth:       5,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	// Lark credentials are only needed for real delivery
	if c.Lark.Enabled {
		if c.Lark.AppID == "" {
			return fmt.Errorf("lark.app_id is required")
		}
		if c.Lark.AppSecret == "" {
			return fmt.Errorf("lark.app_secret is required")
		}
	}

	if c.Workflow.IDDigits < 1 || c.Workflow.IDDigits > 18 {
		return fmt.Errorf("workflow.id_digits must be between 1 and 18")
	}

	return nil
}

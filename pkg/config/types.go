package config

import (
	"errors"
	"fmt"
	"time"
)

// Default values for ServerConfiguration.
const (
	DefaultHost              = "127.0.0.1"
	DefaultPort              = 8080
	DefaultDrainTimeoutMs    = 5000
	DefaultReadTimeout       = 30
	DefaultWriteTimeout      = 30
	DefaultMaxBodySize       = 10 * 1024 * 1024 // 10MB
	DefaultMaxJournalEntries = 1000
)

// ServerConfiguration holds the settings of a stub server instance.
type ServerConfiguration struct {
	// Host is the interface to bind. Empty binds all interfaces.
	Host string `json:"host,omitempty"`
	// Port is the fixed TCP port to bind. Ignored when DynamicPort is set.
	Port int `json:"port,omitempty"`
	// DynamicPort asks the OS for a free port at every start.
	DynamicPort bool `json:"dynamicPort,omitempty"`
	// DrainTimeoutMs bounds how long Stop waits for in-flight requests.
	DrainTimeoutMs int `json:"drainTimeoutMs,omitempty"`
	// ReadTimeout is the HTTP read timeout in seconds
	ReadTimeout int `json:"readTimeout,omitempty"`
	// WriteTimeout is the HTTP write timeout in seconds
	WriteTimeout int `json:"writeTimeout,omitempty"`
	// MaxBodySize is the maximum accepted request body size in bytes
	MaxBodySize int `json:"maxBodySize,omitempty"`
	// MaxJournalEntries is the number of requests retained in the journal
	MaxJournalEntries int `json:"maxJournalEntries,omitempty"`
	// DisableAdmin turns off the /__admin API.
	DisableAdmin bool `json:"disableAdmin,omitempty"`
	// Mappings lists glob patterns of mapping files loaded at every start.
	Mappings []string `json:"mappings,omitempty"`
	// RootDir is the base directory for relative mapping globs.
	RootDir string `json:"rootDir,omitempty"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"logLevel,omitempty"`
	// LogFormat is text or json.
	LogFormat string `json:"logFormat,omitempty"`
}

// DefaultServerConfiguration returns a ServerConfiguration with sensible defaults.
func DefaultServerConfiguration() *ServerConfiguration {
	return &ServerConfiguration{
		Host:              DefaultHost,
		Port:              DefaultPort,
		DrainTimeoutMs:    DefaultDrainTimeoutMs,
		ReadTimeout:       DefaultReadTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		MaxBodySize:       DefaultMaxBodySize,
		MaxJournalEntries: DefaultMaxJournalEntries,
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// ErrInvalidConfig is returned (wrapped) by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks the configuration for values the server cannot use.
func (c *ServerConfiguration) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range 0-65535", ErrInvalidConfig, c.Port)
	}
	if c.DrainTimeoutMs < 0 {
		return fmt.Errorf("%w: drainTimeoutMs must not be negative", ErrInvalidConfig)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return fmt.Errorf("%w: timeouts must not be negative", ErrInvalidConfig)
	}
	if c.MaxBodySize < 0 {
		return fmt.Errorf("%w: maxBodySize must not be negative", ErrInvalidConfig)
	}
	if c.MaxJournalEntries < 0 {
		return fmt.Errorf("%w: maxJournalEntries must not be negative", ErrInvalidConfig)
	}
	return nil
}

// UsesDynamicPort reports whether the server should bind an OS-assigned port.
// A zero port counts as dynamic.
func (c *ServerConfiguration) UsesDynamicPort() bool {
	return c.DynamicPort || c.Port == 0
}

// DrainTimeout returns the drain timeout, falling back to the default.
func (c *ServerConfiguration) DrainTimeout() time.Duration {
	if c.DrainTimeoutMs <= 0 {
		return DefaultDrainTimeoutMs * time.Millisecond
	}
	return time.Duration(c.DrainTimeoutMs) * time.Millisecond
}

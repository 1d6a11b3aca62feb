package goConsole

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config is the complete console configuration. Obtain one from
// [DefaultConfig] and override what differs.
type Config struct {
	Transport TransportConfig
	Store     StoreConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
TRANSPORT CONFIG
====================================
*/

// TransportConfig locates the authority and bounds every call to it.
type TransportConfig struct {
	BaseURL     string
	Timeout     time.Duration
	UserAgent   string
	LoginPath   string
	LogoutPath  string
	RefreshPath string
	ProfilePath string
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreBackend selects the session persistence backend.
type StoreBackend string

const (
	StoreMemory StoreBackend = "memory"
	StoreFile   StoreBackend = "file"
	StoreRedis  StoreBackend = "redis"
)

// StoreConfig selects and parameterizes the session backend. It is ignored
// when the builder is given a store or backend explicitly.
type StoreConfig struct {
	Backend       StoreBackend
	FilePath      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	// RedisTTL bounds how long persisted slots live. Zero keeps them until
	// logout.
	RedisTTL time.Duration
}

/*
====================================
AUDIT / METRICS
====================================
*/

// AuditConfig controls the audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns a configuration for an authority on localhost with an
// in-memory store.
func DefaultConfig() Config {
	return Config{
		Transport: TransportConfig{
			BaseURL:     "http://localhost:8080/api",
			Timeout:     10 * time.Second,
			UserAgent:   "goConsole",
			LoginPath:   "/auth/login",
			LogoutPath:  "/auth/logout",
			RefreshPath: "/auth/refresh",
			ProfilePath: "/users/me",
		},
		Store: StoreConfig{
			Backend:     StoreMemory,
			RedisPrefix: "goconsole",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks cfg and returns an error wrapping [ErrInvalidConfig] on the
// first problem found.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) validate() error {
	// Transport
	if strings.TrimSpace(c.Transport.BaseURL) == "" {
		return errors.New("Transport BaseURL is required")
	}
	u, err := url.Parse(c.Transport.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("Transport BaseURL must be an absolute URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("Transport BaseURL scheme must be http or https")
	}
	if c.Transport.Timeout <= 0 {
		return errors.New("Transport Timeout must be > 0")
	}
	paths := []struct{ name, value string }{
		{"LoginPath", c.Transport.LoginPath},
		{"LogoutPath", c.Transport.LogoutPath},
		{"RefreshPath", c.Transport.RefreshPath},
		{"ProfilePath", c.Transport.ProfilePath},
	}
	for _, p := range paths {
		if !strings.HasPrefix(p.value, "/") {
			return fmt.Errorf("Transport %s must start with /", p.name)
		}
	}

	// Store
	switch c.Store.Backend {
	case StoreMemory:
	case StoreFile:
		if strings.TrimSpace(c.Store.FilePath) == "" {
			return errors.New("Store FilePath is required for the file backend")
		}
	case StoreRedis:
		if strings.TrimSpace(c.Store.RedisAddr) == "" {
			return errors.New("Store RedisAddr is required for the redis backend")
		}
		if c.Store.RedisTTL < 0 {
			return errors.New("Store RedisTTL must be >= 0")
		}
		if c.Store.RedisDB < 0 {
			return errors.New("Store RedisDB must be >= 0")
		}
	default:
		return fmt.Errorf("unsupported Store Backend %q", c.Store.Backend)
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}

// Package config loads goconsole CLI settings from an optional file and the
// environment using Viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	goConsole "github.com/MrEthical07/goConsole"
)

// EnvPrefix prefixes every environment override, e.g. GOCONSOLE_AUTHORITY_BASE_URL.
const EnvPrefix = "GOCONSOLE"

// Config holds CLI configuration.
type Config struct {
	Authority    AuthorityConfig    `mapstructure:"authority"`
	Store        StoreConfig        `mapstructure:"store"`
	Audit        AuditConfig        `mapstructure:"audit"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	Log          LogConfig          `mapstructure:"log"`
	DevAuthority DevAuthorityConfig `mapstructure:"dev_authority"`
}

// AuthorityConfig locates the console authority.
type AuthorityConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	UserAgent   string        `mapstructure:"user_agent"`
	LoginPath   string        `mapstructure:"login_path"`
	LogoutPath  string        `mapstructure:"logout_path"`
	RefreshPath string        `mapstructure:"refresh_path"`
	ProfilePath string        `mapstructure:"profile_path"`
}

// StoreConfig selects where the CLI keeps the session between invocations.
type StoreConfig struct {
	Backend       string        `mapstructure:"backend"`
	FilePath      string        `mapstructure:"file_path"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	RedisPrefix   string        `mapstructure:"redis_prefix"`
	RedisTTL      time.Duration `mapstructure:"redis_ttl"`
}

// AuditConfig enables the audit trail. File receives JSON lines; empty means
// stderr.
type AuditConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	BufferSize int    `mapstructure:"buffer_size"`
	DropIfFull bool   `mapstructure:"drop_if_full"`
	File       string `mapstructure:"file"`
}

// MetricsConfig enables in-process counters.
type MetricsConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	LatencyHistograms bool `mapstructure:"latency_histograms"`
}

// LogConfig sets the zap level.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DevAuthorityConfig parameterizes the dev-authority command.
type DevAuthorityConfig struct {
	Addr       string        `mapstructure:"addr"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
	Secret     string        `mapstructure:"secret"`
	Issuer     string        `mapstructure:"issuer"`

	// RedisAddr enables failed sign-in throttling when non-empty.
	RedisAddr        string        `mapstructure:"redis_addr"`
	MaxLoginAttempts int           `mapstructure:"max_login_attempts"`
	LoginCooldown    time.Duration `mapstructure:"login_cooldown"`
}

// Load reads path (when non-empty) and applies GOCONSOLE_* environment
// overrides on top of the defaults. A missing file named explicitly is an
// error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if cfg.Store.Backend == string(goConsole.StoreFile) && cfg.Store.FilePath == "" {
		p, err := defaultSessionPath()
		if err != nil {
			return nil, err
		}
		cfg.Store.FilePath = p
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := goConsole.DefaultConfig()

	v.SetDefault("authority.base_url", def.Transport.BaseURL)
	v.SetDefault("authority.timeout", def.Transport.Timeout)
	v.SetDefault("authority.user_agent", "goconsole-cli")
	v.SetDefault("authority.login_path", def.Transport.LoginPath)
	v.SetDefault("authority.logout_path", def.Transport.LogoutPath)
	v.SetDefault("authority.refresh_path", def.Transport.RefreshPath)
	v.SetDefault("authority.profile_path", def.Transport.ProfilePath)

	v.SetDefault("store.backend", string(goConsole.StoreFile))
	v.SetDefault("store.file_path", "")
	v.SetDefault("store.redis_addr", "")
	v.SetDefault("store.redis_password", "")
	v.SetDefault("store.redis_db", 0)
	v.SetDefault("store.redis_prefix", def.Store.RedisPrefix)
	v.SetDefault("store.redis_ttl", time.Duration(0))

	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.buffer_size", def.Audit.BufferSize)
	v.SetDefault("audit.drop_if_full", def.Audit.DropIfFull)
	v.SetDefault("audit.file", "")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.latency_histograms", false)

	v.SetDefault("log.level", "warn")

	v.SetDefault("dev_authority.addr", "127.0.0.1:8080")
	v.SetDefault("dev_authority.access_ttl", 24*time.Hour)
	v.SetDefault("dev_authority.refresh_ttl", 7*24*time.Hour)
	v.SetDefault("dev_authority.secret", "")
	v.SetDefault("dev_authority.issuer", "goconsole-dev")
	v.SetDefault("dev_authority.redis_addr", "")
	v.SetDefault("dev_authority.max_login_attempts", 5)
	v.SetDefault("dev_authority.login_cooldown", 15*time.Minute)
}

func defaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: locate user config dir: %w", err)
	}
	return filepath.Join(dir, "goconsole", "session.json"), nil
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q must be debug, info, warn or error", c.Log.Level)
	}
	if c.DevAuthority.Addr == "" {
		return errors.New("config: dev_authority.addr must be set")
	}
	if c.DevAuthority.AccessTTL <= 0 || c.DevAuthority.RefreshTTL <= 0 {
		return errors.New("config: dev_authority ttls must be positive")
	}
	if c.DevAuthority.RedisAddr != "" && (c.DevAuthority.MaxLoginAttempts <= 0 || c.DevAuthority.LoginCooldown <= 0) {
		return errors.New("config: dev_authority login throttle needs positive max_login_attempts and login_cooldown")
	}

	cc := c.ConsoleConfig()
	if err := cc.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ConsoleConfig maps c onto the library configuration.
func (c *Config) ConsoleConfig() goConsole.Config {
	cfg := goConsole.DefaultConfig()
	cfg.Transport = goConsole.TransportConfig{
		BaseURL:     c.Authority.BaseURL,
		Timeout:     c.Authority.Timeout,
		UserAgent:   c.Authority.UserAgent,
		LoginPath:   c.Authority.LoginPath,
		LogoutPath:  c.Authority.LogoutPath,
		RefreshPath: c.Authority.RefreshPath,
		ProfilePath: c.Authority.ProfilePath,
	}
	cfg.Store = goConsole.StoreConfig{
		Backend:       goConsole.StoreBackend(strings.ToLower(c.Store.Backend)),
		FilePath:      c.Store.FilePath,
		RedisAddr:     c.Store.RedisAddr,
		RedisPassword: c.Store.RedisPassword,
		RedisDB:       c.Store.RedisDB,
		RedisPrefix:   c.Store.RedisPrefix,
		RedisTTL:      c.Store.RedisTTL,
	}
	cfg.Audit = goConsole.AuditConfig{
		Enabled:    c.Audit.Enabled,
		BufferSize: c.Audit.BufferSize,
		DropIfFull: c.Audit.DropIfFull,
	}
	cfg.Metrics = goConsole.MetricsConfig{
		Enabled:                 c.Metrics.Enabled,
		EnableLatencyHistograms: c.Metrics.LatencyHistograms,
	}
	return cfg
}

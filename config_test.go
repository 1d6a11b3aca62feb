package goConsole

import (
	"errors"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "defaults valid",
			mutate:    func(*Config) {},
			wantValid: true,
		},
		{
			name: "base url blank invalid",
			mutate: func(c *Config) {
				c.Transport.BaseURL = "  "
			},
			wantValid: false,
		},
		{
			name: "base url relative invalid",
			mutate: func(c *Config) {
				c.Transport.BaseURL = "/api"
			},
			wantValid: false,
		},
		{
			name: "base url ftp invalid",
			mutate: func(c *Config) {
				c.Transport.BaseURL = "ftp://authority.local"
			},
			wantValid: false,
		},
		{
			name: "timeout zero invalid",
			mutate: func(c *Config) {
				c.Transport.Timeout = 0
			},
			wantValid: false,
		},
		{
			name: "refresh path without slash invalid",
			mutate: func(c *Config) {
				c.Transport.RefreshPath = "auth/refresh"
			},
			wantValid: false,
		},
		{
			name: "file backend with path valid",
			mutate: func(c *Config) {
				c.Store.Backend = StoreFile
				c.Store.FilePath = "/tmp/goconsole/session.json"
			},
			wantValid: true,
		},
		{
			name: "file backend without path invalid",
			mutate: func(c *Config) {
				c.Store.Backend = StoreFile
			},
			wantValid: false,
		},
		{
			name: "redis backend valid",
			mutate: func(c *Config) {
				c.Store.Backend = StoreRedis
				c.Store.RedisAddr = "127.0.0.1:6379"
				c.Store.RedisTTL = time.Hour
			},
			wantValid: true,
		},
		{
			name: "redis backend negative ttl invalid",
			mutate: func(c *Config) {
				c.Store.Backend = StoreRedis
				c.Store.RedisAddr = "127.0.0.1:6379"
				c.Store.RedisTTL = -time.Second
			},
			wantValid: false,
		},
		{
			name: "unknown backend invalid",
			mutate: func(c *Config) {
				c.Store.Backend = "etcd"
			},
			wantValid: false,
		},
		{
			name: "audit enabled zero buffer invalid",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantValid: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tc.wantValid {
				if err == nil {
					t.Fatal("expected validation error")
				}
				if !errors.Is(err, ErrInvalidConfig) {
					t.Fatalf("expected ErrInvalidConfig, got %v", err)
				}
			}
		})
	}
}

package goConsole

import (
	"errors"
	"fmt"

	internalaudit "github.com/MrEthical07/goConsole/internal/audit"
	"github.com/MrEthical07/goConsole/session"
	"github.com/MrEthical07/goConsole/transport"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder assembles a [Console]. A Builder is single-use.
type Builder struct {
	config Config

	store     *session.Store
	backend   session.Backend
	redis     redis.UniversalClient
	client    *transport.Client
	logger    *zap.Logger
	auditSink AuditSink

	built bool
}

// New starts a builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore uses an existing session store; Config.Store is then ignored.
func (b *Builder) WithStore(store *session.Store) *Builder {
	b.store = store
	return b
}

// WithBackend wraps backend in a session store; Config.Store is then ignored.
func (b *Builder) WithBackend(backend session.Backend) *Builder {
	b.backend = backend
	return b
}

// WithRedis supplies the client used when Config.Store.Backend is redis. The
// console does not close a client supplied here.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithTransport uses an existing authority client; Config.Transport.BaseURL,
// Timeout and UserAgent are then ignored.
func (b *Builder) WithTransport(client *transport.Client) *Builder {
	b.client = client
	return b
}

// WithLogger sets the logger. The default discards everything.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the sink that receives audit events when audit is
// enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the login latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a console in StateLoading.
// Call [Console.Init] before any credential operation.
func (b *Builder) Build() (*Console, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// -------- AUTHORITY CLIENT --------
	client := b.client
	if client == nil {
		c, err := transport.NewClient(
			cfg.Transport.BaseURL,
			cfg.Transport.Timeout,
			transport.WithUserAgent(cfg.Transport.UserAgent),
			transport.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		client = c
	}

	// -------- SESSION STORE --------
	var ownedRedis redis.UniversalClient
	store := b.store
	if store == nil {
		backend := b.backend
		if backend == nil {
			be, owned, err := b.backendFromConfig(cfg.Store)
			if err != nil {
				return nil, err
			}
			backend = be
			ownedRedis = owned
		}
		store = session.NewStore(backend, logger)
	}

	// -------- AUDIT / METRICS --------
	var dispatcher *internalaudit.Dispatcher
	if cfg.Audit.Enabled {
		dispatcher = internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    true,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
			Logger:     logger,
		}, b.auditSink)
	}

	console := newConsole(cfg, store, client, logger, dispatcher, NewMetrics(cfg.Metrics))
	console.ownedRedis = ownedRedis

	b.built = true
	return console, nil
}

func (b *Builder) backendFromConfig(cfg StoreConfig) (session.Backend, redis.UniversalClient, error) {
	switch cfg.Backend {
	case StoreFile:
		be, err := session.NewFileBackend(cfg.FilePath)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		return be, nil, nil
	case StoreRedis:
		client := b.redis
		var owned redis.UniversalClient
		if client == nil {
			client = redis.NewUniversalClient(&redis.UniversalOptions{
				Addrs:    []string{cfg.RedisAddr},
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			owned = client
		}
		be, err := session.NewRedisBackend(client, cfg.RedisPrefix, cfg.RedisTTL)
		if err != nil {
			if owned != nil {
				_ = owned.Close()
			}
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		return be, owned, nil
	default:
		return session.NewMemoryBackend(), nil, nil
	}
}

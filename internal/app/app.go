// Package app assembles the data layer: storage, the local store, the
// gateway and the client-side stores that sit on top of it.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"fruitshop/backend/internal/config"
	"fruitshop/backend/internal/gateway"
	"fruitshop/backend/internal/service"
	"fruitshop/backend/internal/storage"
	"fruitshop/backend/internal/storage/postgres"
	"fruitshop/backend/internal/storage/redis"
	"fruitshop/backend/internal/storage/s3"
	"fruitshop/backend/internal/storage/sqlite"
	"fruitshop/backend/internal/store/memory"
)

type options struct {
	storage  storage.Storage
	registry *prometheus.Registry
	now      func() time.Time
}

type Option func(*options)

// WithStorage uses kv instead of opening the configured driver. The app
// still closes it on Close.
func WithStorage(kv storage.Storage) Option {
	return func(o *options) { o.storage = kv }
}

func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) { o.registry = reg }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

type App struct {
	Storage    storage.Storage
	Backend    *memory.Store
	Gateway    *gateway.Gateway
	Session    *service.Session
	Enterprise *service.Enterprise
	Ledger     *service.Ledger
	Registry   *prometheus.Registry
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
		o.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	kv := o.storage
	if kv == nil {
		var err error
		if kv, err = OpenStorage(ctx, cfg.Storage); err != nil {
			return nil, err
		}
	}
	logger.Info("storage ready", zap.String("driver", driverName(cfg.Storage.Driver, o.storage != nil)))

	a, err := assemble(ctx, cfg, logger, kv, o)
	if err != nil {
		if closeErr := kv.Close(); closeErr != nil {
			logger.Warn("close storage after failed start", zap.Error(closeErr))
		}
		return nil, err
	}
	return a, nil
}

func assemble(ctx context.Context, cfg config.Config, logger *zap.Logger, kv storage.Storage, o options) (*App, error) {
	backend, err := memory.New(ctx, kv,
		memory.WithLatency(cfg.Latency),
		memory.WithFakerSeed(cfg.FakerSeed),
		memory.WithLogger(logger.Named("local")),
		memory.WithClock(o.now),
	)
	if err != nil {
		return nil, fmt.Errorf("local store: %w", err)
	}

	gwOpts := []gateway.Option{
		gateway.WithLogger(logger.Named("gateway")),
		gateway.WithMetrics(gateway.NewMetrics(o.registry)),
		gateway.WithClock(o.now),
	}
	if cfg.RemoteBaseURL != "" {
		gwOpts = append(gwOpts, gateway.WithRemote(cfg.RemoteBaseURL, cfg.RemoteTimeout))
		logger.Info("remote backend enabled", zap.String("base_url", cfg.RemoteBaseURL))
	}
	gw := gateway.New(backend, gwOpts...)

	svcOpts := []service.Option{service.WithClock(o.now)}
	session, err := service.NewSession(ctx, gw, kv, append(svcOpts, service.WithLogger(logger.Named("session")))...)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	gw.SetTokenSource(session)

	enterprise, err := service.NewEnterprise(ctx, gw, kv, append(svcOpts, service.WithLogger(logger.Named("enterprise")))...)
	if err != nil {
		return nil, fmt.Errorf("enterprise: %w", err)
	}
	ledger := service.NewLedger(gw, session, enterprise, append(svcOpts, service.WithLogger(logger.Named("ledger")))...)
	session.OnActiveStoreChange(ledger.HandleActiveStoreChange)

	if storeID := session.ActiveStoreID(); storeID != "" {
		if err := ledger.LoadStoreData(ctx, storeID); err != nil {
			logger.Warn("initial store load failed", zap.String("store", storeID), zap.Error(err))
		}
	}

	return &App{
		Storage:    kv,
		Backend:    backend,
		Gateway:    gw,
		Session:    session,
		Enterprise: enterprise,
		Ledger:     ledger,
		Registry:   o.registry,
	}, nil
}

func (a *App) Close() error {
	if a == nil || a.Storage == nil {
		return nil
	}
	return a.Storage.Close()
}

var errUnknownDriver = errors.New("unknown storage driver")

// OpenStorage opens the key-value driver named by cfg.Driver.
func OpenStorage(ctx context.Context, cfg config.StorageConfig) (storage.Storage, error) {
	var (
		kv  storage.Storage
		err error
	)
	switch cfg.Driver {
	case "", "memory":
		kv = storage.NewMemory()
	case "file":
		kv, err = opened(storage.NewFile(cfg.Dir))
	case "sqlite":
		kv, err = opened(sqlite.New(ctx, cfg.SQLitePath))
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, errors.New("postgres storage needs a database url")
		}
		kv, err = opened(postgres.New(ctx, cfg.DatabaseURL))
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, errors.New("redis storage needs an address")
		}
		rs := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, fmt.Errorf("redis unavailable: %w", err)
		}
		kv = rs
	case "s3":
		kv, err = opened(s3.New(ctx, s3.Config{
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			Endpoint:        cfg.S3Endpoint,
			Prefix:          cfg.S3Prefix,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			PathStyle:       cfg.S3PathStyle,
		}))
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Driver, err)
	}
	return kv, nil
}

// opened keeps a failed constructor's typed nil out of the interface.
func opened[S storage.Storage](kv S, err error) (storage.Storage, error) {
	if err != nil {
		return nil, err
	}
	return kv, nil
}

func driverName(driver string, injected bool) string {
	switch {
	case injected:
		return "injected"
	case driver == "":
		return "memory"
	default:
		return driver
	}
}

package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/walletworks/balance-service/internal/app/cache"
	kafkaevents "github.com/walletworks/balance-service/internal/app/events/kafka"
	"github.com/walletworks/balance-service/internal/app/httpapi"
	balancesvc "github.com/walletworks/balance-service/internal/app/services/balance"
	"github.com/walletworks/balance-service/internal/app/storage"
	"github.com/walletworks/balance-service/internal/app/storage/postgres"
	"github.com/walletworks/balance-service/internal/config"
	"github.com/walletworks/balance-service/pkg/logger"
)

// Application wires core dependencies and manages the HTTP server lifecycle.
type Application struct {
	cfg        *config.Config
	log        *logger.Logger
	httpServer *http.Server
	db         *sql.DB
	redis      *cache.Redis
	publisher  *kafkaevents.Publisher

	Balance *balancesvc.Service
}

// NewApplication constructs a fully wired application from configuration.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := postgres.Apply(migrateCtx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	var store storage.LedgerStore = postgres.New(db)

	var balanceCache cache.Cache
	var redisCache *cache.Redis
	if cfg.Redis.Addr != "" {
		redisCache = cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
		if err := redisCache.Ping(pingCtx); err != nil {
			log.WithError(err).Warn("redis unreachable at startup; continuing with degraded cache")
		}
		cancelPing()
		balanceCache = redisCache
	} else {
		log.Warn("REDIS_ADDR not set; balance cache disabled")
		balanceCache = cache.Nop{}
	}

	balanceService := balancesvc.New(store, balanceCache, log.WithField("module", "balance"))

	var publisher *kafkaevents.Publisher
	if cfg.Kafka.Brokers != "" {
		brokers := strings.Split(cfg.Kafka.Brokers, ",")
		publisher = kafkaevents.NewPublisher(brokers, cfg.Kafka.Topic)
		balanceService.AttachPublisher(publisher)
	} else {
		log.Warn("KAFKA_BROKERS not set; transaction events disabled")
	}

	mux := httpapi.NewHandler(balanceService, log.WithField("module", "httpapi"))
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Application{
		cfg:        cfg,
		log:        log,
		httpServer: httpServer,
		db:         db,
		redis:      redisCache,
		publisher:  publisher,
		Balance:    balanceService,
	}, nil
}

// Run starts the HTTP server and blocks until the context is cancelled or
// the server fails.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.log.Infof("HTTP server listening on %s", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server and closes external clients.
func (a *Application) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.WithError(err).Warn("error closing event publisher")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("error closing redis client")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.WithError(err).Warn("error closing database connection")
		}
	}
	return nil
}

func openDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.Driver == "" {
		return nil, fmt.Errorf("database driver not configured")
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database dsn not configured")
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

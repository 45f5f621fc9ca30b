// cmd/concierge-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"yutenji-concierge/internal/api"
	"yutenji-concierge/internal/common/config"
	"yutenji-concierge/internal/common/database"
	"yutenji-concierge/internal/common/llm"
	"yutenji-concierge/internal/common/logger"
	"yutenji-concierge/internal/common/observability"
	"yutenji-concierge/pkg/persona"

	ci "yutenji-concierge/internal/concierge/classify-intent"
	cp "yutenji-concierge/internal/concierge/compose-prompt"
	ds "yutenji-concierge/internal/concierge/data-store"
	fr "yutenji-concierge/internal/concierge/format-response"
	rt "yutenji-concierge/internal/concierge/recommend-turn"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func loadConfig() (*config.Config, error) {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := loadConfig()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog, err := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		bootLog.Fatal("logger init failed", zap.Error(err))
	}
	defer zapLog.Sync()
	zapLog = zapLog.With(zap.String("service", cfg.App.Name), zap.String("version", cfg.App.Version))

	log := logger.NewZapAdapter(zapLog)
	zapLog.Info("Starting concierge server...", zap.String("environment", cfg.App.Environment))

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")
	if err := pg.RegisterMetrics(prometheus.DefaultRegisterer, cfg.Database.Postgres.Database); err != nil {
		zapLog.Warn("postgres pool metrics unavailable", zap.Error(err))
	}

	// --- Init Redis (optional catalog cache) ---
	var redisClient *database.RedisClient
	if cfg.Database.Redis.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redisClient.Close()
		zapLog.Info("Redis connected successfully")
	} else {
		zapLog.Info("Redis disabled, catalog reads go to PostgreSQL")
	}

	p, err := persona.Load(cfg.Persona.Path)
	if err != nil {
		zapLog.Fatal("persona load failed", zap.Error(err))
	}
	zapLog.Info("persona loaded", zap.String("name", p.Name), zap.String("version", p.Version))

	// --- Components ---
	cache := redisClientOrNil(redisClient)
	store := ds.NewHandler(&ds.Config{
		CatalogTable: cfg.Catalog.Table,
		LogTable:     cfg.Catalog.LogTable,
		CacheTTL:     config.GetDuration(cfg.Catalog.CacheTTL),
		QueryTimeout: config.GetDuration(cfg.Catalog.QueryTimeout),
	}, pg.DB, cache, &dataStoreLoggerAdapter{log})

	if cfg.Catalog.AutoMigrate {
		if err := store.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("schema bootstrap failed", zap.Error(err))
		}
	}

	completer := llm.NewClient(&llm.Config{
		BaseURL:                 cfg.Completion.BaseURL,
		APIKey:                  cfg.Completion.APIKey,
		Model:                   cfg.Completion.Model,
		Timeout:                 config.GetDuration(cfg.Completion.Timeout),
		BreakerMaxRequests:      cfg.Completion.Breaker.MaxRequests,
		BreakerInterval:         config.GetDuration(cfg.Completion.Breaker.Interval),
		BreakerOpenTimeout:      config.GetDuration(cfg.Completion.Breaker.OpenTimeout),
		BreakerFailureThreshold: cfg.Completion.Breaker.FailureThreshold,
	}, &completionLoggerAdapter{log})

	composer := cp.NewComposer(p)
	classifier := ci.NewHandler(completer, composer.IntentInstruction(), &classifierLoggerAdapter{log})

	turns := rt.NewHandler(&rt.Config{
		TrustClientCatalog: cfg.Catalog.TrustClientCatalog,
		TurnTimeout:        config.GetDuration(cfg.Server.TurnTimeout),
	}, rt.Dependencies{
		Gate:       rt.NewAdmissionGate(),
		Store:      store,
		Classifier: classifier,
		Composer:   composer,
		Completer:  completer,
		Formatter:  fr.New(p.LinkLabel),
		Obs:        obs,
	}, &turnLoggerAdapter{log})

	checks := []api.ReadinessCheck{{Name: "postgres", Check: pg.Ping}}
	if redisClient != nil {
		checks = append(checks, api.ReadinessCheck{Name: "redis", Check: redisClient.Ping})
	}

	server := api.NewServer(&api.Config{
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		RateLimitRequests:  cfg.Server.RateLimitPerMinute,
		RateLimitWindow:    time.Minute,
	}, api.Dependencies{
		Turns:   turns,
		Catalog: store,
		Checks:  checks,
		Status: func() map[string]interface{} {
			return map[string]interface{}{
				"inFlight":        turns.Gate().Len(),
				"providerCircuit": completer.BreakerState(),
			}
		},
	}, &apiLoggerAdapter{log})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.Router(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining in-flight turns...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Concierge server stopped gracefully")
}

func redisClientOrNil(c *database.RedisClient) *redis.Client {
	if c == nil {
		return nil
	}
	return c.Client
}

// Logger adapters for components that declare their own Logger interfaces
type dataStoreLoggerAdapter struct {
	logger.Logger
}

func (a *dataStoreLoggerAdapter) With(fields map[string]interface{}) ds.Logger {
	return &dataStoreLoggerAdapter{a.Logger.With(fields)}
}

type completionLoggerAdapter struct {
	logger.Logger
}

func (a *completionLoggerAdapter) With(fields map[string]interface{}) llm.Logger {
	return &completionLoggerAdapter{a.Logger.With(fields)}
}

type classifierLoggerAdapter struct {
	logger.Logger
}

func (a *classifierLoggerAdapter) With(fields map[string]interface{}) ci.Logger {
	return &classifierLoggerAdapter{a.Logger.With(fields)}
}

type turnLoggerAdapter struct {
	logger.Logger
}

func (a *turnLoggerAdapter) With(fields map[string]interface{}) rt.Logger {
	return &turnLoggerAdapter{a.Logger.With(fields)}
}

type apiLoggerAdapter struct {
	logger.Logger
}

func (a *apiLoggerAdapter) With(fields map[string]interface{}) api.Logger {
	return &apiLoggerAdapter{a.Logger.With(fields)}
}

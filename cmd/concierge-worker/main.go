// cmd/concierge-worker/main.go
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"campus-concierge/internal/catalog"
	"campus-concierge/internal/common/camunda"
	"campus-concierge/internal/common/config"
	"campus-concierge/internal/common/database"
	"campus-concierge/internal/common/logger"
	"campus-concierge/internal/common/observability"
	"campus-concierge/internal/concierge"
	"campus-concierge/internal/providers/appcontext"
	"campus-concierge/internal/providers/genai"

	rcq "campus-concierge/internal/workers/concierge/resolve-campus-query"
	sac "campus-concierge/internal/workers/concierge/summarize-app-context"
)

type registrable interface {
	Register() error
	Close()
	GetTaskType() string
}

// retryWithBackoff attempts to execute a function with exponential backoff.
// Errors that do not look transient end the loop early.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}
		if !camunda.IsTransient(err) {
			return fmt.Errorf("%s failed: %w", operationName, err)
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

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting concierge worker...", zap.String("environment", cfg.App.Environment))

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Campus catalog ---
	cat, err := catalog.Load(catalog.PathsFromConfig(cfg.Concierge))
	if err != nil {
		zapLog.Fatal("catalog load failed", zap.Error(err))
	}
	zapLog.Info("Campus catalog loaded",
		zap.Int("buildings", len(cat.Buildings)),
		zap.Int("aliases", len(cat.Aliases)),
		zap.Int("knowledgeBase", len(cat.KnowledgeBase.Entries)),
	)

	// --- Completion provider ---
	provider, err := genai.New(cfg.APIs.GenAI, log)
	if err != nil {
		zapLog.Fatal("genai provider setup failed", zap.Error(err))
	}
	if provider == nil {
		zapLog.Warn("No completion provider configured, LLM stages disabled")
	}

	// --- App context backends ---
	var summarizer *appcontext.Summarizer
	var closers []func() error
	if cfg.AppContext.Enabled {
		summarizer, closers, err = buildSummarizer(ctx, cfg, zapLog, log)
		if err != nil {
			zapLog.Fatal("app context setup failed", zap.Error(err))
		}
	}
	defer func() {
		for _, c := range closers {
			_ = c()
		}
	}()

	var ctxProvider concierge.ContextProvider
	if summarizer != nil {
		ctxProvider = summarizer
	}
	engine := concierge.NewEngine(cat, concierge.OptionsFromConfig(cfg.Concierge), provider, ctxProvider, log)

	// --- Zeebe client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	zapLog.Info("Zeebe client connected successfully")

	// --- Workers ---
	resolveHandler, err := rcq.NewHandler(rcq.HandlerOptions{
		AppConfig:     cfg,
		Camunda:       zeebe,
		Resolver:      engine,
		Observability: obs,
		Logger:        log,
	})
	if err != nil {
		zapLog.Fatal("resolve-campus-query setup failed", zap.Error(err))
	}

	workers := []registrable{resolveHandler}

	if summarizer != nil {
		summarizeHandler, err := sac.NewHandler(sac.HandlerOptions{
			AppConfig:     cfg,
			Camunda:       zeebe,
			Summarizer:    summarizer,
			Observability: obs,
			Logger:        log,
		})
		if err != nil {
			zapLog.Fatal("summarize-app-context setup failed", zap.Error(err))
		}
		workers = append(workers, summarizeHandler)
	}

	for _, w := range workers {
		if err := w.Register(); err != nil {
			zapLog.Fatal("worker registration failed", zap.String("taskType", w.GetTaskType()), zap.Error(err))
		}
	}
	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := resolveHandler.HealthCheck(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.App.HTTPAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", cfg.App.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Close()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}

	zapLog.Info("Concierge worker stopped")
}

// buildSummarizer connects the backends named in app_context.sources and an
// optional Redis cache. A cache outage only disables caching.
func buildSummarizer(ctx context.Context, cfg *config.Config, zapLog *zap.Logger, log logger.Logger) (*appcontext.Summarizer, []func() error, error) {
	var closers []func() error
	needs := map[string]bool{}
	for _, source := range cfg.AppContext.Sources {
		needs[source] = true
	}

	var db *sql.DB
	if needs["postgres"] {
		var pg *database.PostgresClient
		err := retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			return nil, closers, err
		}
		closers = append(closers, pg.Close)
		db = pg.DB
		zapLog.Info("PostgreSQL connected successfully")
	}

	var es *elasticsearch.Client
	if needs["elasticsearch"] {
		var esClient *database.ElasticsearchClient
		err := retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			return nil, closers, err
		}
		es = esClient.Client
		zapLog.Info("Elasticsearch connected successfully")
	}

	var cache *appcontext.RedisCache
	if cfg.Database.Redis.Address != "" {
		rdb, err := database.NewRedis(cfg.Database.Redis)
		if err == nil {
			err = rdb.Ping(ctx)
		}
		if err != nil {
			zapLog.Warn("Redis unavailable, app context cache disabled", zap.Error(err))
		} else {
			closers = append(closers, rdb.Close)
			cache = appcontext.NewRedisCache(rdb.Client, config.GetDuration(cfg.AppContext.CacheTTL))
			zapLog.Info("Redis connected successfully")
		}
	}

	sources, err := appcontext.BuildSources(cfg.AppContext, db, es)
	if err != nil {
		return nil, closers, err
	}
	return appcontext.NewSummarizer(cfg.AppContext, sources, cache, log), closers, nil
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}

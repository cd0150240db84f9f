package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/stepout/internal/config"
	"github.com/playperu/stepout/internal/database"
	"github.com/playperu/stepout/internal/handler/health"
	"github.com/playperu/stepout/internal/journal"
	"github.com/playperu/stepout/internal/migrations"
	"github.com/playperu/stepout/internal/narration"
	"github.com/playperu/stepout/internal/positioning"
	"github.com/playperu/stepout/internal/server"
	"github.com/playperu/stepout/internal/stepout"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(ctx, db, logger); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)
	store := journal.NewStore(db)

	checks := map[string]health.Checker{
		"sqlite": health.CheckerFunc(store.Ping),
	}

	// --- Narration ---
	gemini, err := narration.NewGemini(ctx, cfg.GeminiKey(), cfg.GeminiModel)
	if err != nil {
		return fmt.Errorf("configuring narration: %w", err)
	}
	if cfg.GeminiKey() == "" {
		logger.Warn("no gemini api key, using fallback messages")
	}
	var narrator stepout.Narrator = gemini

	// --- Redis ---
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis")

		narrator = narration.NewCached(gemini, narration.NewRedisCache(rdb), cfg.NarrationCacheTTL, logger)
		checks["redis"] = redisChecker{rdb}
	}

	// --- Missions ---
	catalog := stepout.DefaultCatalog()
	if cfg.MissionsFile != "" {
		catalog, err = stepout.LoadCatalog(cfg.MissionsFile)
		if err != nil {
			return fmt.Errorf("loading missions: %w", err)
		}
		logger.Info("loaded missions", "file", cfg.MissionsFile)
	}

	// --- MQTT ---
	var feed server.Feed
	var mq *positioning.MQTT
	if cfg.MQTTBroker != "" {
		mq, err = positioning.ConnectMQTT(ctx, cfg.MQTTBroker, cfg.MQTTTopic, logger)
		if err != nil {
			return fmt.Errorf("connecting to mqtt: %w", err)
		}
		feed = mq
	}

	// --- Sessions ---
	broker := server.NewBroker()
	sessions := server.NewRegistry(logger, feed,
		stepout.WithCatalog(catalog),
		stepout.WithNarrator(narrator),
		stepout.WithTickInterval(cfg.TickInterval),
		stepout.WithObserver(broker),
		stepout.WithObserver(store.Observer(logger)),
	)

	if cfg.DebugTokenHash != "" {
		logger.Warn("debug routes enabled")
	}

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, server.Deps{
		Logger:         logger,
		Sessions:       sessions,
		Broker:         broker,
		Journal:        store,
		DebugTokenHash: cfg.DebugTokenHash,
		SPADir:         cfg.SPADir,
	}, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, checks).Routes())
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		err := srv.Shutdown(context.Background())

		// Sessions go after the server so no request can reach a closed one.
		logger.Info("closing sessions", "count", sessions.Len())
		sessions.Close()
		if mq != nil {
			mq.Close()
		}
		return err
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// redisChecker adapts *redis.Client to health.Checker.
type redisChecker struct{ client *redis.Client }

func (r redisChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }

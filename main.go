package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"surplusbridge/ingestworker/config"
	"surplusbridge/ingestworker/internal/ingest"
	"surplusbridge/ingestworker/internal/parser"
	"surplusbridge/ingestworker/internal/scraper"
	"surplusbridge/ingestworker/logger"
	"surplusbridge/ingestworker/services/cache"
	"surplusbridge/ingestworker/services/publisher"
	"surplusbridge/ingestworker/services/store"
	"surplusbridge/ingestworker/services/worker"
)

func main() {
	godotenv.Load()

	logger.Init()
	log := logger.Default

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	services, err := initializeServices(ctx, &cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	parsers := parser.CreateParsers(&cfg)
	cooldown := cache.NewSourceCooldown(services.Cache)
	orchestrators := map[parser.Platform]*scraper.Orchestrator{
		parser.PlatformGCSurplus:      scraper.New(parsers[parser.PlatformGCSurplus], cooldown, cfg.FetchTimeout, cfg.BlockCooldown),
		parser.PlatformAlbertaSurplus: scraper.New(parsers[parser.PlatformAlbertaSurplus], cooldown, cfg.FetchTimeout, cfg.BlockCooldown),
	}

	svc := ingest.NewService(
		services.Candidates,
		services.Properties,
		services.Health,
		services.Publisher,
		orchestrators,
		parsers,
		cfg.FetchTimeout,
	)

	handler := ingest.NewHandler(svc, cfg.AgentSecret, services.Sessions)
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler.Router(),
	}

	serverDone := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("Starting ingestion gateway")
		serverDone <- server.ListenAndServe()
	}()

	if cfg.ScrapeInterval > 0 {
		w := worker.NewWorker(svc,
			[]parser.Platform{parser.PlatformGCSurplus, parser.PlatformAlbertaSurplus},
			cfg.ScrapeInterval)
		go func() {
			log.Info().Dur("interval", cfg.ScrapeInterval).Msg("Starting scrape scheduler")
			if err := w.Start(ctx); err != nil && err != context.Canceled {
				log.Error().Err(err).Msg("Scheduler exited with error")
			}
		}()
	}

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	case err := <-serverDone:
		if err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Server exited with error")
		}
	}

	log.Info().Msg("Shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
}

// Services holds all the initialized service dependencies
type Services struct {
	Cache      cache.CacheService
	Publisher  publisher.Publisher
	Candidates store.CandidateStore
	Properties store.PropertyStore
	Health     store.HealthStore
	Sessions   store.SessionVerifier

	pool *pgxpool.Pool
}

// Cleanup closes everything that holds a connection
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

// initializeServices wires the external collaborators. Postgres is
// optional at startup: without a DSN the gateway runs but every
// ingestion call answers with a storage error.
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	if cfg.MemcacheAddr != "" {
		services.Cache = cache.NewMemcacheService(cfg.MemcacheAddr)
		logger.Info("Using Memcache at %s for source cooldowns", cfg.MemcacheAddr)
	}

	if cfg.RedisAddr != "" {
		services.Publisher = publisher.NewRedisPublisher(cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
		logger.Info("Publishing approved properties to Redis at %s (stream: %s)", cfg.RedisAddr, cfg.RedisStream)
	}

	if cfg.PostgresDSN == "" {
		logger.Warn("POSTGRES_DSN not set; ingestion runs will fail until storage is configured")
		return services, nil
	}

	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	pg, err := store.NewPostgresStore(pool)
	if err != nil {
		return nil, err
	}

	services.pool = pool
	services.Candidates = pg
	services.Properties = pg
	services.Health = pg
	services.Sessions = pg
	logger.Info("Connected to Postgres")

	return services, nil
}

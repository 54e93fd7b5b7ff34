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
	_ "time/tzdata"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"aerolease/internal/api"
	"aerolease/internal/booking"
	"aerolease/internal/config"
	"aerolease/internal/database"
	"aerolease/internal/events"
	"aerolease/internal/metrics"
	"aerolease/internal/models"
	"aerolease/internal/notify"
	"aerolease/internal/relay"
	"aerolease/internal/session"
)

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn().Err(err).Msg("failed to read .env")
	}

	cfg, err := config.Load(os.Getenv("AEROLEASE_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	rules, err := cfg.CalendarRules()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid calendar rules")
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid calendar timezone")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *database.DB
	if cfg.Catalog.Source == config.CatalogSourceSQLite {
		db, err = database.NewDB(cfg.Catalog.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("open db error")
		}
		defer db.Close()
	}

	catalog := models.NewCatalogHolder(nil)
	if err := startCatalog(ctx, cfg, db, catalog, &logger); err != nil {
		logger.Fatal().Err(err).Msg("failed to load aircraft catalog")
	}

	var (
		store  booking.Store
		checks []api.Option
	)
	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		redisStore := session.NewRedisStore(rdb, cfg.SessionTTL())
		checks = append(checks, api.WithReadyCheck("redis", redisStore.Ping))
		store = redisStore
	default:
		memStore := session.NewMemoryStore(cfg.SessionTTL())
		go memStore.RunCleanup(ctx, time.Minute, func(n int) {
			logger.Debug().Int("removed", n).Msg("Expired booking sessions removed")
		})
		store = memStore
	}
	if db != nil {
		checks = append(checks, api.WithReadyCheck("sqlite", db.PingContext))
	}

	relayClient := relay.NewClient(cfg.Relay.Endpoint, cfg.RelayTimeout(),
		relay.WithRateLimit(cfg.Relay.RatePerSecond, cfg.Relay.Burst))
	if cfg.Relay.Endpoint == "" {
		logger.Warn().Msg("relay.endpoint is empty; booking requests will not be delivered")
	}

	bus := events.NewEventBus()
	bus.OnError(func(e events.Event, err error) {
		logger.Error().Err(err).Str("event", e.Type).Msg("event handler failed")
	})
	if cfg.Telegram.BotToken != "" {
		bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
		if err != nil {
			logger.Fatal().Err(err).Msg("create telegram bot error")
		}
		notifier := notify.NewManagerNotifier(bot, cfg.Telegram.Managers, &logger)
		notifier.Subscribe(bus)
		go notifier.Run(ctx)
		logger.Info().Str("bot", bot.Self.UserName).Int("managers", len(cfg.Telegram.Managers)).Msg("Manager notifications enabled")
	}

	svc := booking.NewService(catalog, store, relayClient, rules, &logger,
		booking.WithLocation(loc),
		booking.WithEventBus(bus),
	)

	metrics.Register()
	if cfg.Monitoring.PrometheusEnabled {
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	opts := append([]api.Option{
		api.WithAllowedOrigin(cfg.Server.AllowedOrigin),
		api.WithLocation(loc),
	}, checks...)
	server := api.NewHTTPServer(cfg.Server.Port, svc, catalog, rules, &logger, opts...)
	server.Start()

	logger.Info().
		Str("earliest", rules.Earliest.String()).
		Str("catalog", cfg.Catalog.Source).
		Str("sessions", cfg.Session.Backend).
		Msg("Booking service started")

	<-ctx.Done()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error().Err(err).Msg("HTTP API shutdown error")
	}
	logger.Info().Msg("Booking service stopped")
}

// startCatalog loads the catalog once and keeps it current while ctx lives.
// With the sqlite source, aircraft.yaml is synced into the database when
// sync_on_start is set and the catalog is always read back from the database.
func startCatalog(ctx context.Context, cfg *config.Config, db *database.DB, holder *models.CatalogHolder, logger *zerolog.Logger) error {
	if db != nil && !cfg.Catalog.SyncOnStart {
		c, err := db.LoadCatalog(ctx)
		if err != nil {
			return err
		}
		holder.Store(c)
		logger.Info().Int("aircraft", c.Len()).Msg("Aircraft catalog loaded from database")
		return nil
	}

	// The first callback runs synchronously inside WatchAircraft.
	var initialErr error
	first := true
	err := config.WatchAircraft(ctx, cfg.Catalog.Path, cfg.CatalogReloadInterval(), func(ac *config.AircraftConfig) {
		c, err := applyAircraftConfig(ctx, db, ac)
		if first {
			initialErr = err
			first = false
		}
		if err != nil {
			logger.Error().Err(err).Msg("failed to apply aircraft config")
			return
		}
		holder.Store(c)
		logger.Info().Str("path", cfg.Catalog.Path).Str("config", ac.String()).Msg("Aircraft catalog loaded")
	}, func(err error) {
		logger.Error().Err(err).Str("path", cfg.Catalog.Path).Msg("Aircraft catalog reload failed; keeping previous catalog")
	})
	if err != nil {
		return err
	}
	return initialErr
}

func applyAircraftConfig(ctx context.Context, db *database.DB, ac *config.AircraftConfig) (*models.Catalog, error) {
	if db == nil {
		return ac.Catalog()
	}
	if err := db.SyncCatalogFromConfig(ctx, ac); err != nil {
		return nil, fmt.Errorf("sync catalog: %w", err)
	}
	return db.LoadCatalog(ctx)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

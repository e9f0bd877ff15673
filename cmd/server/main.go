package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/vetero/internal/api"
	"github.com/neexbeast/vetero/internal/auth"
	"github.com/neexbeast/vetero/internal/cache"
	"github.com/neexbeast/vetero/internal/config"
	"github.com/neexbeast/vetero/internal/logging"
	"github.com/neexbeast/vetero/internal/lookup"
	"github.com/neexbeast/vetero/internal/storage"
	"github.com/neexbeast/vetero/internal/upstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	log := logging.New(os.Stdout, cfg.LogFormat, cfg.Level())

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx := context.Background()

	// Connect to PostgreSQL.
	pool, err := storage.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	applied, err := storage.RunMigrations(ctx, pool, cfg.MigrationsDir)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("migrations applied", "files", applied)

	repo := storage.NewRepository(pool)

	// Redis is optional. Interfaces stay nil when it is disabled.
	var (
		redisPing     *redisPingerAdapter
		locationCache lookup.LocationCache
		weatherCache  lookup.WeatherCache
	)
	if cfg.RedisURL != "" {
		redisClient, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer func() { _ = redisClient.Close() }()

		hot := cache.NewCache(redisClient)
		locationCache, weatherCache = hot, hot
		redisPing = &redisPingerAdapter{client: redisClient}
		log.Info("redis hot tier enabled")
	}

	getter := upstream.NewHTTPGetter(cfg.HTTPTimeout)
	geoNames := upstream.NewGeoNamesClient(getter, cfg.GeoNamesUsername)
	if cfg.GeoNamesURL != "" {
		geoNames = upstream.NewGeoNamesClientWithURL(getter, cfg.GeoNamesURL, cfg.GeoNamesUsername)
	}
	darkSky := upstream.NewDarkSkyClient(getter, cfg.DarkSkySecret)
	if cfg.DarkSkyURL != "" {
		darkSky = upstream.NewDarkSkyClientWithURL(getter, cfg.DarkSkyURL, cfg.DarkSkySecret)
	}

	// Wire dependencies.
	locations := lookup.NewLocationResolver(repo, geoNames, locationCache, log)
	weather := lookup.NewWeatherResolver(repo, darkSky, weatherCache, lookup.WeatherOptions{
		ForecastDays: cfg.ForecastDays,
		MaxAge:       cfg.WeatherMaxAge,
	}, log)
	service := lookup.NewService(locations, weather, log)

	routerCfg := api.RouterConfig{
		Handlers:           api.NewHandlers(service, log),
		Authorizer:         auth.NewAuthorizer(repo, log),
		DB:                 pool,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Log:                log,
	}
	if redisPing != nil {
		routerCfg.Redis = redisPing
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.NewRouter(routerCfg),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Both upstream calls run in parallel, each bounded by HTTPTimeout.
		WriteTimeout: cfg.HTTPTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting",
			"addr", srv.Addr,
			"forecast_days", cfg.ForecastDays,
			"weather_max_age", cfg.WeatherMaxAge,
			"redis", cfg.RedisURL != "",
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}

// redisPingerAdapter adapts redis.Client to the health check's Ping(ctx) error shape.
type redisPingerAdapter struct {
	client *redis.Client
}

func (r *redisPingerAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

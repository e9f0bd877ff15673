package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the service.
type Config struct {
	Port        string
	DatabaseURL string
	// RedisURL is optional; empty disables the hot tier.
	RedisURL string

	GeoNamesUsername string
	DarkSkySecret    string
	// GeoNamesURL and DarkSkyURL override the provider endpoints when set.
	GeoNamesURL string
	DarkSkyURL  string
	HTTPTimeout time.Duration

	ForecastDays  int
	WeatherMaxAge time.Duration

	RateLimitPerMinute int
	MigrationsDir      string

	LogLevel  string
	LogFormat string
	Debug     bool
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()

	v.SetDefault("port", "8080")
	v.SetDefault("database_url", "")
	v.SetDefault("redis_url", "")
	v.SetDefault("geonames_api_username", "")
	v.SetDefault("darksky_api_secret", "")
	v.SetDefault("geonames_url", "")
	v.SetDefault("darksky_url", "")
	v.SetDefault("http_request_timeout", "10s")
	v.SetDefault("forecast_days", 3)
	v.SetDefault("weather_max_age", "0s")
	v.SetDefault("rate_limit_per_minute", 60)
	v.SetDefault("migrations_dir", "migrations")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("debug", false)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	timeout, err := seconds(v.GetString("http_request_timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_REQUEST_TIMEOUT: %w", err)
	}
	maxAge, err := seconds(v.GetString("weather_max_age"))
	if err != nil {
		return nil, fmt.Errorf("invalid WEATHER_MAX_AGE: %w", err)
	}

	cfg := &Config{
		Port:               v.GetString("port"),
		DatabaseURL:        v.GetString("database_url"),
		RedisURL:           v.GetString("redis_url"),
		GeoNamesUsername:   v.GetString("geonames_api_username"),
		DarkSkySecret:      v.GetString("darksky_api_secret"),
		GeoNamesURL:        v.GetString("geonames_url"),
		DarkSkyURL:         v.GetString("darksky_url"),
		HTTPTimeout:        timeout,
		ForecastDays:       v.GetInt("forecast_days"),
		WeatherMaxAge:      maxAge,
		RateLimitPerMinute: v.GetInt("rate_limit_per_minute"),
		MigrationsDir:      v.GetString("migrations_dir"),
		LogLevel:           v.GetString("log_level"),
		LogFormat:          v.GetString("log_format"),
		Debug:              v.GetBool("debug"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports every missing or out-of-range setting at once.
func (c *Config) Validate() error {
	var errs []error

	required := map[string]string{
		"DATABASE_URL":          c.DatabaseURL,
		"GEONAMES_API_USERNAME": c.GeoNamesUsername,
		"DARKSKY_API_SECRET":    c.DarkSkySecret,
	}
	for _, key := range []string{"DATABASE_URL", "GEONAMES_API_USERNAME", "DARKSKY_API_SECRET"} {
		if strings.TrimSpace(required[key]) == "" {
			errs = append(errs, fmt.Errorf("%s is required", key))
		}
	}

	if c.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_REQUEST_TIMEOUT must be positive"))
	}
	if c.ForecastDays <= 0 {
		errs = append(errs, errors.New("FORECAST_DAYS must be positive"))
	}
	if c.WeatherMaxAge < 0 {
		errs = append(errs, errors.New("WEATHER_MAX_AGE must not be negative"))
	}
	if c.RateLimitPerMinute < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must not be negative"))
	}

	return errors.Join(errs...)
}

// Addr returns the listen address in the format ":port".
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Level returns the slog level. DEBUG=true forces debug.
func (c *Config) Level() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// seconds parses a Go duration, accepting a bare integer as seconds.
func seconds(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

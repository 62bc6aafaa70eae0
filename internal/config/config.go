// Package config reads process configuration from the environment, after
// loading an optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config for cmd/storefront.
type Config struct {
	APIBaseURL    string
	ListenAddr    string
	SessionToken  string
	HTTPTimeout   time.Duration
	PaymentMethod string
	LogLevel      slog.Level

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ProfileCacheTTL  time.Duration
	ProfileBatchSize int
	ProfileBatchRate float64
}

// Mock is the configuration of cmd/mockapi.
type Mock struct {
	Addr            string
	JWTSecret       string
	DeliveryCharge  decimal.Decimal
	DiscountPercent decimal.Decimal
	LogLevel        slog.Level
}

// LoadDotEnv loads files (".env" when none given). A missing file is not an
// error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads Config. Values already in the environment win over .env.
func Load() (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	var errs []error
	c := &Config{
		APIBaseURL:    env("API_BASE_URL", "http://localhost:5000/api"),
		ListenAddr:    addr(env("LISTEN_ADDR", ":9091")),
		SessionToken:  os.Getenv("SESSION_TOKEN"),
		PaymentMethod: env("PAYMENT_METHOD", "cod"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
	}
	c.HTTPTimeout = duration("HTTP_TIMEOUT", 15*time.Second, &errs)
	c.ProfileCacheTTL = duration("PROFILE_CACHE_TTL", 10*time.Minute, &errs)
	c.RedisDB = integer("REDIS_DB", 0, &errs)
	c.ProfileBatchSize = integer("PROFILE_BATCH_SIZE", 10, &errs)
	c.ProfileBatchRate = float("PROFILE_BATCH_RATE", 5, &errs)
	c.LogLevel = level("LOG_LEVEL", &errs)
	if c.ProfileBatchSize < 1 {
		errs = append(errs, fmt.Errorf("PROFILE_BATCH_SIZE must be positive, got %d", c.ProfileBatchSize))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadMock reads Mock.
func LoadMock() (*Mock, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	var errs []error
	m := &Mock{
		Addr:      addr(env("MOCK_ADDR", ":5000")),
		JWTSecret: env("JWT_SECRET", "dev-secret"),
	}
	m.DeliveryCharge = money("DELIVERY_CHARGE", decimal.NewFromInt(60), &errs)
	m.DiscountPercent = money("DISCOUNT_PERCENT", decimal.NewFromInt(10), &errs)
	m.LogLevel = level("LOG_LEVEL", &errs)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// addr accepts "8080" as well as ":8080".
func addr(s string) string {
	if s != "" && !strings.Contains(s, ":") {
		return ":" + s
	}
	return s
}

func duration(key string, def time.Duration, errs *[]error) time.Duration {
	v := env(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func integer(key string, def int, errs *[]error) int {
	v := env(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func float(key string, def float64, errs *[]error) float64 {
	v := env(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func money(key string, def decimal.Decimal, errs *[]error) decimal.Decimal {
	v := env(key, "")
	if v == "" {
		return def
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		*errs = append(*errs, fmt.Errorf("%s: invalid amount %q", key, v))
		return def
	}
	return d
}

func level(key string, errs *[]error) slog.Level {
	var l slog.Level
	v := env(key, "info")
	if err := l.UnmarshalText([]byte(v)); err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return slog.LevelInfo
	}
	return l
}

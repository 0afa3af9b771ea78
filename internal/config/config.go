package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress  string
	DatabaseURI string

	EsewaProductCode string
	EsewaSecret      string
	EsewaBaseURL     string
	PublicBaseURL    string
	SuccessURL       string
	FailureURL       string

	TokenSecret string

	KafkaBrokers    []string
	NotifyTopic     string
	NotifyQueueSize int

	SweepInterval   time.Duration
	StaleDraftAge   time.Duration
	PurgeDraftAge   time.Duration
	ShutdownTimeout time.Duration
}

const (
	defaultRunAddress      = ":8080"
	defaultTokenSecret     = "change-me-in-production"
	defaultEsewaBaseURL    = "https://rc-epay.esewa.com.np"
	defaultPublicBaseURL   = "http://localhost:8080"
	defaultSuccessURL      = "/payment/success"
	defaultFailureURL      = "/payment/failure"
	defaultKafkaBrokers    = "localhost:9092"
	defaultNotifyTopic     = "order.confirmed"
	defaultNotifyQueueSize = 128
	defaultSweepInterval   = time.Minute
	defaultStaleDraftAge   = 30 * time.Minute
	defaultPurgeDraftAge   = 30 * 24 * time.Hour
	defaultShutdownTimeout = 10 * time.Second
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:       getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:      getString(lookup, "DATABASE_URI", ""),
		EsewaProductCode: getString(lookup, "ESEWA_PRODUCT_CODE", ""),
		EsewaSecret:      getString(lookup, "ESEWA_SECRET", ""),
		EsewaBaseURL:     getString(lookup, "ESEWA_BASE_URL", defaultEsewaBaseURL),
		PublicBaseURL:    getString(lookup, "PUBLIC_BASE_URL", defaultPublicBaseURL),
		SuccessURL:       getString(lookup, "PAYMENT_SUCCESS_URL", defaultSuccessURL),
		FailureURL:       getString(lookup, "PAYMENT_FAILURE_URL", defaultFailureURL),
		TokenSecret:      getString(lookup, "TOKEN_SECRET", defaultTokenSecret),
		NotifyTopic:      getString(lookup, "NOTIFY_TOPIC", defaultNotifyTopic),
		NotifyQueueSize:  getInt(lookup, "NOTIFY_QUEUE_SIZE", defaultNotifyQueueSize),
		SweepInterval:    getDuration(lookup, "SWEEP_INTERVAL", defaultSweepInterval),
		StaleDraftAge:    getDuration(lookup, "STALE_DRAFT_AGE", defaultStaleDraftAge),
		PurgeDraftAge:    getDuration(lookup, "PURGE_DRAFT_AGE", defaultPurgeDraftAge),
		ShutdownTimeout:  getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}

	brokers := getString(lookup, "KAFKA_BROKERS", defaultKafkaBrokers)

	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		sweepIntervalStr   = cfg.SweepInterval.String()
		staleDraftAgeStr   = cfg.StaleDraftAge.String()
		purgeDraftAgeStr   = cfg.PurgeDraftAge.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.EsewaProductCode, "esewa-code", cfg.EsewaProductCode, "eSewa merchant product code")
	fs.StringVar(&cfg.EsewaSecret, "esewa-secret", cfg.EsewaSecret, "eSewa HMAC signing secret")
	fs.StringVar(&cfg.EsewaBaseURL, "esewa-url", cfg.EsewaBaseURL, "eSewa gateway base URL")
	fs.StringVar(&cfg.PublicBaseURL, "public-url", cfg.PublicBaseURL, "Externally reachable base URL of this service")
	fs.StringVar(&cfg.TokenSecret, "token-secret", cfg.TokenSecret, "Secret for signing auth tokens")
	fs.StringVar(&brokers, "kafka-brokers", brokers, "Comma separated Kafka broker addresses")
	fs.StringVar(&cfg.NotifyTopic, "notify-topic", cfg.NotifyTopic, "Kafka topic for order confirmation events")
	fs.StringVar(&sweepIntervalStr, "sweep-interval", sweepIntervalStr, "Interval between draft sweeps")
	fs.StringVar(&staleDraftAgeStr, "stale-draft-age", staleDraftAgeStr, "Age after which unpaid drafts are cancelled")
	fs.StringVar(&purgeDraftAgeStr, "purge-draft-age", purgeDraftAgeStr, "Age after which cancelled drafts are deleted")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.SweepInterval, err = time.ParseDuration(sweepIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid sweep interval: %w", err)
	}

	if cfg.StaleDraftAge, err = time.ParseDuration(staleDraftAgeStr); err != nil {
		return nil, fmt.Errorf("invalid stale draft age: %w", err)
	}

	if cfg.PurgeDraftAge, err = time.ParseDuration(purgeDraftAgeStr); err != nil {
		return nil, fmt.Errorf("invalid purge draft age: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if secretFile, ok := lookup("TOKEN_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read token secret file: %w", err)
		}
		cfg.TokenSecret = string(content)
	}

	cfg.KafkaBrokers = splitBrokers(brokers)

	if cfg.NotifyQueueSize <= 0 {
		cfg.NotifyQueueSize = defaultNotifyQueueSize
	}

	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}

	if cfg.StaleDraftAge <= 0 {
		cfg.StaleDraftAge = defaultStaleDraftAge
	}

	if cfg.PurgeDraftAge <= 0 {
		cfg.PurgeDraftAge = defaultPurgeDraftAge
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.EsewaProductCode == "" {
		return nil, fmt.Errorf("eSewa product code must be provided")
	}

	if cfg.EsewaSecret == "" {
		return nil, fmt.Errorf("eSewa secret must be provided")
	}

	return cfg, nil
}

func splitBrokers(raw string) []string {
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

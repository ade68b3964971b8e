// Package config reads process settings from the environment. The product
// catalog itself lives in its own file (internal/catalog); this is only the
// deployment-level wiring: credentials, target channel, intervals, paths.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// BOT_TOKEN: Telegram bot credential. Required.
	Token string
	// CHANNEL_ID: fixed destination chat for restock alerts. Required.
	ChannelID int64
	// OPERATOR_ID: Telegram user allowed to run mutating commands. Required.
	OperatorID int64

	// PRODUCTS_FILE: catalog path, JSON or YAML by extension.
	ProductsFile string
	// HISTORY_DB: SQLite alert log path.
	HistoryDB string
	// CHECK_INTERVAL: poll trigger, a Go duration or cron expression.
	Schedule string
	// POLL_TIMEOUT: Telegram long-poll timeout.
	PollTimeout time.Duration
	// STOCK_TIMEOUT: per-request stock API timeout.
	StockTimeout time.Duration

	// LOG_LEVEL / LOG_FILE
	LogLevel string
	LogFile  string
}

// FromEnv loads settings, applying defaults for everything optional.
// Missing or malformed required settings are fatal at startup by design.
func FromEnv() (*Config, error) {
	cfg := &Config{
		ProductsFile: envOr("PRODUCTS_FILE", "products.json"),
		HistoryDB:    envOr("HISTORY_DB", "restockbot.db"),
		Schedule:     envOr("CHECK_INTERVAL", "30m"),
		LogLevel:     envOr("LOG_LEVEL", "info"),
		LogFile:      os.Getenv("LOG_FILE"),
	}

	cfg.Token = strings.TrimSpace(os.Getenv("BOT_TOKEN"))
	if cfg.Token == "" {
		return nil, fmt.Errorf("BOT_TOKEN environment variable is required")
	}

	var err error
	if cfg.ChannelID, err = envInt64Required("CHANNEL_ID"); err != nil {
		return nil, err
	}
	if cfg.OperatorID, err = envInt64Required("OPERATOR_ID"); err != nil {
		return nil, err
	}

	if cfg.PollTimeout, err = envDuration("POLL_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.StockTimeout, err = envDuration("STOCK_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt64Required(key string) (int64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s environment variable is required", key)
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, v, err)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: duration must be > 0", key)
	}
	return d, nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider     string        `yaml:"provider" validate:"oneof=yahoo rest"`
		BaseURL      string        `yaml:"base_url" validate:"required_if=Provider rest,omitempty,url"`
		APIKey       string        `yaml:"api_key"`
		RateLimit    float64       `yaml:"rate_limit" validate:"gt=0"`
		FetchTimeout time.Duration `yaml:"fetch_timeout" validate:"gt=0"`
	} `yaml:"data_source"`
	Universe struct {
		Source  string   `yaml:"source" validate:"oneof=wikipedia static"`
		URL     string   `yaml:"url" validate:"omitempty,url"`
		Tickers []string `yaml:"tickers" validate:"required_if=Source static"`
	} `yaml:"universe"`
	Screen struct {
		LookbackDays int `yaml:"lookback_days" validate:"gte=30,lte=3650"`
		Concurrency  int `yaml:"concurrency" validate:"gte=1,lte=64"`
	} `yaml:"screen"`
	Schedule struct {
		ScanCron string `yaml:"scan_cron" validate:"required"`
	} `yaml:"schedule"`
	Cache struct {
		Disabled   bool          `yaml:"disabled"`
		SQLitePath string        `yaml:"sqlite_path"`
		TTL        time.Duration `yaml:"ttl" validate:"gt=0"`
	} `yaml:"cache"`
	Metrics struct {
		Listen string `yaml:"listen" validate:"omitempty,hostname_port"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy" validate:"omitempty,url"`
}

// Lookback returns the price history window as a duration.
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.Screen.LookbackDays) * 24 * time.Hour
}

// CacheEnabled reports whether fetched bars go through the SQLite cache.
func (c *Config) CacheEnabled() bool {
	return !c.Cache.Disabled
}

// TelegramEnabled reports whether notifications can be sent.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SCREENER_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("SCREENER_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("SCREENER_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("SCREENER_TICKERS"); v != "" {
		cfg.Universe.Source = "static"
		cfg.Universe.Tickers = strings.Split(v, ",")
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SCREENER_LOOKBACK_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Screen.LookbackDays = n
		}
	}
	if v := os.Getenv("SCREENER_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Screen.Concurrency = n
		}
	}
	if v := os.Getenv("CRON_SCAN"); v != "" {
		cfg.Schedule.ScanCron = v
	}
	if v := os.Getenv("SCREENER_CACHE_DISABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Cache.Disabled = b
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Cache.SQLitePath = v
	}
	if v := os.Getenv("METRICS_LISTEN"); v != "" {
		cfg.Metrics.Listen = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
	}
	if cfg.DataSource.RateLimit == 0 {
		cfg.DataSource.RateLimit = 5
	}
	if cfg.DataSource.FetchTimeout == 0 {
		cfg.DataSource.FetchTimeout = 30 * time.Second
	}
	if cfg.Universe.Source == "" {
		cfg.Universe.Source = "wikipedia"
	}
	if cfg.Screen.LookbackDays == 0 {
		cfg.Screen.LookbackDays = 182
	}
	if cfg.Screen.Concurrency == 0 {
		cfg.Screen.Concurrency = 8
	}
	if cfg.Schedule.ScanCron == "" {
		// Weekdays after the US close, seconds field first.
		cfg.Schedule.ScanCron = "0 30 22 * * 1-5"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 12 * time.Hour
	}
	if cfg.Cache.SQLitePath == "" {
		cfg.Cache.SQLitePath = "data/screener.db"
	}
}

// Validate checks field constraints. Telegram credentials are only checked
// for consistency; serve works without them and logs reports instead.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

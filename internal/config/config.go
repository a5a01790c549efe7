package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// PostgresConfig holds the connection settings of the PostgreSQL relational sink.
type PostgresConfig struct {
	Host     string `yaml:"host" envconfig:"PG_HOST"`
	Port     int    `yaml:"port" envconfig:"PG_PORT"`
	Name     string `yaml:"name" envconfig:"PG_NAME"`
	User     string `yaml:"user" envconfig:"PG_USER"`
	Password string `yaml:"password" envconfig:"PG_PASSWORD"`
	SSLMode  string `yaml:"sslmode" envconfig:"PG_SSLMODE"`
	MaxConns int    `yaml:"max_conns" envconfig:"PG_MAX_CONNS"`
}

// InfluxConfig holds the connection settings of the time-series sink.
type InfluxConfig struct {
	URL    string `yaml:"url" envconfig:"INFLUX_URL"`
	Token  string `yaml:"token" envconfig:"INFLUX_TOKEN"`
	Org    string `yaml:"org" envconfig:"INFLUX_ORG"`
	Bucket string `yaml:"bucket" envconfig:"INFLUX_BUCKET"`
}

// Enabled reports whether the time-series sink should be written.
func (c InfluxConfig) Enabled() bool {
	return c.URL != "" && c.Token != ""
}

// Config holds all application configuration.
type Config struct {
	Stocks struct {
		Codes     string `yaml:"codes" envconfig:"STOCK_CODES"`
		Benchmark string `yaml:"benchmark" envconfig:"BENCHMARK_SYMBOL"`
	} `yaml:"stocks"`
	DataSource struct {
		Provider string `yaml:"provider" envconfig:"DATA_PROVIDER"`
		BaseURL  string `yaml:"base_url" envconfig:"DATA_BASE_URL"`
		APIKey   string `yaml:"api_key" envconfig:"DATA_API_KEY"`
		Range    string `yaml:"range" envconfig:"DATA_RANGE"`
	} `yaml:"data_source"`
	Schedule struct {
		IntervalSeconds int      `yaml:"interval_seconds" envconfig:"SLEEP_SECONDS"`
		Debug           bool     `yaml:"debug" envconfig:"DEBUG"`
		RunOnStart      bool     `yaml:"run_on_start" envconfig:"RUN_ON_START"`
		Timezone        string   `yaml:"timezone" envconfig:"MARKET_TIMEZONE"`
		Sessions        []string `yaml:"sessions" envconfig:"MARKET_SESSIONS"`
	} `yaml:"schedule"`
	Workers  int `yaml:"workers" envconfig:"WORKERS"`
	Database struct {
		Driver     string         `yaml:"driver" envconfig:"DB_DRIVER"`
		SQLitePath string         `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
		Postgres   PostgresConfig `yaml:"postgres"`
	} `yaml:"database"`
	Influx   InfluxConfig `yaml:"influx"`
	Telegram struct {
		BotToken string `yaml:"bot_token" envconfig:"TELEGRAM_BOT_TOKEN"`
		ChatID   string `yaml:"chat_id" envconfig:"TELEGRAM_CHAT_ID"`
	} `yaml:"telegram"`
	Report struct {
		Output string `yaml:"output" envconfig:"REPORT_OUTPUT"`
		KPI    string `yaml:"kpi" envconfig:"REPORT_KPI"`
	} `yaml:"report"`
	API struct {
		Addr string `yaml:"addr" envconfig:"API_ADDR"`
	} `yaml:"api"`
	Proxy string `yaml:"proxy" envconfig:"HTTPS_PROXY"`
}

// Load reads .env and the YAML file, then applies environment overrides and defaults.
// A missing file is not an error; everything can come from the environment.
func Load(path string) (*Config, error) {
	// .env is optional; absent in containers that inject real env vars.
	_ = godotenv.Load()

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

	// Only variables that are set override the file.
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// Symbols returns the configured stock codes, trimmed and de-duplicated in order.
func (c *Config) Symbols() []string {
	var out []string
	seen := map[string]struct{}{}
	for _, code := range strings.Split(c.Stocks.Codes, ",") {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}

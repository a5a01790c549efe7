package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Disabled turns off an optional output (report.output, api.addr).
const Disabled = "-"

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if len(c.Symbols()) == 0 {
		return errors.New("stocks.codes is required")
	}
	if strings.TrimSpace(c.Stocks.Benchmark) == "" {
		return errors.New("stocks.benchmark is required")
	}

	switch c.DataSource.Provider {
	case "yahoo", "financego":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return errors.New("data_source.base_url is required for the rest provider")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}

	if c.Schedule.IntervalSeconds < 1 {
		return errors.New("schedule.interval_seconds must be >= 1")
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	for _, s := range c.Schedule.Sessions {
		if _, _, err := ParseSession(s); err != nil {
			return fmt.Errorf("schedule.sessions: %w", err)
		}
	}

	if c.Workers < 1 {
		return errors.New("workers must be >= 1")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return errors.New("database.sqlite_path is required")
		}
	case "postgres":
		if err := c.Database.Postgres.validate("database.postgres"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}

	if c.Influx.Enabled() {
		if c.Influx.Org == "" {
			return errors.New("influx.org is required when influx.token is set")
		}
	}

	switch c.Report.KPI {
	case "short", "long", "comprehensive":
	default:
		return fmt.Errorf("report.kpi must be short, long or comprehensive, got %q", c.Report.KPI)
	}

	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return errors.New("telegram.chat_id is required when telegram.bot_token is set")
	}

	return nil
}

func (db *PostgresConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Port < 1 || db.Port > 65535 {
		return fmt.Errorf("%s.port must be between 1 and 65535, got %d", prefix, db.Port)
	}
	return nil
}

// ParseSession parses "HH:MM-HH:MM" into minutes after midnight.
func ParseSession(s string) (start, end int, err error) {
	from, to, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return 0, 0, fmt.Errorf("session %q: want HH:MM-HH:MM", s)
	}
	if start, err = parseClock(from); err != nil {
		return 0, 0, fmt.Errorf("session %q: %w", s, err)
	}
	if end, err = parseClock(to); err != nil {
		return 0, 0, fmt.Errorf("session %q: %w", s, err)
	}
	if end <= start {
		return 0, 0, fmt.Errorf("session %q: end must be after start", s)
	}
	return start, end, nil
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ReportEnabled reports whether the trend chart is written after each batch.
func (c *Config) ReportEnabled() bool { return c.Report.Output != Disabled }

// APIEnabled reports whether the HTTP API is served.
func (c *Config) APIEnabled() bool { return c.API.Addr != Disabled }

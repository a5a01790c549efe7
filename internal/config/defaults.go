package config

// Default values for optional configuration fields.
const (
	DefaultBenchmark       = "^HSI"
	DefaultProvider        = "yahoo"
	DefaultRange           = "2y"
	DefaultIntervalSeconds = 86400
	DefaultTimezone        = "Asia/Hong_Kong"
	DefaultWorkers         = 8
	DefaultDriver          = "sqlite"
	DefaultSQLitePath      = "output/stock_kpi.db"
	DefaultPGPort          = 5432
	DefaultPGSSLMode       = "prefer"
	DefaultInfluxURL       = "http://influxdb:8086"
	DefaultInfluxBucket    = "stock_kpi"
	DefaultReportOutput    = "output/index.html"
	DefaultReportKPI       = "comprehensive"
	DefaultAPIAddr         = ":8080"
)

// DefaultSessions are the HKEX morning and afternoon trading sessions.
var DefaultSessions = []string{"09:30-12:00", "13:00-16:00"}

func (c *Config) applyDefaults() {
	if c.Stocks.Benchmark == "" {
		c.Stocks.Benchmark = DefaultBenchmark
	}

	if c.DataSource.Provider == "" {
		c.DataSource.Provider = DefaultProvider
	}
	if c.DataSource.Range == "" {
		c.DataSource.Range = DefaultRange
	}

	if c.Schedule.IntervalSeconds == 0 {
		c.Schedule.IntervalSeconds = DefaultIntervalSeconds
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = DefaultTimezone
	}
	if len(c.Schedule.Sessions) == 0 {
		c.Schedule.Sessions = append([]string(nil), DefaultSessions...)
	}

	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DefaultDriver
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = DefaultSQLitePath
	}
	if c.Database.Postgres.Port == 0 {
		c.Database.Postgres.Port = DefaultPGPort
	}
	if c.Database.Postgres.SSLMode == "" {
		c.Database.Postgres.SSLMode = DefaultPGSSLMode
	}

	if c.Influx.URL == "" {
		c.Influx.URL = DefaultInfluxURL
	}
	if c.Influx.Bucket == "" {
		c.Influx.Bucket = DefaultInfluxBucket
	}

	if c.Report.Output == "" {
		c.Report.Output = DefaultReportOutput
	}
	if c.Report.KPI == "" {
		c.Report.KPI = DefaultReportKPI
	}

	if c.API.Addr == "" {
		c.API.Addr = DefaultAPIAddr
	}
}

package recorder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"

	"KpiSentinel/internal/config"
	"KpiSentinel/internal/model"
)

// PostgresRecorder persists KPI snapshots to PostgreSQL using the same logical
// schema as the SQLite sink.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// BuildConnString builds a PostgreSQL connection string from config.
func BuildConnString(cfg config.PostgresConfig) string {
	// URL-encode password to handle special characters
	escapedPassword := url.QueryEscape(cfg.Password)

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = config.DefaultPGSSLMode
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		escapedPassword,
		cfg.Host,
		cfg.Port,
		cfg.Name,
		sslMode,
	)
}

// NewPostgresRecorder connects, pings and migrates.
func NewPostgresRecorder(ctx context.Context, cfg config.PostgresConfig) (*PostgresRecorder, error) {
	r, err := NewPostgresRecorderFromDSN(ctx, BuildConnString(cfg), cfg.MaxConns)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] postgres recorder connected: %s@%s/%s", cfg.User, cfg.Host, cfg.Name)
	return r, nil
}

// NewPostgresRecorderFromDSN is NewPostgresRecorder for a ready connection string.
// maxConns <= 0 keeps the pgx default.
func NewPostgresRecorderFromDSN(ctx context.Context, dsn string, maxConns int) (*PostgresRecorder, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRecorder{pool: pool}
	if err := r.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *PostgresRecorder) migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS kpi_results (
		analysis_time      TEXT NOT NULL,
		stock_code         TEXT NOT NULL,
		current_price      DOUBLE PRECISION,
		percentage_changes TEXT,
		hsi_comparison     TEXT,
		kpi_short          DOUBLE PRECISION,
		kpi_long           DOUBLE PRECISION,
		kpi_comprehensive  DOUBLE PRECISION,
		PRIMARY KEY (analysis_time, stock_code)
	)`)
	return err
}

// Record upserts each snapshot with its own statement.
func (r *PostgresRecorder) Record(ctx context.Context, snaps []model.KpiSnapshot) error {
	var errs []error
	for _, s := range snaps {
		rw, err := toRow(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Symbol, err))
			continue
		}
		_, err = r.pool.Exec(ctx, `INSERT INTO kpi_results
			(analysis_time, stock_code, current_price, percentage_changes, hsi_comparison,
			 kpi_short, kpi_long, kpi_comprehensive)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (analysis_time, stock_code) DO UPDATE SET
				current_price      = EXCLUDED.current_price,
				percentage_changes = EXCLUDED.percentage_changes,
				hsi_comparison     = EXCLUDED.hsi_comparison,
				kpi_short          = EXCLUDED.kpi_short,
				kpi_long           = EXCLUDED.kpi_long,
				kpi_comprehensive  = EXCLUDED.kpi_comprehensive`,
			rw.AnalysisTime, rw.StockCode, rw.CurrentPrice,
			rw.PercentageChanges, rw.HSIComparison,
			rw.KpiShort, rw.KpiLong, rw.KpiComprehensive,
		)
		if err != nil {
			errs = append(errs, fmt.Errorf("upsert %s: %w", s.Symbol, err))
		}
	}
	return errors.Join(errs...)
}

func (r *PostgresRecorder) ReadResults(ctx context.Context) ([]model.ResultGroup, error) {
	rows, err := r.pool.Query(ctx, `SELECT analysis_time, stock_code, current_price,
			percentage_changes, hsi_comparison, kpi_short, kpi_long, kpi_comprehensive
		FROM kpi_results
		ORDER BY analysis_time DESC, stock_code ASC`)
	if err != nil {
		return nil, fmt.Errorf("query kpi_results: %w", err)
	}
	defer rows.Close()

	var out []row
	for rows.Next() {
		var rw row
		if err := rows.Scan(&rw.AnalysisTime, &rw.StockCode, &rw.CurrentPrice,
			&rw.PercentageChanges, &rw.HSIComparison,
			&rw.KpiShort, &rw.KpiLong, &rw.KpiComprehensive); err != nil {
			return nil, fmt.Errorf("scan kpi_results: %w", err)
		}
		out = append(out, rw)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return groupRows(out)
}

func (r *PostgresRecorder) Close() error {
	log.Println("[INFO] closing postgres recorder")
	r.pool.Close()
	return nil
}

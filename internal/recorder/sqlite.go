package recorder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"KpiSentinel/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists KPI snapshots to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while a batch is written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	_, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS kpi_results (
		analysis_time      TEXT,
		stock_code         TEXT,
		current_price      REAL,
		percentage_changes TEXT,
		hsi_comparison     TEXT,
		kpi_short          REAL,
		kpi_long           REAL,
		kpi_comprehensive  REAL,
		PRIMARY KEY (analysis_time, stock_code)
	)`)
	if err != nil {
		return fmt.Errorf("create kpi_results: %w", err)
	}
	return nil
}

// Record upserts each snapshot on (analysis_time, stock_code). Rows are written
// one by one; a failed row does not undo the others.
func (r *SQLiteRecorder) Record(ctx context.Context, snaps []model.KpiSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, s := range snaps {
		rw, err := toRow(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Symbol, err))
			continue
		}
		_, err = r.db.ExecContext(ctx, `INSERT OR REPLACE INTO kpi_results
			(analysis_time, stock_code, current_price, percentage_changes, hsi_comparison,
			 kpi_short, kpi_long, kpi_comprehensive)
			VALUES (?,?,?,?,?,?,?,?)`,
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

func (r *SQLiteRecorder) ReadResults(ctx context.Context) ([]model.ResultGroup, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT analysis_time, stock_code, current_price,
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

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

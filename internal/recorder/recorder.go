package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"KpiSentinel/internal/model"
)

// Recorder persists a batch of KPI snapshots.
type Recorder interface {
	Record(ctx context.Context, snaps []model.KpiSnapshot) error
	Close() error
}

// Reader returns stored snapshots grouped by analysis time, newest first.
type Reader interface {
	ReadResults(ctx context.Context) ([]model.ResultGroup, error)
}

// MultiRecorder writes every batch to each sink independently. A failing sink
// does not stop or roll back the others.
type MultiRecorder struct {
	recorders []Recorder
}

func NewMultiRecorder(recorders ...Recorder) *MultiRecorder {
	return &MultiRecorder{recorders: recorders}
}

func (m *MultiRecorder) Record(ctx context.Context, snaps []model.KpiSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	var errs []error
	for _, r := range m.recorders {
		if err := r.Record(ctx, snaps); err != nil {
			log.Printf("[ERROR] %T record: %v", r, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiRecorder) Close() error {
	var errs []error
	for _, r := range m.recorders {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// row is the relational form of a snapshot.
type row struct {
	AnalysisTime      string
	StockCode         string
	CurrentPrice      float64
	PercentageChanges string
	HSIComparison     string
	KpiShort          float64
	KpiLong           float64
	KpiComprehensive  float64
}

func toRow(s model.KpiSnapshot) (row, error) {
	pct, err := json.Marshal(s.PercentageChanges)
	if err != nil {
		return row{}, fmt.Errorf("encode percentage changes: %w", err)
	}
	cmp, err := json.Marshal(s.BenchmarkComparison)
	if err != nil {
		return row{}, fmt.Errorf("encode benchmark comparison: %w", err)
	}
	return row{
		AnalysisTime:      s.AnalysisTimeString(),
		StockCode:         s.Symbol,
		CurrentPrice:      s.CurrentPrice,
		PercentageChanges: string(pct),
		HSIComparison:     string(cmp),
		KpiShort:          s.ShortTermKpi,
		KpiLong:           s.LongTermKpi,
		KpiComprehensive:  s.ComprehensiveKpi,
	}, nil
}

func (r row) snapshot() (model.KpiSnapshot, error) {
	at, err := time.ParseInLocation(model.AnalysisTimeLayout, r.AnalysisTime, time.Local)
	if err != nil {
		return model.KpiSnapshot{}, fmt.Errorf("parse analysis_time %q: %w", r.AnalysisTime, err)
	}
	s := model.KpiSnapshot{
		Symbol:           r.StockCode,
		AnalysisTime:     at,
		CurrentPrice:     r.CurrentPrice,
		ShortTermKpi:     r.KpiShort,
		LongTermKpi:      r.KpiLong,
		ComprehensiveKpi: r.KpiComprehensive,
	}
	if err := json.Unmarshal([]byte(r.PercentageChanges), &s.PercentageChanges); err != nil {
		return model.KpiSnapshot{}, fmt.Errorf("decode percentage_changes of %s: %w", r.StockCode, err)
	}
	if err := json.Unmarshal([]byte(r.HSIComparison), &s.BenchmarkComparison); err != nil {
		return model.KpiSnapshot{}, fmt.Errorf("decode hsi_comparison of %s: %w", r.StockCode, err)
	}
	return s, nil
}

// groupRows folds rows already ordered by analysis_time DESC, stock_code ASC.
func groupRows(rows []row) ([]model.ResultGroup, error) {
	var groups []model.ResultGroup
	last := ""
	for _, r := range rows {
		s, err := r.snapshot()
		if err != nil {
			return nil, err
		}
		if len(groups) == 0 || r.AnalysisTime != last {
			groups = append(groups, model.ResultGroup{AnalysisTime: s.AnalysisTime})
			last = r.AnalysisTime
		}
		g := &groups[len(groups)-1]
		g.Snapshots = append(g.Snapshots, s)
	}
	return groups, nil
}

package model

import "time"

// SkipReason explains why a symbol produced no snapshot.
type SkipReason string

const (
	SkipUnavailable         SkipReason = "unavailable" // delisted or wrong code
	SkipInsufficientHistory SkipReason = "insufficient_history"
	SkipComputationError    SkipReason = "computation_error"
)

// SymbolResult is the outcome of one symbol within a batch: a snapshot or a skip.
type SymbolResult struct {
	Symbol   string
	Snapshot *KpiSnapshot
	Reason   SkipReason
	Err      error
}

// OK reports whether the symbol produced a snapshot.
func (r SymbolResult) OK() bool { return r.Snapshot != nil }

// BatchReport summarises one analysis batch.
type BatchReport struct {
	RunID           string
	AnalysisTime    time.Time
	Benchmark       string
	BenchmarkChange PercentageChange
	Snapshots       []KpiSnapshot  // sorted by symbol
	Skipped         []SymbolResult // sorted by symbol
	Completed       int
	PersistErr      error
	Duration        time.Duration
}

// Persisted reports whether a non-empty batch reached storage without error.
func (r *BatchReport) Persisted() bool {
	return len(r.Snapshots) > 0 && r.PersistErr == nil
}

// ResultGroup is every stored snapshot of one analysis time, ordered by symbol.
type ResultGroup struct {
	AnalysisTime time.Time     `json:"analysis_time"`
	Snapshots    []KpiSnapshot `json:"results"`
}

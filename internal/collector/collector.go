package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"KpiSentinel/internal/calculator"
	"KpiSentinel/internal/model"
	"KpiSentinel/internal/recorder"
)

// Collector runs one analysis batch: benchmark first, then every symbol, then persistence.
type Collector struct {
	Fetcher   Fetcher
	Recorder  recorder.Recorder
	Symbols   []string
	Benchmark string
	Workers   int

	now func() time.Time
}

// NewCollector creates a new Collector. workers <= 1 analyses symbols serially.
func NewCollector(fetcher Fetcher, rec recorder.Recorder, symbols []string, benchmark string, workers int) *Collector {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Collector{
		Fetcher:   fetcher,
		Recorder:  rec,
		Symbols:   symbols,
		Benchmark: benchmark,
		Workers:   workers,
		now:       time.Now,
	}
}

// Collect analyses every configured symbol against the benchmark and persists the
// snapshots that could be computed. An unavailable benchmark aborts the batch
// before anything is written.
func (c *Collector) Collect(ctx context.Context) (*model.BatchReport, error) {
	start := c.now()
	report := &model.BatchReport{
		RunID:        uuid.NewString(),
		AnalysisTime: start.Truncate(time.Second),
		Benchmark:    c.Benchmark,
	}
	log.Printf("[INFO] batch %s: %d symbols via %s, benchmark %s, workers %d",
		report.RunID, len(c.Symbols), c.Fetcher.Name(), c.Benchmark, c.Workers)

	bench, err := c.benchmarkChange(ctx)
	if err != nil {
		log.Printf("[ERROR] batch %s aborted: %v", report.RunID, err)
		return nil, err
	}
	report.BenchmarkChange = bench

	results := c.analyseAll(ctx, report.RunID, report.AnalysisTime, bench)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch %s cancelled: %w", report.RunID, err)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Symbol < results[j].Symbol })
	for _, r := range results {
		report.Completed++
		if r.OK() {
			report.Snapshots = append(report.Snapshots, *r.Snapshot)
			continue
		}
		report.Skipped = append(report.Skipped, r)
		if r.Reason == model.SkipComputationError {
			log.Printf("[ERROR] invariant violated: %s passed validation but KPI computation failed: %v", r.Symbol, r.Err)
		} else {
			log.Printf("[WARN] skip %s (%s): %v", r.Symbol, r.Reason, r.Err)
		}
	}

	if len(report.Snapshots) == 0 {
		log.Printf("[INFO] batch %s: nothing to persist", report.RunID)
	} else if err := c.Recorder.Record(ctx, report.Snapshots); err != nil {
		report.PersistErr = err
		log.Printf("[ERROR] batch %s persist: %v", report.RunID, err)
	}

	report.Duration = time.Since(start)
	log.Printf("[INFO] batch %s done in %s: %d analysed, %d skipped",
		report.RunID, report.Duration.Round(time.Millisecond), len(report.Snapshots), len(report.Skipped))
	return report, nil
}

// benchmarkChange measures the benchmark from its unrounded latest close. Every
// window must be present or no symbol could be compared.
func (c *Collector) benchmarkChange(ctx context.Context) (model.PercentageChange, error) {
	closes, err := c.Fetcher.FetchCloses(ctx, c.Benchmark)
	if err != nil {
		return model.PercentageChange{}, fmt.Errorf("%w: %s: %w", ErrBenchmarkUnavailable, c.Benchmark, err)
	}
	if len(closes) == 0 {
		return model.PercentageChange{}, fmt.Errorf("%w: %s: %w", ErrBenchmarkUnavailable, c.Benchmark, ErrUnavailable)
	}
	pct, err := calculator.CalculatePercentageChange(closes[len(closes)-1], closes)
	if err != nil {
		return model.PercentageChange{}, fmt.Errorf("%w: %s: %w", ErrBenchmarkUnavailable, c.Benchmark, err)
	}
	if pct.Len() < len(model.Windows) {
		return model.PercentageChange{}, fmt.Errorf("%w: %s: %w: %d observations",
			ErrBenchmarkUnavailable, c.Benchmark, ErrInsufficientHistory, len(closes))
	}
	return pct, nil
}

func (c *Collector) analyseAll(ctx context.Context, runID string, at time.Time, bench model.PercentageChange) []model.SymbolResult {
	results := make([]model.SymbolResult, len(c.Symbols))
	var done atomic.Int32
	total := len(c.Symbols)

	progress := func(symbol string) {
		n := done.Add(1)
		log.Printf("[INFO] batch %s: %d/%d %s", runID, n, total, symbol)
	}

	if c.Workers <= 1 {
		for i, symbol := range c.Symbols {
			results[i] = c.analyse(ctx, symbol, at, bench)
			progress(symbol)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(c.Workers)
	for i, symbol := range c.Symbols {
		g.Go(func() error {
			results[i] = c.analyse(ctx, symbol, at, bench)
			progress(symbol)
			return nil
		})
	}
	_ = g.Wait() // workers report through results, never through the group
	return results
}

func (c *Collector) analyse(ctx context.Context, symbol string, at time.Time, bench model.PercentageChange) model.SymbolResult {
	closes, err := c.Fetcher.FetchCloses(ctx, symbol)
	if err != nil {
		return model.SymbolResult{Symbol: symbol, Reason: model.SkipUnavailable, Err: err}
	}
	if len(closes) == 0 {
		return model.SymbolResult{Symbol: symbol, Reason: model.SkipUnavailable, Err: ErrUnavailable}
	}

	series := model.PriceSeries{Symbol: symbol, Closes: closes, FetchedAt: c.now()}
	if !series.Usable() {
		return model.SymbolResult{
			Symbol: symbol,
			Reason: model.SkipInsufficientHistory,
			Err:    fmt.Errorf("%w: %d of %d observations", ErrInsufficientHistory, len(closes), model.MinObservations),
		}
	}

	snap, err := calculator.CalculateSnapshot(symbol, at, series.Closes, bench)
	if err != nil {
		return model.SymbolResult{Symbol: symbol, Reason: model.SkipComputationError, Err: err}
	}
	return model.SymbolResult{Symbol: symbol, Snapshot: &snap}
}

// IsBenchmarkFailure reports whether err aborted a whole batch.
func IsBenchmarkFailure(err error) bool {
	return errors.Is(err, ErrBenchmarkUnavailable)
}

package calculator

import (
	"fmt"
	"time"

	"KpiSentinel/internal/model"
)

// MissingWindowError is returned when a KPI formula needs a window the input lacks.
type MissingWindowError struct {
	Window model.Window
	Side   string // "symbol" or "benchmark"
}

func (e *MissingWindowError) Error() string {
	return fmt.Sprintf("%s percentage change has no %d-day window", e.Side, e.Window)
}

func pair(pct, bench model.PercentageChange, a, b model.Window) (own, ref float64, err error) {
	pa, ok := pct.Get(a)
	if !ok {
		return 0, 0, &MissingWindowError{Window: a, Side: "symbol"}
	}
	pb, ok := pct.Get(b)
	if !ok {
		return 0, 0, &MissingWindowError{Window: b, Side: "symbol"}
	}
	ba, ok := bench.Get(a)
	if !ok {
		return 0, 0, &MissingWindowError{Window: a, Side: "benchmark"}
	}
	bb, ok := bench.Get(b)
	if !ok {
		return 0, 0, &MissingWindowError{Window: b, Side: "benchmark"}
	}
	return pa + pb, ba + bb, nil
}

// CalculateShortTermKPI compares the 10- and 50-day changes against the benchmark.
func CalculateShortTermKPI(pct, bench model.PercentageChange) (float64, error) {
	own, ref, err := pair(pct, bench, model.Window10, model.Window50)
	if err != nil {
		return 0, err
	}
	return Round2(own - ref), nil
}

// CalculateLongTermKPI compares the 50- and 100-day changes against the benchmark.
func CalculateLongTermKPI(pct, bench model.PercentageChange) (float64, error) {
	own, ref, err := pair(pct, bench, model.Window50, model.Window100)
	if err != nil {
		return 0, err
	}
	return Round2(own - ref), nil
}

// CalculateComprehensiveKPI averages the already rounded short and long term KPIs.
func CalculateComprehensiveKPI(shortTerm, longTerm float64) float64 {
	return Round2((shortTerm + longTerm) / 2)
}

// CalculateSnapshot derives the full KPI record of one symbol. The symbol's changes
// are measured from its rounded latest close; bench is the benchmark comparison
// shared by the whole batch.
func CalculateSnapshot(symbol string, at time.Time, closes []float64, bench model.PercentageChange) (model.KpiSnapshot, error) {
	if len(closes) == 0 {
		return model.KpiSnapshot{}, fmt.Errorf("%s: empty close series", symbol)
	}
	current := Round2(closes[len(closes)-1])

	pct, err := CalculatePercentageChange(current, closes)
	if err != nil {
		return model.KpiSnapshot{}, fmt.Errorf("%s percentage change: %w", symbol, err)
	}
	short, err := CalculateShortTermKPI(pct, bench)
	if err != nil {
		return model.KpiSnapshot{}, fmt.Errorf("%s short term kpi: %w", symbol, err)
	}
	long, err := CalculateLongTermKPI(pct, bench)
	if err != nil {
		return model.KpiSnapshot{}, fmt.Errorf("%s long term kpi: %w", symbol, err)
	}

	return model.KpiSnapshot{
		Symbol:              symbol,
		AnalysisTime:        at,
		CurrentPrice:        current,
		PercentageChanges:   pct,
		BenchmarkComparison: bench,
		ShortTermKpi:        short,
		LongTermKpi:         long,
		ComprehensiveKpi:    CalculateComprehensiveKPI(short, long),
	}, nil
}

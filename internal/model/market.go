package model

import "time"

// MinObservations is the shortest close series a symbol may have and still be analysed.
const MinObservations = 100

// AnalysisTimeLayout is the stored form of a batch's analysis time.
const AnalysisTimeLayout = "2006-01-02 15:04:05"

// PriceSeries holds the daily closes of one symbol, oldest first.
type PriceSeries struct {
	Symbol    string
	Closes    []float64
	FetchedAt time.Time
}

// Latest returns the most recent close.
func (p PriceSeries) Latest() (float64, bool) {
	if len(p.Closes) == 0 {
		return 0, false
	}
	return p.Closes[len(p.Closes)-1], true
}

// Usable reports whether the series is long enough for every KPI window.
func (p PriceSeries) Usable() bool {
	return len(p.Closes) >= MinObservations
}

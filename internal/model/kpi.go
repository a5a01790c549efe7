package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Window is a lookback measured in trading observations.
type Window int

const (
	Window10  Window = 10
	Window50  Window = 50
	Window100 Window = 100
)

// Windows lists every lookback in ascending order.
var Windows = [...]Window{Window10, Window50, Window100}

func (w Window) index() int {
	switch w {
	case Window10:
		return 0
	case Window50:
		return 1
	case Window100:
		return 2
	}
	return -1
}

func (w Window) String() string { return strconv.Itoa(int(w)) }

// PercentageChange holds the rounded change of the latest price against the price
// each window back. A window is absent when the series was shorter than it.
type PercentageChange struct {
	values  [len(Windows)]float64
	present [len(Windows)]bool
}

// Get returns the change for w and whether it is present.
func (p PercentageChange) Get(w Window) (float64, bool) {
	i := w.index()
	if i < 0 || !p.present[i] {
		return 0, false
	}
	return p.values[i], true
}

// Set stores the change for w. Unknown windows are ignored.
func (p *PercentageChange) Set(w Window, v float64) {
	i := w.index()
	if i < 0 {
		return
	}
	p.values[i] = v
	p.present[i] = true
}

// Len returns the number of windows present.
func (p PercentageChange) Len() int {
	n := 0
	for _, ok := range p.present {
		if ok {
			n++
		}
	}
	return n
}

// MarshalJSON encodes the present windows as {"10":1.5,"50":-2.1,"100":3}.
func (p PercentageChange) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	first := true
	for _, w := range Windows {
		v, ok := p.Get(w)
		if !ok {
			continue
		}
		if !first {
			buf = append(buf, ',')
		}
		first = false
		num, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf = append(buf, '"')
		buf = append(buf, w.String()...)
		buf = append(buf, '"', ':')
		buf = append(buf, num...)
	}
	return append(buf, '}'), nil
}

// UnmarshalJSON accepts an object keyed by window.
func (p *PercentageChange) UnmarshalJSON(data []byte) error {
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = PercentageChange{}
	for k, v := range raw {
		n, err := strconv.Atoi(k)
		if err != nil {
			return fmt.Errorf("percentage change window %q: %w", k, err)
		}
		w := Window(n)
		if w.index() < 0 {
			return fmt.Errorf("percentage change window %d not supported", n)
		}
		p.Set(w, v)
	}
	return nil
}

// KpiSnapshot is the KPI record of one symbol in one analysis batch.
type KpiSnapshot struct {
	Symbol              string           `json:"stock_code"`
	AnalysisTime        time.Time        `json:"analysis_time"`
	CurrentPrice        float64          `json:"current_price"`
	PercentageChanges   PercentageChange `json:"percentage_changes"`
	BenchmarkComparison PercentageChange `json:"hsi_comparison"`
	ShortTermKpi        float64          `json:"kpi_short"`
	LongTermKpi         float64          `json:"kpi_long"`
	ComprehensiveKpi    float64          `json:"kpi_comprehensive"`
}

// AnalysisTimeString returns the stored form of the analysis time.
func (s KpiSnapshot) AnalysisTimeString() string {
	return s.AnalysisTime.Format(AnalysisTimeLayout)
}

package calculator

import (
	"errors"
	"fmt"
	"strconv"

	"KpiSentinel/internal/model"
)

// ErrZeroPrice is returned when a historical price used as a divisor is zero.
var ErrZeroPrice = errors.New("historical price is zero")

// Round2 rounds v to two decimal places, ties to even on the exact binary value.
func Round2(v float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return r
}

// CalculatePercentageChange returns, for each window the series covers, the rounded
// percentage change from the price that many observations back to current.
func CalculatePercentageChange(current float64, series []float64) (model.PercentageChange, error) {
	var changes model.PercentageChange
	n := len(series)
	for _, w := range model.Windows {
		if n < int(w) {
			continue
		}
		past := series[n-int(w)]
		if past == 0 {
			return model.PercentageChange{}, fmt.Errorf("window %d: %w", w, ErrZeroPrice)
		}
		changes.Set(w, Round2((current-past)/past*100))
	}
	return changes, nil
}

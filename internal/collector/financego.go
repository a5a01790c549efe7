package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"

	"KpiSentinel/internal/config"
)

// FinanceGoFetcher reads the same Yahoo chart data through the finance-go client.
type FinanceGoFetcher struct {
	Range string
}

func NewFinanceGoFetcher(rng string) *FinanceGoFetcher {
	if rng == "" {
		rng = config.DefaultRange
	}
	return &FinanceGoFetcher{Range: rng}
}

func (f *FinanceGoFetcher) Name() string { return "financego" }

// FetchCloses does not observe ctx once the request has started; finance-go has no
// context support.
func (f *FinanceGoFetcher) FetchCloses(ctx context.Context, symbol string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ticker := normalizeSymbol(symbol)
	end := time.Now()
	start, err := rangeStart(f.Range, end)
	if err != nil {
		return nil, err
	}

	iter := chart.Get(&chart.Params{
		Symbol:   ticker,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	})

	var closes []float64
	for iter.Next() {
		c, _ := iter.Bar().Close.Float64()
		if c == 0 {
			continue // null bar
		}
		closes = append(closes, c)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("finance-go %s: %w", ticker, err)
	}
	if len(closes) == 0 {
		return nil, fmt.Errorf("%w: finance-go %s: no data returned", ErrUnavailable, ticker)
	}
	return closes, nil
}

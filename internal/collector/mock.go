package collector

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// MockFetcher returns controllable fixed series for development and testing.
type MockFetcher struct {
	Series map[string][]float64
	Errs   map[string]error
	Delay  time.Duration

	mu    sync.Mutex
	calls map[string]int
	total atomic.Int64
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchCloses(ctx context.Context, symbol string) ([]float64, error) {
	m.total.Add(1)
	m.mu.Lock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[symbol]++
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := m.Errs[symbol]; ok {
		return nil, err
	}
	closes, ok := m.Series[symbol]
	if !ok || len(closes) == 0 {
		return nil, fmt.Errorf("%w: mock %s", ErrUnavailable, symbol)
	}
	return append([]float64(nil), closes...), nil
}

// Calls returns how many times symbol was fetched.
func (m *MockFetcher) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

// TotalCalls returns the number of fetches across all symbols.
func (m *MockFetcher) TotalCalls() int { return int(m.total.Load()) }

// LinearSeries generates n closes starting at start and moving by step each day.
func LinearSeries(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

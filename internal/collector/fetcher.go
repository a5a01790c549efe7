package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"KpiSentinel/internal/config"
)

var (
	// ErrUnavailable means the source has no data for the symbol (delisted or wrong code).
	ErrUnavailable = errors.New("price data unavailable")
	// ErrInsufficientHistory means the series is shorter than the longest KPI window.
	ErrInsufficientHistory = errors.New("insufficient price history")
	// ErrBenchmarkUnavailable aborts a batch before any symbol is analysed.
	ErrBenchmarkUnavailable = errors.New("benchmark unavailable")
)

// Fetcher returns the daily closing prices of a symbol, oldest first.
type Fetcher interface {
	FetchCloses(ctx context.Context, symbol string) ([]float64, error)
	Name() string
}

// symbolAliases maps shorthand codes to the ticker the data sources expect.
var symbolAliases = map[string]string{
	"HSI":    "^HSI",
	"HSCEI":  "^HSCE",
	"HSTECH": "HSTECH.HK",
}

func normalizeSymbol(symbol string) string {
	s := strings.TrimSpace(symbol)
	if mapped, ok := symbolAliases[strings.ToUpper(s)]; ok {
		return mapped
	}
	return s
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

// NewFetcher builds the price source selected by data_source.provider.
func NewFetcher(cfg *config.Config) (Fetcher, error) {
	switch cfg.DataSource.Provider {
	case "yahoo", "":
		return NewYahooFetcher(cfg.Proxy, cfg.DataSource.Range), nil
	case "financego":
		return NewFinanceGoFetcher(cfg.DataSource.Range), nil
	case "rest":
		return NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy), nil
	default:
		return nil, fmt.Errorf("unknown data provider %q", cfg.DataSource.Provider)
	}
}

// rangeStart converts a Yahoo style range ("5d", "6mo", "2y", "max") into a start time.
func rangeStart(rng string, end time.Time) (time.Time, error) {
	rng = strings.ToLower(strings.TrimSpace(rng))
	if rng == "max" {
		return time.Unix(0, 0), nil
	}
	var n int
	var unit string
	if _, err := fmt.Sscanf(rng, "%d%s", &n, &unit); err != nil || n < 1 {
		return time.Time{}, fmt.Errorf("invalid range %q", rng)
	}
	switch unit {
	case "d":
		return end.AddDate(0, 0, -n), nil
	case "wk":
		return end.AddDate(0, 0, -7*n), nil
	case "mo":
		return end.AddDate(0, -n, 0), nil
	case "y":
		return end.AddDate(-n, 0, 0), nil
	}
	return time.Time{}, fmt.Errorf("invalid range unit %q", unit)
}

package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"

	"KpiSentinel/internal/config"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	BaseURL string
	Range   string
	Client  *http.Client
}

// NewYahooFetcher creates a daily-interval fetcher with optional proxy support.
func NewYahooFetcher(proxyURL, rng string) *YahooFetcher {
	if rng == "" {
		rng = config.DefaultRange
	}
	return &YahooFetcher{
		BaseURL: yahooBaseURL,
		Range:   rng,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (f *YahooFetcher) FetchCloses(ctx context.Context, symbol string) ([]float64, error) {
	ticker := normalizeSymbol(symbol)
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		f.BaseURL, url.PathEscape(ticker), url.QueryEscape(f.Range))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}

	var chart yahooChart
	decodeErr := json.Unmarshal(body, &chart)
	if decodeErr == nil && chart.Chart.Error != nil {
		return nil, fmt.Errorf("%w: yahoo %s: %s", ErrUnavailable, ticker, chart.Chart.Error.Description)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: yahoo %s: status 404", ErrUnavailable, ticker)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo %s: status %d, body: %s", ticker, resp.StatusCode, string(body))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("yahoo decode: %w", decodeErr)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: yahoo %s: no data returned", ErrUnavailable, ticker)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	type point struct {
		ts    int64
		close float64
	}
	points := make([]point, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue // null bars (holidays, suspensions)
		}
		points = append(points, point{ts: ts, close: *quote.Close[i]})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: yahoo %s: no closes", ErrUnavailable, ticker)
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].ts < points[j].ts })
	closes := make([]float64, len(points))
	for i, p := range points {
		closes[i] = p.close
	}
	return closes, nil
}

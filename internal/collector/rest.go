package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"

	"github.com/shopspring/decimal"
)

// DefaultRESTLimit is enough daily bars to cover every KPI window with room to spare.
const DefaultRESTLimit = 300

// RESTFetcher implements Fetcher against a generic daily bars endpoint.
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Limit   int
	Client  *http.Client
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string) *RESTFetcher {
	return &RESTFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Limit:   DefaultRESTLimit,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape. Prices may be JSON numbers or strings.
type restBar struct {
	Timestamp int64            `json:"timestamp"`
	Close     *decimal.Decimal `json:"close"`
}

func (f *RESTFetcher) FetchCloses(ctx context.Context, symbol string) ([]float64, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?symbol=%s&limit=%d",
		f.BaseURL, url.QueryEscape(normalizeSymbol(symbol)), f.Limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, symbol)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, string(body))
	}

	var bars []restBar
	if err := json.NewDecoder(resp.Body).Decode(&bars); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}

	// Ensure chronological order
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Timestamp < bars[j].Timestamp })

	closes := make([]float64, 0, len(bars))
	for _, b := range bars {
		if b.Close == nil {
			continue
		}
		c, _ := b.Close.Float64()
		closes = append(closes, c)
	}
	if len(closes) == 0 {
		return nil, fmt.Errorf("%w: %s: no bars", ErrUnavailable, symbol)
	}
	return closes, nil
}

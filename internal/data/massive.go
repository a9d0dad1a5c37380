// This file contains a Massive-backed Provider implementation that retrieves
// daily aggregate bars over Massive's HTTP API.
//
// Design notes:
//   - Uses raw HTTP calls instead of the official Massive SDK
//   - Supports pagination, rate-limiting retries, and a fallback provider
//   - Logging is verbose at Debug/Trace levels for diagnostics

package data

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/contactkeval/structured-pricing/internal/logger"
)

const maxRateLimitRetries = 3

// massiveDataProvider implements the Provider interface using Massive APIs.
type massiveDataProvider struct {
	// APIKey used for authenticating requests with Massive.
	APIKey string

	// Client is the HTTP client used to make API requests.
	Client *http.Client

	// BaseURL is the root endpoint for Massive APIs
	// (e.g., https://api.massive.com).
	BaseURL string

	// secondary is an optional fallback provider.
	secondary Provider
}

// massiveAgg is one aggregate bar in Massive's polygon-style response.
type massiveAgg struct {
	Open      float64 `json:"o"`
	Close     float64 `json:"c"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	VWAP      float64 `json:"vw"`
	Volume    float64 `json:"v"`
	Trades    int64   `json:"n"`
	Timestamp int64   `json:"t"` // epoch millis
}

// massiveAggsResp models the paginated aggregates response.
type massiveAggsResp struct {
	Ticker    string       `json:"ticker"`
	Adjusted  bool         `json:"adjusted"`
	Results   []massiveAgg `json:"results"`
	Status    string       `json:"status"`
	RequestID string       `json:"request_id"`
	NextURL   string       `json:"next_url"`
	Message   string       `json:"message"`
}

// NewMassiveDataProvider constructs a Massive-backed data provider.
//
// It initializes an HTTP client with sensible defaults for:
//   - timeouts
//   - connection pooling
//   - HTTP/2 support
//   - gzip decompression
//
// Parameters:
//   - apiKey: Massive API key for authentication
//   - secondary: provider used when Massive fails, may be nil
func NewMassiveDataProvider(apiKey string, secondary Provider) *massiveDataProvider {
	logger.Debugf("initializing Massive data provider")

	return &massiveDataProvider{
		APIKey: apiKey,
		Client: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
				DisableCompression:    false, // must be false to enable gzip auto-decompression
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		BaseURL:   "https://api.massive.com",
		secondary: secondary,
	}
}

func (massiveDataProv *massiveDataProvider) Name() string { return SourceMassive }

// Secondary returns the configured secondary Provider, if any.
func (massiveDataProv *massiveDataProvider) Secondary() Provider {
	return massiveDataProv.secondary
}

// GetDailyBars retrieves daily OHLCV bars for ticker between fromDate and toDate,
// following next_url pagination until the range is exhausted.
func (massiveDataProv *massiveDataProvider) GetDailyBars(
	ctx context.Context,
	ticker string,
	fromDate, toDate time.Time,
) ([]Bar, error) {

	if massiveDataProv.APIKey == "" {
		return nil, fmt.Errorf("massive api key not configured")
	}

	logger.Debugf(
		"fetching daily bars: %s from=%s to=%s",
		ticker,
		fromDate.Format(dateLayout),
		toDate.Format(dateLayout),
	)

	reqURL := fmt.Sprintf(
		"%s/v2/aggs/ticker/%s/range/1/day/%s/%s?adjusted=true&sort=asc&limit=50000",
		massiveDataProv.BaseURL,
		url.PathEscape(ticker),
		fromDate.Format(dateLayout),
		toDate.Format(dateLayout),
	)

	out := []Bar{}
	for reqURL != "" {
		logger.Tracef("bars request URL: %s", reqURL)

		page, err := massiveDataProv.fetchAggsPage(ctx, reqURL)
		if err != nil {
			return nil, err
		}

		logger.Tracef("bars received: %d records", len(page.Results))

		for _, r := range page.Results {
			out = append(out, Bar{
				Date:   time.UnixMilli(r.Timestamp).UTC(),
				Open:   r.Open,
				High:   r.High,
				Low:    r.Low,
				Close:  r.Close,
				Volume: r.Volume,
			})
		}

		reqURL = page.NextURL
	}

	return out, nil
}

func (massiveDataProv *massiveDataProvider) fetchAggsPage(ctx context.Context, reqURL string) (*massiveAggsResp, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+massiveDataProv.APIKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "structured-pricing/1.0")

	resp, err := massiveDataProv.processGetRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("massive api request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		var dbg struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &dbg)

		logger.Errorf(
			"massive aggregates API error status=%d message=%s",
			resp.StatusCode,
			dbg.Message,
		)
		return nil, fmt.Errorf("massive returned status %d: %s", resp.StatusCode, dbg.Message)
	}

	if len(body) == 0 {
		return nil, fmt.Errorf("empty response body")
	}

	var page massiveAggsResp
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("parsing massive response: %w", err)
	}
	return &page, nil
}

// processGetRequest executes req, waiting out per-minute rate limits (HTTP 429)
// up to maxRateLimitRetries times. Any other response is returned as is.
func (massiveDataProv *massiveDataProvider) processGetRequest(
	ctx context.Context,
	req *http.Request,
) (*http.Response, error) {

	for attempt := 0; ; attempt++ {
		resp, err := massiveDataProv.Client.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRateLimitRetries {
			return resp, nil
		}

		wait := retryAfter(resp, time.Now())
		resp.Body.Close()

		logger.Infof("rate limit hit, sleeping for %s", wait)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// retryAfter honours a Retry-After header in seconds, otherwise waits until
// the next minute boundary.
func retryAfter(resp *http.Response, now time.Time) time.Duration {
	if s := resp.Header.Get("Retry-After"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return now.Truncate(time.Minute).Add(time.Minute).Sub(now)
}

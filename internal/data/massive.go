// Package data provides market data provider implementations.
//
// This file contains a Massive-backed Provider implementation that retrieves
// underlying closes, option contracts and previous-day option closes via
// Massive (formerly Polygon.io) HTTP APIs.
//
// Design notes:
//   - Uses raw HTTP calls instead of the official Massive SDK
//   - Supports pagination and rate-limit retries
//   - Logging is verbose at Debug/Trace levels for diagnostics
package data

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/contactkeval/option-picker/internal/logger"
)

// DefaultMassiveBaseURL is the public Massive REST endpoint.
const DefaultMassiveBaseURL = "https://api.massive.com"

// MassiveConfig carries everything the Massive client needs. Nothing is
// read from process-wide state.
type MassiveConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration

	// RateLimitWait is the pause after an HTTP 429. Zero waits until the
	// next minute boundary.
	RateLimitWait time.Duration

	// MaxRetries bounds rate-limit retries per request. Zero retries
	// until the context is done.
	MaxRetries int
}

// massiveDataProvider implements the Provider interface using Massive APIs.
type massiveDataProvider struct {
	// APIKey used for authenticating requests with Massive.
	APIKey string

	// Client is the HTTP client used to make API requests.
	Client *http.Client

	// BaseURL is the root endpoint for Massive APIs
	// (e.g., https://api.massive.com).
	BaseURL string

	rateLimitWait time.Duration
	maxRetries    int

	// secondary is an optional fallback provider.
	secondary Provider
}

// massiveContract represents a single option contract
// returned by Massive's contracts reference endpoint.
type massiveContract struct {
	CFI               string  `json:"cfi"`
	ContractType      string  `json:"contract_type"`
	ExerciseStyle     string  `json:"exercise_style"`
	ExpiryDate        string  `json:"expiration_date"`
	PrimaryExchange   string  `json:"primary_exchange"`
	SharesPerContract int     `json:"shares_per_contract"`
	StrikePrice       float64 `json:"strike_price"`
	Ticker            string  `json:"ticker"`
	UnderlyingTicker  string  `json:"underlying_ticker"`
}

// massiveContractsResp models the paginated response
// returned by Massive's option contracts API.
type massiveContractsResp struct {
	Results   []massiveContract `json:"results"`
	Status    string            `json:"status"`
	RequestID string            `json:"request_id"`
	NextURL   string            `json:"next_url"`
}

// massiveOpenCloseResp models the daily open/close endpoint.
type massiveOpenCloseResp struct {
	Status string  `json:"status"`
	Symbol string  `json:"symbol"`
	From   string  `json:"from"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// massivePrevResp models the previous-day aggregate endpoint.
type massivePrevResp struct {
	Ticker       string `json:"ticker"`
	ResultsCount int    `json:"resultsCount"`
	Results      []struct {
		Open   float64 `json:"o"`
		High   float64 `json:"h"`
		Low    float64 `json:"l"`
		Close  float64 `json:"c"`
		Volume float64 `json:"v"`
		Time   int64   `json:"t"`
	} `json:"results"`
	Status string `json:"status"`
}

// NewMassiveDataProvider constructs a Massive-backed data provider.
//
// It initializes an HTTP client with sensible defaults for:
//   - timeouts
//   - connection pooling
//   - HTTP/2 support
//   - gzip decompression
func NewMassiveDataProvider(cfg MassiveConfig) *massiveDataProvider {
	logger.Infof("initializing Massive data provider")

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultMassiveBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &massiveDataProvider{
		APIKey: cfg.APIKey,
		Client: &http.Client{
			Timeout: cfg.Timeout,
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
		BaseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		rateLimitWait: cfg.RateLimitWait,
		maxRetries:    cfg.MaxRetries,
	}
}

// Secondary returns the configured secondary Provider, if any.
func (massiveDataProv *massiveDataProvider) Secondary() Provider {
	return massiveDataProv.secondary
}

// GetCurrentPrice returns the official close of underlying on date.
func (massiveDataProv *massiveDataProvider) GetCurrentPrice(
	ctx context.Context,
	underlying string,
	date time.Time,
) (float64, error) {

	logger.Debugf("event=current_price underlying=%s date=%s", underlying, date.Format(DateLayout))

	reqURL := fmt.Sprintf(
		"%s/v1/open-close/%s/%s?adjusted=true",
		massiveDataProv.BaseURL,
		url.PathEscape(strings.ToUpper(underlying)),
		date.Format(DateLayout),
	)

	var body massiveOpenCloseResp
	if err := massiveDataProv.getJSON(ctx, reqURL, &body); err != nil {
		return 0, fmt.Errorf("open-close %s %s: %w", underlying, date.Format(DateLayout), err)
	}
	if body.Close <= 0 {
		return 0, fmt.Errorf("open-close %s %s: %w", underlying, date.Format(DateLayout), ErrNoData)
	}

	return body.Close, nil
}

// GetOptionChain retrieves option contracts matching the query, following
// next_url pagination until exhausted.
func (massiveDataProv *massiveDataProvider) GetOptionChain(
	ctx context.Context,
	q ChainQuery,
) ([]ChainEntry, error) {

	logger.Tracef("event=fetch_chain query=%q", q.String())

	out := []ChainEntry{}

	// Build base URL
	u, err := url.Parse(massiveDataProv.BaseURL + "/v3/reference/options/contracts")
	if err != nil {
		return nil, err
	}

	// Query parameters
	query := u.Query()
	query.Set("underlying_ticker", strings.ToUpper(q.Underlying))
	if q.Type != "" {
		query.Set("contract_type", string(q.Type))
	}
	if !q.Expiration.IsZero() {
		query.Set("expiration_date", q.Expiration.Format(DateLayout))
	}
	if q.Strike > 0.0 {
		query.Set("strike_price", fmt.Sprintf("%.8g", q.Strike))
	}
	if !q.AsOf.IsZero() {
		query.Set("as_of", q.AsOf.Format(DateLayout))
	}
	query.Set("limit", "1000")

	u.RawQuery = query.Encode()
	reqURL := u.String()

	// Handle pagination
	for reqURL != "" {
		var page massiveContractsResp
		if err := massiveDataProv.getJSON(ctx, reqURL, &page); err != nil {
			return nil, fmt.Errorf("contracts %s: %w", q.String(), err)
		}

		logger.Tracef("received %d contracts", len(page.Results))

		for _, result := range page.Results {
			// parse expiration
			t, err := time.Parse(DateLayout, result.ExpiryDate)
			if err != nil {
				continue // skip malformed expiry dates
			}

			typ, err := ParseContractType(result.ContractType)
			if err != nil {
				continue
			}

			out = append(out, ChainEntry{
				InstrumentID: result.Ticker,
				Underlying:   result.UnderlyingTicker,
				Expiration:   t,
				Strike:       result.StrikePrice,
				Type:         typ,
			})
		}

		reqURL = page.NextURL
	}

	return out, nil
}

// GetPreviousClose returns the previous trading day's close of an option
// instrument.
func (massiveDataProv *massiveDataProvider) GetPreviousClose(
	ctx context.Context,
	instrumentID string,
) (float64, error) {

	logger.Debugf("event=previous_close instrument=%s", instrumentID)

	reqURL := fmt.Sprintf(
		"%s/v2/aggs/ticker/%s/prev?adjusted=true",
		massiveDataProv.BaseURL,
		url.PathEscape(instrumentID),
	)

	var body massivePrevResp
	if err := massiveDataProv.getJSON(ctx, reqURL, &body); err != nil {
		return 0, fmt.Errorf("previous close %s: %w", instrumentID, err)
	}
	if len(body.Results) == 0 {
		return 0, fmt.Errorf("previous close %s: %w", instrumentID, ErrNoData)
	}

	return body.Results[0].Close, nil
}

// getJSON performs an authenticated GET and decodes a 200 response into v.
// A 404 maps to ErrNoData.
func (massiveDataProv *massiveDataProvider) getJSON(ctx context.Context, reqURL string, v any) error {
	reqURL, err := massiveDataProv.withAPIKey(reqURL)
	if err != nil {
		return err
	}

	logger.Debugf("request URL: %s", redact(reqURL))

	resp, err := massiveDataProv.processGetRequest(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+massiveDataProv.APIKey)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "option-picker/1.0")
		return req, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNoData
	}

	if resp.StatusCode != http.StatusOK {
		var dbg struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		_ = json.Unmarshal(body, &dbg)
		if dbg.Message == "" {
			dbg.Message = dbg.Error
		}

		logger.Errorf(
			"massive API error status=%d message=%s",
			resp.StatusCode,
			dbg.Message,
		)
		return fmt.Errorf("massive returned status %d: %s", resp.StatusCode, dbg.Message)
	}

	if len(body) == 0 {
		return fmt.Errorf("empty response body")
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// withAPIKey adds the apiKey parameter; next_url links from Massive do not
// carry it.
func (massiveDataProv *massiveDataProvider) withAPIKey(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	query := u.Query()
	if query.Get("apiKey") == "" && massiveDataProv.APIKey != "" {
		query.Set("apiKey", massiveDataProv.APIKey)
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

// processGetRequest executes an HTTP GET request with rate-limit handling.
//
// Behavior:
//   - Retries on HTTP 429, up to maxRetries when set
//   - Sleeps for rateLimitWait, or until the next minute boundary
//   - Returns immediately on any other status; the caller inspects it
func (massiveDataProv *massiveDataProvider) processGetRequest(
	ctx context.Context,
	newRequest func() (*http.Request, error),
) (*http.Response, error) {

	for attempt := 0; ; attempt++ {
		req, err := newRequest()
		if err != nil {
			return nil, err
		}

		resp, err := massiveDataProv.Client.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		resp.Body.Close()

		if massiveDataProv.maxRetries > 0 && attempt >= massiveDataProv.maxRetries {
			return nil, fmt.Errorf("rate limited after %d retries", attempt)
		}

		sleepDuration := massiveDataProv.rateLimitWait
		if sleepDuration <= 0 {
			// Sleep until the next minute boundary
			now := time.Now()
			sleepDuration = time.Until(now.Truncate(time.Minute).Add(time.Minute))
		}

		logger.Infof("rate limit hit, sleeping for %s", sleepDuration)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleepDuration):
		}
	}
}

// redact hides the API key in logged URLs.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	query := u.Query()
	if query.Get("apiKey") != "" {
		query.Set("apiKey", "REDACTED")
		u.RawQuery = query.Encode()
	}
	return u.String()
}

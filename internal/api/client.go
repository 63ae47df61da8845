package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/options-dashboard/internal/data"
)

// Client interface for testability
type Client interface {
	GetMetrics(ctx context.Context, date string) (*data.MetricsSnapshot, error)
	GetHistorical(ctx context.Context, req data.HistoricalRequest) (*data.HistoricalSeries, error)
	GetTickers(ctx context.Context) ([]string, error)
	GetTradingDates(ctx context.Context) ([]string, error)
	GetExpiryDates(ctx context.Context, ticker string) ([]string, error)
	GetStockDetail(ctx context.Context, ticker, date, expiry string) (*data.StockDetail, error)
}

type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	retryCount int
	retryDelay time.Duration
	logger     *zap.Logger
}

func NewClient(baseURL string, ratePerSec int, timeout, retryDelay time.Duration, retryCount int, logger *zap.Logger) *HTTPClient {
	transport := &http.Transport{
		MaxIdleConns:       100,
		MaxConnsPerHost:    10,
		IdleConnTimeout:    90 * time.Second,
		DisableCompression: false,
	}

	if ratePerSec < 1 {
		ratePerSec = 1
	}

	return &HTTPClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec*2),
		retryCount: retryCount,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

func (c *HTTPClient) GetMetrics(ctx context.Context, date string) (*data.MetricsSnapshot, error) {
	if strings.TrimSpace(date) == "" {
		return nil, ErrMissingDate
	}

	var snap data.MetricsSnapshot
	if err := c.getJSON(ctx, "/get_data", url.Values{"date": {date}}, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *HTTPClient) GetHistorical(ctx context.Context, req data.HistoricalRequest) (*data.HistoricalSeries, error) {
	q := url.Values{
		"ticker": {req.Symbol},
		"date":   {req.Date},
		"type":   {string(req.Side)},
		"metric": {string(req.Metric)},
	}
	if req.Metric == data.MetricVega && req.Strike.Available() {
		q.Set("strike", req.Strike.String())
	}

	var series data.HistoricalSeries
	if err := c.getJSON(ctx, "/get_historical_data", q, &series); err != nil {
		return nil, err
	}
	return &series, nil
}

func (c *HTTPClient) GetTickers(ctx context.Context) ([]string, error) {
	var tickers []string
	if err := c.getJSON(ctx, "/get_available_tickers", nil, &tickers); err != nil {
		return nil, err
	}
	return tickers, nil
}

func (c *HTTPClient) GetTradingDates(ctx context.Context) ([]string, error) {
	var resp struct {
		Dates []string `json:"dates"`
	}
	if err := c.getJSON(ctx, "/get_available_trading_dates", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Dates, nil
}

func (c *HTTPClient) GetExpiryDates(ctx context.Context, ticker string) ([]string, error) {
	var resp struct {
		ExpiryDates []string `json:"expiry_dates"`
	}
	if err := c.getJSON(ctx, "/get_expiry_dates", url.Values{"ticker": {ticker}}, &resp); err != nil {
		return nil, err
	}
	return resp.ExpiryDates, nil
}

// GetStockDetail fetches the option chain snapshot. An empty expiry or
// "all" requests every expiry.
func (c *HTTPClient) GetStockDetail(ctx context.Context, ticker, date, expiry string) (*data.StockDetail, error) {
	q := url.Values{
		"ticker": {ticker},
		"mode":   {"historical"},
		"date":   {date},
	}
	if expiry != "" && expiry != "all" {
		q.Set("expiry", expiry)
	}

	var detail data.StockDetail
	if err := c.getJSON(ctx, "/get_stock_data", q, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// getJSON performs a rate-limited GET with exponential backoff on 429 and
// 5xx. A non-empty "error" field in any object response is returned as
// *BackendError, whatever the status.
func (c *HTTPClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	c.logger.Debug("requesting", zap.String("url", endpoint))

	var lastErr error
	for attempt := 0; attempt <= c.retryCount; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<(attempt-1)) // Exponential backoff
			c.logger.Debug("retrying request", zap.Int("attempt", attempt), zap.Duration("delay", delay))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		// Read body before closing for error messages
		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if readErr != nil {
			lastErr = readErr
			continue
		}

		backendErr := backendError(resp.StatusCode, body)

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = ErrRateLimited
			continue
		}

		if resp.StatusCode >= 500 {
			if backendErr != nil {
				lastErr = backendErr
			} else {
				lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			}
			continue
		}

		if backendErr != nil {
			return backendErr
		}

		if resp.StatusCode == http.StatusNotFound {
			return ErrNotFound
		}

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
		}
		return nil
	}

	// A backend-signaled error that survived every retry is still the
	// backend's message, not a transport failure.
	if be, ok := lastErr.(*BackendError); ok {
		return be
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func backendError(status int, body []byte) *BackendError {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var probe struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &probe); err != nil || probe.Error == "" {
		return nil
	}
	return &BackendError{Status: status, Message: probe.Error}
}

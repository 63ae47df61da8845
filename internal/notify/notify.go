// Package notify posts export batch summaries to an ntfy topic.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/options-dashboard/internal/config"
	"github.com/dgnsrekt/options-dashboard/internal/export"
)

// Notifier reports the outcome of an export batch.
type Notifier interface {
	SendSuccess(ctx context.Context, result *export.BatchResult, span string, duration time.Duration) error
	SendFailure(ctx context.Context, result *export.BatchResult, span string, duration time.Duration, err error) error
}

// Client implements the ntfy notification client.
type Client struct {
	httpClient *http.Client
	config     config.NotifyConfig
	logger     *zap.Logger
}

func NewClient(cfg config.NotifyConfig, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
	}
}

func (c *Client) SendSuccess(ctx context.Context, result *export.BatchResult, span string, duration time.Duration) error {
	title := fmt.Sprintf("Export Complete: %s", span)
	message := FormatSuccessMessage(result, duration)
	tags := c.config.Tags + ",white_check_mark"

	return c.send(ctx, title, message, tags, c.config.Priority)
}

// SendFailure always posts at high priority.
func (c *Client) SendFailure(ctx context.Context, result *export.BatchResult, span string, duration time.Duration, err error) error {
	title := fmt.Sprintf("Export Failed: %s", span)
	message := FormatFailureMessage(result, duration, err)
	tags := c.config.Tags + ",x"

	return c.send(ctx, title, message, tags, "high")
}

func (c *Client) send(ctx context.Context, title, message, tags, priority string) error {
	url := fmt.Sprintf("%s/%s", strings.TrimSuffix(c.config.Server, "/"), c.config.Topic)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Title", title)
	req.Header.Set("Priority", priority)
	req.Header.Set("Tags", tags)

	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("failed to send notification", zap.Error(err))
		return fmt.Errorf("sending notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("notification failed",
			zap.Int("status", resp.StatusCode),
			zap.String("url", url),
		)
		return fmt.Errorf("notification failed with status: %d", resp.StatusCode)
	}

	c.logger.Debug("notification sent", zap.String("title", title))
	return nil
}

type NoopNotifier struct{}

func (NoopNotifier) SendSuccess(context.Context, *export.BatchResult, string, time.Duration) error {
	return nil
}

func (NoopNotifier) SendFailure(context.Context, *export.BatchResult, string, time.Duration, error) error {
	return nil
}

// New returns a Client when notifications are enabled.
func New(cfg config.NotifyConfig, logger *zap.Logger) Notifier {
	if !cfg.Enabled {
		return NoopNotifier{}
	}
	return NewClient(cfg, logger)
}

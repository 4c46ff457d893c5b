package qstash

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/platform/httpx"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/platform/logger"
)

// Publisher hands a message to the queue provider for at-least-once delivery
// to a callback URL. The dedup id collapses accidental duplicate publishes of
// the same job inside the provider's dedup window.
type Publisher interface {
	Publish(ctx context.Context, callbackURL string, body []byte, dedupID string) error
}

type client struct {
	log        *logger.Logger
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
}

func NewClient(log *logger.Logger) (Publisher, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	token := strings.TrimSpace(os.Getenv("QSTASH_TOKEN"))
	if token == "" {
		return nil, fmt.Errorf("missing QSTASH_TOKEN")
	}

	baseURL := strings.TrimSpace(os.Getenv("QSTASH_URL"))
	if baseURL == "" {
		baseURL = "https://qstash.upstash.io"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeoutSec := 15
	if v := os.Getenv("QSTASH_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	maxRetries := 3
	if v := os.Getenv("QSTASH_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &client{
		log:        log.With("service", "QStashClient"),
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries: maxRetries,
	}, nil
}

type qstashHTTPError struct {
	StatusCode int
	Body       string
}

func (e *qstashHTTPError) Error() string {
	return fmt.Sprintf("qstash http %d: %s", e.StatusCode, e.Body)
}

func (e *qstashHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) Publish(ctx context.Context, callbackURL string, body []byte, dedupID string) error {
	callbackURL = strings.TrimSpace(callbackURL)
	if callbackURL == "" {
		return fmt.Errorf("callback url required")
	}

	path := "/v2/publish/" + callbackURL
	backoff := 500 * time.Millisecond

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, err := c.publishOnce(ctx, path, body, dedupID)
		if err == nil {
			return nil
		}
		if !httpx.IsRetryableError(err) || attempt == c.maxRetries {
			return err
		}

		sleepFor := httpx.RetryAfterDuration(resp, backoff, 5*time.Second)
		sleepFor = httpx.JitterSleep(sleepFor)

		c.log.Warn("QStash publish retrying",
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleepFor):
		}
		backoff *= 2
	}

	return fmt.Errorf("unreachable retry loop")
}

func (c *client) publishOnce(ctx context.Context, path string, body []byte, dedupID string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(dedupID) != "" {
		req.Header.Set("Upstash-Deduplication-Id", strings.TrimSpace(dedupID))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, &qstashHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, nil
}

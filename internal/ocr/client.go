// Package ocr is the HTTP client for the manga-ocr inference service.
//
// The service owns model execution; this client only moves page images in
// and text blocks out. Transient failures (timeouts, 408, 429, 5xx) are
// retried with capped exponential backoff, other 4xx responses are
// permanent.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Kanjirito/mokuro/internal/services"
)

const (
	defaultHTTPTimeout    = 120 * time.Second
	defaultRetryMaxDelay  = 30 * time.Second
	defaultRetryBaseDelay = 2 * time.Second
	defaultRetryAttempts  = 3
)

// DefaultBaseURL is where a locally launched inference service listens.
const DefaultBaseURL = "http://127.0.0.1:8765"

// DefaultModel matches the weights the inference service loads when no model
// is requested.
const DefaultModel = "kha-white/manga-ocr-base"

// Config captures the runtime settings required to reach the OCR service.
type Config struct {
	BaseURL        string
	Model          string
	ForceCPU       bool
	TimeoutSeconds int
}

// Client wraps the manga-ocr inference HTTP API.
type Client struct {
	cfg        Config
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the default retry count (defaults to 3).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs an OCR client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:          strings.TrimSpace(cfg.Model),
			ForceCPU:       cfg.ForceCPU,
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = DefaultBaseURL
	}
	if client.cfg.Model == "" {
		client.cfg.Model = DefaultModel
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// BaseURL reports the normalized service address.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// Model reports the model requested for every page.
func (c *Client) Model() string {
	return c.cfg.Model
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("ocr request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// RecognizePage uploads one page image and returns the text blocks the
// service found on it. Line text comes back width-folded.
func (c *Client) RecognizePage(ctx context.Context, imagePath string) (*PageResult, error) {
	if strings.TrimSpace(imagePath) == "" {
		return nil, services.Wrap(services.ErrValidation, "ocr", "recognize", "image path required", nil)
	}
	image, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "ocr", "recognize", fmt.Sprintf("read page %s", filepath.Base(imagePath)), err)
	}
	form, contentType, err := c.encodePageForm(filepath.Base(imagePath), image)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "ocr", "recognize", "encode upload form", err)
	}
	result, err := c.postPageWithRetry(ctx, form, contentType)
	if err != nil {
		return nil, wrapRecognizeErr(imagePath, err)
	}
	return result, nil
}

// HealthCheck verifies the inference service is reachable and answering.
func (c *Client) HealthCheck(ctx context.Context) error {
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "healthz")
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "ocr", "health", "build url", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "ocr", "health", "new request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "ocr", "health", fmt.Sprintf("service unreachable at %s", c.cfg.BaseURL), err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		statusErr := &httpStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		return services.Wrap(services.ErrExternalTool, "ocr", "health", "health endpoint reported failure", statusErr)
	}
	return nil
}

func (c *Client) encodePageForm(filename string, image []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil, "", fmt.Errorf("ocr request: encode image part: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", fmt.Errorf("ocr request: encode image part: %w", err)
	}
	if err := writer.WriteField("model", c.cfg.Model); err != nil {
		return nil, "", fmt.Errorf("ocr request: encode model field: %w", err)
	}
	if err := writer.WriteField("force_cpu", strconv.FormatBool(c.cfg.ForceCPU)); err != nil {
		return nil, "", fmt.Errorf("ocr request: encode force_cpu field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("ocr request: finish form: %w", err)
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}

func (c *Client) postPageWithRetry(ctx context.Context, form []byte, contentType string) (*PageResult, error) {
	attempts := c.retryAttempts()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := c.postPageOnce(ctx, form, contentType)
		if err == nil {
			return result, nil
		}

		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return nil, err
		}
		if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
			return nil, sleepErr
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return nil, fmt.Errorf("ocr request: failed after %d attempts: %w", attempts, lastErr)
}

func (c *Client) postPageOnce(ctx context.Context, form []byte, contentType string) (*PageResult, error) {
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "ocr")
	if err != nil {
		return nil, fmt.Errorf("ocr request: build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(form))
	if err != nil {
		return nil, fmt.Errorf("ocr request: new request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ocr request: http error (timeout=%s): %w", c.timeoutDuration(), err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ocr request: read body (timeout=%s): %w", c.timeoutDuration(), err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: retryAfter,
		}
	}
	var result PageResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("ocr request: decode response: %w", err)
	}
	result.foldLines()
	return &result, nil
}

func (c *Client) timeoutDuration() time.Duration {
	if c == nil || c.httpClient == nil {
		return defaultHTTPTimeout
	}
	if c.httpClient.Timeout <= 0 {
		return defaultHTTPTimeout
	}
	return c.httpClient.Timeout
}

func (c *Client) retryAttempts() int {
	if c == nil {
		return 1
	}
	if c.retryMaxAttempts <= 0 {
		return 1
	}
	return c.retryMaxAttempts
}

func (c *Client) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts {
		return 0, false
	}
	if err == nil {
		return 0, false
	}
	if ctx == nil {
		return 0, false
	}
	if ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return c.capDelay(statusErr.RetryAfter), true
			}
			return c.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return c.backoffDelay(attempt), true
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return c.backoffDelay(attempt), true
		}
	}

	return 0, false
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	base := defaultRetryBaseDelay
	maxDelay := defaultRetryMaxDelay
	if c != nil {
		if c.retryBaseDelay >= 0 {
			base = c.retryBaseDelay
		}
		if c.retryMaxDelay > 0 {
			maxDelay = c.retryMaxDelay
		}
	}
	if base <= 0 {
		return 0
	}

	retryCount := attempt // attempt is 1-based, delay is for the next attempt.
	if retryCount <= 0 {
		retryCount = 1
	}

	// attempt 1 -> base, attempt 2 -> base*2, attempt 3 -> base*4, ...
	delay := base
	for i := 1; i < retryCount; i++ {
		if delay > maxDelay/2 {
			delay = maxDelay
			break
		}
		delay *= 2
	}
	return c.capDelay(delay)
}

func (c *Client) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	maxDelay := defaultRetryMaxDelay
	if c != nil && c.retryMaxDelay > 0 {
		maxDelay = c.retryMaxDelay
	}
	if maxDelay > 0 && delay > maxDelay {
		return maxDelay
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx == nil {
		return errors.New("ocr retry: nil context")
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c != nil && c.sleeper != nil {
		c.sleeper(delay)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}

func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func retryableStatus(code int) bool {
	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests {
		return true
	}
	return code >= http.StatusInternalServerError
}

// wrapRecognizeErr maps the terminal failure onto the services taxonomy.
// Context cancellation passes through untouched so callers can tell an
// interrupted run from a failed one.
func wrapRecognizeErr(imagePath string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	marker := services.ErrExternalTool
	var statusErr *httpStatusError
	var urlErr *url.Error
	switch {
	case isTimeoutError(err):
		marker = services.ErrTimeout
	case errors.As(err, &statusErr):
		if retryableStatus(statusErr.StatusCode) {
			marker = services.ErrTransient
		}
	case errors.As(err, &urlErr):
		marker = services.ErrTransient
	}
	return services.Wrap(marker, "ocr", "recognize", fmt.Sprintf("page %s", filepath.Base(imagePath)), err)
}

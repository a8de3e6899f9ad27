// Package geolocation sends lookup requests to a provider and gathers
// the JSON answers.
package geolocation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/westernwontons/geolocate/internal/stats"
)

var (
	ErrInvalidJSON  = errors.New("invalid JSON response")
	ErrBodyTooLarge = errors.New("response body too large")
)

// maxBodySize bounds a single provider answer.
const maxBodySize = 4 << 20

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client performs GET requests and returns the decoded body. It is safe
// for concurrent use; the underlying connection pool is shared.
type Client struct {
	httpClient Doer
	logger     zerolog.Logger
	recorder   *stats.Recorder
}

// NewClient wraps httpClient. A nil httpClient uses a default *http.Client.
func NewClient(httpClient Doer, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
	}
}

// Record makes the client report the latency of every answered request
// to r.
func (c *Client) Record(r *stats.Recorder) *Client {
	c.recorder = r
	return c
}

// Get fetches rawURL and returns its body as a JSON value. The status code
// is not checked: providers report errors as JSON bodies, which are passed on.
func (c *Client) Get(ctx context.Context, rawURL string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, redact(err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, redact(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("cannot read response body: %w", err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("%w (more than %d bytes, HTTP %d)", ErrBodyTooLarge, maxBodySize, resp.StatusCode)
	}

	latency := time.Since(start)
	if c.recorder != nil {
		c.recorder.Observe(latency)
	}
	c.logger.Debug().
		Str("host", req.URL.Host).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("latency", latency).
		Msg("response received")

	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w (HTTP %d)", ErrInvalidJSON, resp.StatusCode)
	}

	return json.RawMessage(body), nil
}

var secretParams = []string{"key", "apiKey"}

// redact hides API keys in the URL carried by *url.Error.
func redact(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	u, parseErr := url.Parse(urlErr.URL)
	if parseErr != nil {
		return err
	}
	query := u.Query()
	for _, name := range secretParams {
		if query.Has(name) {
			query.Set(name, "REDACTED")
		}
	}
	u.RawQuery = query.Encode()
	urlErr.URL = u.String()
	return err
}

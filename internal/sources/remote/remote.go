// Package remote loads spend records from an HTTP endpoint that answers with
// JSON rows or delimited text.
package remote

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"spendboard/internal/core"
	"spendboard/internal/ingest"
	"spendboard/internal/sources"
)

// MaxBodyBytes caps how much of a response is read.
const MaxBodyBytes = 32 << 20

// Source fetches the whole dataset with a single GET.
type Source struct {
	url        string
	httpClient *http.Client
	maxBody    int64
}

// TooLargeError reports a response body over the size limit. The body is
// rejected whole rather than parsed truncated.
type TooLargeError struct {
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("response exceeds %d bytes", e.Limit)
}

// Ensure interface conformance
var _ sources.RecordSource = (*Source)(nil)

// Option customizes a Source.
type Option func(*Source)

// WithMaxBodyBytes overrides MaxBodyBytes.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Source) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Source) { s.httpClient = c }
}

// New returns a source reading url. timeout bounds each request when the
// default client is used.
func New(url string, timeout time.Duration, opts ...Option) (*Source, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("remote url: %w", sources.ErrNotConfigured)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	s := &Source{url: url, httpClient: &http.Client{Timeout: timeout}, maxBody: MaxBodyBytes}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Source) Name() string { return "remote:" + s.url }

// Load fetches and normalizes the payload. Transport failures and non-2xx
// answers are returned as errors; malformed rows are not.
func (s *Source) Load(ctx context.Context) ([]core.SpendRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/csv;q=0.9, text/plain;q=0.8")

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch records: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(body)) > s.maxBody {
		return nil, fmt.Errorf("read response: %w", &TooLargeError{Limit: s.maxBody})
	}

	records := ingest.Parse(body)
	slog.DebugContext(ctx, "Fetched remote records",
		"url", s.url,
		"status", resp.StatusCode,
		"bytes", len(body),
		"records", len(records),
		"duration", time.Since(start))
	return records, nil
}

// Package coordinator implements the client-side statement protocol of a
// Presto/Trino-style SQL coordinator: submit a query to /v1/statement, then
// follow the server-supplied continuation URI until the job reaches a
// terminal state.
package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"querybench/internal/domain"
	"querybench/internal/metrics"
)

const (
	// DefaultPollInterval is the fixed cadence between status fetches. The
	// protocol favors responsiveness over server load; there is no backoff.
	DefaultPollInterval = time.Second

	// DefaultTimeout bounds the total wall-clock wait per query.
	DefaultTimeout = 10 * time.Minute

	statementPath = "/v1/statement"
)

var _ domain.StatementRunner = (*Client)(nil)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	// Headers are attached verbatim to every request (user, catalog, schema
	// identity headers). The client does not interpret them.
	Headers map[string]string
	// PollInterval is the sleep between status fetches (default 1s).
	PollInterval time.Duration
	// Timeout is the per-query wall-clock wait budget (default 10m).
	Timeout time.Duration
	// HTTPClient overrides the transport used for all requests.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client drives queries against one coordinator endpoint. It holds no
// per-query state and is safe for concurrent use; each SubmitAndWait call
// owns its continuation URI exclusively.
type Client struct {
	endpoint     string
	headers      map[string]string
	pollInterval time.Duration
	timeout      time.Duration
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewClient creates a Client for the given coordinator base URL.
func NewClient(endpoint string, opts Options) *Client {
	c := &Client{
		endpoint:     strings.TrimRight(endpoint, "/"),
		headers:      opts.Headers,
		pollInterval: opts.PollInterval,
		timeout:      opts.Timeout,
		httpClient:   opts.HTTPClient,
		logger:       opts.Logger,
	}
	if c.pollInterval <= 0 {
		c.pollInterval = DefaultPollInterval
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// SubmitAndWait submits sql and polls the coordinator until the query reaches
// a terminal state, the wait budget is exhausted, or ctx is canceled.
//
// Exactly one of the four outcomes is returned per call: SUCCESS, FAILED,
// TIMEOUT, or SUBMIT_ERROR. A FAILED status from the coordinator is
// authoritative and never retried. Transient transport or decode errors
// during polling are absorbed — the loop keeps the previous continuation URI
// and only an explicit terminal status or the exhausted budget ends it.
// The Elapsed field of the result is measured by this function's own clock.
func (c *Client) SubmitAndWait(ctx context.Context, sql string) (*domain.QueryJobResult, error) {
	if strings.TrimSpace(sql) == "" {
		return nil, domain.ErrValidation("sql text is required")
	}

	start := time.Now()

	nextURI, submitErr := c.submit(ctx, sql)
	if submitErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		metrics.IncQueryOutcome(string(domain.OutcomeSubmitError))
		c.logger.Warn("statement submission failed", "error", submitErr)
		return &domain.QueryJobResult{
			Outcome:      domain.OutcomeSubmitError,
			Elapsed:      time.Since(start),
			ErrorMessage: submitErr.Error(),
		}, nil
	}
	metrics.ObserveSubmitLatency(time.Since(start))

	timer := time.NewTimer(c.pollInterval)
	defer timer.Stop()

	var waited time.Duration
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}

		waited += c.pollInterval
		if waited >= c.timeout {
			metrics.IncQueryOutcome(string(domain.OutcomeTimeout))
			// Known limitation: the coordinator-side query is not canceled.
			c.logger.Warn("query wait budget exhausted",
				"timeout", c.timeout, "next_uri", nextURI)
			return &domain.QueryJobResult{
				Outcome: domain.OutcomeTimeout,
				Elapsed: time.Since(start),
			}, nil
		}

		resp, pollErr := c.poll(ctx, nextURI)
		if pollErr != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			metrics.IncTransientPollError()
			c.logger.Warn("transient poll error", "next_uri", nextURI, "error", pollErr)
			timer.Reset(c.pollInterval)
			continue
		}
		metrics.IncPoll(resp.Stats.State)

		switch resp.Stats.State {
		case stateFailed:
			metrics.IncQueryOutcome(string(domain.OutcomeFailed))
			return &domain.QueryJobResult{
				Outcome:      domain.OutcomeFailed,
				Elapsed:      time.Since(start),
				ErrorMessage: resp.errorMessage(),
			}, nil
		case stateFinished:
			elapsed := time.Since(start)
			metrics.IncQueryOutcome(string(domain.OutcomeSuccess))
			metrics.ObserveQueryElapsed(elapsed)
			return &domain.QueryJobResult{
				Outcome: domain.OutcomeSuccess,
				Elapsed: elapsed,
				Metrics: domain.QueryMetrics{
					ProcessedRows:  resp.Stats.ProcessedRows,
					ProcessedBytes: resp.Stats.ProcessedBytes,
					CPUTimeMillis:  resp.Stats.CPUTimeMillis,
					WallTimeMillis: resp.Stats.WallTimeMillis,
					ElapsedMillis:  resp.Stats.ElapsedTimeMillis,
				},
			}, nil
		default:
			// Still in progress. The coordinator may rotate the continuation
			// URI between polls; keep the previous one when the field is
			// omitted from a non-terminal response.
			if resp.NextURI != "" {
				nextURI = resp.NextURI
			}
		}

		timer.Reset(c.pollInterval)
	}
}

// submit issues the initial POST and extracts the continuation URI. A missing
// continuation URI is fatal: either the request was malformed or the
// coordinator reported a terminal error before creating the job.
func (c *Client) submit(ctx context.Context, sql string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint+statementPath, strings.NewReader(sql))
	if err != nil {
		return "", fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit statement: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read submit response: %w", err)
	}

	var sr statementResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return "", fmt.Errorf("decode submit response (status %d): %w", resp.StatusCode, err)
	}
	if sr.NextURI == "" {
		if sr.Stats.State == stateFailed {
			return "", fmt.Errorf("statement rejected: %s", sr.errorMessage())
		}
		return "", fmt.Errorf("submit response (status %d) has no continuation URI", resp.StatusCode)
	}
	return sr.NextURI, nil
}

// maxResponseBytes caps status-response reads. Statement status payloads are
// small; the cap guards against misdirected endpoints streaming result data.
const maxResponseBytes = 8 << 20

// poll fetches one status update from the current continuation URI.
func (c *Client) poll(ctx context.Context, uri string) (*statementResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("build poll request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll %s: %w", uri, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read poll response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("poll %s: status %d", uri, resp.StatusCode)
	}

	var sr statementResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("decode poll response: %w", err)
	}
	return &sr, nil
}

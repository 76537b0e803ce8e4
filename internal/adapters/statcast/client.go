// Package statcast queries Baseball Savant's Statcast search for pitch-level data.
package statcast

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/savant/internal/domain/period"
	"github.com/okian/savant/internal/domain/table"
	"github.com/okian/savant/pkg/logger"
	"github.com/okian/savant/pkg/metrics"
)

// DefaultBaseURL is the Statcast search CSV endpoint.
const DefaultBaseURL = "https://baseballsavant.mlb.com/statcast_search/csv"

const (
	defaultTimeout   = 120 * time.Second
	defaultBackoff   = 5 * time.Second
	defaultUserAgent = "savant/1.0"
	errorBodyLimit   = 512
)

// Client fetches a date range one game day at a time; the search export
// caps the rows of a single response.
type Client struct {
	baseURL   string
	http      *http.Client
	timeout   time.Duration
	retries   int
	backoff   time.Duration
	userAgent string
	logger    logger.Logger
}

// NewClient creates a Client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		http:      &http.Client{},
		timeout:   defaultTimeout,
		backoff:   defaultBackoff,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Named("statcast")
	}
	return c
}

// Fetch returns every pitch thrown between start and end, inclusive. Days
// are requested in order and stacked; the first failing day aborts.
func (c *Client) Fetch(ctx context.Context, start, end time.Time) (*table.Table, error) {
	var days []*table.Table
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := c.fetchDay(ctx, day)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", day.Format(period.DateLayout), err)
		}
		days = append(days, t)
	}

	out := table.Concat(days...)
	c.logger.Debug(ctx, "statcast window fetched",
		logger.String("start", start.Format(period.DateLayout)),
		logger.String("end", end.Format(period.DateLayout)),
		logger.Int("requests", len(days)),
		logger.Int("rows", out.Len()))
	return out, nil
}

// fetchDay requests a single game day, retrying transient failures.
func (c *Client) fetchDay(ctx context.Context, day time.Time) (*table.Table, error) {
	u, err := c.queryURL(day, day)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			metrics.RecordFetchRetry()
			c.logger.Warn(ctx, "retrying statcast fetch",
				logger.String("day", day.Format(period.DateLayout)),
				logger.Int("attempt", attempt),
				logger.Duration("backoff", c.backoff),
				logger.Error(lastErr))
			if err := sleep(ctx, c.backoff); err != nil {
				return nil, err
			}
		}

		t, err := c.fetchOnce(ctx, u)
		if err == nil {
			return t, nil
		}
		metrics.RecordFetchError()
		lastErr = err
		if !isTransient(err) {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) fetchOnce(ctx context.Context, u string) (*table.Table, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/csv")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(ctxErr, context.Canceled) {
			return nil, err
		}
		return nil, &transientError{err: fmt.Errorf("%w: %w", ErrUpstream, err)}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Debug(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		err := fmt.Errorf("%w: %s: %s", ErrUpstream, resp.Status, strings.TrimSpace(string(snippet)))
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			return nil, &transientError{err: err}
		}
		return nil, err
	}
	if ct := resp.Header.Get("Content-Type"); strings.Contains(ct, "text/html") {
		return nil, fmt.Errorf("%w: unexpected content type %q", ErrUpstream, ct)
	}

	t, err := table.Decode(resp.Body)
	if err != nil {
		// A body cut short by the timeout surfaces as a parse error.
		if ctx.Err() != nil {
			return nil, &transientError{err: fmt.Errorf("%w: %w", ErrUpstream, ctx.Err())}
		}
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return t, nil
}

// queryURL builds the search query the Statcast CSV export expects.
// Empty filter parameters are sent on purpose; the endpoint rejects
// queries that omit them.
func (c *Client) queryURL(start, end time.Time) (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", c.baseURL, err)
	}

	q := base.Query()
	q.Set("all", "true")
	for _, k := range []string{
		"hfPT", "hfAB", "hfBBT", "hfPR", "hfZ", "stadium", "hfBBL", "hfNewZones",
		"hfSea", "hfSit", "hfOuts", "opponent", "pitcher_throws", "batter_stands",
		"hfSA", "team", "position", "hfRO", "home_road", "hfFlag", "metric_1", "hfInn",
	} {
		q.Set(k, "")
	}
	q.Set("hfGT", "R|PO|S|")
	q.Set("player_type", "pitcher")
	q.Set("game_date_gt", start.Format(period.DateLayout))
	q.Set("game_date_lt", end.Format(period.DateLayout))
	q.Set("min_pitches", "0")
	q.Set("min_results", "0")
	q.Set("group_by", "name")
	q.Set("sort_col", "pitches")
	q.Set("player_event_sort", "h_launch_speed")
	q.Set("sort_order", "desc")
	q.Set("min_abs", "0")
	q.Set("type", "details")
	base.RawQuery = q.Encode()
	return base.String(), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

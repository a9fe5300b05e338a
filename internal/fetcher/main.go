package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"uocsclub.net/hrlb/internal/types"
)

const (
	DefaultBaseURL = "https://www.hackerrank.com"
	DefaultLimit   = 100

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	maxErrorBody = 4096
)

type FetcherConfig struct {
	BaseURL string
	Timeout time.Duration

	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

type Fetcher struct {
	client  *http.Client
	baseURL string
	logger  zerolog.Logger
	now     func() time.Time
}

func NewFetcher(config FetcherConfig) *Fetcher {
	if len(config.BaseURL) == 0 {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}

	return &Fetcher{
		client:  client,
		baseURL: config.BaseURL,
		logger:  log.With().Str("component", "fetcher").Logger(),
		now:     time.Now,
	}
}

// FetchPage requests one leaderboard page. Any failure comes back as *Error
// after being logged; the caller decides whether the page matters.
func (f *Fetcher) FetchPage(ctx context.Context, contestSlug, password string, offset, limit int) (*types.Page, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	page, err := f.fetchPage(ctx, contestSlug, password, offset, limit)
	if err != nil {
		f.logFailure(err)
		return nil, err
	}

	upstreamRequestsTotal.WithLabelValues("ok").Inc()
	return page, nil
}

func (f *Fetcher) fetchPage(ctx context.Context, contestSlug, password string, offset, limit int) (*types.Page, *Error) {
	endpoint, err := f.leaderboardURL(contestSlug, offset, limit)
	if err != nil {
		return nil, &Error{Kind: ErrorKindRequest, Offset: offset, Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{Kind: ErrorKindRequest, Offset: offset, Message: err.Error()}
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	if len(password) != 0 {
		req.SetBasicAuth("", password)
	}

	start := f.now()
	resp, err := f.client.Do(req)
	upstreamRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, &Error{Kind: ErrorKindNetwork, Offset: offset, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &Error{
			Kind:       ErrorKindStatus,
			Offset:     offset,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("request failed with status code %d", resp.StatusCode),
			Body:       string(body),
		}
	}

	parsed := LeaderboardResponse{}
	err = json.NewDecoder(resp.Body).Decode(&parsed)
	if err != nil {
		return nil, &Error{
			Kind:       ErrorKindDecode,
			Offset:     offset,
			StatusCode: resp.StatusCode,
			Message:    err.Error(),
		}
	}

	return parsed.ToPage(), nil
}

// leaderboardURL keeps the slug a single path segment: "/" and friends are
// percent-encoded and dot segments are refused.
func (f *Fetcher) leaderboardURL(contestSlug string, offset, limit int) (string, error) {
	switch contestSlug {
	case "", ".", "..":
		return "", fmt.Errorf("invalid contest slug %q", contestSlug)
	}

	u, err := url.Parse(f.baseURL)
	if err != nil {
		return "", err
	}

	rawPath := strings.TrimSuffix(u.EscapedPath(), "/") +
		"/rest/contests/" + url.PathEscape(contestSlug) + "/leaderboard"
	path, err := url.PathUnescape(rawPath)
	if err != nil {
		return "", err
	}
	u.Path = path
	u.RawPath = rawPath

	query := url.Values{}
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(limit))
	query.Set("_", strconv.FormatInt(f.now().UnixMilli(), 10))
	u.RawQuery = query.Encode()

	return u.String(), nil
}

func (f *Fetcher) logFailure(err *Error) {
	upstreamRequestsTotal.WithLabelValues(string(err.Kind)).Inc()

	event := f.logger.Error().
		Int("offset", err.Offset).
		Str("kind", string(err.Kind)).
		Str("error", err.Message)

	if err.StatusCode != 0 {
		event = event.Int("status_code", err.StatusCode)
	}
	if len(err.Body) != 0 {
		event = event.Str("body", err.Body)
	}

	event.Msg("Failed to fetch leaderboard page")
}

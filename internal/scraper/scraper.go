// Package scraper walks every page of a contest leaderboard and turns the
// merged result into spreadsheet rows.
//
// Pages are fetched one at a time with a fixed pause after every page past
// the first, whether or not it succeeded. A failed page is logged and
// skipped; nothing is retried.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"uocsclub.net/hrlb/internal/export"
	"uocsclub.net/hrlb/internal/types"
)

// ErrNoData is returned when no entry could be fetched at all. A contest with
// no participants and a first page that failed look the same here.
var ErrNoData = errors.New("no data fetched: the contest might be private, require a different password, or use a different authentication method")

// PageFetcher fetches a single leaderboard page.
type PageFetcher interface {
	FetchPage(ctx context.Context, contestSlug, password string, offset, limit int) (*types.Page, error)
}

type Config struct {
	// PageSize is the limit sent with every page request.
	PageSize int

	// Delay is the pause after each page following the first.
	Delay time.Duration

	// SheetName names the single sheet in the exported workbook.
	SheetName string
}

func DefaultConfig() Config {
	return Config{
		PageSize:  100,
		Delay:     time.Second,
		SheetName: export.SheetName,
	}
}

type Scraper struct {
	fetcher PageFetcher
	config  Config
	logger  zerolog.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

type Result struct {
	Rows     []types.Row
	Workbook []byte
}

func NewScraper(fetcher PageFetcher, config Config) *Scraper {
	if config.PageSize <= 0 {
		config.PageSize = 100
	}
	if config.Delay < 0 {
		config.Delay = 0
	}
	if len(config.SheetName) == 0 {
		config.SheetName = export.SheetName
	}

	return &Scraper{
		fetcher: fetcher,
		config:  config,
		logger:  log.With().Str("component", "scraper").Logger(),
		sleep:   sleepContext,
	}
}

// FetchAll returns every entry it managed to fetch for the contest, in page
// order. It returns an empty slice when the first page fails. When ctx is
// cancelled it stops early; callers must check ctx.Err() before using the
// entries.
func (s *Scraper) FetchAll(ctx context.Context, contestSlug, password string) []types.Entry {
	start := time.Now()
	defer func() {
		scrapeDuration.Observe(time.Since(start).Seconds())
	}()

	entries := []types.Entry{}
	pageSize := s.config.PageSize

	first, err := s.fetcher.FetchPage(ctx, contestSlug, password, 0, pageSize)
	if err != nil || first == nil {
		return entries
	}

	total := first.Total
	entries = append(entries, first.Entries...)
	s.logger.Info().
		Str("contest", contestSlug).
		Int("total", total).
		Msg("Total entries")

	totalPages := (total + pageSize - 1) / pageSize

	for page := 1; page < totalPages; page++ {
		offset := page * pageSize

		data, err := s.fetcher.FetchPage(ctx, contestSlug, password, offset, pageSize)
		if err == nil && data != nil {
			entries = append(entries, data.Entries...)
			s.logger.Info().
				Str("contest", contestSlug).
				Int("fetched", len(entries)).
				Int("total", total).
				Msg("Fetch progress")
		} else {
			pagesFailedTotal.Inc()
			s.logger.Error().
				Str("contest", contestSlug).
				Int("page", page+1).
				Msg("Failed to fetch page")
		}

		if err := s.sleep(ctx, s.config.Delay); err != nil {
			s.logger.Warn().
				Err(err).
				Str("contest", contestSlug).
				Int("fetched", len(entries)).
				Int("total", total).
				Msg("Fetch cancelled")
			break
		}
	}

	return entries
}

// Scrape fetches the whole leaderboard and builds both the row table and the
// workbook. Nothing is returned unless both succeed.
func (s *Scraper) Scrape(ctx context.Context, contestSlug, password string) (*Result, error) {
	entries := s.FetchAll(ctx, contestSlug, password)
	if err := ctx.Err(); err != nil {
		scrapesTotal.WithLabelValues("cancelled").Inc()
		return nil, fmt.Errorf("scrape cancelled: %w", err)
	}
	if len(entries) == 0 {
		scrapesTotal.WithLabelValues("empty").Inc()
		return nil, ErrNoData
	}

	SortByRank(entries)
	rows := ToRows(entries)

	workbook, err := export.Workbook(s.config.SheetName, rows)
	if err != nil {
		scrapesTotal.WithLabelValues("error").Inc()
		s.logger.Error().Err(err).Str("contest", contestSlug).Msg("Failed to build workbook")
		return nil, fmt.Errorf("build workbook: %w", err)
	}

	scrapesTotal.WithLabelValues("ok").Inc()
	return &Result{
		Rows:     rows,
		Workbook: workbook,
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Package scheduler keeps stored snapshots of watched contests fresh.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
	"uocsclub.net/hrlb/internal/scraper"
	"uocsclub.net/hrlb/internal/types"
)

type LeaderboardScraper interface {
	Scrape(ctx context.Context, contestSlug, password string) (*scraper.Result, error)
}

type SnapshotStore interface {
	StoreSnapshot(contestSlug string, rows []types.Row) (*types.Snapshot, error)
}

// RefreshContests scrapes each contest in turn and stores what it got. One
// contest failing does not stop the others. It returns how many were stored.
func RefreshContests(ctx context.Context, scr LeaderboardScraper, store SnapshotStore, contests []string) int {
	logger := log.With().Str("component", "scheduler").Logger()
	stored := 0

	for _, contest := range contests {
		if ctx.Err() != nil {
			break
		}

		result, err := scr.Scrape(ctx, contest, "")
		if err != nil {
			event := logger.Error()
			if errors.Is(err, scraper.ErrNoData) {
				event = logger.Warn()
			}
			event.Err(err).Str("contest", contest).Msg("Scheduled scrape failed")
			continue
		}

		snapshot, err := store.StoreSnapshot(contest, result.Rows)
		if err != nil {
			logger.Error().Err(err).Str("contest", contest).Msg("Failed to store snapshot")
			continue
		}

		stored++
		logger.Info().
			Str("contest", contest).
			Str("snapshot", snapshot.Id).
			Int("rows", len(result.Rows)).
			Msg("Stored snapshot")
	}

	return stored
}

// WatchContests registers a job that refreshes the given contests every
// interval, starting immediately. A run still in progress when the next one
// is due pushes that one back instead of overlapping it.
func WatchContests(s gocron.Scheduler, interval time.Duration, scr LeaderboardScraper, store SnapshotStore, contests []string) (gocron.Job, error) {
	return s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			RefreshContests(context.Background(), scr, store, contests)
		}),
		gocron.WithName("watch-contests"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
}

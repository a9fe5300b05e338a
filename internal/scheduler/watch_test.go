package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"uocsclub.net/hrlb/internal/scraper"
	"uocsclub.net/hrlb/internal/types"
)

type stubScraper struct {
	mu      sync.Mutex
	failing map[string]error
	calls   []string
}

func (s *stubScraper) Scrape(ctx context.Context, contestSlug, password string) (*scraper.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, contestSlug)
	if err, ok := s.failing[contestSlug]; ok {
		return nil, err
	}
	return &scraper.Result{Rows: []types.Row{{Rank: 1, User: contestSlug, SolvedCount: 1, TimeTaken: "00:00:01"}}}, nil
}

type memoryStore struct {
	mu     sync.Mutex
	stored map[string][]types.Row
	done   chan struct{}
}

func (m *memoryStore) StoreSnapshot(contestSlug string, rows []types.Row) (*types.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stored == nil {
		m.stored = map[string][]types.Row{}
	}
	m.stored[contestSlug] = rows
	if m.done != nil && len(m.stored) == 1 {
		close(m.done)
	}
	return &types.Snapshot{Id: "id-" + contestSlug, ContestSlug: contestSlug, Rows: rows}, nil
}

func TestRefreshContests_ContinuesPastFailures(t *testing.T) {
	scr := &stubScraper{failing: map[string]error{
		"private": scraper.ErrNoData,
		"broken":  fmt.Errorf("build workbook: boom"),
	}}
	store := &memoryStore{}

	stored := RefreshContests(context.Background(), scr, store, []string{"private", "open", "broken", "other"})

	assert.Equal(t, 2, stored)
	assert.Equal(t, []string{"private", "open", "broken", "other"}, scr.calls)
	assert.Contains(t, store.stored, "open")
	assert.Contains(t, store.stored, "other")
	assert.NotContains(t, store.stored, "private")
}

func TestRefreshContests_StopsWhenCancelled(t *testing.T) {
	scr := &stubScraper{}
	store := &memoryStore{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Zero(t, RefreshContests(ctx, scr, store, []string{"a", "b"}))
	assert.Empty(t, scr.calls)
}

func TestWatchContests_RunsImmediately(t *testing.T) {
	s, err := gocron.NewScheduler()
	require.NoError(t, err)
	defer s.Shutdown()

	store := &memoryStore{done: make(chan struct{})}
	_, err = WatchContests(s, time.Hour, &stubScraper{}, store, []string{"spring-cup"})
	require.NoError(t, err)

	s.Start()

	select {
	case <-store.done:
	case <-time.After(5 * time.Second):
		t.Fatal("watch job did not run on start")
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Contains(t, store.stored, "spring-cup")
}

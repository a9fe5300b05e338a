package fetcher

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T, handler http.HandlerFunc) *Fetcher {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewFetcher(FetcherConfig{BaseURL: server.URL, Timeout: 5 * time.Second})
}

func TestFetchPage_Success(t *testing.T) {
	var got *http.Request
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"total":2,"models":[
			{"rank":1,"hacker":"alice","solved_challenges":5,"time_taken":120},
			{"rank":2,"hacker":"bob","solved_challenges":3,"time_taken":90}
		]}`))
	})

	page, err := f.FetchPage(context.Background(), "testcontest", "", 200, 100)
	require.NoError(t, err)
	require.NotNil(t, page)

	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, "alice", page.Entries[0].Hacker)
	assert.Equal(t, 1, *page.Entries[0].Rank)
	assert.Equal(t, 5, *page.Entries[0].SolvedChallenges)
	assert.Equal(t, 120, *page.Entries[0].TimeTaken)

	require.NotNil(t, got)
	assert.Equal(t, "/rest/contests/testcontest/leaderboard", got.URL.Path)
	assert.Equal(t, "200", got.URL.Query().Get("offset"))
	assert.Equal(t, "100", got.URL.Query().Get("limit"))
	assert.NotEmpty(t, got.URL.Query().Get("_"))
	assert.Equal(t, "XMLHttpRequest", got.Header.Get("X-Requested-With"))
	assert.Contains(t, got.Header.Get("User-Agent"), "Mozilla/5.0")
	assert.Empty(t, got.Header.Get("Authorization"))
}

func TestFetchPage_Defaults(t *testing.T) {
	var offset, limit string
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		offset = r.URL.Query().Get("offset")
		limit = r.URL.Query().Get("limit")
		w.Write([]byte(`{"total":0,"models":[]}`))
	})

	page, err := f.FetchPage(context.Background(), "c", "", -5, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Entries)
	assert.Equal(t, "0", offset)
	assert.Equal(t, "100", limit)
}

func TestFetchPage_PasswordUsesBasicAuth(t *testing.T) {
	var auth string
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`{"total":0,"models":[]}`))
	})

	_, err := f.FetchPage(context.Background(), "c", "hunter2", 0, 100)
	require.NoError(t, err)

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte(":hunter2"))
	assert.Equal(t, want, auth)
}

func TestFetchPage_SlugStaysOneSegment(t *testing.T) {
	paths := []string{}
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.EscapedPath())
		w.Write([]byte(`{"total":0,"models":[]}`))
	})

	for _, slug := range []string{"../../x", "a/b", "cup?x=1", "spring cup"} {
		_, err := f.FetchPage(context.Background(), slug, "", 0, 100)
		require.NoError(t, err, slug)
	}

	assert.Equal(t, []string{
		"/rest/contests/..%2F..%2Fx/leaderboard",
		"/rest/contests/a%2Fb/leaderboard",
		"/rest/contests/cup%3Fx=1/leaderboard",
		"/rest/contests/spring%20cup/leaderboard",
	}, paths)
}

func TestFetchPage_RejectsDotSlug(t *testing.T) {
	called := false
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	for _, slug := range []string{"", ".", ".."} {
		page, err := f.FetchPage(context.Background(), slug, "", 0, 100)
		assert.Nil(t, page)

		var fetchErr *Error
		require.True(t, errors.As(err, &fetchErr), slug)
		assert.Equal(t, ErrorKindRequest, fetchErr.Kind)
	}
	assert.False(t, called)
}

func TestFetchPage_StatusError(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"private contest"}`))
	})

	page, err := f.FetchPage(context.Background(), "c", "", 100, 100)
	assert.Nil(t, page)
	require.Error(t, err)

	var fetchErr *Error
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, ErrorKindStatus, fetchErr.Kind)
	assert.Equal(t, http.StatusForbidden, fetchErr.StatusCode)
	assert.Equal(t, 100, fetchErr.Offset)
	assert.Contains(t, fetchErr.Body, "private contest")
}

func TestFetchPage_DecodeError(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>login</html>`))
	})

	_, err := f.FetchPage(context.Background(), "c", "", 0, 100)

	var fetchErr *Error
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, ErrorKindDecode, fetchErr.Kind)
}

func TestFetchPage_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	f := NewFetcher(FetcherConfig{BaseURL: url, Timeout: time.Second})
	_, err := f.FetchPage(context.Background(), "c", "", 0, 100)

	var fetchErr *Error
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, ErrorKindNetwork, fetchErr.Kind)
	assert.Zero(t, fetchErr.StatusCode)
}

func TestLeaderboardResponse_AbsentAndStringFields(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total":"3","models":[
			{"rank":"7","hacker":"carol","time_taken":61.0},
			{"hacker":"dave","solved_challenges":null,"time_taken":""},
			null
		]}`))
	})

	page, err := f.FetchPage(context.Background(), "c", "", 0, 100)
	require.NoError(t, err)

	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Entries, 2)

	carol := page.Entries[0]
	require.NotNil(t, carol.Rank)
	assert.Equal(t, 7, *carol.Rank)
	assert.Nil(t, carol.SolvedChallenges)
	require.NotNil(t, carol.TimeTaken)
	assert.Equal(t, 61, *carol.TimeTaken)

	dave := page.Entries[1]
	assert.Nil(t, dave.Rank)
	assert.Nil(t, dave.SolvedChallenges)
	assert.Nil(t, dave.TimeTaken)
}

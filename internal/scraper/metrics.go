package scraper

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scrapesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hrlb_scrapes_total",
		Help: "Leaderboard scrapes by outcome",
	}, []string{"outcome"})

	scrapeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hrlb_scrape_duration_seconds",
		Help:    "Time to fetch every page of a leaderboard",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})

	pagesFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hrlb_pages_failed_total",
		Help: "Leaderboard pages skipped after a failed fetch",
	})
)

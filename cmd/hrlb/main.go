package main

import (
	"github.com/go-co-op/gocron/v2"
	dotenv "github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"uocsclub.net/hrlb/internal/config"
	"uocsclub.net/hrlb/internal/database"
	"uocsclub.net/hrlb/internal/fetcher"
	"uocsclub.net/hrlb/internal/logging"
	"uocsclub.net/hrlb/internal/scheduler"
	"uocsclub.net/hrlb/internal/scraper"
	"uocsclub.net/hrlb/internal/web"
)

func main() {
	envErr := dotenv.Load()

	cfg := config.Load()
	logging.Setup(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	if envErr != nil {
		log.Warn().Msg("Failed to load .env")
	}

	db, err := database.InitDatabase(cfg.DatabasePath, cfg.MigrationsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	scr := scraper.NewScraper(
		fetcher.NewFetcher(fetcher.FetcherConfig{
			BaseURL: cfg.UpstreamBaseURL,
			Timeout: cfg.UpstreamTimeout,
		}),
		scraper.Config{
			PageSize: cfg.PageSize,
			Delay:    cfg.PageDelay,
		},
	)

	if len(cfg.WatchContests) != 0 {
		s, err := gocron.NewScheduler()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to start scheduler")
		}

		_, err = scheduler.WatchContests(s, cfg.WatchInterval, scr, db, cfg.WatchContests)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to schedule watched contests")
		}

		s.Start()
		defer s.Shutdown()

		log.Info().
			Strs("contests", cfg.WatchContests).
			Dur("interval", cfg.WatchInterval).
			Msg("Watching contests")
	}

	server := web.InitServer(web.ServerConfig{
		Port:            cfg.Port,
		AllowedOrigins:  cfg.AllowedOrigins,
		ExportRateLimit: cfg.ExportRateLimit,
		StoragePath:     cfg.StoragePath,
	}, scr, db)

	if err := server.Listen(); err != nil {
		log.Error().Err(err).Msg("Server stopped")
	}
}

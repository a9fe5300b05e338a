package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	dotenv "github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"uocsclub.net/hrlb/internal/config"
	"uocsclub.net/hrlb/internal/fetcher"
	"uocsclub.net/hrlb/internal/logging"
	"uocsclub.net/hrlb/internal/scraper"
)

type exportOptions struct {
	contest  string
	password string
	output   string
	baseURL  string
	pageSize int
	delay    time.Duration
	verbose  bool
}

func newRootCmd() *cobra.Command {
	dotenv.Load()
	cfg := config.Load()

	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "hrlb-export",
		Short: "Download a contest leaderboard as an xlsx file",
		Long: `Fetches every page of a contest leaderboard, one page at a time,
and writes the merged result to a single-sheet spreadsheet.`,
		Example: `  hrlb-export --contest spring-cup
  hrlb-export --contest private-cup --password secret --out private.xlsx`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := cfg.LogLevel
			if opts.verbose {
				level = "debug"
			}
			logging.Setup(logging.Config{Level: level, Pretty: true})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.contest, "contest", "c", "", "contest slug (required)")
	cmd.Flags().StringVarP(&opts.password, "password", "p", "", "contest password")
	cmd.Flags().StringVarP(&opts.output, "out", "o", "", "output file (default HackerRank_<contest>_Leaderboard.xlsx)")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", cfg.UpstreamBaseURL, "leaderboard API base URL")
	cmd.Flags().IntVar(&opts.pageSize, "page-size", cfg.PageSize, "entries per page request")
	cmd.Flags().DurationVar(&opts.delay, "delay", cfg.PageDelay, "pause between page requests")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	cmd.MarkFlagRequired("contest")

	return cmd
}

func runExport(ctx context.Context, opts *exportOptions) error {
	if len(opts.output) == 0 {
		opts.output = fmt.Sprintf("HackerRank_%s_Leaderboard.xlsx", opts.contest)
	}

	scr := scraper.NewScraper(
		fetcher.NewFetcher(fetcher.FetcherConfig{BaseURL: opts.baseURL}),
		scraper.Config{PageSize: opts.pageSize, Delay: opts.delay},
	)

	result, err := scr.Scrape(ctx, opts.contest, opts.password)
	if err != nil {
		return err
	}

	if err := os.WriteFile(opts.output, result.Workbook, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}

	log.Info().
		Str("contest", opts.contest).
		Int("rows", len(result.Rows)).
		Str("file", opts.output).
		Msg("Leaderboard exported")
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

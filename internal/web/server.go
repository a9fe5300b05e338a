package web

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/sqlite3/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"uocsclub.net/hrlb/internal/export"
	"uocsclub.net/hrlb/internal/scraper"
	"uocsclub.net/hrlb/internal/types"
	"uocsclub.net/hrlb/internal/web/templates"
)

type LeaderboardScraper interface {
	Scrape(ctx context.Context, contestSlug, password string) (*scraper.Result, error)
}

type SnapshotStore interface {
	StoreSnapshot(contestSlug string, rows []types.Row) (*types.Snapshot, error)
	GetLatestSnapshot(contestSlug string) (*types.Snapshot, error)
	ListSnapshots() ([]*types.SnapshotInfo, error)
}

type Server struct {
	App     *fiber.App
	db      SnapshotStore
	scraper LeaderboardScraper
	config  ServerConfig
	logger  zerolog.Logger
}

type ServerConfig struct {
	Port           int
	AllowedOrigins []string

	// ExportRateLimit caps exports per client IP per minute. Zero disables it.
	ExportRateLimit int

	// StoragePath is the sqlite file backing the limiter. Empty keeps it in memory.
	StoragePath string
}

type exportRequest struct {
	ContestSlug string `json:"contestSlug" form:"contestSlug"`
	Password    string `json:"password" form:"password"`
}

func InitServer(config ServerConfig, scr LeaderboardScraper, db SnapshotStore) *Server {
	s := &Server{
		App: fiber.New(fiber.Config{
			DisableStartupMessage: true,
		}),
		db:      db,
		scraper: scr,
		config:  config,
		logger:  log.With().Str("component", "web").Logger(),
	}

	origins := strings.Join(config.AllowedOrigins, ",")
	if len(origins) == 0 {
		origins = "*"
	}

	s.App.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Accept,Authorization,Content-Type",
		ExposeHeaders:    "Content-Disposition",
		AllowCredentials: false, // credentials require explicit origins
		MaxAge:           300,
	}))

	s.App.Use("/assets", filesystem.New(filesystem.Config{
		Root:       http.FS(AssetsEFS),
		PathPrefix: "assets",
		Browse:     false,
	}))

	s.App.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	exportHandlers := []fiber.Handler{}
	if config.ExportRateLimit > 0 {
		exportHandlers = append(exportHandlers, s.exportLimiter())
	}
	exportHandlers = append(exportHandlers, s.HandleExport)

	s.App.Post("/api/leaderboard", exportHandlers...)
	s.App.Get("/api/leaderboard/:slug", s.HandleSnapshotJSON)
	s.App.Get("/snapshots/:slug", s.HandleSnapshotPage)
	s.App.Get("/", s.HandleRoot)

	return s
}

func (s *Server) Listen() error {
	s.logger.Info().Int("port", s.config.Port).Msg("Listening")
	return s.App.Listen(fmt.Sprintf(":%d", s.config.Port))
}

func (s *Server) exportLimiter() fiber.Handler {
	limiterConfig := limiter.Config{
		Max:        s.config.ExportRateLimit,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(http.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many exports, try again in a minute",
			})
		},
	}

	if len(s.config.StoragePath) != 0 {
		limiterConfig.Storage = sqlite3.New(sqlite3.Config{
			Database: s.config.StoragePath,
			Table:    "export_limiter",
		})
	}

	return limiter.New(limiterConfig)
}

// HandleExport scrapes a contest and responds with the workbook. Failures
// answer with a JSON error and never a partial file.
func (s *Server) HandleExport(c *fiber.Ctx) error {
	body := exportRequest{}
	if err := c.BodyParser(&body); err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid request body")
	}

	body.ContestSlug = strings.TrimSpace(body.ContestSlug)
	if len(body.ContestSlug) == 0 {
		return jsonError(c, http.StatusBadRequest, "contestSlug is required")
	}

	result, err := s.scraper.Scrape(c.UserContext(), body.ContestSlug, body.Password)
	if err != nil {
		event := s.logger.Error()
		if errors.Is(err, scraper.ErrNoData) {
			event = s.logger.Warn()
		}
		event.Err(err).Str("contest", body.ContestSlug).Msg("Failed to fetch and process leaderboard")
		return jsonError(c, http.StatusInternalServerError, err.Error())
	}

	if _, err := s.db.StoreSnapshot(body.ContestSlug, result.Rows); err != nil {
		s.logger.Error().Err(err).Str("contest", body.ContestSlug).Msg("Failed to store snapshot")
	}

	c.Set(fiber.HeaderContentType, export.ContentType)
	c.Set(fiber.HeaderContentDisposition, attachment(fmt.Sprintf("HackerRank_%s_Leaderboard.xlsx", body.ContestSlug)))
	return c.Send(result.Workbook)
}

// attachment quotes or RFC 2231-encodes filename as needed.
func attachment(filename string) string {
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": filename})
	if len(disposition) == 0 {
		return "attachment"
	}
	return disposition
}

func (s *Server) HandleSnapshotJSON(c *fiber.Ctx) error {
	slug := c.Params("slug")

	snapshot, err := s.db.GetLatestSnapshot(slug)
	if err != nil {
		s.logger.Error().Err(err).Str("contest", slug).Msg("Failed to load snapshot")
		return jsonError(c, http.StatusInternalServerError, "Failed to load snapshot")
	}
	if snapshot == nil {
		return jsonError(c, http.StatusNotFound, fmt.Sprintf("No snapshot stored for %s", slug))
	}

	return c.JSON(fiber.Map{
		"id":          snapshot.Id,
		"contestSlug": snapshot.ContestSlug,
		"createdAt":   snapshot.CreatedAt,
		"rows":        snapshot.Rows,
	})
}

func (s *Server) HandleRoot(c *fiber.Ctx) error {
	snapshots, err := s.db.ListSnapshots()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list snapshots")
		return c.SendStatus(http.StatusInternalServerError)
	}

	return s.Render(c, templates.LandingPage(snapshots))
}

func (s *Server) HandleSnapshotPage(c *fiber.Ctx) error {
	slug := c.Params("slug")

	snapshot, err := s.db.GetLatestSnapshot(slug)
	if err != nil {
		s.logger.Error().Err(err).Str("contest", slug).Msg("Failed to load snapshot")
		return c.SendStatus(http.StatusInternalServerError)
	}
	if snapshot == nil {
		return c.SendStatus(http.StatusNotFound)
	}

	return s.Render(c, templates.SnapshotPage(snapshot))
}

func (s *Server) Render(c *fiber.Ctx, component templ.Component) error {
	c.Set("Content-Type", "text/html")
	context := c.UserContext()

	renderOrder := []func(templ.Component) templ.Component{}

	if c.Get("HX-Request") != "true" {
		renderOrder = append(renderOrder, templates.Index)
	}

	// we need to render bottom-up
	for i := len(renderOrder) - 1; i >= 0; i -= 1 {
		component = renderOrder[i](component)
	}

	return component.Render(context, c.Response().BodyWriter())
}

func jsonError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// Package api exposes a Workspace over HTTP with fiber.
package api

import (
	"time"

	"github.com/dd0wney/cluso-lessongraph/pkg/editor"
	"github.com/dd0wney/cluso-lessongraph/pkg/health"
	"github.com/dd0wney/cluso-lessongraph/pkg/logging"
	"github.com/dd0wney/cluso-lessongraph/pkg/metrics"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Server represents the HTTP API server
type Server struct {
	ws        *editor.Workspace
	app       *fiber.App
	logger    logging.Logger
	metrics   *metrics.Registry
	health    *health.Checker
	startTime time.Time
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the request logger
func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics records request metrics and serves the registry on /metrics
func WithMetrics(m *metrics.Registry) Option {
	return func(s *Server) { s.metrics = m }
}

// WithHealth uses hc for the health endpoints. The server registers its
// own liveness check for the loaded paths.
func WithHealth(hc *health.Checker) Option {
	return func(s *Server) { s.health = hc }
}

// NewServer creates a new API server over ws
func NewServer(ws *editor.Workspace, opts ...Option) *Server {
	s := &Server{
		ws:        ws,
		logger:    logging.NewNopLogger(),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logging.Component("api"))
	if s.health == nil {
		s.health = health.NewChecker()
	}
	s.health.RegisterLivenessCheck("paths", health.PathsCheck(func() int {
		return len(s.ws.State().Paths)
	}))

	s.app = fiber.New(fiber.Config{
		AppName: "lessongraph",
		// route params become map keys and owner ids that outlive the request
		Immutable: true,
	})
	s.routes()
	return s
}

func (s *Server) routes() {
	app := s.app
	if s.metrics != nil {
		app.Use(s.metricsMiddleware)
		app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))
	}

	app.Get("/health", s.handleHealth)
	app.Get("/health/live", s.health.LivenessHandler())
	app.Get("/health/ready", s.health.ReadinessHandler())

	// Paths
	app.Get("/paths", s.handleListPaths)
	app.Put("/paths/:owner", s.handleOpenPath)
	app.Get("/paths/:owner", s.handleGetPath)
	app.Delete("/paths/:owner", s.handleDeletePath)
	app.Put("/paths/:owner/viewport", s.handleSetViewport)
	app.Post("/paths/:owner/generate", s.handleGenerate)

	// Nodes
	app.Post("/paths/:owner/nodes", s.handleAddNode)
	app.Patch("/paths/:owner/nodes/:id", s.handleUpdateNode)
	app.Put("/paths/:owner/nodes/:id/position", s.handleMoveNode)
	app.Delete("/paths/:owner/nodes/:id", s.handleDeleteNode)

	// Edges
	app.Post("/paths/:owner/edges", s.handleAddEdge)
	app.Delete("/paths/:owner/edges/:id", s.handleDeleteEdge)

	// History
	app.Post("/paths/:owner/undo", s.handleUndo)
	app.Post("/paths/:owner/redo", s.handleRedo)

	// Layout and projection
	app.Get("/paths/:owner/layout", s.handleLayout)
	app.Post("/paths/:owner/layout/reset", s.handleResetLayout)
	app.Get("/paths/:owner/projection", s.handleProjection)
	app.Post("/projection/expand/:phase", s.handleExpand)
	app.Post("/projection/collapse", s.handleCollapse)
}

// App returns the fiber application
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) handleHealth(c fiber.Ctx) error {
	report := s.health.Check(c.Context())
	status := fiber.StatusOK
	if report.Status == health.StatusUnhealthy {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(HealthResponse{
		Status:    string(report.Status),
		Timestamp: report.Timestamp,
		Version:   Version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Paths:     len(s.ws.State().Paths),
		Checks:    report.Checks,
	})
}

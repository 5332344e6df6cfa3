package server

import (
	"context"
	"math"

	"github.com/andresmejia3/formcheck/internal/form"
	"github.com/andresmejia3/formcheck/internal/publish"
	"github.com/andresmejia3/formcheck/internal/store"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

// SessionStore is the read side of the session store used by the API.
type SessionStore interface {
	ListSessions(ctx context.Context, limit int) ([]store.Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (store.Session, error)
	GetTransitions(ctx context.Context, id uuid.UUID) ([]store.FrameResult, error)
}

// Options configure a Server. Only Log is required.
type Options struct {
	Log        *logrus.Logger
	Registry   *form.Registry
	Store      SessionStore
	Publisher  publish.Publisher
	LiveMaxFPS float64
}

// Server is the live feedback HTTP/WebSocket API.
type Server struct {
	app       *fiber.App
	log       *logrus.Logger
	registry  *form.Registry
	store     SessionStore
	publisher publish.Publisher
	validate  *validator.Validate
	maxFPS    float64
	burst     int
}

// New builds the fiber app and registers all routes.
func New(opts Options) *Server {
	s := &Server{
		log:       opts.Log,
		registry:  opts.Registry,
		store:     opts.Store,
		publisher: opts.Publisher,
		validate:  validator.New(),
		maxFPS:    opts.LiveMaxFPS,
	}
	if s.registry == nil {
		s.registry = form.DefaultRegistry()
	}
	if s.publisher == nil {
		s.publisher = publish.Nop{}
	}
	if s.maxFPS <= 0 {
		s.maxFPS = 30
	}
	s.burst = int(math.Ceil(s.maxFPS))

	s.app = fiber.New(fiber.Config{
		AppName:               "formcheck",
		BodyLimit:             4 * 1024 * 1024,
		StrictRouting:         true,
		CaseSensitive:         true,
		DisableStartupMessage: true,
		JSONEncoder:           jsoniter.Marshal,
		JSONDecoder:           jsoniter.Unmarshal,
		ErrorHandler:          errorHandler(s.log),
	})

	s.app.Use(newRequestIDMiddleware())
	s.app.Use(newLoggingMiddleware(s.log))
	s.routes()

	return s
}

func (s *Server) routes() {
	s.app.Get("/", s.health)

	v1 := s.app.Group("/api/v1")
	v1.Get("/exercises", s.listExercises)
	v1.Post("/evaluate", s.evaluate)
	v1.Get("/sessions", s.listSessions)
	v1.Get("/sessions/:id", s.getSession)

	v1.Use("/live", s.upgradeLive)
	v1.Get("/live", s.liveHandler())
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until the app is shut down.
func (s *Server) Listen(addr string) error {
	s.log.WithField("addr", addr).Info("live feedback server listening")
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

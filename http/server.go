// Package http exposes notes, users, the AI assistant and the change feed as
// a JSON API served by fiber.
package http

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/vinizap/lumi-notes/assistant"
	"github.com/vinizap/lumi-notes/auth"
	"github.com/vinizap/lumi-notes/domain"
	"github.com/vinizap/lumi-notes/events"
	"github.com/vinizap/lumi-notes/logging"
)

// Store is the persistence the API needs. *store.Store implements it.
type Store interface {
	CreateNote(ctx context.Context, in domain.NoteInput) (*domain.Note, error)
	GetNote(ctx context.Context, id int64) (*domain.Note, error)
	UpdateNote(ctx context.Context, id int64, patch domain.NotePatch) (*domain.Note, error)
	DeleteNote(ctx context.Context, id int64) (bool, error)
	ListNotes(ctx context.Context) ([]domain.Note, error)
	SearchNotes(ctx context.Context, q string) ([]domain.Note, error)
	NotesByTag(ctx context.Context, tag string) ([]domain.Note, error)
	ListTags(ctx context.Context) ([]string, error)

	CreateUser(ctx context.Context, in domain.UserInput) (*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	UserByUsername(ctx context.Context, username string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUser(ctx context.Context, id int64, patch domain.UserPatch) (*domain.User, error)
	DeleteUser(ctx context.Context, id int64) (bool, error)

	Ping(ctx context.Context) error
}

type Options struct {
	Environment  string
	DatabaseType string
	Token        string
	CORSOrigins  string
}

type Server struct {
	app       *fiber.App
	store     Store
	assistant *assistant.Assistant
	hub       *events.Hub
	validate  *validator.Validate
	opts      Options
}

func NewServer(st Store, ai *assistant.Assistant, hub *events.Hub, opts Options) *Server {
	if opts.CORSOrigins == "" {
		opts.CORSOrigins = "*"
	}

	s := &Server{
		store:     st,
		assistant: ai,
		hub:       hub,
		validate:  validator.New(),
		opts:      opts,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "lumi-notes",
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})
	s.routes()
	return s
}

func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) routes() {
	// recover sits inside the logger so a panic is logged as a 500 with its
	// request id.
	s.app.Use(logging.Middleware())
	s.app.Use(recover.New())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: s.opts.CORSOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, " + auth.TokenHeader + ", " + logging.RequestIDHeader,
	}))

	api := s.app.Group("/api")
	api.Get("/health", s.handleHealth)

	api.Use(auth.Middleware(s.opts.Token))

	notes := api.Group("/notes")
	notes.Get("/", s.handleListNotes)
	notes.Post("/", s.handleCreateNote)
	notes.Get("/search", s.handleSearchNotes)
	notes.Get("/tags", s.handleListTags)
	notes.Get("/tags/:tag", s.handleNotesByTag)
	notes.Post("/import", s.handleImportNote)
	notes.Get("/:id", s.handleGetNote)
	notes.Put("/:id", s.handleUpdateNote)
	notes.Delete("/:id", s.handleDeleteNote)
	notes.Get("/:id/export", s.handleExportNote)

	users := api.Group("/users")
	users.Get("/", s.handleListUsers)
	users.Post("/", s.handleCreateUser)
	users.Post("/login", s.handleLogin)
	users.Get("/:id", s.handleGetUser)
	users.Put("/:id", s.handleUpdateUser)
	users.Delete("/:id", s.handleDeleteUser)

	ai := api.Group("/ai")
	ai.Post("/summarize", s.handleSummarize)
	ai.Post("/generate-tags", s.handleGenerateTags)
	ai.Post("/improve-content", s.handleImproveContent)
	ai.Post("/chat", s.handleChat)
	ai.Post("/search-assist", s.handleSearchAssist)
	ai.Post("/smart-create", s.handleSmartCreate)
	ai.Post("/translate", s.handleTranslate)

	api.Get("/events", s.handleEvents)
}

// errorHandler maps domain error kinds onto status codes. Anything it does
// not recognise is reported as a generic 500.
func errorHandler(c *fiber.Ctx, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		switch de.Kind {
		case domain.KindValidation:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": de.Message})
		case domain.KindNotFound:
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": de.Message})
		case domain.KindUnavailable:
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error":   "Database connection failed",
				"message": "Unable to connect to the database. Please try again later.",
			})
		}
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "Internal server error",
		"message": "Something went wrong on the server",
	})
}

package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const healthTimeout = 2 * time.Second

func (s *Server) handleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("health check: database unreachable")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":             "database_disconnected",
			"database_connected": false,
			"database_type":      s.opts.DatabaseType,
			"environment":        s.opts.Environment,
		})
	}

	return c.JSON(fiber.Map{
		"status":             "healthy",
		"database_connected": true,
		"database_type":      s.opts.DatabaseType,
		"environment":        s.opts.Environment,
	})
}

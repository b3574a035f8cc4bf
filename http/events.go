package http

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"

	"github.com/vinizap/lumi-notes/events"
)

const heartbeatInterval = 15 * time.Second

// handleEvents streams note changes as server-sent events until the client
// goes away or the hub stops.
func (s *Server) handleEvents(c *fiber.Ctx) error {
	sub := s.hub.Subscribe()
	if sub == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Event stream unavailable"})
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer sub.Close()
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()

		if err := writeComment(w, "connected"); err != nil {
			return
		}
		for {
			select {
			case ev, ok := <-sub.C:
				if !ok {
					return
				}
				if err := writeEvent(w, ev); err != nil {
					log.Debug().Err(err).Msg("event stream closed")
					return
				}
			case <-ticker.C:
				if err := writeComment(w, "ping"); err != nil {
					return
				}
			}
		}
	}))
	return nil
}

func writeEvent(w *bufio.Writer, ev events.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return err
	}
	return w.Flush()
}

func writeComment(w *bufio.Writer, text string) error {
	if _, err := fmt.Fprintf(w, ": %s\n\n", text); err != nil {
		return err
	}
	return w.Flush()
}

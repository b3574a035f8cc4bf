package http

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/vinizap/lumi-notes/assistant"
)

type contentRequest struct {
	Content string `json:"content" validate:"required"`
	Type    string `json:"type"`
}

type titleContentRequest struct {
	Title          string `json:"title" validate:"required_without=Content"`
	Content        string `json:"content" validate:"required_without=Title"`
	TargetLanguage string `json:"target_language"`
}

type chatRequest struct {
	Question string          `json:"question" validate:"required"`
	NoteID   json.RawMessage `json:"note_id"`
}

type queryRequest struct {
	Query string `json:"query" validate:"required"`
}

type textRequest struct {
	Text string `json:"text" validate:"required"`
}

// logOutcome records results that did not come straight from the model.
func logOutcome[T any](op string, r assistant.Result[T]) {
	if r.Outcome != assistant.Fallback {
		return
	}
	log.Warn().Err(r.Err).Str("operation", op).Msg("assistant fallback")
}

func (s *Server) handleSummarize(c *fiber.Ctx) error {
	var req contentRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	req.Content = strings.TrimSpace(req.Content)
	if err := s.check(req, "Content is required"); err != nil {
		return err
	}

	r := s.assistant.Summarize(c.UserContext(), req.Content)
	logOutcome("summarize", r)
	return c.JSON(fiber.Map{"summary": r.Value})
}

func (s *Server) handleGenerateTags(c *fiber.Ctx) error {
	var req titleContentRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	req.Title, req.Content = strings.TrimSpace(req.Title), strings.TrimSpace(req.Content)
	if err := s.check(req, "Title or content is required"); err != nil {
		return err
	}

	r := s.assistant.GenerateTags(c.UserContext(), req.Title, req.Content)
	logOutcome("generate-tags", r)
	return c.JSON(fiber.Map{"tags": r.Value})
}

func (s *Server) handleImproveContent(c *fiber.Ctx) error {
	var req contentRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	req.Content = strings.TrimSpace(req.Content)
	if err := s.check(req, "Content is required"); err != nil {
		return err
	}

	r := s.assistant.ImproveContent(c.UserContext(), req.Content, req.Type)
	logOutcome("improve-content", r)
	return c.JSON(fiber.Map{"improved_content": r.Value})
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	var req chatRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	req.Question = strings.TrimSpace(req.Question)
	if err := s.check(req, "Question is required"); err != nil {
		return err
	}

	r := s.assistant.Chat(c.UserContext(), req.Question, optionalID(req.NoteID))
	logOutcome("chat", r)
	return c.JSON(fiber.Map{"answer": r.Value})
}

func (s *Server) handleSearchAssist(c *fiber.Ctx) error {
	var req queryRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	req.Query = strings.TrimSpace(req.Query)
	if err := s.check(req, "Search query is required"); err != nil {
		return err
	}

	r, err := s.assistant.SearchAssist(c.UserContext(), req.Query)
	if err != nil {
		return err
	}
	logOutcome("search-assist", r)
	return c.JSON(fiber.Map{"suggestions": r.Value})
}

func (s *Server) handleSmartCreate(c *fiber.Ctx) error {
	var req textRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	req.Text = strings.TrimSpace(req.Text)
	if err := s.check(req, "Input text is required"); err != nil {
		return err
	}

	r := s.assistant.SmartCreate(c.UserContext(), req.Text)
	logOutcome("smart-create", r)
	return c.JSON(r.Value)
}

func (s *Server) handleTranslate(c *fiber.Ctx) error {
	var req titleContentRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	req.Title, req.Content = strings.TrimSpace(req.Title), strings.TrimSpace(req.Content)
	if err := s.check(req, "Title or content is required for translation"); err != nil {
		return err
	}

	r := s.assistant.Translate(c.UserContext(), req.Title, req.Content, req.TargetLanguage)
	logOutcome("translate", r)
	return c.JSON(r.Value)
}

package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/vinizap/lumi-notes/domain"
	"github.com/vinizap/lumi-notes/markdown"
)

type createNoteRequest struct {
	Title     *string  `json:"title"`
	Content   *string  `json:"content"`
	Tags      []string `json:"tags"`
	StartTime *string  `json:"start_time"`
	EndTime   *string  `json:"end_time"`
}

type updateNoteRequest struct {
	Title     domain.Nullable[string]   `json:"title"`
	Content   domain.Nullable[string]   `json:"content"`
	Tags      domain.Nullable[[]string] `json:"tags"`
	StartTime domain.Nullable[string]   `json:"start_time"`
	EndTime   domain.Nullable[string]   `json:"end_time"`
}

func (r updateNoteRequest) empty() bool {
	return !r.Title.Set && !r.Content.Set && !r.Tags.Set && !r.StartTime.Set && !r.EndTime.Set
}

func (s *Server) handleListNotes(c *fiber.Ctx) error {
	notes, err := s.store.ListNotes(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(notes)
}

func (s *Server) handleCreateNote(c *fiber.Ctx) error {
	var req createNoteRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	if req.Title == nil || req.Content == nil {
		return domain.Validation("Title and content are required")
	}

	start, err := parseTime("start_time", req.StartTime)
	if err != nil {
		return err
	}
	end, err := parseTime("end_time", req.EndTime)
	if err != nil {
		return err
	}

	note, err := s.store.CreateNote(c.UserContext(), domain.NoteInput{
		Title:     req.Title,
		Content:   req.Content,
		Tags:      req.Tags,
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		return err
	}

	s.hub.NoteCreated(note)
	return c.Status(fiber.StatusCreated).JSON(note)
}

func (s *Server) handleGetNote(c *fiber.Ctx) error {
	id, err := pathID(c, "Note not found")
	if err != nil {
		return err
	}
	note, err := s.store.GetNote(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(note)
}

func (s *Server) handleUpdateNote(c *fiber.Ctx) error {
	id, err := pathID(c, "Note not found")
	if err != nil {
		return err
	}

	var req updateNoteRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	if req.empty() {
		if _, err := s.store.GetNote(c.UserContext(), id); err != nil {
			return err
		}
		return domain.Validation("No data provided")
	}

	patch := domain.NotePatch{Title: req.Title, Content: req.Content, Tags: req.Tags}
	if patch.StartTime, err = nullableTime("start_time", req.StartTime); err != nil {
		return err
	}
	if patch.EndTime, err = nullableTime("end_time", req.EndTime); err != nil {
		return err
	}

	note, err := s.store.UpdateNote(c.UserContext(), id, patch)
	if err != nil {
		return err
	}

	s.hub.NoteUpdated(note)
	return c.JSON(note)
}

func (s *Server) handleDeleteNote(c *fiber.Ctx) error {
	id, err := pathID(c, "Note not found")
	if err != nil {
		return err
	}
	deleted, err := s.store.DeleteNote(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.NotFound("Note not found")
	}

	s.hub.NoteDeleted(id)
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleSearchNotes(c *fiber.Ctx) error {
	notes, err := s.store.SearchNotes(c.UserContext(), c.Query("q"))
	if err != nil {
		return err
	}
	return c.JSON(notes)
}

func (s *Server) handleListTags(c *fiber.Ctx) error {
	tags, err := s.store.ListTags(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(tags)
}

func (s *Server) handleNotesByTag(c *fiber.Ctx) error {
	notes, err := s.store.NotesByTag(c.UserContext(), pathParam(c, "tag"))
	if err != nil {
		return err
	}
	return c.JSON(notes)
}

func (s *Server) handleExportNote(c *fiber.Ctx) error {
	id, err := pathID(c, "Note not found")
	if err != nil {
		return err
	}
	note, err := s.store.GetNote(c.UserContext(), id)
	if err != nil {
		return err
	}

	data, err := markdown.Encode(note)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/markdown; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="note-%d.md"`, note.ID))
	return c.Send(data)
}

func (s *Server) handleImportNote(c *fiber.Ctx) error {
	if len(c.Body()) == 0 {
		return domain.Validation("Markdown body is required")
	}
	in, err := markdown.Decode(c.Body())
	if err != nil {
		return err
	}

	note, err := s.store.CreateNote(c.UserContext(), in)
	if err != nil {
		return err
	}

	s.hub.NoteCreated(note)
	return c.Status(fiber.StatusCreated).JSON(note)
}

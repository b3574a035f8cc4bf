package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/vinizap/lumi-notes/auth"
	"github.com/vinizap/lumi-notes/domain"
)

type createUserRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password"`
}

type updateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleListUsers(c *fiber.Ctx) error {
	users, err := s.store.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(users)
}

func (s *Server) handleCreateUser(c *fiber.Ctx) error {
	var req createUserRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.check(req, "Username and email are required"); err != nil {
		return err
	}

	in := domain.UserInput{Username: req.Username, Email: req.Email}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			return err
		}
		in.PasswordHash = hash
	}

	user, err := s.store.CreateUser(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (s *Server) handleGetUser(c *fiber.Ctx) error {
	id, err := pathID(c, "User not found")
	if err != nil {
		return err
	}
	user, err := s.store.GetUser(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (s *Server) handleUpdateUser(c *fiber.Ctx) error {
	id, err := pathID(c, "User not found")
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	if req.Username == nil && req.Email == nil && req.Password == nil {
		if _, err := s.store.GetUser(c.UserContext(), id); err != nil {
			return err
		}
		return domain.Validation("No data provided")
	}

	patch := domain.UserPatch{Username: req.Username, Email: req.Email}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return err
		}
		patch.PasswordHash = &hash
	}

	user, err := s.store.UpdateUser(c.UserContext(), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (s *Server) handleDeleteUser(c *fiber.Ctx) error {
	id, err := pathID(c, "User not found")
	if err != nil {
		return err
	}
	deleted, err := s.store.DeleteUser(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.NotFound("User not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleLogin checks a username and password pair. Unknown users and wrong
// passwords get the same answer.
func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	req.Username = strings.TrimSpace(req.Username)
	if err := s.check(req, "Username and password are required"); err != nil {
		return err
	}

	user, err := s.store.UserByUsername(c.UserContext(), req.Username)
	if err != nil && !domain.IsNotFound(err) {
		return err
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid username or password"})
	}
	return c.JSON(user)
}

package server

import (
	"context"
	"encoding/json"
	"time"

	"headspace/internal/cache"
	"headspace/internal/models"
	"headspace/internal/repository"

	"github.com/gofiber/fiber/v2"
)

const noUserMsg = "No user with that ID"

// GetUsers handles GET /api/users
func (s *Server) GetUsers(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	users, err := s.userRepo.List(ctx)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(users)
}

// GetSingleUser handles GET /api/users/:userId with populated thought and
// friend data. Responses are served cache-aside from Redis when available.
func (s *Server) GetSingleUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	key := cache.UserKey(id)
	if data, ok := cache.GetBytes(c.Context(), key); ok {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(data)
	}

	user, err := s.userRepo.GetByID(c.Context(), id)
	if err != nil {
		return respondStoreError(c, err, noUserMsg)
	}

	body, err := json.Marshal(user)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	cache.SetBytes(c.Context(), key, body, cache.UserTTL)

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

// CreateUser handles POST /api/users
func (s *Server) CreateUser(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user := models.User{Username: req.Username, Email: req.Email}
	if err := s.userRepo.Create(c.Context(), &user); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(user)
}

// UpdateUser handles PUT /api/users/:userId. Omitted fields are preserved.
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	var req struct {
		Username *string `json:"username"`
		Email    *string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userRepo.Update(c.Context(), id, repository.UserPatch{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		return respondStoreError(c, err, noUserMsg)
	}
	return c.JSON(user)
}

// DeleteUser handles DELETE /api/users/:userId and cascades to the user's thoughts.
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.userRepo.Delete(c.Context(), id); err != nil {
		return respondStoreError(c, err, noUserMsg)
	}
	return c.JSON(fiber.Map{"message": "User and associated thoughts deleted!"})
}

// AddFriend handles POST /api/users/:userId/friends/:friendId
func (s *Server) AddFriend(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	friendID, err := s.parseID(c, "friendId")
	if err != nil {
		return nil
	}

	user, err := s.userRepo.AddFriend(c.Context(), userID, friendID)
	if err != nil {
		return respondStoreError(c, err, noUserMsg)
	}
	return c.JSON(user)
}

// RemoveFriend handles DELETE /api/users/:userId/friends/:friendId
func (s *Server) RemoveFriend(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	friendID, err := s.parseID(c, "friendId")
	if err != nil {
		return nil
	}

	user, err := s.userRepo.RemoveFriend(c.Context(), userID, friendID)
	if err != nil {
		return respondStoreError(c, err, noUserMsg)
	}
	return c.JSON(user)
}

package server

import (
	"context"
	"encoding/json"
	"time"

	"headspace/internal/cache"
	"headspace/internal/models"
	"headspace/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const noThoughtMsg = "No thought with that ID"

// GetThoughts handles GET /api/thoughts
func (s *Server) GetThoughts(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	thoughts, err := s.thoughtRepo.List(ctx)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(thoughts)
}

// GetSingleThought handles GET /api/thoughts/:thoughtId, served cache-aside
// from Redis when available.
func (s *Server) GetSingleThought(c *fiber.Ctx) error {
	id, err := s.parseID(c, "thoughtId")
	if err != nil {
		return nil
	}

	key := cache.ThoughtKey(id)
	if data, ok := cache.GetBytes(c.Context(), key); ok {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(data)
	}

	thought, err := s.thoughtRepo.GetByID(c.Context(), id)
	if err != nil {
		return respondStoreError(c, err, noThoughtMsg)
	}

	body, err := json.Marshal(thought)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	cache.SetBytes(c.Context(), key, body, cache.ThoughtTTL)

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

// CreateThought handles POST /api/thoughts and links the new thought to its
// author's thought list.
func (s *Server) CreateThought(c *fiber.Ctx) error {
	var req struct {
		ThoughtText string `json:"thoughtText"`
		Username    string `json:"username"`
		UserID      uint   `json:"userId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	thought := models.Thought{
		ThoughtText: req.ThoughtText,
		Username:    req.Username,
	}
	if err := s.thoughtRepo.Create(c.Context(), &thought, req.UserID); err != nil {
		return respondStoreError(c, err, noUserMsg)
	}
	return c.JSON(thought)
}

// UpdateThought handles PUT /api/thoughts/:thoughtId. Omitted fields are preserved.
func (s *Server) UpdateThought(c *fiber.Ctx) error {
	id, err := s.parseID(c, "thoughtId")
	if err != nil {
		return nil
	}

	var req struct {
		ThoughtText *string `json:"thoughtText"`
		Username    *string `json:"username"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	thought, err := s.thoughtRepo.Update(c.Context(), id, repository.ThoughtPatch{
		ThoughtText: req.ThoughtText,
		Username:    req.Username,
	})
	if err != nil {
		return respondStoreError(c, err, noThoughtMsg)
	}
	return c.JSON(thought)
}

// DeleteThought handles DELETE /api/thoughts/:thoughtId and unlinks the
// thought from its author's list.
func (s *Server) DeleteThought(c *fiber.Ctx) error {
	id, err := s.parseID(c, "thoughtId")
	if err != nil {
		return nil
	}

	if err := s.thoughtRepo.Delete(c.Context(), id); err != nil {
		return respondStoreError(c, err, noThoughtMsg)
	}
	return c.JSON(fiber.Map{"message": "Thought deleted!"})
}

// AddReaction handles POST /api/thoughts/:thoughtId/reactions
func (s *Server) AddReaction(c *fiber.Ctx) error {
	id, err := s.parseID(c, "thoughtId")
	if err != nil {
		return nil
	}

	var req struct {
		ReactionBody string `json:"reactionBody"`
		Username     string `json:"username"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	reaction := models.Reaction{
		ReactionBody: req.ReactionBody,
		Username:     req.Username,
	}
	thought, err := s.thoughtRepo.AddReaction(c.Context(), id, &reaction)
	if err != nil {
		return respondStoreError(c, err, noThoughtMsg)
	}
	return c.JSON(thought)
}

// RemoveReaction handles DELETE /api/thoughts/:thoughtId/reactions/:reactionId.
// Removing a reaction id that is not present returns the thought unchanged.
func (s *Server) RemoveReaction(c *fiber.Ctx) error {
	id, err := s.parseID(c, "thoughtId")
	if err != nil {
		return nil
	}

	reactionID, err := uuid.Parse(c.Params("reactionId"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid reaction ID"))
	}

	thought, err := s.thoughtRepo.RemoveReaction(c.Context(), id, reactionID)
	if err != nil {
		return respondStoreError(c, err, noThoughtMsg)
	}
	return c.JSON(thought)
}

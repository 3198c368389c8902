package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"netwarden/internal/domain"
	"netwarden/internal/store"
)

// ChannelHandler handles HTTP requests for delivery channel operations.
type ChannelHandler struct {
	repo   store.ChannelRepository
	logger *slog.Logger
}

// NewChannelHandler creates a new channel handler.
func NewChannelHandler(repo store.ChannelRepository, logger *slog.Logger) *ChannelHandler {
	return &ChannelHandler{
		repo:   repo,
		logger: logger,
	}
}

// Create handles POST /v1/channels
// Creates a new delivery channel.
func (h *ChannelHandler) Create(c *fiber.Ctx) error {
	var req domain.CreateChannelRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Debug("failed to parse request body", "error", err)
		return BadRequest(c, "invalid request body")
	}

	// Generate ID and create the channel
	id := uuid.New().String()
	channel := req.ToChannel(id)

	// Validate the resulting channel
	if err := channel.Validate(); err != nil {
		h.logger.Debug("validation failed", "error", err)
		return ValidationError(c, err.Error())
	}

	// Persist to repository
	if err := h.repo.Create(c.Context(), channel); err != nil {
		h.logger.Error("failed to create channel", "error", err)
		return InternalError(c, "failed to create channel")
	}

	h.logger.Info("created channel", "id", channel.ID, "name", channel.Name, "type", channel.Type)
	return Created(c, channel)
}

// List handles GET /v1/channels
// Returns all delivery channels.
func (h *ChannelHandler) List(c *fiber.Ctx) error {
	channels, err := h.repo.List(c.Context())
	if err != nil {
		h.logger.Error("failed to list channels", "error", err)
		return InternalError(c, "failed to list channels")
	}

	return Success(c, channels)
}

// GetByID handles GET /v1/channels/:id
// Returns a single channel by ID.
func (h *ChannelHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	channel, err := h.repo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrChannelNotFound) {
			return NotFound(c, "channel not found")
		}
		h.logger.Error("failed to get channel", "id", id, "error", err)
		return InternalError(c, "failed to get channel")
	}

	return Success(c, channel)
}

// Update handles PUT /v1/channels/:id
// Updates an existing channel.
func (h *ChannelHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	var req domain.UpdateChannelRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Debug("failed to parse request body", "error", err)
		return BadRequest(c, "invalid request body")
	}

	// Fetch existing channel
	channel, err := h.repo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrChannelNotFound) {
			return NotFound(c, "channel not found")
		}
		h.logger.Error("failed to get channel", "id", id, "error", err)
		return InternalError(c, "failed to get channel")
	}

	// Apply updates and re-validate
	req.ApplyTo(channel)
	if err := channel.Validate(); err != nil {
		h.logger.Debug("validation failed", "error", err)
		return ValidationError(c, err.Error())
	}

	// Persist changes
	if err := h.repo.Update(c.Context(), channel); err != nil {
		h.logger.Error("failed to update channel", "id", id, "error", err)
		return InternalError(c, "failed to update channel")
	}

	h.logger.Info("updated channel", "id", channel.ID)
	return Success(c, channel)
}

// Delete handles DELETE /v1/channels/:id
// Deletes a channel.
func (h *ChannelHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	if err := h.repo.Delete(c.Context(), id); err != nil {
		if errors.Is(err, domain.ErrChannelNotFound) {
			return NotFound(c, "channel not found")
		}
		h.logger.Error("failed to delete channel", "id", id, "error", err)
		return InternalError(c, "failed to delete channel")
	}

	h.logger.Info("deleted channel", "id", id)
	return NoContent(c)
}

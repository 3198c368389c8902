package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"netwarden/internal/domain"
	"netwarden/internal/store"
)

// IncidentHandler handles HTTP requests for incident operations.
type IncidentHandler struct {
	repo   store.IncidentRepository
	logger *slog.Logger
}

// NewIncidentHandler creates a new incident handler.
func NewIncidentHandler(repo store.IncidentRepository, logger *slog.Logger) *IncidentHandler {
	return &IncidentHandler{
		repo:   repo,
		logger: logger,
	}
}

// List handles GET /v1/incidents
// Returns incidents, most recent first.
func (h *IncidentHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	offset := c.QueryInt("offset", 0)

	incidents, err := h.repo.List(c.Context(), limit, offset)
	if err != nil {
		h.logger.Error("failed to list incidents", "error", err)
		return InternalError(c, "failed to list incidents")
	}

	return Success(c, incidents)
}

// GetByID handles GET /v1/incidents/:id
// Returns a single incident by ID.
func (h *IncidentHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	incident, err := h.repo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrIncidentNotFound) {
			return NotFound(c, "incident not found")
		}
		h.logger.Error("failed to get incident", "id", id, "error", err)
		return InternalError(c, "failed to get incident")
	}

	return Success(c, incident)
}

// Resolve handles POST /v1/incidents/:id/resolve
// Closes an incident so it stops absorbing new alerts.
func (h *IncidentHandler) Resolve(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	incident, err := h.repo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrIncidentNotFound) {
			return NotFound(c, "incident not found")
		}
		h.logger.Error("failed to get incident", "id", id, "error", err)
		return InternalError(c, "failed to get incident")
	}

	if !incident.IsActive() {
		return Conflict(c, "incident is already resolved")
	}

	incident.Resolve()
	if err := h.repo.Update(c.Context(), incident); err != nil {
		h.logger.Error("failed to update incident", "id", id, "error", err)
		return InternalError(c, "failed to update incident")
	}

	h.logger.Info("resolved incident", "id", id)
	return Success(c, incident)
}

package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"netwarden/internal/domain"
	"netwarden/internal/store"
)

// RuleHandler handles HTTP requests for alert rule operations.
type RuleHandler struct {
	repo   store.RuleRepository
	logger *slog.Logger
}

// NewRuleHandler creates a new rule handler.
func NewRuleHandler(repo store.RuleRepository, logger *slog.Logger) *RuleHandler {
	return &RuleHandler{
		repo:   repo,
		logger: logger,
	}
}

// Create handles POST /v1/rules
// Creates a new alert rule.
func (h *RuleHandler) Create(c *fiber.Ctx) error {
	var req domain.CreateRuleRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Debug("failed to parse request body", "error", err)
		return BadRequest(c, "invalid request body")
	}

	// Generate ID and create the rule
	id := uuid.New().String()
	rule := req.ToRule(id)

	// Validate the resulting rule
	if err := rule.Validate(); err != nil {
		h.logger.Debug("validation failed", "error", err)
		return ValidationError(c, err.Error())
	}

	// Persist to repository
	if err := h.repo.Create(c.Context(), rule); err != nil {
		h.logger.Error("failed to create rule", "error", err)
		return InternalError(c, "failed to create rule")
	}

	h.logger.Info("created rule", "id", rule.ID, "name", rule.Name)
	return Created(c, rule)
}

// List handles GET /v1/rules
// Returns all alert rules.
func (h *RuleHandler) List(c *fiber.Ctx) error {
	rules, err := h.repo.List(c.Context())
	if err != nil {
		h.logger.Error("failed to list rules", "error", err)
		return InternalError(c, "failed to list rules")
	}

	return Success(c, rules)
}

// GetByID handles GET /v1/rules/:id
// Returns a single rule by ID.
func (h *RuleHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	rule, err := h.repo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrRuleNotFound) {
			return NotFound(c, "rule not found")
		}
		h.logger.Error("failed to get rule", "id", id, "error", err)
		return InternalError(c, "failed to get rule")
	}

	return Success(c, rule)
}

// Update handles PUT /v1/rules/:id
// Updates an existing rule.
func (h *RuleHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	var req domain.UpdateRuleRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Debug("failed to parse request body", "error", err)
		return BadRequest(c, "invalid request body")
	}

	// Fetch existing rule
	rule, err := h.repo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrRuleNotFound) {
			return NotFound(c, "rule not found")
		}
		h.logger.Error("failed to get rule", "id", id, "error", err)
		return InternalError(c, "failed to get rule")
	}

	// Apply updates and re-validate
	req.ApplyTo(rule)
	if err := rule.Validate(); err != nil {
		h.logger.Debug("validation failed", "error", err)
		return ValidationError(c, err.Error())
	}

	// Persist changes
	if err := h.repo.Update(c.Context(), rule); err != nil {
		h.logger.Error("failed to update rule", "id", id, "error", err)
		return InternalError(c, "failed to update rule")
	}

	h.logger.Info("updated rule", "id", rule.ID)
	return Success(c, rule)
}

// Delete handles DELETE /v1/rules/:id
// Deletes a rule.
func (h *RuleHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	if err := h.repo.Delete(c.Context(), id); err != nil {
		if errors.Is(err, domain.ErrRuleNotFound) {
			return NotFound(c, "rule not found")
		}
		h.logger.Error("failed to delete rule", "id", id, "error", err)
		return InternalError(c, "failed to delete rule")
	}

	h.logger.Info("deleted rule", "id", id)
	return NoContent(c)
}

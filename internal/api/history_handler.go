package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"netwarden/internal/domain"
	"netwarden/internal/store"
)

// HistoryHandler handles HTTP requests for alert history operations.
type HistoryHandler struct {
	repo   store.HistoryRepository
	logger *slog.Logger
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(repo store.HistoryRepository, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{
		repo:   repo,
		logger: logger,
	}
}

// List handles GET /v1/history
// Returns history entries matching the query filters.
func (h *HistoryHandler) List(c *fiber.Ctx) error {
	filter := domain.HistoryFilter{
		RuleID:     c.Query("ruleId"),
		Status:     domain.HistoryStatus(c.Query("status")),
		Severity:   domain.Severity(c.Query("severity")),
		Source:     c.Query("source"),
		IncidentID: c.Query("incidentId"),
		Limit:      c.QueryInt("limit", 100),
		Offset:     c.QueryInt("offset", 0),
	}

	entries, err := h.repo.List(c.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list history", "error", err)
		return InternalError(c, "failed to list history")
	}

	return Success(c, entries)
}

// GetByID handles GET /v1/history/:id
// Returns a single history entry by ID.
func (h *HistoryHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	entry, err := h.repo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrHistoryEntryNotFound) {
			return NotFound(c, "history entry not found")
		}
		h.logger.Error("failed to get history entry", "id", id, "error", err)
		return InternalError(c, "failed to get history entry")
	}

	return Success(c, entry)
}

// Acknowledge handles POST /v1/history/:id/acknowledge
// Marks an alert as acknowledged by an operator.
func (h *HistoryHandler) Acknowledge(c *fiber.Ctx) error {
	return h.transition(c, func(entry *domain.HistoryEntry) error {
		if entry.Status != domain.HistoryStatusActive {
			return errors.New("only active alerts can be acknowledged")
		}
		entry.Acknowledge()
		return nil
	})
}

// Resolve handles POST /v1/history/:id/resolve
// Marks an alert as resolved.
func (h *HistoryHandler) Resolve(c *fiber.Ctx) error {
	return h.transition(c, func(entry *domain.HistoryEntry) error {
		if entry.Status == domain.HistoryStatusResolved {
			return errors.New("alert is already resolved")
		}
		entry.Resolve()
		return nil
	})
}

// transition loads an entry, applies a lifecycle change, and persists it.
func (h *HistoryHandler) transition(c *fiber.Ctx, apply func(*domain.HistoryEntry) error) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	entry, err := h.repo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrHistoryEntryNotFound) {
			return NotFound(c, "history entry not found")
		}
		h.logger.Error("failed to get history entry", "id", id, "error", err)
		return InternalError(c, "failed to get history entry")
	}

	if err := apply(entry); err != nil {
		return Conflict(c, err.Error())
	}

	if err := h.repo.UpdateStatus(c.Context(), entry); err != nil {
		h.logger.Error("failed to update history entry", "id", id, "error", err)
		return InternalError(c, "failed to update history entry")
	}

	h.logger.Info("history entry updated", "id", id, "status", entry.Status)
	return Success(c, entry)
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"netwarden/internal/domain"
)

// HistoryRepository implements store.HistoryRepository using PostgreSQL.
type HistoryRepository struct {
	db *DB
}

// NewHistoryRepository creates a new PostgreSQL-backed history repository.
func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

const historyColumns = `id, rule_id, event_type, severity, source, title, message,
	device_id, device_name, device_ip, context, triggered_at, incident_id,
	delivered_to, delivery_succeeded, delivery_error, status,
	acknowledged_at, resolved_at`

// Create stores a new history entry.
func (r *HistoryRepository) Create(ctx context.Context, entry *domain.HistoryEntry) error {
	query := `
		INSERT INTO history (
			id, rule_id, event_type, severity, source, title, message,
			device_id, device_name, device_ip, context, triggered_at, incident_id,
			delivered_to, delivery_succeeded, delivery_error, status,
			acknowledged_at, resolved_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	_, err := r.db.pool.Exec(ctx, query,
		entry.ID,
		entry.RuleID,
		entry.EventType,
		entry.Severity,
		entry.Source,
		entry.Title,
		entry.Message,
		nullableString(entry.DeviceID),
		nullableString(entry.DeviceName),
		nullableString(entry.DeviceIP),
		entry.Context,
		entry.TriggeredAt,
		nullableString(entry.IncidentID),
		nullableString(entry.DeliveredTo),
		entry.DeliverySucceeded,
		nullableString(entry.DeliveryError),
		entry.Status,
		entry.AcknowledgedAt,
		entry.ResolvedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create history entry: %w", err)
	}

	return nil
}

// LinkIncident sets the incident reference on an entry.
func (r *HistoryRepository) LinkIncident(ctx context.Context, entryID, incidentID string) error {
	result, err := r.db.pool.Exec(ctx,
		`UPDATE history SET incident_id = $2 WHERE id = $1`, entryID, incidentID)
	if err != nil {
		return fmt.Errorf("failed to link incident: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrHistoryEntryNotFound
	}
	return nil
}

// UpdateDeliveryOutcome records the delivery result on an entry.
func (r *HistoryRepository) UpdateDeliveryOutcome(ctx context.Context, entryID string, outcome domain.DeliveryOutcome) error {
	query := `
		UPDATE history SET
			delivered_to = $2,
			delivery_succeeded = $3,
			delivery_error = $4
		WHERE id = $1
	`

	result, err := r.db.pool.Exec(ctx, query,
		entryID,
		nullableString(outcome.DeliveredTo),
		outcome.Succeeded,
		nullableString(outcome.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to update delivery outcome: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrHistoryEntryNotFound
	}
	return nil
}

// UpdateStatus persists a lifecycle change.
func (r *HistoryRepository) UpdateStatus(ctx context.Context, entry *domain.HistoryEntry) error {
	query := `
		UPDATE history SET
			status = $2,
			acknowledged_at = $3,
			resolved_at = $4
		WHERE id = $1
	`

	result, err := r.db.pool.Exec(ctx, query,
		entry.ID,
		entry.Status,
		entry.AcknowledgedAt,
		entry.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update history status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrHistoryEntryNotFound
	}
	return nil
}

// GetByID retrieves a history entry by its ID.
func (r *HistoryRepository) GetByID(ctx context.Context, id string) (*domain.HistoryEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM history WHERE id = $1`, historyColumns)

	entry, err := scanHistoryEntry(r.db.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrHistoryEntryNotFound
		}
		return nil, fmt.Errorf("failed to get history entry: %w", err)
	}
	return entry, nil
}

// List retrieves entries matching the filter criteria, most recent first.
func (r *HistoryRepository) List(ctx context.Context, filter domain.HistoryFilter) ([]*domain.HistoryEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM history WHERE 1=1`, historyColumns)
	args := []interface{}{}
	argNum := 1

	if filter.RuleID != "" {
		query += fmt.Sprintf(" AND rule_id = $%d", argNum)
		args = append(args, filter.RuleID)
		argNum++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filter.Status)
		argNum++
	}
	if filter.Severity != "" {
		query += fmt.Sprintf(" AND severity = $%d", argNum)
		args = append(args, filter.Severity)
		argNum++
	}
	if filter.Source != "" {
		query += fmt.Sprintf(" AND source = $%d", argNum)
		args = append(args, filter.Source)
		argNum++
	}
	if filter.IncidentID != "" {
		query += fmt.Sprintf(" AND incident_id = $%d", argNum)
		args = append(args, filter.IncidentID)
		argNum++
	}

	query += " ORDER BY triggered_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filter.Limit)
		argNum++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	return scanHistoryEntries(rows)
}

// ListSince retrieves all entries triggered at or after the given instant,
// oldest first.
func (r *HistoryRepository) ListSince(ctx context.Context, since time.Time) ([]*domain.HistoryEntry, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM history WHERE triggered_at >= $1 ORDER BY triggered_at`, historyColumns)

	rows, err := r.db.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list history since %s: %w", since, err)
	}
	defer rows.Close()

	return scanHistoryEntries(rows)
}

// scanHistoryEntry scans a single row into a HistoryEntry.
func scanHistoryEntry(row pgx.Row) (*domain.HistoryEntry, error) {
	var entry domain.HistoryEntry
	var deviceID, deviceName, deviceIP, incidentID, deliveredTo, deliveryError *string

	err := row.Scan(
		&entry.ID,
		&entry.RuleID,
		&entry.EventType,
		&entry.Severity,
		&entry.Source,
		&entry.Title,
		&entry.Message,
		&deviceID,
		&deviceName,
		&deviceIP,
		&entry.Context,
		&entry.TriggeredAt,
		&incidentID,
		&deliveredTo,
		&entry.DeliverySucceeded,
		&deliveryError,
		&entry.Status,
		&entry.AcknowledgedAt,
		&entry.ResolvedAt,
	)

	if err != nil {
		return nil, err
	}

	setIfPresent(&entry.DeviceID, deviceID)
	setIfPresent(&entry.DeviceName, deviceName)
	setIfPresent(&entry.DeviceIP, deviceIP)
	setIfPresent(&entry.IncidentID, incidentID)
	setIfPresent(&entry.DeliveredTo, deliveredTo)
	setIfPresent(&entry.DeliveryError, deliveryError)

	return &entry, nil
}

// scanHistoryEntries scans multiple rows into a slice of HistoryEntries.
func scanHistoryEntries(rows pgx.Rows) ([]*domain.HistoryEntry, error) {
	var entries []*domain.HistoryEntry

	for rows.Next() {
		entry, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}

	return entries, nil
}

func setIfPresent(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

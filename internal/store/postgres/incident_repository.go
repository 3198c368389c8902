package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"netwarden/internal/domain"
)

// IncidentRepository implements store.IncidentRepository using PostgreSQL.
type IncidentRepository struct {
	db *DB
}

// NewIncidentRepository creates a new PostgreSQL-backed incident repository.
func NewIncidentRepository(db *DB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

const incidentColumns = `id, correlation_key, severity, alert_count,
	first_triggered_at, last_triggered_at, status`

// Create stores a new incident.
func (r *IncidentRepository) Create(ctx context.Context, incident *domain.Incident) error {
	query := `
		INSERT INTO incidents (
			id, correlation_key, severity, alert_count,
			first_triggered_at, last_triggered_at, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.pool.Exec(ctx, query,
		incident.ID,
		incident.CorrelationKey,
		incident.Severity,
		incident.AlertCount,
		incident.FirstTriggeredAt,
		incident.LastTriggeredAt,
		incident.Status,
	)

	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}

	return nil
}

// Update modifies an existing incident.
func (r *IncidentRepository) Update(ctx context.Context, incident *domain.Incident) error {
	query := `
		UPDATE incidents SET
			severity = $2,
			alert_count = $3,
			last_triggered_at = $4,
			status = $5
		WHERE id = $1
	`

	result, err := r.db.pool.Exec(ctx, query,
		incident.ID,
		incident.Severity,
		incident.AlertCount,
		incident.LastTriggeredAt,
		incident.Status,
	)

	if err != nil {
		return fmt.Errorf("failed to update incident: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrIncidentNotFound
	}

	return nil
}

// GetByID retrieves an incident by its ID.
func (r *IncidentRepository) GetByID(ctx context.Context, id string) (*domain.Incident, error) {
	query := fmt.Sprintf(`SELECT %s FROM incidents WHERE id = $1`, incidentColumns)

	incident, err := scanIncident(r.db.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIncidentNotFound
		}
		return nil, fmt.Errorf("failed to get incident: %w", err)
	}
	return incident, nil
}

// GetActiveByKey retrieves the most recent active incident with the given
// correlation key. Returns nil, nil if none exists.
func (r *IncidentRepository) GetActiveByKey(ctx context.Context, key string) (*domain.Incident, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM incidents
		WHERE correlation_key = $1 AND status = 'active'
		ORDER BY last_triggered_at DESC
		LIMIT 1
	`, incidentColumns)

	incident, err := scanIncident(r.db.pool.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active incident: %w", err)
	}
	return incident, nil
}

// List retrieves incidents, most recent first.
func (r *IncidentRepository) List(ctx context.Context, limit, offset int) ([]*domain.Incident, error) {
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`
		SELECT %s FROM incidents
		ORDER BY last_triggered_at DESC
		LIMIT $1 OFFSET $2
	`, incidentColumns)

	rows, err := r.db.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	var incidents []*domain.Incident
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident: %w", err)
		}
		incidents = append(incidents, incident)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating incidents: %w", err)
	}

	return incidents, nil
}

// scanIncident scans a single row into an Incident.
func scanIncident(row pgx.Row) (*domain.Incident, error) {
	var incident domain.Incident

	err := row.Scan(
		&incident.ID,
		&incident.CorrelationKey,
		&incident.Severity,
		&incident.AlertCount,
		&incident.FirstTriggeredAt,
		&incident.LastTriggeredAt,
		&incident.Status,
	)

	if err != nil {
		return nil, err
	}

	return &incident, nil
}

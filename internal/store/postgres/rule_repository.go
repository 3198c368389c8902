package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"netwarden/internal/domain"
)

// RuleRepository implements store.RuleRepository using PostgreSQL.
type RuleRepository struct {
	db *DB
}

// NewRuleRepository creates a new PostgreSQL-backed rule repository.
func NewRuleRepository(db *DB) *RuleRepository {
	return &RuleRepository{db: db}
}

const ruleColumns = `id, name, enabled, event_type_pattern, source, min_severity,
	cooldown_seconds, threshold_percent, target_devices, digest_only,
	created_at, updated_at`

// Create stores a new rule.
func (r *RuleRepository) Create(ctx context.Context, rule *domain.Rule) error {
	query := `
		INSERT INTO rules (
			id, name, enabled, event_type_pattern, source, min_severity,
			cooldown_seconds, threshold_percent, target_devices, digest_only,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.pool.Exec(ctx, query,
		rule.ID,
		rule.Name,
		rule.Enabled,
		rule.EventTypePattern,
		nullableString(rule.Source),
		rule.MinSeverity,
		rule.CooldownSeconds,
		rule.ThresholdPercent,
		nullableString(rule.TargetDevices),
		rule.DigestOnly,
		rule.CreatedAt,
		rule.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	return nil
}

// Update modifies an existing rule.
func (r *RuleRepository) Update(ctx context.Context, rule *domain.Rule) error {
	query := `
		UPDATE rules SET
			name = $2,
			enabled = $3,
			event_type_pattern = $4,
			source = $5,
			min_severity = $6,
			cooldown_seconds = $7,
			threshold_percent = $8,
			target_devices = $9,
			digest_only = $10,
			updated_at = $11
		WHERE id = $1
	`

	result, err := r.db.pool.Exec(ctx, query,
		rule.ID,
		rule.Name,
		rule.Enabled,
		rule.EventTypePattern,
		nullableString(rule.Source),
		rule.MinSeverity,
		rule.CooldownSeconds,
		rule.ThresholdPercent,
		nullableString(rule.TargetDevices),
		rule.DigestOnly,
		rule.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrRuleNotFound
	}

	return nil
}

// Delete removes a rule by ID.
func (r *RuleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.pool.Exec(ctx, `DELETE FROM rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrRuleNotFound
	}
	return nil
}

// GetByID retrieves a rule by its ID.
func (r *RuleRepository) GetByID(ctx context.Context, id string) (*domain.Rule, error) {
	query := fmt.Sprintf(`SELECT %s FROM rules WHERE id = $1`, ruleColumns)

	rule, err := scanRule(r.db.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRuleNotFound
		}
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	return rule, nil
}

// List retrieves all rules.
func (r *RuleRepository) List(ctx context.Context) ([]*domain.Rule, error) {
	return r.list(ctx, fmt.Sprintf(`SELECT %s FROM rules ORDER BY created_at`, ruleColumns))
}

// ListEnabled retrieves all enabled rules.
func (r *RuleRepository) ListEnabled(ctx context.Context) ([]*domain.Rule, error) {
	return r.list(ctx, fmt.Sprintf(`SELECT %s FROM rules WHERE enabled ORDER BY created_at`, ruleColumns))
}

func (r *RuleRepository) list(ctx context.Context, query string) ([]*domain.Rule, error) {
	rows, err := r.db.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var rules []*domain.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}

	return rules, nil
}

// scanRule scans a single row into a Rule.
func scanRule(row pgx.Row) (*domain.Rule, error) {
	var rule domain.Rule
	var source, targetDevices *string

	err := row.Scan(
		&rule.ID,
		&rule.Name,
		&rule.Enabled,
		&rule.EventTypePattern,
		&source,
		&rule.MinSeverity,
		&rule.CooldownSeconds,
		&rule.ThresholdPercent,
		&targetDevices,
		&rule.DigestOnly,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	if source != nil {
		rule.Source = *source
	}
	if targetDevices != nil {
		rule.TargetDevices = *targetDevices
	}

	return &rule, nil
}

// nullableString returns nil if the string is empty, otherwise returns a pointer to it.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

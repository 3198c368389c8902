package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"netwarden/internal/domain"
)

// ChannelRepository implements store.ChannelRepository using PostgreSQL.
type ChannelRepository struct {
	db *DB
}

// NewChannelRepository creates a new PostgreSQL-backed channel repository.
func NewChannelRepository(db *DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

const channelColumns = `id, name, enabled, channel_type, min_severity,
	config_json, digest_enabled, digest_schedule, created_at, updated_at`

// Create stores a new channel.
func (r *ChannelRepository) Create(ctx context.Context, channel *domain.Channel) error {
	query := `
		INSERT INTO channels (
			id, name, enabled, channel_type, min_severity,
			config_json, digest_enabled, digest_schedule, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.pool.Exec(ctx, query,
		channel.ID,
		channel.Name,
		channel.Enabled,
		channel.Type,
		channel.MinSeverity,
		nullableString(channel.Config),
		channel.DigestEnabled,
		nullableString(channel.DigestSchedule),
		channel.CreatedAt,
		channel.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create channel: %w", err)
	}

	return nil
}

// Update modifies an existing channel.
func (r *ChannelRepository) Update(ctx context.Context, channel *domain.Channel) error {
	query := `
		UPDATE channels SET
			name = $2,
			enabled = $3,
			channel_type = $4,
			min_severity = $5,
			config_json = $6,
			digest_enabled = $7,
			digest_schedule = $8,
			updated_at = $9
		WHERE id = $1
	`

	result, err := r.db.pool.Exec(ctx, query,
		channel.ID,
		channel.Name,
		channel.Enabled,
		channel.Type,
		channel.MinSeverity,
		nullableString(channel.Config),
		channel.DigestEnabled,
		nullableString(channel.DigestSchedule),
		channel.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update channel: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrChannelNotFound
	}

	return nil
}

// Delete removes a channel by ID.
func (r *ChannelRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.pool.Exec(ctx, `DELETE FROM channels WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrChannelNotFound
	}
	return nil
}

// GetByID retrieves a channel by its ID.
func (r *ChannelRepository) GetByID(ctx context.Context, id string) (*domain.Channel, error) {
	query := fmt.Sprintf(`SELECT %s FROM channels WHERE id = $1`, channelColumns)

	channel, err := scanChannel(r.db.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChannelNotFound
		}
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	return channel, nil
}

// List retrieves all channels.
func (r *ChannelRepository) List(ctx context.Context) ([]*domain.Channel, error) {
	return r.list(ctx, fmt.Sprintf(`SELECT %s FROM channels ORDER BY created_at`, channelColumns))
}

// ListEnabled retrieves all enabled channels.
func (r *ChannelRepository) ListEnabled(ctx context.Context) ([]*domain.Channel, error) {
	return r.list(ctx, fmt.Sprintf(`SELECT %s FROM channels WHERE enabled ORDER BY created_at`, channelColumns))
}

func (r *ChannelRepository) list(ctx context.Context, query string) ([]*domain.Channel, error) {
	rows, err := r.db.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	var channels []*domain.Channel
	for rows.Next() {
		channel, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		channels = append(channels, channel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating channels: %w", err)
	}

	return channels, nil
}

// scanChannel scans a single row into a Channel.
func scanChannel(row pgx.Row) (*domain.Channel, error) {
	var channel domain.Channel
	var config, schedule *string

	err := row.Scan(
		&channel.ID,
		&channel.Name,
		&channel.Enabled,
		&channel.Type,
		&channel.MinSeverity,
		&config,
		&channel.DigestEnabled,
		&schedule,
		&channel.CreatedAt,
		&channel.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	if config != nil {
		channel.Config = *config
	}
	if schedule != nil {
		channel.DigestSchedule = *schedule
	}

	return &channel, nil
}

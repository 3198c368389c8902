// Package postgres provides PostgreSQL-based implementations of the store interfaces.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"netwarden/internal/config"
)

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// NewDB creates a new PostgreSQL connection pool.
func NewDB(ctx context.Context, cfg *config.PostgresConfig) (*DB, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
		cfg.SSLMode,
		cfg.MaxOpenConns,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxOpenConns
	poolConfig.MinConns = cfg.MaxIdleConns
	poolConfig.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Pool returns the underlying connection pool.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Close closes the connection pool.
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// RunMigrations creates the required database tables.
func (db *DB) RunMigrations(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS rules (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			event_type_pattern VARCHAR(255) NOT NULL,
			source VARCHAR(100),
			min_severity VARCHAR(20) NOT NULL,
			cooldown_seconds INTEGER NOT NULL DEFAULT 0,
			threshold_percent DOUBLE PRECISION,
			target_devices TEXT,
			digest_only BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_rules_enabled ON rules(enabled);

		CREATE TABLE IF NOT EXISTS channels (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			channel_type VARCHAR(50) NOT NULL,
			min_severity VARCHAR(20) NOT NULL,
			config_json TEXT,
			digest_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			digest_schedule VARCHAR(50),
			created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_channels_enabled ON channels(enabled);

		CREATE TABLE IF NOT EXISTS history (
			id VARCHAR(36) PRIMARY KEY,
			rule_id VARCHAR(36) NOT NULL,
			event_type VARCHAR(255) NOT NULL,
			severity VARCHAR(20) NOT NULL,
			source VARCHAR(100) NOT NULL,
			title TEXT NOT NULL,
			message TEXT NOT NULL,
			device_id VARCHAR(100),
			device_name VARCHAR(255),
			device_ip VARCHAR(45),
			context JSONB,
			triggered_at TIMESTAMP WITH TIME ZONE NOT NULL,
			incident_id VARCHAR(36),
			delivered_to TEXT,
			delivery_succeeded BOOLEAN NOT NULL DEFAULT FALSE,
			delivery_error TEXT,
			status VARCHAR(20) NOT NULL,
			acknowledged_at TIMESTAMP WITH TIME ZONE,
			resolved_at TIMESTAMP WITH TIME ZONE
		);

		CREATE INDEX IF NOT EXISTS idx_history_triggered_at ON history(triggered_at);
		CREATE INDEX IF NOT EXISTS idx_history_rule ON history(rule_id);
		CREATE INDEX IF NOT EXISTS idx_history_incident ON history(incident_id);
		CREATE INDEX IF NOT EXISTS idx_history_status ON history(status);

		CREATE TABLE IF NOT EXISTS incidents (
			id VARCHAR(36) PRIMARY KEY,
			correlation_key VARCHAR(255) NOT NULL,
			severity VARCHAR(20) NOT NULL,
			alert_count INTEGER NOT NULL DEFAULT 1,
			first_triggered_at TIMESTAMP WITH TIME ZONE NOT NULL,
			last_triggered_at TIMESTAMP WITH TIME ZONE NOT NULL,
			status VARCHAR(20) NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_incidents_key_status ON incidents(correlation_key, status);
		CREATE INDEX IF NOT EXISTS idx_incidents_last_triggered ON incidents(last_triggered_at);
	`

	_, err := db.pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

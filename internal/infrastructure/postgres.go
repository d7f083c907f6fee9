package infrastructure

import (
	"context"
	"fmt"

	"project_outreach/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type PostgresClient struct {
	Pool *pgxpool.Pool
}

func NewPostgresClient(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*PostgresClient, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	client := &PostgresClient{Pool: pool}
	if err := client.Migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	log.Info("database ready", zap.Int32("max_conns", cfg.MaxConns))

	return client, nil
}

// migrations run in order on every start; each statement is idempotent.
var migrations = []struct {
	name string
	sql  string
}{
	{"accounts", `
		CREATE TABLE IF NOT EXISTS accounts (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			vertical TEXT NOT NULL CHECK (vertical IN ('CREATOR', 'ENTERTAINER', 'VENUE')),
			display_name TEXT NOT NULL,
			plan TEXT NOT NULL DEFAULT 'FREE',
			monthly_quota INT NOT NULL DEFAULT 0,
			period_start TIMESTAMPTZ,
			sender_number TEXT,
			telegram_chat TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			retired_at TIMESTAMPTZ
		);`},
	// one live account per (user, vertical) makes concurrent creation idempotent
	{"accounts_user_vertical_idx", `
		CREATE UNIQUE INDEX IF NOT EXISTS accounts_user_vertical_live
		ON accounts (user_id, vertical) WHERE retired_at IS NULL;`},
	{"contacts", `
		CREATE TABLE IF NOT EXISTS contacts (
			id UUID PRIMARY KEY,
			account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			display_name TEXT NOT NULL DEFAULT '',
			phone TEXT,
			telegram_chat_id TEXT,
			lifetime_spend_cents BIGINT NOT NULL DEFAULT 0 CHECK (lifetime_spend_cents >= 0),
			visits INT NOT NULL DEFAULT 0 CHECK (visits >= 0),
			last_activity_at TIMESTAMPTZ,
			joined_at TIMESTAMPTZ,
			special_date DATE,
			stored_label TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`},
	{"contacts_rank_idx", `
		CREATE INDEX IF NOT EXISTS contacts_account_rank
		ON contacts (account_id, lifetime_spend_cents DESC, visits DESC, id);`},
	{"channel_mappings", `
		CREATE TABLE IF NOT EXISTS channel_mappings (
			account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			segment TEXT NOT NULL,
			chat_id TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (account_id, segment)
		);`},
	{"segment_configs", `
		CREATE TABLE IF NOT EXISTS segment_configs (
			account_id UUID PRIMARY KEY REFERENCES accounts(id) ON DELETE CASCADE,
			overrides JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`},
	{"broadcasts", `
		CREATE TABLE IF NOT EXISTS broadcasts (
			id UUID PRIMARY KEY,
			account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			channel TEXT NOT NULL CHECK (channel IN ('SMS', 'TELEGRAM')),
			audience_key TEXT NOT NULL,
			body TEXT NOT NULL,
			attempted INT NOT NULL CHECK (attempted >= 0),
			succeeded INT NOT NULL CHECK (succeeded >= 0),
			failed INT NOT NULL CHECK (failed >= 0),
			provider TEXT NOT NULL,
			error_summary TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CHECK (succeeded + failed = attempted)
		);`},
	{"broadcasts_usage_idx", `
		CREATE INDEX IF NOT EXISTS broadcasts_account_created
		ON broadcasts (account_id, created_at DESC, id DESC);`},
	{"templates", `
		CREATE TABLE IF NOT EXISTS templates (
			id UUID PRIMARY KEY,
			account_id UUID REFERENCES accounts(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			segment TEXT,
			body TEXT NOT NULL,
			is_default BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CHECK (account_id IS NOT NULL OR is_default)
		);`},
	{"templates_account_idx", `
		CREATE INDEX IF NOT EXISTS templates_account_idx ON templates (account_id, created_at DESC);`},
	{"sms_numbers", `
		CREATE TABLE IF NOT EXISTS sms_numbers (
			id SERIAL PRIMARY KEY,
			phone_number TEXT UNIQUE NOT NULL,
			account_id UUID UNIQUE REFERENCES accounts(id) ON DELETE SET NULL,
			assigned_at TIMESTAMPTZ,
			released_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`},
}

func (p *PostgresClient) Migrate(ctx context.Context) error {
	for _, m := range migrations {
		if _, err := p.Pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("migrate %s: %w", m.name, err)
		}
	}
	return nil
}

func (p *PostgresClient) Ping(ctx context.Context) error {
	return p.Pool.Ping(ctx)
}

func (p *PostgresClient) Close() {
	p.Pool.Close()
}

package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

func ConnectPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

// EnsureSchema cria as tabelas de projeção se ainda não existirem.
// Valores monetários são NUMERIC(78,0): cabem 256 bits sem perda.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS markets (
	id                  TEXT PRIMARY KEY,
	question            TEXT        NOT NULL,
	category            TEXT        NOT NULL,
	outcome_a_label     TEXT        NOT NULL,
	outcome_b_label     TEXT        NOT NULL,
	creator             TEXT        NOT NULL,
	created_at          TIMESTAMPTZ NOT NULL,
	resolution_deadline TIMESTAMPTZ NOT NULL,
	status              TEXT        NOT NULL,
	status_rank         SMALLINT    NOT NULL,
	pool_a              NUMERIC(78,0) NOT NULL DEFAULT 0,
	pool_b              NUMERIC(78,0) NOT NULL DEFAULT 0,
	odds_a              INTEGER     NOT NULL DEFAULT 5000,
	odds_b              INTEGER     NOT NULL DEFAULT 5000,
	result              TEXT        NOT NULL DEFAULT 'PENDING',
	evidence_ref        TEXT        NOT NULL DEFAULT '',
	resolver            TEXT        NOT NULL DEFAULT '',
	resolved_at         TIMESTAMPTZ,
	creator_fee_bps     INTEGER     NOT NULL,
	platform_fee_bps    INTEGER     NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS markets_status_idx ON markets (status);

CREATE TABLE IF NOT EXISTS positions (
	id         TEXT PRIMARY KEY,
	market_id  TEXT          NOT NULL,
	bettor     TEXT          NOT NULL,
	side       TEXT          NOT NULL,
	amount     NUMERIC(78,0) NOT NULL,
	created_at TIMESTAMPTZ   NOT NULL,
	claimed    BOOLEAN       NOT NULL DEFAULT false,
	claimed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS positions_market_idx ON positions (market_id);
CREATE INDEX IF NOT EXISTS positions_bettor_idx ON positions (bettor);

CREATE TABLE IF NOT EXISTS payouts (
	position_id TEXT PRIMARY KEY,
	market_id   TEXT          NOT NULL,
	bettor      TEXT          NOT NULL,
	kind        TEXT          NOT NULL,
	stake       NUMERIC(78,0) NOT NULL,
	fees        NUMERIC(78,0) NOT NULL,
	amount      NUMERIC(78,0) NOT NULL,
	status      TEXT          NOT NULL DEFAULT 'PENDING',
	event_id    TEXT          NOT NULL,
	created_at  TIMESTAMPTZ   NOT NULL DEFAULT now()
);
`

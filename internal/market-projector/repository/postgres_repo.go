package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/radieske/prediction-market-poc/internal/market-engine/ledger"
	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

// PostgresRepo mantém as tabelas de leitura (markets, positions) a partir dos
// eventos do market-service.
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

// StatusRank ordena os status no sentido das transições; os terminais
// empatam porque nunca se sucedem.
func StatusRank(status string) (int, error) {
	var s ledger.Status
	if err := s.UnmarshalText([]byte(status)); err != nil {
		return 0, err
	}
	switch s {
	case ledger.StatusActive:
		return 0, nil
	case ledger.StatusLocked:
		return 1, nil
	default:
		return 2, nil
	}
}

// UpsertMarket aplica o snapshot sem regredir: pools e odds só avançam quando o
// pool total do evento é maior ou igual ao gravado, e status/resultado só
// quando o rank não diminui. Devolve a linha resultante.
func (r *PostgresRepo) UpsertMarket(ctx context.Context, m events.Market) (events.OddsSnapshot, error) {
	rank, err := StatusRank(m.Status)
	if err != nil {
		return events.OddsSnapshot{}, fmt.Errorf("market %s: %w", m.ID, err)
	}

	const q = `
		INSERT INTO markets
		  (id, question, category, outcome_a_label, outcome_b_label, creator,
		   created_at, resolution_deadline, status, status_rank, pool_a, pool_b,
		   odds_a, odds_b, result, evidence_ref, resolver, resolved_at,
		   creator_fee_bps, platform_fee_bps, updated_at)
		VALUES
		  ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,NOW())
		ON CONFLICT (id) DO UPDATE SET
		  pool_a = CASE WHEN EXCLUDED.pool_a + EXCLUDED.pool_b >= markets.pool_a + markets.pool_b
		                THEN EXCLUDED.pool_a ELSE markets.pool_a END,
		  pool_b = CASE WHEN EXCLUDED.pool_a + EXCLUDED.pool_b >= markets.pool_a + markets.pool_b
		                THEN EXCLUDED.pool_b ELSE markets.pool_b END,
		  odds_a = CASE WHEN EXCLUDED.pool_a + EXCLUDED.pool_b >= markets.pool_a + markets.pool_b
		                THEN EXCLUDED.odds_a ELSE markets.odds_a END,
		  odds_b = CASE WHEN EXCLUDED.pool_a + EXCLUDED.pool_b >= markets.pool_a + markets.pool_b
		                THEN EXCLUDED.odds_b ELSE markets.odds_b END,
		  status       = CASE WHEN EXCLUDED.status_rank >= markets.status_rank THEN EXCLUDED.status ELSE markets.status END,
		  result       = CASE WHEN EXCLUDED.status_rank >= markets.status_rank THEN EXCLUDED.result ELSE markets.result END,
		  evidence_ref = CASE WHEN EXCLUDED.status_rank >= markets.status_rank THEN EXCLUDED.evidence_ref ELSE markets.evidence_ref END,
		  resolver     = CASE WHEN EXCLUDED.status_rank >= markets.status_rank THEN EXCLUDED.resolver ELSE markets.resolver END,
		  resolved_at  = CASE WHEN EXCLUDED.status_rank >= markets.status_rank THEN EXCLUDED.resolved_at ELSE markets.resolved_at END,
		  status_rank  = GREATEST(markets.status_rank, EXCLUDED.status_rank),
		  updated_at   = NOW()
		RETURNING status, pool_a, pool_b, odds_a, odds_b, updated_at
	`
	var resolvedAt sql.NullTime
	if m.ResolvedAt != nil {
		resolvedAt = sql.NullTime{Time: *m.ResolvedAt, Valid: true}
	}

	snap := events.OddsSnapshot{MarketID: m.ID}
	var updatedAt time.Time
	err = r.DB.QueryRowContext(ctx, q,
		m.ID, m.Question, m.Category, m.OutcomeALabel, m.OutcomeBLabel, m.Creator,
		m.CreatedAt, m.ResolutionDeadline, m.Status, rank, m.PoolA, m.PoolB,
		m.OddsA, m.OddsB, m.Result, m.EvidenceRef, m.Resolver, resolvedAt,
		m.CreatorFeeBps, m.PlatformFeeBps,
	).Scan(&snap.Status, &snap.PoolA, &snap.PoolB, &snap.OddsA, &snap.OddsB, &updatedAt)
	if err != nil {
		return events.OddsSnapshot{}, fmt.Errorf("upsert market %s: %w", m.ID, err)
	}
	snap.Ts = updatedAt.UTC()
	return snap, nil
}

// UpsertPosition grava a posição; claimed nunca volta para false.
func (r *PostgresRepo) UpsertPosition(ctx context.Context, p events.Position, at time.Time) error {
	const q = `
		INSERT INTO positions (id, market_id, bettor, side, amount, created_at, claimed, claimed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7, CASE WHEN $7 THEN $8::timestamptz END)
		ON CONFLICT (id) DO UPDATE SET
		  claimed    = positions.claimed OR EXCLUDED.claimed,
		  claimed_at = COALESCE(positions.claimed_at, EXCLUDED.claimed_at)
	`
	if _, err := r.DB.ExecContext(ctx, q,
		p.ID, p.MarketID, p.Bettor, p.Side, p.Amount, p.Timestamp, p.Claimed, at,
	); err != nil {
		return fmt.Errorf("upsert position %s: %w", p.ID, err)
	}
	return nil
}

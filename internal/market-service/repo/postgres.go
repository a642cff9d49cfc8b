package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/radieske/prediction-market-poc/internal/market-engine/ledger"
	"github.com/radieske/prediction-market-poc/internal/market-engine/positions"
)

// Postgres lê as tabelas projetadas pelo market-projector-worker para
// reconstruir o estado do motor na subida do market-service.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// LoadMarkets devolve todos os mercados em ordem de criação.
func (p *Postgres) LoadMarkets(ctx context.Context) ([]ledger.Market, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, question, category, outcome_a_label, outcome_b_label, creator,
		       created_at, resolution_deadline, status, pool_a, pool_b, result,
		       evidence_ref, resolver, resolved_at, creator_fee_bps, platform_fee_bps
		FROM markets
		ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query markets: %w", err)
	}
	defer rows.Close()

	var out []ledger.Market
	for rows.Next() {
		var (
			m          ledger.Market
			status     string
			result     string
			resolvedAt sql.NullTime
		)
		if err := rows.Scan(
			&m.ID, &m.Question, &m.Category, &m.OutcomeALabel, &m.OutcomeBLabel, &m.Creator,
			&m.CreatedAt, &m.ResolutionDeadline, &status, &m.PoolA, &m.PoolB, &result,
			&m.ResolutionEvidenceRef, &m.Resolver, &resolvedAt, &m.CreatorFeeBps, &m.PlatformFeeBps,
		); err != nil {
			return nil, fmt.Errorf("scan market: %w", err)
		}
		if err := m.Status.UnmarshalText([]byte(status)); err != nil {
			return nil, fmt.Errorf("market %s: %w", m.ID, err)
		}
		if err := m.Result.UnmarshalText([]byte(result)); err != nil {
			return nil, fmt.Errorf("market %s: %w", m.ID, err)
		}
		if resolvedAt.Valid {
			t := resolvedAt.Time
			m.ResolvedAt = &t
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (p *Postgres) LoadPositions(ctx context.Context) ([]positions.Position, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, market_id, bettor, side, amount, created_at, claimed
		FROM positions
		ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()

	var out []positions.Position
	for rows.Next() {
		var (
			pos  positions.Position
			side string
		)
		if err := rows.Scan(&pos.ID, &pos.MarketID, &pos.Bettor, &side, &pos.Amount, &pos.Timestamp, &pos.Claimed); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		if err := pos.Side.UnmarshalText([]byte(side)); err != nil {
			return nil, fmt.Errorf("position %s: %w", pos.ID, err)
		}
		out = append(out, pos)
	}
	return out, rows.Err()
}

package repo

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/radieske/prediction-market-poc/internal/odds-service/dto"
	"github.com/radieske/prediction-market-poc/internal/odds-service/leaderboard"
)

// ReadRepo consulta as tabelas projetadas pelo market-projector-worker.
type ReadRepo struct {
	DB *sql.DB
}

type MarketFilter struct {
	Category string
	Status   string
}

const marketColumns = `
	id, question, category, outcome_a_label, outcome_b_label, creator,
	created_at, resolution_deadline, status, pool_a::text, pool_b::text,
	(pool_a + pool_b)::text, odds_a, odds_b, result, evidence_ref, resolver,
	resolved_at, creator_fee_bps, platform_fee_bps`

func scanMarket(s interface{ Scan(...any) error }) (dto.Market, error) {
	var (
		m          dto.Market
		resolvedAt sql.NullTime
	)
	err := s.Scan(
		&m.ID, &m.Question, &m.Category, &m.OutcomeALabel, &m.OutcomeBLabel, &m.Creator,
		&m.CreatedAt, &m.ResolutionDeadline, &m.Status, &m.PoolA, &m.PoolB,
		&m.TotalPool, &m.OddsA, &m.OddsB, &m.Result, &m.EvidenceRef, &m.Resolver,
		&resolvedAt, &m.CreatorFeeBps, &m.PlatformFeeBps,
	)
	if err != nil {
		return dto.Market{}, err
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		m.ResolvedAt = &t
	}
	m.PercentA = dto.Percent(m.OddsA)
	m.PercentB = dto.Percent(m.OddsB)
	return m, nil
}

func (r *ReadRepo) ListMarkets(ctx context.Context, f MarketFilter) ([]dto.Market, error) {
	q := `SELECT ` + marketColumns + ` FROM markets WHERE 1=1`
	var args []any
	if f.Category != "" {
		args = append(args, f.Category)
		q += ` AND lower(category) = lower($1)`
	}
	if f.Status != "" {
		args = append(args, strings.ToUpper(f.Status))
		q += ` AND status = $` + strconv.Itoa(len(args))
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []dto.Market{}
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetMarket devolve sql.ErrNoRows quando o mercado não foi projetado.
func (r *ReadRepo) GetMarket(ctx context.Context, id string) (dto.Market, error) {
	return scanMarket(r.DB.QueryRowContext(ctx, `SELECT `+marketColumns+` FROM markets WHERE id = $1`, id))
}

func (r *ReadRepo) GetOdds(ctx context.Context, id string) (dto.Odds, error) {
	var o dto.Odds
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, status, pool_a::text, pool_b::text, odds_a, odds_b, updated_at
		FROM markets WHERE id = $1`, id,
	).Scan(&o.MarketID, &o.Status, &o.PoolA, &o.PoolB, &o.OddsA, &o.OddsB, &o.Ts)
	if err != nil {
		return dto.Odds{}, err
	}
	o.PercentA = dto.Percent(o.OddsA)
	o.PercentB = dto.Percent(o.OddsB)
	return o, nil
}

func (r *ReadRepo) MarketPositions(ctx context.Context, marketID string) ([]dto.Position, error) {
	return r.positions(ctx, `WHERE market_id = $1`, marketID)
}

func (r *ReadRepo) BettorPositions(ctx context.Context, bettor string) ([]dto.Position, error) {
	return r.positions(ctx, `WHERE bettor = $1`, bettor)
}

func (r *ReadRepo) positions(ctx context.Context, where string, arg string) ([]dto.Position, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, market_id, bettor, side, amount::text, created_at, claimed, claimed_at
		FROM positions `+where+`
		ORDER BY created_at`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []dto.Position{}
	for rows.Next() {
		var (
			p         dto.Position
			claimedAt sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.MarketID, &p.Bettor, &p.Side, &p.Amount, &p.Timestamp, &p.Claimed, &claimedAt); err != nil {
			return nil, err
		}
		if claimedAt.Valid {
			t := claimedAt.Time
			p.ClaimedAt = &t
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ReadRepo) Stats(ctx context.Context) (dto.Stats, error) {
	var s dto.Stats
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'ACTIVE'),
		       COALESCE(SUM(pool_a + pool_b), 0)::text
		FROM markets`,
	).Scan(&s.TotalMarkets, &s.ActiveMarkets, &s.TotalVolume)
	return s, err
}

// LeaderboardRows agrega por apostador. Um trade é vencedor quando o mercado
// foi resolvido no lado da posição.
func (r *ReadRepo) LeaderboardRows(ctx context.Context) ([]leaderboard.Row, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT p.bettor,
		       SUM(p.amount)::text,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE m.status = 'RESOLVED' AND m.result = p.side),
		       COALESCE((SELECT SUM(po.amount) FROM payouts po WHERE po.bettor = p.bettor), 0)::text
		FROM positions p
		JOIN markets m ON m.id = p.market_id
		GROUP BY p.bettor`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []leaderboard.Row
	for rows.Next() {
		var lr leaderboard.Row
		if err := rows.Scan(&lr.Bettor, &lr.Volume, &lr.Trades, &lr.WinningTrades, &lr.TotalPayout); err != nil {
			return nil, err
		}
		out = append(out, lr)
	}
	return out, rows.Err()
}

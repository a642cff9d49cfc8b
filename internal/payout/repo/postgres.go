package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// InsertPayout registra a instrução de pagamento com status PENDING. A chave é
// a posição, então reentregas do mesmo claim não duplicam o pagamento.
// Devolve false quando a linha já existia.
func (p *Postgres) InsertPayout(ctx context.Context, eventID string, po events.Payout) (bool, error) {
	res, err := p.db.ExecContext(ctx, `
		INSERT INTO payouts (position_id, market_id, bettor, kind, stake, fees, amount, event_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (position_id) DO NOTHING`,
		po.PositionID, po.MarketID, po.Bettor, po.Kind, po.Stake, po.Fees, po.Amount, eventID,
	)
	if err != nil {
		return false, fmt.Errorf("insert payout %s: %w", po.PositionID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

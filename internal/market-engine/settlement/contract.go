package settlement

import (
	"github.com/radieske/prediction-market-poc/internal/market-engine/ledger"
	"github.com/radieske/prediction-market-poc/internal/market-engine/odds"
	"github.com/radieske/prediction-market-poc/internal/market-engine/payout"
	"github.com/radieske/prediction-market-poc/internal/market-engine/positions"
	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

// ToContractMarket converte o snapshot do ledger para o formato de fio.
func ToContractMarket(m ledger.Market) events.Market {
	o := odds.Implied(m.PoolA, m.PoolB)
	return events.Market{
		ID:                 m.ID,
		Question:           m.Question,
		Category:           m.Category,
		OutcomeALabel:      m.OutcomeALabel,
		OutcomeBLabel:      m.OutcomeBLabel,
		Creator:            m.Creator,
		CreatedAt:          m.CreatedAt,
		ResolutionDeadline: m.ResolutionDeadline,
		Status:             m.Status.String(),
		PoolA:              m.PoolA.String(),
		PoolB:              m.PoolB.String(),
		OddsA:              o.A,
		OddsB:              o.B,
		Result:             m.Result.String(),
		EvidenceRef:        m.ResolutionEvidenceRef,
		Resolver:           m.Resolver,
		ResolvedAt:         m.ResolvedAt,
		CreatorFeeBps:      m.CreatorFeeBps,
		PlatformFeeBps:     m.PlatformFeeBps,
	}
}

func ToContractPosition(p positions.Position) *events.Position {
	return &events.Position{
		ID:        p.ID,
		MarketID:  p.MarketID,
		Bettor:    p.Bettor,
		Side:      p.Side.String(),
		Amount:    p.Amount.String(),
		Timestamp: p.Timestamp,
		Claimed:   p.Claimed,
	}
}

func toContractPayout(p positions.Position, b payout.Breakdown, kind payout.Kind) *events.Payout {
	return &events.Payout{
		PositionID: p.ID,
		MarketID:   p.MarketID,
		Bettor:     p.Bettor,
		Kind:       string(kind),
		Stake:      b.Stake.String(),
		Fees:       b.Fees.String(),
		Amount:     b.Total.String(),
	}
}

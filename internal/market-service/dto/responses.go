package dto

import (
	"github.com/radieske/prediction-market-poc/internal/market-engine/ledger"
	"github.com/radieske/prediction-market-poc/internal/market-engine/money"
	"github.com/radieske/prediction-market-poc/internal/market-engine/odds"
	"github.com/radieske/prediction-market-poc/internal/market-engine/payout"
	"github.com/radieske/prediction-market-poc/internal/market-engine/positions"
)

// MarketView é o mercado com odds e pool total já calculados.
type MarketView struct {
	ledger.Market
	OddsA     uint32      `json:"oddsA"`
	OddsB     uint32      `json:"oddsB"`
	TotalPool money.Money `json:"totalPool"`
}

func NewMarketView(m ledger.Market) MarketView {
	o := odds.Implied(m.PoolA, m.PoolB)
	total, _ := m.TotalPool()
	return MarketView{Market: m, OddsA: o.A, OddsB: o.B, TotalPool: total}
}

type PlaceBetResponse struct {
	Position positions.Position `json:"position"`
	Market   MarketView         `json:"market"`
}

type PayoutView struct {
	PositionID string           `json:"positionId"`
	Kind       payout.Kind      `json:"kind"`
	Payout     payout.Breakdown `json:"payout"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/internal/market-engine/ledger"
	"github.com/radieske/prediction-market-poc/internal/market-engine/money"
	"github.com/radieske/prediction-market-poc/internal/market-engine/odds"
	"github.com/radieske/prediction-market-poc/internal/market-engine/payout"
	"github.com/radieske/prediction-market-poc/internal/market-engine/positions"
	"github.com/radieske/prediction-market-poc/internal/market-engine/settlement"
)

// Engine é o subconjunto do motor de liquidação exposto via HTTP.
type Engine interface {
	CreateMarket(ctx context.Context, p ledger.NewMarket) (ledger.Market, error)
	PlaceBet(ctx context.Context, marketID, bettor string, side ledger.Outcome, amount money.Money) (positions.Position, ledger.Market, error)
	Lock(ctx context.Context, marketID, operator string) (ledger.Market, error)
	Resolve(ctx context.Context, marketID string, result ledger.Outcome, evidenceRef, resolver string) (ledger.Market, error)
	Cancel(ctx context.Context, marketID, operator string) (ledger.Market, error)
	Claim(ctx context.Context, positionID, bettor string) (settlement.ClaimResult, error)

	PreviewPayout(marketID string, side ledger.Outcome, amount money.Money) (payout.Breakdown, error)
	ClaimablePayout(positionID string) (payout.Breakdown, payout.Kind, error)
	Odds(marketID string) (odds.Odds, error)
	Market(id string) (ledger.Market, error)
	Markets() []ledger.Market
	Position(id string) (positions.Position, error)
	MarketPositions(marketID string) ([]positions.Position, error)
	BettorPositions(bettor string) []positions.Position
	Stats() (ledger.Stats, error)
}

// EvidenceStore grava o blob de evidência da resolução e devolve a referência.
type EvidenceStore interface {
	Put(ctx context.Context, blob []byte, contentType string) (string, error)
}

// Hooks são os callbacks de métricas do serviço; todos opcionais.
type Hooks struct {
	OnBetAccepted func()
	OnBetRejected func(code string)
	OnClaim       func(kind string)
	OnTransition  func(status string)
}

// API expõe o motor de liquidação via REST.
type API struct {
	Log      *zap.Logger
	Engine   Engine
	Evidence EvidenceStore // nil desabilita upload de evidência
	Hooks    Hooks
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()

	r.Route("/v1/markets", func(r chi.Router) {
		r.Post("/", a.createMarket)
		r.Get("/", a.listMarkets)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", a.getMarket)
			r.Get("/odds", a.getOdds)
			r.Get("/positions", a.marketPositions)
			r.Get("/preview", a.previewPayout)
			r.Post("/bets", a.placeBet)
			r.Post("/lock", a.lockMarket)
			r.Post("/resolve", a.resolveMarket)
			r.Post("/cancel", a.cancelMarket)
		})
	})

	r.Get("/v1/positions/{id}", a.getPosition)
	r.Get("/v1/positions/{id}/payout", a.claimablePayout)
	r.Post("/v1/positions/{id}/claim", a.claim)

	r.Get("/v1/bettors/{bettor}/positions", a.bettorPositions)
	r.Get("/v1/stats", a.stats)
	r.Get("/v1/categories", a.categories)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

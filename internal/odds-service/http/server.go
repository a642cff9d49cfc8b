package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/internal/odds-service/advisory"
	"github.com/radieske/prediction-market-poc/internal/odds-service/dto"
	"github.com/radieske/prediction-market-poc/internal/odds-service/leaderboard"
	"github.com/radieske/prediction-market-poc/internal/odds-service/repo"
	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

type ReadRepo interface {
	ListMarkets(ctx context.Context, f repo.MarketFilter) ([]dto.Market, error)
	GetMarket(ctx context.Context, id string) (dto.Market, error)
	GetOdds(ctx context.Context, id string) (dto.Odds, error)
	MarketPositions(ctx context.Context, marketID string) ([]dto.Position, error)
	BettorPositions(ctx context.Context, bettor string) ([]dto.Position, error)
	Stats(ctx context.Context) (dto.Stats, error)
	LeaderboardRows(ctx context.Context) ([]leaderboard.Row, error)
}

type OddsCache interface {
	GetOdds(ctx context.Context, marketID string) (events.OddsSnapshot, bool, error)
	SetOddsNX(ctx context.Context, s events.OddsSnapshot, ttl time.Duration) error
}

// API expõe os endpoints REST de consulta de mercados e odds
// Lê da projeção (Postgres), do cache (Redis) e do serviço consultivo
type API struct {
	Log      *zap.Logger
	ReadRepo ReadRepo
	Cache    OddsCache
	Advisory *advisory.Service
	WS       http.HandlerFunc // hub WebSocket; nil desabilita /ws
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/markets", a.listMarkets)
	r.Get("/v1/markets/{id}", a.getMarket)
	r.Get("/v1/markets/{id}/odds", a.getOdds)
	r.Get("/v1/markets/{id}/positions", a.marketPositions)
	r.Get("/v1/markets/{id}/analysis", a.analysis)
	r.Delete("/v1/analysis", a.clearAnalysis)
	r.Get("/v1/bettors/{bettor}/positions", a.bettorPositions)
	r.Get("/v1/stats", a.stats)
	r.Get("/v1/leaderboard", a.leaderboard)
	if a.WS != nil {
		r.Get("/ws", a.WS)
	}
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"error": code, "message": msg})
}

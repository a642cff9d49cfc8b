package httpapi

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/internal/odds-service/advisory"
	"github.com/radieske/prediction-market-poc/internal/odds-service/dto"
	"github.com/radieske/prediction-market-poc/internal/odds-service/leaderboard"
	"github.com/radieske/prediction-market-poc/internal/odds-service/repo"
	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

const oddsCacheTTL = 30 * time.Second

func (a *API) internal(w http.ResponseWriter, op string, err error) {
	a.Log.Error(op, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
}

func (a *API) listMarkets(w http.ResponseWriter, r *http.Request) {
	mk, err := a.ReadRepo.ListMarkets(r.Context(), repo.MarketFilter{
		Category: r.URL.Query().Get("category"),
		Status:   r.URL.Query().Get("status"),
	})
	if err != nil {
		a.internal(w, "list markets", err)
		return
	}
	writeJSON(w, http.StatusOK, mk)
}

func (a *API) getMarket(w http.ResponseWriter, r *http.Request) {
	m, err := a.ReadRepo.GetMarket(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "MARKET_NOT_FOUND", "market not found")
		return
	}
	if err != nil {
		a.internal(w, "get market", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// getOdds retorna as odds do mercado, preferencialmente do cache
func (a *API) getOdds(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if snap, ok, err := a.Cache.GetOdds(r.Context(), id); err != nil {
		a.Log.Warn("odds cache read failed", zap.String("market_id", id), zap.Error(err))
	} else if ok {
		writeJSON(w, http.StatusOK, dto.Odds{
			MarketID: snap.MarketID,
			Status:   snap.Status,
			PoolA:    snap.PoolA,
			PoolB:    snap.PoolB,
			OddsA:    snap.OddsA,
			OddsB:    snap.OddsB,
			PercentA: dto.Percent(snap.OddsA),
			PercentB: dto.Percent(snap.OddsB),
			Cached:   true,
			Ts:       snap.Ts,
		})
		return
	}

	od, err := a.ReadRepo.GetOdds(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "MARKET_NOT_FOUND", "market not found")
		return
	}
	if err != nil {
		a.internal(w, "get odds", err)
		return
	}

	_ = a.Cache.SetOddsNX(r.Context(), events.OddsSnapshot{
		MarketID: od.MarketID, Status: od.Status, PoolA: od.PoolA, PoolB: od.PoolB,
		OddsA: od.OddsA, OddsB: od.OddsB, Ts: od.Ts,
	}, oddsCacheTTL)
	writeJSON(w, http.StatusOK, od)
}

func (a *API) marketPositions(w http.ResponseWriter, r *http.Request) {
	ps, err := a.ReadRepo.MarketPositions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.internal(w, "market positions", err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (a *API) bettorPositions(w http.ResponseWriter, r *http.Request) {
	ps, err := a.ReadRepo.BettorPositions(r.Context(), chi.URLParam(r, "bettor"))
	if err != nil {
		a.internal(w, "bettor positions", err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (a *API) stats(w http.ResponseWriter, r *http.Request) {
	s, err := a.ReadRepo.Stats(r.Context())
	if err != nil {
		a.internal(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// leaderboard: GET /v1/leaderboard?sort=volume|accuracy&limit=100
func (a *API) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "limit must be a positive integer")
			return
		}
		limit = n
	}

	rows, err := a.ReadRepo.LeaderboardRows(r.Context())
	if err != nil {
		a.internal(w, "leaderboard", err)
		return
	}
	entries, err := leaderboard.Rank(rows, r.URL.Query().Get("sort"), limit)
	if errors.Is(err, leaderboard.ErrUnknownSort) {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	if err != nil {
		a.internal(w, "leaderboard", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type analysisResponse struct {
	Analysis advisory.Analysis `json:"analysis"`
	Cached   bool              `json:"cached"`
}

// analysis é somente exibição; não passa pelo motor.
func (a *API) analysis(w http.ResponseWriter, r *http.Request) {
	m, err := a.ReadRepo.GetMarket(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "MARKET_NOT_FOUND", "market not found")
		return
	}
	if err != nil {
		a.internal(w, "analysis", err)
		return
	}

	res, cached := a.Advisory.Analyze(r.Context(), advisory.MarketContext{
		MarketID:           m.ID,
		Question:           m.Question,
		Category:           m.Category,
		OutcomeA:           m.OutcomeALabel,
		OutcomeB:           m.OutcomeBLabel,
		PoolA:              m.PoolA,
		PoolB:              m.PoolB,
		OddsA:              m.OddsA,
		ResolutionDeadline: m.ResolutionDeadline,
	})
	writeJSON(w, http.StatusOK, analysisResponse{Analysis: res, Cached: cached})
}

// clearAnalysis: DELETE /v1/analysis?marketId=<id> limpa um mercado; sem
// marketId limpa tudo.
func (a *API) clearAnalysis(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("marketId"); id != "" {
		removed := a.Advisory.Cache.Delete(id)
		writeJSON(w, http.StatusOK, map[string]any{"marketId": id, "removed": removed})
		return
	}
	n := a.Advisory.Cache.Clear()
	a.Log.Info("analysis cache cleared", zap.Int("entries", n))
	writeJSON(w, http.StatusOK, map[string]any{"removed": n})
}

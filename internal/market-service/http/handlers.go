package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/internal/market-engine/errs"
	"github.com/radieske/prediction-market-poc/internal/market-engine/ledger"
	"github.com/radieske/prediction-market-poc/internal/market-engine/money"
	"github.com/radieske/prediction-market-poc/internal/market-service/dto"
)

func (a *API) createMarket(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateMarketRequest
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	m, err := a.Engine.CreateMarket(r.Context(), ledger.NewMarket{
		Question:           req.Question,
		Category:           req.Category,
		OutcomeALabel:      req.OutcomeALabel,
		OutcomeBLabel:      req.OutcomeBLabel,
		Creator:            req.Creator,
		ResolutionDeadline: req.ResolutionDeadline,
		CreatorFeeBps:      req.CreatorFeeBps,
	})
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewMarketView(m))
}

func (a *API) listMarkets(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	status := r.URL.Query().Get("status")

	out := []dto.MarketView{}
	for _, m := range a.Engine.Markets() {
		if category != "" && m.Category != ledger.NormalizeCategory(category) {
			continue
		}
		if status != "" && !strings.EqualFold(m.Status.String(), status) {
			continue
		}
		out = append(out, dto.NewMarketView(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) getMarket(w http.ResponseWriter, r *http.Request) {
	m, err := a.Engine.Market(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewMarketView(m))
}

func (a *API) getOdds(w http.ResponseWriter, r *http.Request) {
	o, err := a.Engine.Odds(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (a *API) marketPositions(w http.ResponseWriter, r *http.Request) {
	ps, err := a.Engine.MarketPositions(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

// previewPayout: GET /v1/markets/{id}/preview?side=A&amount=100
func (a *API) previewPayout(w http.ResponseWriter, r *http.Request) {
	side, err := ledger.ParseOutcome(r.URL.Query().Get("side"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	amount, err := money.Parse(r.URL.Query().Get("amount"))
	if err != nil {
		a.writeError(w, fmt.Errorf("%w: %v", errs.ErrInvalidBetAmount, err))
		return
	}
	b, err := a.Engine.PreviewPayout(chi.URLParam(r, "id"), side, amount)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (a *API) placeBet(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceBetRequest
	if err := decode(w, r, &req); err != nil {
		a.betRejected(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	side, err := ledger.ParseOutcome(req.Side)
	if err != nil {
		a.betRejected(w, err)
		return
	}
	pos, m, err := a.Engine.PlaceBet(r.Context(), chi.URLParam(r, "id"), req.Bettor, side, req.Amount)
	if err != nil {
		a.betRejected(w, err)
		return
	}
	if a.Hooks.OnBetAccepted != nil {
		a.Hooks.OnBetAccepted()
	}
	writeJSON(w, http.StatusCreated, dto.PlaceBetResponse{Position: pos, Market: dto.NewMarketView(m)})
}

func (a *API) betRejected(w http.ResponseWriter, err error) {
	if a.Hooks.OnBetRejected != nil {
		a.Hooks.OnBetRejected(errs.Code(err))
	}
	a.writeError(w, err)
}

func (a *API) lockMarket(w http.ResponseWriter, r *http.Request) {
	var req dto.OperatorRequest
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	m, err := a.Engine.Lock(r.Context(), chi.URLParam(r, "id"), req.Operator)
	a.transitioned(w, m, err)
}

func (a *API) cancelMarket(w http.ResponseWriter, r *http.Request) {
	var req dto.OperatorRequest
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	m, err := a.Engine.Cancel(r.Context(), chi.URLParam(r, "id"), req.Operator)
	a.transitioned(w, m, err)
}

func (a *API) resolveMarket(w http.ResponseWriter, r *http.Request) {
	var req dto.ResolveRequest
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	result, err := ledger.ParseOutcome(req.Result)
	if err != nil {
		a.writeError(w, err)
		return
	}

	ref := req.EvidenceRef
	if req.Evidence != "" {
		if ref != "" {
			a.writeError(w, fmt.Errorf("%w: evidence and evidenceRef are exclusive", errBadRequest))
			return
		}
		if a.Evidence == nil {
			a.writeError(w, fmt.Errorf("%w: evidence upload disabled", errBadRequest))
			return
		}
		ct := req.EvidenceContentType
		if ct == "" {
			ct = "text/plain; charset=utf-8"
		}
		ref, err = a.Evidence.Put(r.Context(), []byte(req.Evidence), ct)
		if err != nil {
			a.writeError(w, fmt.Errorf("store evidence: %w", err))
			return
		}
		a.Log.Debug("evidence stored", zap.String("market_id", chi.URLParam(r, "id")), zap.String("ref", ref))
	}

	m, err := a.Engine.Resolve(r.Context(), chi.URLParam(r, "id"), result, ref, req.Resolver)
	a.transitioned(w, m, err)
}

func (a *API) transitioned(w http.ResponseWriter, m ledger.Market, err error) {
	if err != nil {
		a.writeError(w, err)
		return
	}
	if a.Hooks.OnTransition != nil {
		a.Hooks.OnTransition(m.Status.String())
	}
	writeJSON(w, http.StatusOK, dto.NewMarketView(m))
}

func (a *API) getPosition(w http.ResponseWriter, r *http.Request) {
	p, err := a.Engine.Position(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) claimablePayout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, kind, err := a.Engine.ClaimablePayout(id)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.PayoutView{PositionID: id, Kind: kind, Payout: b})
}

func (a *API) claim(w http.ResponseWriter, r *http.Request) {
	var req dto.ClaimRequest
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	res, err := a.Engine.Claim(r.Context(), chi.URLParam(r, "id"), req.Bettor)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if a.Hooks.OnClaim != nil {
		a.Hooks.OnClaim(string(res.Kind))
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) bettorPositions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Engine.BettorPositions(chi.URLParam(r, "bettor")))
}

func (a *API) stats(w http.ResponseWriter, r *http.Request) {
	s, err := a.Engine.Stats()
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (a *API) categories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ledger.Categories)
}

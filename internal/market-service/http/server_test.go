package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/internal/market-engine/ledger"
	"github.com/radieske/prediction-market-poc/internal/market-engine/money"
	"github.com/radieske/prediction-market-poc/internal/market-engine/positions"
	"github.com/radieske/prediction-market-poc/internal/market-engine/settlement"
	"github.com/radieske/prediction-market-poc/internal/market-service/dto"
)

type fakeEvidence struct {
	blobs map[string][]byte
	err   error
}

func (f *fakeEvidence) Put(_ context.Context, blob []byte, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	ref := "sha256:fake"
	f.blobs[ref] = blob
	return ref, nil
}

type testServer struct {
	srv      *httptest.Server
	engine   *settlement.Engine
	evidence *fakeEvidence

	mu       sync.Mutex
	rejected []string
	claims   []string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	l := ledger.New(ledger.Config{
		MinBet:           money.FromUint64(1),
		MaxBet:           money.FromUint64(1_000_000),
		PlatformFeeBps:   200,
		MaxCreatorFeeBps: 1000,
	})
	ts := &testServer{
		engine:   settlement.New(l, positions.NewStore(), zap.NewNop(), settlement.WithAuthorizer(settlement.NewAllowList([]string{"oracle"}, []string{"ops"}))),
		evidence: &fakeEvidence{blobs: map[string][]byte{}},
	}
	api := &API{
		Log:      zap.NewNop(),
		Engine:   ts.engine,
		Evidence: ts.evidence,
		Hooks: Hooks{
			OnBetRejected: func(code string) { ts.record(&ts.rejected, code) },
			OnClaim:       func(kind string) { ts.record(&ts.claims, kind) },
		},
	}
	ts.srv = httptest.NewServer(api.Router())
	t.Cleanup(ts.srv.Close)
	return ts
}

func (ts *testServer) record(dst *[]string, v string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	*dst = append(*dst, v)
}

func (ts *testServer) hooks() (rejected, claims []string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]string(nil), ts.rejected...), append([]string(nil), ts.claims...)
}

func (ts *testServer) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (ts *testServer) createMarket(t *testing.T) dto.MarketView {
	t.Helper()
	var mv dto.MarketView
	code := ts.do(t, http.MethodPost, "/v1/markets", dto.CreateMarketRequest{
		Question:           "Will it rain in Porto Alegre tomorrow?",
		Category:           "other",
		OutcomeALabel:      "Yes",
		OutcomeBLabel:      "No",
		Creator:            "0xcreator",
		ResolutionDeadline: time.Now().Add(time.Hour),
	}, &mv)
	if code != http.StatusCreated {
		t.Fatalf("create market: status %d", code)
	}
	return mv
}

func bet(bettor, side, amount string) dto.PlaceBetRequest {
	return dto.PlaceBetRequest{Bettor: bettor, Side: side, Amount: money.MustParse(amount)}
}

func TestMarketLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	mv := ts.createMarket(t)
	if mv.OddsA != 5000 || mv.Category != "Other" {
		t.Fatalf("created market = %+v", mv)
	}

	var winner, loser dto.PlaceBetResponse
	if code := ts.do(t, http.MethodPost, "/v1/markets/"+mv.ID+"/bets", bet("alice", "A", "100"), &winner); code != http.StatusCreated {
		t.Fatalf("bet A: status %d", code)
	}
	if code := ts.do(t, http.MethodPost, "/v1/markets/"+mv.ID+"/bets", bet("bob", "B", "100"), &loser); code != http.StatusCreated {
		t.Fatalf("bet B: status %d", code)
	}
	if loser.Market.TotalPool.String() != "200" {
		t.Errorf("total pool = %s", loser.Market.TotalPool)
	}

	var locked dto.MarketView
	if code := ts.do(t, http.MethodPost, "/v1/markets/"+mv.ID+"/lock", dto.OperatorRequest{Operator: "ops"}, &locked); code != http.StatusOK {
		t.Fatalf("lock: status %d", code)
	}

	var resolved dto.MarketView
	code := ts.do(t, http.MethodPost, "/v1/markets/"+mv.ID+"/resolve", dto.ResolveRequest{
		Resolver: "oracle", Result: "A", Evidence: "official weather report",
	}, &resolved)
	if code != http.StatusOK {
		t.Fatalf("resolve: status %d", code)
	}
	if resolved.ResolutionEvidenceRef != "sha256:fake" || resolved.Result != ledger.OutcomeA {
		t.Errorf("resolved = %+v", resolved)
	}

	var pv dto.PayoutView
	if code := ts.do(t, http.MethodGet, "/v1/positions/"+winner.Position.ID+"/payout", nil, &pv); code != http.StatusOK {
		t.Fatalf("claimable: status %d", code)
	}
	// 100 + 100 - 2% = 198
	if pv.Payout.Total.String() != "198" || pv.Kind != "WIN" {
		t.Errorf("claimable = %+v", pv)
	}

	var res settlement.ClaimResult
	if code := ts.do(t, http.MethodPost, "/v1/positions/"+winner.Position.ID+"/claim", dto.ClaimRequest{Bettor: "alice"}, &res); code != http.StatusOK {
		t.Fatalf("claim: status %d", code)
	}
	if res.Payout.Total.String() != "198" {
		t.Errorf("claim total = %s", res.Payout.Total)
	}

	var e dto.ErrorResponse
	if code := ts.do(t, http.MethodPost, "/v1/positions/"+winner.Position.ID+"/claim", dto.ClaimRequest{Bettor: "alice"}, &e); code != http.StatusConflict || e.Error != "ALREADY_CLAIMED" {
		t.Errorf("second claim = %d %+v", code, e)
	}
	if _, claims := ts.hooks(); len(claims) != 1 || claims[0] != "WIN" {
		t.Errorf("claim hooks = %v", claims)
	}
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t)
	mv := ts.createMarket(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"unknown market", http.MethodGet, "/v1/markets/nope", nil, http.StatusNotFound, "MARKET_NOT_FOUND"},
		{"unknown position", http.MethodGet, "/v1/positions/nope", nil, http.StatusNotFound, "POSITION_NOT_FOUND"},
		{"zero bet", http.MethodPost, "/v1/markets/" + mv.ID + "/bets", bet("alice", "A", "0"), http.StatusBadRequest, "INVALID_BET_AMOUNT"},
		{"bet above max", http.MethodPost, "/v1/markets/" + mv.ID + "/bets", bet("alice", "A", "1000001"), http.StatusBadRequest, "INVALID_BET_AMOUNT"},
		{"bad side", http.MethodPost, "/v1/markets/" + mv.ID + "/bets", bet("alice", "C", "10"), http.StatusBadRequest, "INVALID_OUTCOME"},
		{"malformed body", http.MethodPost, "/v1/markets/" + mv.ID + "/bets", map[string]int{"amount": 5}, http.StatusBadRequest, "BAD_REQUEST"},
		{"resolve while active", http.MethodPost, "/v1/markets/" + mv.ID + "/resolve", dto.ResolveRequest{Resolver: "oracle", Result: "A"}, http.StatusConflict, "INVALID_STATE_TRANSITION"},
		{"lock by stranger", http.MethodPost, "/v1/markets/" + mv.ID + "/lock", dto.OperatorRequest{Operator: "mallory"}, http.StatusForbidden, "UNAUTHORIZED"},
		{"preview without amount", http.MethodGet, "/v1/markets/" + mv.ID + "/preview?side=A", nil, http.StatusBadRequest, "INVALID_BET_AMOUNT"},
		{"invalid market", http.MethodPost, "/v1/markets", dto.CreateMarketRequest{Question: "", OutcomeALabel: "Y", OutcomeBLabel: "N", ResolutionDeadline: time.Now().Add(time.Hour)}, http.StatusBadRequest, "INVALID_MARKET"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var e dto.ErrorResponse
			code := ts.do(t, tc.method, tc.path, tc.body, &e)
			if code != tc.status || e.Error != tc.code {
				t.Errorf("got %d %q, want %d %q (%s)", code, e.Error, tc.status, tc.code, e.Message)
			}
		})
	}
	if rejected, _ := ts.hooks(); len(rejected) != 4 {
		t.Errorf("rejected hooks = %v, want 4", rejected)
	}
}

func TestResolveEvidenceFailure(t *testing.T) {
	ts := newTestServer(t)
	mv := ts.createMarket(t)
	if code := ts.do(t, http.MethodPost, "/v1/markets/"+mv.ID+"/lock", dto.OperatorRequest{Operator: "ops"}, nil); code != http.StatusOK {
		t.Fatalf("lock: %d", code)
	}
	ts.evidence.err = errors.New("bucket down")

	var e dto.ErrorResponse
	code := ts.do(t, http.MethodPost, "/v1/markets/"+mv.ID+"/resolve", dto.ResolveRequest{Resolver: "oracle", Result: "B", Evidence: "x"}, &e)
	if code != http.StatusInternalServerError {
		t.Fatalf("status = %d", code)
	}
	m, err := ts.engine.Market(mv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if m.Status != ledger.StatusLocked {
		t.Errorf("status = %s, want LOCKED", m.Status)
	}
}

func TestQueries(t *testing.T) {
	ts := newTestServer(t)
	mv := ts.createMarket(t)
	ts.do(t, http.MethodPost, "/v1/markets/"+mv.ID+"/bets", bet("alice", "A", "30"), nil)
	ts.do(t, http.MethodPost, "/v1/markets/"+mv.ID+"/bets", bet("alice", "B", "10"), nil)

	var list []dto.MarketView
	if code := ts.do(t, http.MethodGet, "/v1/markets?category=OTHER&status=active", nil, &list); code != http.StatusOK || len(list) != 1 {
		t.Errorf("list = %d %d", code, len(list))
	}
	ts.do(t, http.MethodGet, "/v1/markets?category=Sports", nil, &list)
	if len(list) != 0 {
		t.Errorf("sports list = %d, want 0", len(list))
	}

	var mine []positions.Position
	ts.do(t, http.MethodGet, "/v1/bettors/alice/positions", nil, &mine)
	if len(mine) != 2 {
		t.Errorf("bettor positions = %d", len(mine))
	}

	var stats ledger.Stats
	ts.do(t, http.MethodGet, "/v1/stats", nil, &stats)
	if stats.TotalMarkets != 1 || stats.TotalVolume.String() != "40" {
		t.Errorf("stats = %+v", stats)
	}

	var o struct {
		A uint32 `json:"oddsA"`
		B uint32 `json:"oddsB"`
	}
	ts.do(t, http.MethodGet, "/v1/markets/"+mv.ID+"/odds", nil, &o)
	if o.A != 7500 || o.B != 2500 {
		t.Errorf("odds = %+v", o)
	}

	var cats []string
	ts.do(t, http.MethodGet, "/v1/categories", nil, &cats)
	if len(cats) != len(ledger.Categories) {
		t.Errorf("categories = %v", cats)
	}
}

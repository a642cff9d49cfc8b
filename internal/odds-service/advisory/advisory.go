// Package advisory obtém uma estimativa de probabilidade para exibição. O
// resultado nunca volta para o motor de liquidação: não altera pools, odds ou
// pagamentos.
package advisory

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// MarketContext é o que o serviço externo recebe sobre o mercado.
type MarketContext struct {
	MarketID           string    `json:"marketId"`
	Question           string    `json:"question"`
	Category           string    `json:"category"`
	OutcomeA           string    `json:"outcomeA"`
	OutcomeB           string    `json:"outcomeB"`
	PoolA              string    `json:"poolA"`
	PoolB              string    `json:"poolB"`
	OddsA              uint32    `json:"oddsA"` // bps
	ResolutionDeadline time.Time `json:"resolutionDeadline"`
}

type Prediction struct {
	Probability float64 `json:"probability"` // 0-100, outcome A
	Confidence  float64 `json:"confidence"`  // 0-100
	Reasoning   string  `json:"reasoning"`
}

type Analysis struct {
	MarketID   string     `json:"marketId"`
	Question   string     `json:"question"`
	Category   string     `json:"category"`
	Prediction Prediction `json:"prediction"`
	Sources    []string   `json:"sources"`
	Timestamp  time.Time  `json:"timestamp"`
	Verifiable bool       `json:"verifiable"`
	Fallback   bool       `json:"fallback"`
}

// remoteResponse é o corpo devolvido pelo endpoint de análise.
type remoteResponse struct {
	Probability *float64 `json:"probability"`
	Confidence  *float64 `json:"confidence"`
	Reasoning   string   `json:"reasoning"`
	Sources     []string `json:"sources"`
	Verifiable  bool     `json:"verifiable"`
}

// Client chama o serviço externo de análise via resty.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Accept", "application/json")
	return &Client{http: c}
}

func (c *Client) Analyze(ctx context.Context, m MarketContext) (Analysis, error) {
	var out remoteResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(m).
		SetResult(&out).
		Post("/analyze")
	if err != nil {
		return Analysis{}, fmt.Errorf("advisory request: %w", err)
	}
	if !resp.IsSuccess() {
		return Analysis{}, fmt.Errorf("advisory http %s", resp.Status())
	}

	a := Analysis{
		MarketID: m.MarketID,
		Question: m.Question,
		Category: m.Category,
		Prediction: Prediction{
			Probability: clampPercent(out.Probability, 50),
			Confidence:  clampPercent(out.Confidence, 50),
			Reasoning:   out.Reasoning,
		},
		Sources:    out.Sources,
		Timestamp:  time.Now().UTC(),
		Verifiable: out.Verifiable,
	}
	if a.Prediction.Reasoning == "" {
		a.Prediction.Reasoning = "Analysis completed without explanation."
	}
	if len(a.Sources) == 0 {
		a.Sources = []string{"Advisory analysis", "Market data"}
	}
	return a, nil
}

func clampPercent(v *float64, def float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return def
	}
	return math.Min(100, math.Max(0, *v))
}

// Fallback usa as odds do pool como estimativa quando o serviço externo falha.
func Fallback(m MarketContext, now time.Time) Analysis {
	return Analysis{
		MarketID: m.MarketID,
		Question: m.Question,
		Category: m.Category,
		Prediction: Prediction{
			Probability: math.Round(float64(m.OddsA) / 100),
			Confidence:  40,
			Reasoning:   "Based on current market odds. Analysis temporarily unavailable, showing market consensus as probability estimate.",
		},
		Sources:   []string{"Market pool data"},
		Timestamp: now.UTC(),
		Fallback:  true,
	}
}

type Analyzer interface {
	Analyze(ctx context.Context, m MarketContext) (Analysis, error)
}

// Service junta cliente, cache e fallback. Client nil = sempre fallback.
type Service struct {
	Log    *zap.Logger
	Client Analyzer
	Cache  *Cache
}

// Analyze devolve a análise e se ela veio do cache. Fallbacks não são
// cacheados, para que a próxima chamada tente o serviço de novo.
func (s *Service) Analyze(ctx context.Context, m MarketContext) (Analysis, bool) {
	if a, ok := s.Cache.Get(m.MarketID); ok {
		return a, true
	}
	if s.Client == nil {
		return Fallback(m, time.Now()), false
	}
	a, err := s.Client.Analyze(ctx, m)
	if err != nil {
		s.Log.Warn("advisory unavailable, using pool odds", zap.String("market_id", m.MarketID), zap.Error(err))
		return Fallback(m, time.Now()), false
	}
	s.Cache.Set(m.MarketID, a)
	return a, false
}

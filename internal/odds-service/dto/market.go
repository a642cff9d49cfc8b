package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// Market é a linha projetada com as odds em bps e em percentual ("73.49").
type Market struct {
	ID                 string     `json:"id"`
	Question           string     `json:"question"`
	Category           string     `json:"category"`
	OutcomeALabel      string     `json:"outcomeALabel"`
	OutcomeBLabel      string     `json:"outcomeBLabel"`
	Creator            string     `json:"creator"`
	CreatedAt          time.Time  `json:"createdAt"`
	ResolutionDeadline time.Time  `json:"resolutionDeadline"`
	Status             string     `json:"status"`
	PoolA              string     `json:"poolA"`
	PoolB              string     `json:"poolB"`
	TotalPool          string     `json:"totalPool"`
	OddsA              uint32     `json:"oddsA"`
	OddsB              uint32     `json:"oddsB"`
	PercentA           string     `json:"percentA"`
	PercentB           string     `json:"percentB"`
	Result             string     `json:"result"`
	EvidenceRef        string     `json:"evidenceRef,omitempty"`
	Resolver           string     `json:"resolver,omitempty"`
	ResolvedAt         *time.Time `json:"resolvedAt,omitempty"`
	CreatorFeeBps      uint32     `json:"creatorFeeBps"`
	PlatformFeeBps     uint32     `json:"platformFeeBps"`
}

type Odds struct {
	MarketID string    `json:"marketId"`
	Status   string    `json:"status"`
	PoolA    string    `json:"poolA"`
	PoolB    string    `json:"poolB"`
	OddsA    uint32    `json:"oddsA"`
	OddsB    uint32    `json:"oddsB"`
	PercentA string    `json:"percentA"`
	PercentB string    `json:"percentB"`
	Cached   bool      `json:"cached"`
	Ts       time.Time `json:"ts"`
}

type Position struct {
	ID        string     `json:"id"`
	MarketID  string     `json:"marketId"`
	Bettor    string     `json:"bettor"`
	Side      string     `json:"side"`
	Amount    string     `json:"amount"`
	Timestamp time.Time  `json:"timestamp"`
	Claimed   bool       `json:"claimed"`
	ClaimedAt *time.Time `json:"claimedAt,omitempty"`
}

type Stats struct {
	TotalMarkets  int    `json:"totalMarkets"`
	ActiveMarkets int    `json:"activeMarkets"`
	TotalVolume   string `json:"totalVolume"`
}

// Percent converte basis points em percentual com duas casas: 7349 -> "73.49".
func Percent(bps uint32) string {
	return decimal.New(int64(bps), -2).StringFixed(2)
}

package events

import "time"

// Tipos de evento publicados no tópico "market_events".
const (
	MarketCreated   = "MarketCreated"
	BetPlaced       = "BetPlaced"
	MarketLocked    = "MarketLocked"
	MarketResolved  = "MarketResolved"
	MarketCancelled = "MarketCancelled"
	WinningsClaimed = "WinningsClaimed"
)

// Valores monetários trafegam como string decimal na menor unidade,
// ex: "1000000000000000000". Odds em basis points.
type Market struct {
	ID                 string     `json:"id"`
	Question           string     `json:"question"`
	Category           string     `json:"category"`
	OutcomeALabel      string     `json:"outcomeALabel"`
	OutcomeBLabel      string     `json:"outcomeBLabel"`
	Creator            string     `json:"creator"`
	CreatedAt          time.Time  `json:"createdAt"`
	ResolutionDeadline time.Time  `json:"resolutionDeadline"`
	Status             string     `json:"status"` // ACTIVE | LOCKED | RESOLVED | CANCELLED
	PoolA              string     `json:"poolA"`
	PoolB              string     `json:"poolB"`
	OddsA              uint32     `json:"oddsA"`
	OddsB              uint32     `json:"oddsB"`
	Result             string     `json:"result"` // PENDING | A | B | INVALID
	EvidenceRef        string     `json:"evidenceRef,omitempty"`
	Resolver           string     `json:"resolver,omitempty"`
	ResolvedAt         *time.Time `json:"resolvedAt,omitempty"`
	CreatorFeeBps      uint32     `json:"creatorFeeBps"`
	PlatformFeeBps     uint32     `json:"platformFeeBps"`
}

type Position struct {
	ID        string    `json:"id"`
	MarketID  string    `json:"marketId"`
	Bettor    string    `json:"bettor"`
	Side      string    `json:"side"` // A | B
	Amount    string    `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
	Claimed   bool      `json:"claimed"`
}

// Payout é a instrução de transferência gerada por um claim bem-sucedido.
type Payout struct {
	PositionID string `json:"positionId"`
	MarketID   string `json:"marketId"`
	Bettor     string `json:"bettor"`
	Kind       string `json:"kind"` // WIN | LOSS | REFUND
	Stake      string `json:"stake"`
	Fees       string `json:"fees"`
	Amount     string `json:"amount"`
}

// MarketEvent carrega sempre o snapshot do mercado após a mudança;
// Position e Payout vêm conforme o tipo.
type MarketEvent struct {
	EventID  string    `json:"eventId"`
	Type     string    `json:"type"`
	Market   Market    `json:"market"`
	Position *Position `json:"position,omitempty"`
	Payout   *Payout   `json:"payout,omitempty"`
	Ts       time.Time `json:"ts"`
}

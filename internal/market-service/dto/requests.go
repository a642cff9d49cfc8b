package dto

import (
	"time"

	"github.com/radieske/prediction-market-poc/internal/market-engine/money"
)

type CreateMarketRequest struct {
	Question           string    `json:"question"`
	Category           string    `json:"category"`
	OutcomeALabel      string    `json:"outcomeALabel"`
	OutcomeBLabel      string    `json:"outcomeBLabel"`
	Creator            string    `json:"creator"`
	ResolutionDeadline time.Time `json:"resolutionDeadline"`
	CreatorFeeBps      uint32    `json:"creatorFeeBps"`
}

type PlaceBetRequest struct {
	Bettor string      `json:"bettor"`
	Side   string      `json:"side"` // "A" | "B"
	Amount money.Money `json:"amount"`
}

// OperatorRequest serve para lock e cancel.
type OperatorRequest struct {
	Operator string `json:"operator"`
}

// ResolveRequest aceita a evidência em texto (gravada no bucket) ou uma
// referência já existente; nunca as duas.
type ResolveRequest struct {
	Resolver            string `json:"resolver"`
	Result              string `json:"result"` // "A" | "B" | "INVALID"
	Evidence            string `json:"evidence,omitempty"`
	EvidenceContentType string `json:"evidenceContentType,omitempty"`
	EvidenceRef         string `json:"evidenceRef,omitempty"`
}

type ClaimRequest struct {
	Bettor string `json:"bettor"`
}

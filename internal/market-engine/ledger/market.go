package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/radieske/prediction-market-poc/internal/market-engine/errs"
	"github.com/radieske/prediction-market-poc/internal/market-engine/money"
)

type Status uint8

const (
	StatusActive Status = iota
	StatusLocked
	StatusResolved
	StatusCancelled
)

var statusNames = [...]string{"ACTIVE", "LOCKED", "RESOLVED", "CANCELLED"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Terminal indica Resolved ou Cancelled.
func (s Status) Terminal() bool { return s == StatusResolved || s == StatusCancelled }

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	for i, n := range statusNames {
		if strings.EqualFold(string(b), n) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown market status %q", b)
}

// Outcome serve tanto para o resultado do mercado quanto para o lado de uma
// posição (que só pode ser OutcomeA ou OutcomeB).
type Outcome uint8

const (
	OutcomePending Outcome = iota
	OutcomeA
	OutcomeB
	OutcomeInvalid
)

var outcomeNames = [...]string{"PENDING", "A", "B", "INVALID"}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return fmt.Sprintf("Outcome(%d)", uint8(o))
}

// IsSide é true para os dois lados apostáveis.
func (o Outcome) IsSide() bool { return o == OutcomeA || o == OutcomeB }

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Outcome) UnmarshalText(b []byte) error {
	p, err := ParseOutcome(string(b))
	if err != nil {
		return err
	}
	*o = p
	return nil
}

// ParseOutcome aceita "A", "B", "INVALID", "PENDING" (sem diferenciar caixa).
func ParseOutcome(s string) (Outcome, error) {
	for i, n := range outcomeNames {
		if strings.EqualFold(s, n) {
			return Outcome(i), nil
		}
	}
	return OutcomePending, fmt.Errorf("%w: %q", errs.ErrInvalidOutcome, s)
}

// Market é um snapshot; o Ledger nunca entrega ponteiros para o estado interno.
type Market struct {
	ID            string `json:"id"`
	Question      string `json:"question"`
	Category      string `json:"category"`
	OutcomeALabel string `json:"outcomeALabel"`
	OutcomeBLabel string `json:"outcomeBLabel"`
	Creator       string `json:"creator"`

	CreatedAt          time.Time `json:"createdAt"`
	ResolutionDeadline time.Time `json:"resolutionDeadline"`

	Status Status      `json:"status"`
	PoolA  money.Money `json:"poolA"`
	PoolB  money.Money `json:"poolB"`

	Result                Outcome    `json:"result"`
	ResolutionEvidenceRef string     `json:"resolutionEvidenceRef,omitempty"`
	Resolver              string     `json:"resolver,omitempty"`
	ResolvedAt            *time.Time `json:"resolvedAt,omitempty"`

	CreatorFeeBps  uint32 `json:"creatorFeeBps"`
	PlatformFeeBps uint32 `json:"platformFeeBps"`
}

// TotalPool soma os dois lados. Os pools são limitados por MaxBet, então a
// soma só estoura com configuração absurda.
func (m Market) TotalPool() (money.Money, error) {
	return m.PoolA.Add(m.PoolB)
}

// Pools retorna (pool do lado, pool oposto) para o lado informado.
func (m Market) Pools(side Outcome) (sidePool, opposing money.Money) {
	if side == OutcomeA {
		return m.PoolA, m.PoolB
	}
	return m.PoolB, m.PoolA
}

// FeeBps é a taxa total aplicada sobre a parte ganha do pool oposto.
func (m Market) FeeBps() uint32 { return m.CreatorFeeBps + m.PlatformFeeBps }

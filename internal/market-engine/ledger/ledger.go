// Package ledger é o dono exclusivo dos registros de mercado: pools por lado,
// status, taxas e dados de resolução. Cada mercado tem seu próprio mutex, então
// apostas e transições num mercado são serializadas sem travar os outros.
package ledger

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/radieske/prediction-market-poc/internal/market-engine/errs"
	"github.com/radieske/prediction-market-poc/internal/market-engine/money"
)

// Config é global ao processo, lida uma vez na subida.
type Config struct {
	MinBet           money.Money
	MaxBet           money.Money
	PlatformFeeBps   uint32
	MaxCreatorFeeBps uint32
}

// NewMarket são os parâmetros de createMarket.
type NewMarket struct {
	Question           string
	Category           string
	OutcomeALabel      string
	OutcomeBLabel      string
	Creator            string
	ResolutionDeadline time.Time
	CreatorFeeBps      uint32
}

type Stats struct {
	TotalMarkets  int         `json:"totalMarkets"`
	ActiveMarkets int         `json:"activeMarkets"`
	TotalVolume   money.Money `json:"totalVolume"`
}

type entry struct {
	created time.Time // cópia imutável de m.CreatedAt, lida sem o mutex

	mu sync.Mutex
	m  Market
}

type Ledger struct {
	cfg Config

	mu      sync.RWMutex
	markets map[string]*entry
	order   []string // ordem de criação, para listagem estável
}

func New(cfg Config) *Ledger {
	return &Ledger{cfg: cfg, markets: make(map[string]*entry)}
}

func (l *Ledger) Config() Config { return l.cfg }

// Create valida os parâmetros e registra um mercado Active com pools zerados.
// A taxa da plataforma é copiada da configuração e não muda mais.
func (l *Ledger) Create(p NewMarket, now time.Time) (Market, error) {
	switch {
	case strings.TrimSpace(p.Question) == "":
		return Market{}, fmt.Errorf("%w: question is required", errs.ErrInvalidMarket)
	case strings.TrimSpace(p.OutcomeALabel) == "" || strings.TrimSpace(p.OutcomeBLabel) == "":
		return Market{}, fmt.Errorf("%w: both outcome labels are required", errs.ErrInvalidMarket)
	case p.CreatorFeeBps > l.cfg.MaxCreatorFeeBps:
		return Market{}, fmt.Errorf("%w: creator fee %d bps above max %d", errs.ErrInvalidMarket, p.CreatorFeeBps, l.cfg.MaxCreatorFeeBps)
	case !p.ResolutionDeadline.After(now):
		return Market{}, fmt.Errorf("%w: resolution deadline must be in the future", errs.ErrInvalidMarket)
	}

	m := Market{
		ID:                 uuid.NewString(),
		Question:           strings.TrimSpace(p.Question),
		Category:           NormalizeCategory(p.Category),
		OutcomeALabel:      strings.TrimSpace(p.OutcomeALabel),
		OutcomeBLabel:      strings.TrimSpace(p.OutcomeBLabel),
		Creator:            p.Creator,
		CreatedAt:          now,
		ResolutionDeadline: p.ResolutionDeadline,
		Status:             StatusActive,
		Result:             OutcomePending,
		CreatorFeeBps:      p.CreatorFeeBps,
		PlatformFeeBps:     l.cfg.PlatformFeeBps,
	}

	l.mu.Lock()
	l.markets[m.ID] = &entry{created: m.CreatedAt, m: m}
	l.order = append(l.order, m.ID)
	l.mu.Unlock()
	return m, nil
}

// RecordBet valida status, janela e limites e soma amount ao pool do lado.
// record roda dentro da seção crítica do mercado, antes da atualização do
// pool; se ele falhar o pool fica intacto. Devolve o snapshot já atualizado.
func (l *Ledger) RecordBet(id string, side Outcome, amount money.Money, now time.Time, record func(Market) error) (Market, error) {
	if !side.IsSide() {
		return Market{}, fmt.Errorf("%w: bet side must be A or B, got %s", errs.ErrInvalidOutcome, side)
	}
	e, err := l.entry(id)
	if err != nil {
		return Market{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.m.Status != StatusActive {
		return Market{}, fmt.Errorf("%w: market %s is %s", errs.ErrMarketNotActive, id, e.m.Status)
	}
	if !now.Before(e.m.ResolutionDeadline) {
		return Market{}, fmt.Errorf("%w: betting window closed at %s", errs.ErrMarketNotActive, e.m.ResolutionDeadline.Format(time.RFC3339))
	}
	if amount.IsZero() || amount.LessThan(l.cfg.MinBet) || amount.GreaterThan(l.cfg.MaxBet) {
		return Market{}, fmt.Errorf("%w: %s outside [%s, %s]", errs.ErrInvalidBetAmount, amount, l.cfg.MinBet, l.cfg.MaxBet)
	}

	next := e.m
	if side == OutcomeA {
		next.PoolA, err = e.m.PoolA.Add(amount)
	} else {
		next.PoolB, err = e.m.PoolB.Add(amount)
	}
	if err != nil {
		return Market{}, err
	}
	if record != nil {
		if err := record(next); err != nil {
			return Market{}, err
		}
	}
	e.m = next
	return next, nil
}

// Lock fecha as apostas. Só sai de Active.
func (l *Ledger) Lock(id string) (Market, error) {
	e, err := l.entry(id)
	if err != nil {
		return Market{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.m.Status != StatusActive {
		return Market{}, fmt.Errorf("%w: cannot lock market %s in %s", errs.ErrMarketNotActive, id, e.m.Status)
	}
	e.m.Status = StatusLocked
	return e.m, nil
}

// LockExpired trava todo mercado Active cujo prazo já passou e devolve os
// que mudaram de estado.
func (l *Ledger) LockExpired(now time.Time) []Market {
	var locked []Market
	for _, e := range l.entries() {
		e.mu.Lock()
		if e.m.Status == StatusActive && !now.Before(e.m.ResolutionDeadline) {
			e.m.Status = StatusLocked
			locked = append(locked, e.m)
		}
		e.mu.Unlock()
	}
	return locked
}

// Resolve grava o resultado final. Exige mercado Locked.
func (l *Ledger) Resolve(id string, result Outcome, evidenceRef, resolver string, now time.Time) (Market, error) {
	if result != OutcomeA && result != OutcomeB && result != OutcomeInvalid {
		return Market{}, fmt.Errorf("%w: cannot resolve with %s", errs.ErrInvalidOutcome, result)
	}
	e, err := l.entry(id)
	if err != nil {
		return Market{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if !CanTransition(e.m.Status, StatusResolved) {
		return Market{}, fmt.Errorf("%w: %s -> %s", errs.ErrInvalidStateTransition, e.m.Status, StatusResolved)
	}
	at := now
	e.m.Status = StatusResolved
	e.m.Result = result
	e.m.ResolutionEvidenceRef = evidenceRef
	e.m.Resolver = resolver
	e.m.ResolvedAt = &at
	return e.m, nil
}

// Cancel encerra o mercado com resultado Invalid; toda posição vira reembolso.
func (l *Ledger) Cancel(id, operator string, now time.Time) (Market, error) {
	e, err := l.entry(id)
	if err != nil {
		return Market{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if !CanTransition(e.m.Status, StatusCancelled) {
		return Market{}, fmt.Errorf("%w: %s -> %s", errs.ErrInvalidStateTransition, e.m.Status, StatusCancelled)
	}
	at := now
	e.m.Status = StatusCancelled
	e.m.Result = OutcomeInvalid
	e.m.Resolver = operator
	e.m.ResolvedAt = &at
	return e.m, nil
}

func (l *Ledger) Get(id string) (Market, error) {
	e, err := l.entry(id)
	if err != nil {
		return Market{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.m, nil
}

// List devolve os mercados em ordem de criação.
func (l *Ledger) List() []Market {
	es := l.entries()
	out := make([]Market, 0, len(es))
	for _, e := range es {
		e.mu.Lock()
		out = append(out, e.m)
		e.mu.Unlock()
	}
	return out
}

// Stats agrega totalMarkets e totalVolume (soma de todos os pools).
func (l *Ledger) Stats() (Stats, error) {
	var st Stats
	for _, m := range l.List() {
		st.TotalMarkets++
		if m.Status == StatusActive {
			st.ActiveMarkets++
		}
		total, err := m.TotalPool()
		if err != nil {
			return Stats{}, err
		}
		if st.TotalVolume, err = st.TotalVolume.Add(total); err != nil {
			return Stats{}, err
		}
	}
	return st, nil
}

// Restore recarrega um mercado persistido (boot). Rejeita snapshots que
// violam result != Pending <=> status terminal.
func (l *Ledger) Restore(m Market) error {
	if m.ID == "" {
		return fmt.Errorf("%w: restore without id", errs.ErrInvalidMarket)
	}
	if m.Status.Terminal() != (m.Result != OutcomePending) {
		return fmt.Errorf("%w: market %s has status %s with result %s", errs.ErrInvalidMarket, m.ID, m.Status, m.Result)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.markets[m.ID]; ok {
		e.mu.Lock()
		e.m = m
		e.mu.Unlock()
		return nil
	}
	l.markets[m.ID] = &entry{created: m.CreatedAt, m: m}
	l.order = append(l.order, m.ID)
	// mantém ordem de criação mesmo com restore fora de ordem
	sort.SliceStable(l.order, func(i, j int) bool {
		return l.markets[l.order[i]].created.Before(l.markets[l.order[j]].created)
	})
	return nil
}

func (l *Ledger) entry(id string) (*entry, error) {
	l.mu.RLock()
	e, ok := l.markets[id]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", errs.ErrMarketNotFound, id)
	}
	return e, nil
}

func (l *Ledger) entries() []*entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*entry, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.markets[id])
	}
	return out
}

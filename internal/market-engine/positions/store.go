package positions

import (
	"fmt"
	"sync"
	"time"

	"github.com/radieske/prediction-market-poc/internal/market-engine/errs"
	"github.com/radieske/prediction-market-poc/internal/market-engine/ledger"
	"github.com/radieske/prediction-market-poc/internal/market-engine/money"
)

// Position é a aposta de um bettor num lado de um mercado. Amount nunca muda;
// Claimed vira true uma única vez.
type Position struct {
	ID        string         `json:"id"`
	MarketID  string         `json:"marketId"`
	Bettor    string         `json:"bettor"`
	Side      ledger.Outcome `json:"side"`
	Amount    money.Money    `json:"amount"`
	Timestamp time.Time      `json:"timestamp"`
	Claimed   bool           `json:"claimed"`
}

// Store guarda as posições em memória com índices por mercado e por bettor.
type Store struct {
	mu       sync.RWMutex
	byID     map[string]*Position
	byMarket map[string][]string
	byBettor map[string][]string
}

func NewStore() *Store {
	return &Store{
		byID:     make(map[string]*Position),
		byMarket: make(map[string][]string),
		byBettor: make(map[string][]string),
	}
}

func (s *Store) Insert(p Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[p.ID]; ok {
		return fmt.Errorf("position %s already exists", p.ID)
	}
	s.put(p)
	return nil
}

func (s *Store) Get(id string) (Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return Position{}, fmt.Errorf("%w: %s", errs.ErrPositionNotFound, id)
	}
	return *p, nil
}

func (s *Store) ByMarket(marketID string) []Position {
	return s.collect(func() []string { return s.byMarket[marketID] })
}

func (s *Store) ByBettor(bettor string) []Position {
	return s.collect(func() []string { return s.byBettor[bettor] })
}

// MarkClaimed é o check-and-set atômico do claim: só uma chamada por posição
// vence, as demais recebem ErrAlreadyClaimed.
func (s *Store) MarkClaimed(id string) (Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return Position{}, fmt.Errorf("%w: %s", errs.ErrPositionNotFound, id)
	}
	if p.Claimed {
		return Position{}, fmt.Errorf("%w: %s", errs.ErrAlreadyClaimed, id)
	}
	p.Claimed = true
	return *p, nil
}

// Restore recarrega uma posição persistida, sobrescrevendo se já existir.
func (s *Store) Restore(p Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.byID[p.ID]; ok {
		*cur = p
		return
	}
	s.put(p)
}

func (s *Store) put(p Position) {
	cp := p
	s.byID[p.ID] = &cp
	s.byMarket[p.MarketID] = append(s.byMarket[p.MarketID], p.ID)
	s.byBettor[p.Bettor] = append(s.byBettor[p.Bettor], p.ID)
}

func (s *Store) collect(ids func() []string) []Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := ids()
	out := make([]Position, 0, len(list))
	for _, id := range list {
		out = append(out, *s.byID[id])
	}
	return out
}

// Package settlement é a fachada do motor: cria mercados, abre posições,
// conduz a máquina de estados e executa claims. Toda regra financeira mora
// em ledger, positions, odds e payout; aqui só se orquestra, autoriza,
// registra e publica.
package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/internal/market-engine/errs"
	"github.com/radieske/prediction-market-poc/internal/market-engine/ledger"
	"github.com/radieske/prediction-market-poc/internal/market-engine/money"
	"github.com/radieske/prediction-market-poc/internal/market-engine/odds"
	"github.com/radieske/prediction-market-poc/internal/market-engine/payout"
	"github.com/radieske/prediction-market-poc/internal/market-engine/positions"
	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

// Publisher recebe os eventos de cada mudança de estado. Falha de publicação
// não desfaz a operação; só é logada.
type Publisher interface {
	Publish(ctx context.Context, ev events.MarketEvent) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, events.MarketEvent) error { return nil }

type allowAll struct{}

func (allowAll) CanResolve(id string) bool { return id != "" }
func (allowAll) CanOperate(id string) bool { return id != "" }

type Option func(*Engine)

func WithPublisher(p Publisher) Option   { return func(e *Engine) { e.pub = p } }
func WithAuthorizer(a Authorizer) Option { return func(e *Engine) { e.auth = a } }
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

type Engine struct {
	ledger *ledger.Ledger
	store  *positions.Store
	auth   Authorizer
	pub    Publisher
	log    *zap.Logger
	now    func() time.Time
}

func New(l *ledger.Ledger, s *positions.Store, log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		ledger: l,
		store:  s,
		auth:   allowAll{},
		pub:    nopPublisher{},
		log:    log,
		now:    time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// ClaimResult é o que o chamador precisa para transferir os fundos.
type ClaimResult struct {
	Position positions.Position `json:"position"`
	Market   ledger.Market      `json:"-"`
	Kind     payout.Kind        `json:"kind"`
	Payout   payout.Breakdown   `json:"payout"`
}

func (e *Engine) CreateMarket(ctx context.Context, p ledger.NewMarket) (ledger.Market, error) {
	m, err := e.ledger.Create(p, e.now().UTC())
	if err != nil {
		e.reject("create market", err, zap.String("creator", p.Creator))
		return ledger.Market{}, err
	}
	e.log.Info("market created",
		zap.String("market_id", m.ID),
		zap.String("category", m.Category),
		zap.Time("deadline", m.ResolutionDeadline),
		zap.Uint32("creator_fee_bps", m.CreatorFeeBps),
	)
	e.publish(ctx, events.MarketCreated, m, nil, nil)
	return m, nil
}

// PlaceBet abre uma posição: o ledger valida e atualiza o pool, e a posição é
// gravada dentro da mesma seção crítica.
func (e *Engine) PlaceBet(ctx context.Context, marketID, bettor string, side ledger.Outcome, amount money.Money) (positions.Position, ledger.Market, error) {
	if bettor == "" {
		return positions.Position{}, ledger.Market{}, fmt.Errorf("%w: bettor identity required", errs.ErrUnauthorized)
	}
	now := e.now().UTC()
	pos := positions.Position{
		ID:        uuid.NewString(),
		MarketID:  marketID,
		Bettor:    bettor,
		Side:      side,
		Amount:    amount,
		Timestamp: now,
	}
	m, err := e.ledger.RecordBet(marketID, side, amount, now, func(ledger.Market) error {
		return e.store.Insert(pos)
	})
	if err != nil {
		e.reject("place bet", err, zap.String("market_id", marketID), zap.String("bettor", bettor), zap.Stringer("amount", amount))
		return positions.Position{}, ledger.Market{}, err
	}
	e.log.Info("bet placed",
		zap.String("market_id", marketID),
		zap.String("position_id", pos.ID),
		zap.Stringer("side", side),
		zap.Stringer("amount", amount),
	)
	e.publish(ctx, events.BetPlaced, m, &pos, nil)
	return pos, m, nil
}

// Lock fecha as apostas a pedido de um operador.
func (e *Engine) Lock(ctx context.Context, marketID, operator string) (ledger.Market, error) {
	if !e.auth.CanOperate(operator) {
		err := fmt.Errorf("%w: %q cannot lock markets", errs.ErrUnauthorized, operator)
		e.reject("lock", err, zap.String("market_id", marketID))
		return ledger.Market{}, err
	}
	m, err := e.ledger.Lock(marketID)
	if err != nil {
		e.reject("lock", err, zap.String("market_id", marketID))
		return ledger.Market{}, err
	}
	e.log.Info("market locked", zap.String("market_id", m.ID), zap.String("operator", operator))
	e.publish(ctx, events.MarketLocked, m, nil, nil)
	return m, nil
}

// LockExpired é chamado pelo agendador externo: trava todo mercado com prazo
// vencido.
func (e *Engine) LockExpired(ctx context.Context) []ledger.Market {
	locked := e.ledger.LockExpired(e.now().UTC())
	for _, m := range locked {
		e.log.Info("market locked at deadline", zap.String("market_id", m.ID), zap.Time("deadline", m.ResolutionDeadline))
		e.publish(ctx, events.MarketLocked, m, nil, nil)
	}
	return locked
}

func (e *Engine) Resolve(ctx context.Context, marketID string, result ledger.Outcome, evidenceRef, resolver string) (ledger.Market, error) {
	if !e.auth.CanResolve(resolver) {
		err := fmt.Errorf("%w: %q cannot resolve markets", errs.ErrUnauthorized, resolver)
		e.reject("resolve", err, zap.String("market_id", marketID))
		return ledger.Market{}, err
	}
	m, err := e.ledger.Resolve(marketID, result, evidenceRef, resolver, e.now().UTC())
	if err != nil {
		e.reject("resolve", err, zap.String("market_id", marketID), zap.Stringer("result", result))
		return ledger.Market{}, err
	}
	e.log.Info("market resolved",
		zap.String("market_id", m.ID),
		zap.Stringer("result", m.Result),
		zap.String("resolver", resolver),
		zap.String("evidence_ref", evidenceRef),
	)
	e.publish(ctx, events.MarketResolved, m, nil, nil)
	return m, nil
}

func (e *Engine) Cancel(ctx context.Context, marketID, operator string) (ledger.Market, error) {
	if !e.auth.CanOperate(operator) {
		err := fmt.Errorf("%w: %q cannot cancel markets", errs.ErrUnauthorized, operator)
		e.reject("cancel", err, zap.String("market_id", marketID))
		return ledger.Market{}, err
	}
	m, err := e.ledger.Cancel(marketID, operator, e.now().UTC())
	if err != nil {
		e.reject("cancel", err, zap.String("market_id", marketID))
		return ledger.Market{}, err
	}
	e.log.Info("market cancelled", zap.String("market_id", m.ID), zap.String("operator", operator))
	e.publish(ctx, events.MarketCancelled, m, nil, nil)
	return m, nil
}

// Claim converte uma posição em pagamento, no máximo uma vez. O valor é
// calculado antes de marcar a posição, então uma falha deixa claimed intacto.
func (e *Engine) Claim(ctx context.Context, positionID, bettor string) (ClaimResult, error) {
	res, err := e.claim(positionID, bettor)
	if err != nil {
		e.reject("claim", err, zap.String("position_id", positionID), zap.String("bettor", bettor))
		return ClaimResult{}, err
	}
	e.log.Info("position claimed",
		zap.String("position_id", positionID),
		zap.String("market_id", res.Market.ID),
		zap.String("kind", string(res.Kind)),
		zap.Stringer("payout", res.Payout.Total),
	)
	e.publish(ctx, events.WinningsClaimed, res.Market, &res.Position, toContractPayout(res.Position, res.Payout, res.Kind))
	return res, nil
}

func (e *Engine) claim(positionID, bettor string) (ClaimResult, error) {
	p, err := e.store.Get(positionID)
	if err != nil {
		return ClaimResult{}, err
	}
	if p.Bettor != bettor {
		return ClaimResult{}, fmt.Errorf("%w: position %s does not belong to %q", errs.ErrUnauthorized, positionID, bettor)
	}
	if p.Claimed {
		return ClaimResult{}, fmt.Errorf("%w: %s", errs.ErrAlreadyClaimed, positionID)
	}
	m, err := e.ledger.Get(p.MarketID)
	if err != nil {
		return ClaimResult{}, err
	}
	// mercado terminal é imutável, então o cálculo não corre contra apostas
	b, kind, err := payout.Final(m, p.Side, p.Amount)
	if err != nil {
		return ClaimResult{}, err
	}
	claimed, err := e.store.MarkClaimed(positionID)
	if err != nil {
		return ClaimResult{}, err
	}
	return ClaimResult{Position: claimed, Market: m, Kind: kind, Payout: b}, nil
}

// PreviewPayout estima o ganho de uma aposta ainda não feita.
func (e *Engine) PreviewPayout(marketID string, side ledger.Outcome, amount money.Money) (payout.Breakdown, error) {
	m, err := e.ledger.Get(marketID)
	if err != nil {
		return payout.Breakdown{}, err
	}
	return payout.Preview(amount, side, m)
}

// ClaimablePayout é a consulta sem efeito colateral do que um claim pagaria.
func (e *Engine) ClaimablePayout(positionID string) (payout.Breakdown, payout.Kind, error) {
	p, err := e.store.Get(positionID)
	if err != nil {
		return payout.Breakdown{}, "", err
	}
	if p.Claimed {
		return payout.Breakdown{}, "", fmt.Errorf("%w: %s", errs.ErrAlreadyClaimed, positionID)
	}
	m, err := e.ledger.Get(p.MarketID)
	if err != nil {
		return payout.Breakdown{}, "", err
	}
	return payout.Final(m, p.Side, p.Amount)
}

func (e *Engine) Odds(marketID string) (odds.Odds, error) {
	m, err := e.ledger.Get(marketID)
	if err != nil {
		return odds.Odds{}, err
	}
	return odds.Implied(m.PoolA, m.PoolB), nil
}

func (e *Engine) Market(id string) (ledger.Market, error) { return e.ledger.Get(id) }

func (e *Engine) Markets() []ledger.Market { return e.ledger.List() }

func (e *Engine) Position(id string) (positions.Position, error) { return e.store.Get(id) }

func (e *Engine) MarketPositions(marketID string) ([]positions.Position, error) {
	if _, err := e.ledger.Get(marketID); err != nil {
		return nil, err
	}
	return e.store.ByMarket(marketID), nil
}

func (e *Engine) BettorPositions(bettor string) []positions.Position {
	return e.store.ByBettor(bettor)
}

func (e *Engine) Stats() (ledger.Stats, error) { return e.ledger.Stats() }

// Restore recarrega o estado persistido antes de aceitar tráfego.
func (e *Engine) Restore(markets []ledger.Market, ps []positions.Position) error {
	for _, m := range markets {
		if err := e.ledger.Restore(m); err != nil {
			return fmt.Errorf("restore market %s: %w", m.ID, err)
		}
	}
	for _, p := range ps {
		if _, err := e.ledger.Get(p.MarketID); err != nil {
			return fmt.Errorf("restore position %s: %w", p.ID, err)
		}
		e.store.Restore(p)
	}
	e.log.Info("state restored", zap.Int("markets", len(markets)), zap.Int("positions", len(ps)))
	return nil
}

func (e *Engine) reject(op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("op", op), zap.String("code", errs.Code(err)), zap.Error(err))
	if errs.IsFatal(err) {
		e.log.Error("arithmetic invariant violated", fields...)
		return
	}
	e.log.Debug("operation rejected", fields...)
}

func (e *Engine) publish(ctx context.Context, typ string, m ledger.Market, p *positions.Position, po *events.Payout) {
	ev := events.MarketEvent{
		EventID: uuid.NewString(),
		Type:    typ,
		Market:  ToContractMarket(m),
		Payout:  po,
		Ts:      e.now().UTC(),
	}
	if p != nil {
		ev.Position = ToContractPosition(*p)
	}
	if err := e.pub.Publish(ctx, ev); err != nil {
		e.log.Warn("publish market event failed",
			zap.String("type", typ),
			zap.String("market_id", m.ID),
			zap.Error(err),
		)
	}
}

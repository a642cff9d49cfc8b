package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/internal/market-projector/pubsub"
	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

// fakeReader entrega as mensagens em ordem e cancela o contexto no fim.
type fakeReader struct {
	msgs      []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

type fakeWriter struct{ msgs []kafka.Message }

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

type fakeRepo struct {
	failures  int // falhas antes de aceitar
	calls     int
	markets   []events.Market
	positions []events.Position
}

func (r *fakeRepo) UpsertMarket(_ context.Context, m events.Market) (events.OddsSnapshot, error) {
	r.calls++
	if r.failures > 0 {
		r.failures--
		return events.OddsSnapshot{}, errors.New("connection reset")
	}
	r.markets = append(r.markets, m)
	return events.OddsSnapshot{MarketID: m.ID, Status: m.Status, PoolA: m.PoolA, PoolB: m.PoolB, OddsA: m.OddsA, OddsB: m.OddsB}, nil
}

func (r *fakeRepo) UpsertPosition(_ context.Context, p events.Position, _ time.Time) error {
	r.positions = append(r.positions, p)
	return nil
}

type fakeCache struct{ snaps []events.OddsSnapshot }

func (c *fakeCache) SetOdds(_ context.Context, s events.OddsSnapshot) error {
	c.snaps = append(c.snaps, s)
	return nil
}

type fakeBroadcaster struct {
	channel string
	updates []pubsub.WSUpdate
}

func (b *fakeBroadcaster) Publish(_ context.Context, channel string, payload []byte) error {
	b.channel = channel
	var u pubsub.WSUpdate
	if err := json.Unmarshal(payload, &u); err != nil {
		return err
	}
	b.updates = append(b.updates, u)
	return nil
}

func betPlaced(t *testing.T, offset int64) kafka.Message {
	t.Helper()
	ev := events.MarketEvent{
		EventID: "ev-1",
		Type:    events.BetPlaced,
		Market:  events.Market{ID: "m1", Status: "ACTIVE", PoolA: "30", PoolB: "10", OddsA: 7500, OddsB: 2500},
		Position: &events.Position{
			ID: "p1", MarketID: "m1", Bettor: "alice", Side: "A", Amount: "30",
		},
		Ts: time.Now().UTC(),
	}
	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	return kafka.Message{Key: []byte("m1"), Value: b, Offset: offset}
}

type harness struct {
	proc   *Processor
	reader *fakeReader
	repo   *fakeRepo
	cache  *fakeCache
	bc     *fakeBroadcaster
	dlq    *fakeWriter
	stages []string
}

func newHarness(msgs ...kafka.Message) (*harness, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{
		reader: &fakeReader{msgs: msgs, cancel: cancel},
		repo:   &fakeRepo{},
		cache:  &fakeCache{},
		bc:     &fakeBroadcaster{},
		dlq:    &fakeWriter{},
	}
	h.proc = &Processor{
		Log:         zap.NewNop(),
		Reader:      h.reader,
		Repo:        h.repo,
		Cache:       h.cache,
		Broadcaster: h.bc,
		Channel:     "market_odds_broadcast",
		DLQ:         h.dlq,
		OnError:     func(stage string) { h.stages = append(h.stages, stage) },
	}
	return h, ctx
}

func TestProcessorProjectsEvent(t *testing.T) {
	h, ctx := newHarness(betPlaced(t, 7))
	if err := h.proc.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v", err)
	}

	if len(h.repo.markets) != 1 || len(h.repo.positions) != 1 {
		t.Fatalf("repo = %+v", h.repo)
	}
	if len(h.cache.snaps) != 1 || h.cache.snaps[0].OddsA != 7500 {
		t.Errorf("cache = %+v", h.cache.snaps)
	}
	if h.bc.channel != "market_odds_broadcast" || len(h.bc.updates) != 1 || h.bc.updates[0].MarketID != "m1" || h.bc.updates[0].Type != events.BetPlaced {
		t.Errorf("broadcast = %+v", h.bc)
	}
	if len(h.reader.committed) != 1 || h.reader.committed[0] != 7 {
		t.Errorf("committed = %v", h.reader.committed)
	}
	if len(h.dlq.msgs) != 0 {
		t.Errorf("unexpected dlq: %d", len(h.dlq.msgs))
	}
}

func TestProcessorRetriesThenSucceeds(t *testing.T) {
	h, ctx := newHarness(betPlaced(t, 1))
	h.repo.failures = 2
	_ = h.proc.Run(ctx)

	if h.repo.calls != 3 || len(h.repo.markets) != 1 {
		t.Errorf("calls = %d, markets = %d", h.repo.calls, len(h.repo.markets))
	}
	if len(h.dlq.msgs) != 0 {
		t.Error("message dead-lettered after successful retry")
	}
}

func TestProcessorDeadLetters(t *testing.T) {
	garbage := kafka.Message{Key: []byte("m1"), Value: []byte("{not json"), Offset: 1}
	h, ctx := newHarness(garbage, betPlaced(t, 2))
	h.repo.failures = 100
	_ = h.proc.Run(ctx)

	if len(h.dlq.msgs) != 2 {
		t.Fatalf("dlq = %d messages, want 2", len(h.dlq.msgs))
	}
	if string(h.dlq.msgs[0].Value) != "{not json" {
		t.Errorf("dlq payload = %q", h.dlq.msgs[0].Value)
	}
	// 1 tentativa + 3 retries
	if h.repo.calls != 4 {
		t.Errorf("repo calls = %d, want 4", h.repo.calls)
	}
	if len(h.reader.committed) != 2 {
		t.Errorf("committed = %v, want both offsets", h.reader.committed)
	}
	if len(h.cache.snaps) != 0 || len(h.bc.updates) != 0 {
		t.Error("cache/broadcast touched for a failed projection")
	}
	want := map[string]bool{"decode": true, "db": true}
	for _, s := range h.stages {
		delete(want, s)
	}
	if len(want) != 0 {
		t.Errorf("missing error stages %v in %v", want, h.stages)
	}
}

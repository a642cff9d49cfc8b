package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

type fakeReader struct {
	msgs      []kafka.Message
	committed int
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
	r.committed += len(msgs)
	return nil
}

type fakeWriter struct{ msgs []kafka.Message }

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

// fakeStore imita o ON CONFLICT DO NOTHING por position_id.
type fakeStore struct {
	rows  map[string]events.Payout
	fail  int
	calls int
}

func (s *fakeStore) InsertPayout(_ context.Context, _ string, p events.Payout) (bool, error) {
	s.calls++
	if s.fail > 0 {
		s.fail--
		return false, errors.New("deadlock detected")
	}
	if _, ok := s.rows[p.PositionID]; ok {
		return false, nil
	}
	s.rows[p.PositionID] = p
	return true, nil
}

func msg(t *testing.T, ev events.MarketEvent) kafka.Message {
	t.Helper()
	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	return kafka.Message{Key: []byte(ev.Market.ID), Value: b}
}

func claimed(positionID, kind, amount string) events.MarketEvent {
	return events.MarketEvent{
		EventID: "ev-" + positionID,
		Type:    events.WinningsClaimed,
		Market:  events.Market{ID: "m1"},
		Payout:  &events.Payout{PositionID: positionID, MarketID: "m1", Bettor: "alice", Kind: kind, Amount: amount},
	}
}

func run(t *testing.T, store *fakeStore, msgs ...kafka.Message) (*fakeReader, *fakeWriter, []string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	r := &fakeReader{msgs: msgs, cancel: cancel}
	dlq := &fakeWriter{}
	var kinds []string
	w := &Worker{
		Log:        zap.NewNop(),
		Reader:     r,
		Store:      store,
		DLQ:        dlq,
		OnRecorded: func(kind string) { kinds = append(kinds, kind) },
	}
	if err := w.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v", err)
	}
	return r, dlq, kinds
}

func TestWorkerRecordsPayoutsOnce(t *testing.T) {
	store := &fakeStore{rows: map[string]events.Payout{}}
	r, dlq, kinds := run(t, store,
		msg(t, claimed("p1", "WIN", "198")),
		msg(t, claimed("p1", "WIN", "198")), // reentrega
		msg(t, claimed("p2", "REFUND", "50")),
		msg(t, claimed("p3", "LOSS", "0")),
		msg(t, events.MarketEvent{Type: events.BetPlaced, Market: events.Market{ID: "m1"}}),
	)

	if len(store.rows) != 2 {
		t.Errorf("rows = %d, want 2", len(store.rows))
	}
	if _, ok := store.rows["p3"]; ok {
		t.Error("loss recorded as payout")
	}
	if len(kinds) != 2 || kinds[0] != "WIN" || kinds[1] != "REFUND" {
		t.Errorf("recorded kinds = %v", kinds)
	}
	if r.committed != 5 || len(dlq.msgs) != 0 {
		t.Errorf("committed = %d, dlq = %d", r.committed, len(dlq.msgs))
	}
}

func TestWorkerRetriesThenDeadLetters(t *testing.T) {
	store := &fakeStore{rows: map[string]events.Payout{}, fail: 100}
	r, dlq, _ := run(t, store, msg(t, claimed("p1", "WIN", "10")), kafka.Message{Value: []byte("nope")})

	if store.calls != 1+retries {
		t.Errorf("calls = %d, want %d", store.calls, 1+retries)
	}
	if len(dlq.msgs) != 2 || r.committed != 2 {
		t.Errorf("dlq = %d, committed = %d", len(dlq.msgs), r.committed)
	}
}

func TestWorkerRecoversWithinRetries(t *testing.T) {
	store := &fakeStore{rows: map[string]events.Payout{}, fail: retries}
	_, dlq, kinds := run(t, store, msg(t, claimed("p1", "WIN", "10")))
	if len(kinds) != 1 || len(dlq.msgs) != 0 {
		t.Errorf("kinds = %v, dlq = %d", kinds, len(dlq.msgs))
	}
}

package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Store interface {
	InsertPayout(ctx context.Context, eventID string, p events.Payout) (bool, error)
}

// Worker transforma eventos WinningsClaimed em instruções de pagamento.
// Perdas (valor zero) não geram linha.
type Worker struct {
	Log    *zap.Logger
	Reader Reader
	Store  Store
	DLQ    Writer

	Backoff time.Duration

	OnRecorded  func(kind string)
	OnDuplicate func()
	OnDLQ       func()
	OnError     func(stage string)
}

const retries = 3

func (w *Worker) Run(ctx context.Context) error {
	for {
		msg, err := w.Reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.Log.Warn("kafka read", zap.Error(err))
			w.fail("read")
			time.Sleep(time.Second)
			continue
		}

		var ev events.MarketEvent
		if jerr := json.Unmarshal(msg.Value, &ev); jerr != nil {
			w.Log.Error("unmarshal market event", zap.Error(jerr))
			w.fail("decode")
			w.deadLetter(ctx, msg.Key, msg.Value)
		} else if err := w.processOne(ctx, &ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.Log.Error("record payout", zap.String("eventId", ev.EventID), zap.Error(err))
			w.fail("db")
			w.deadLetter(ctx, msg.Key, msg.Value)
		}

		if err := w.Reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			w.Log.Warn("kafka commit", zap.Error(err))
			w.fail("commit")
		}
	}
}

// processOne grava o pagamento com até 3 novas tentativas.
func (w *Worker) processOne(ctx context.Context, ev *events.MarketEvent) error {
	if ev.Type != events.WinningsClaimed || ev.Payout == nil {
		return nil
	}
	if ev.Payout.Amount == "0" || ev.Payout.Amount == "" {
		w.Log.Debug("zero payout skipped", zap.String("positionId", ev.Payout.PositionID))
		return nil
	}

	inserted, err := w.Store.InsertPayout(ctx, ev.EventID, *ev.Payout)
	for i := 0; err != nil && i < retries; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.Backoff * time.Duration(i+1)):
		}
		inserted, err = w.Store.InsertPayout(ctx, ev.EventID, *ev.Payout)
	}
	if err != nil {
		return err
	}

	if !inserted {
		w.Log.Info("payout already recorded", zap.String("positionId", ev.Payout.PositionID))
		if w.OnDuplicate != nil {
			w.OnDuplicate()
		}
		return nil
	}
	w.Log.Info("payout recorded",
		zap.String("positionId", ev.Payout.PositionID),
		zap.String("bettor", ev.Payout.Bettor),
		zap.String("kind", ev.Payout.Kind),
		zap.String("amount", ev.Payout.Amount),
	)
	if w.OnRecorded != nil {
		w.OnRecorded(ev.Payout.Kind)
	}
	return nil
}

func (w *Worker) deadLetter(ctx context.Context, key, value []byte) {
	if w.DLQ == nil {
		return
	}
	if err := w.DLQ.WriteMessages(ctx, kafka.Message{Key: key, Value: value, Time: time.Now()}); err != nil {
		w.Log.Error("dlq write", zap.Error(err))
		w.fail("dlq")
		return
	}
	if w.OnDLQ != nil {
		w.OnDLQ()
	}
}

func (w *Worker) fail(stage string) {
	if w.OnError != nil {
		w.OnError(stage)
	}
}

package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/internal/market-projector/pubsub"
	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Repository interface {
	UpsertMarket(ctx context.Context, m events.Market) (events.OddsSnapshot, error)
	UpsertPosition(ctx context.Context, p events.Position, at time.Time) error
}

type Cache interface {
	SetOdds(ctx context.Context, s events.OddsSnapshot) error
}

type Broadcaster interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Processor consome market_events, projeta no Postgres, atualiza o cache de
// odds e avisa o odds-service via Redis Pub/Sub.
type Processor struct {
	Log         *zap.Logger
	Reader      Reader
	Repo        Repository
	Cache       Cache
	Broadcaster Broadcaster
	Channel     string
	DLQ         Writer // nil = descarta após os retries

	Retries int           // default 3
	Backoff time.Duration // multiplicado pela tentativa

	OnConsumed func()
	OnPersist  func()
	OnCached   func()
	OnDLQ      func()
	OnError    func(stage string)
}

// Run bloqueia até ctx ser cancelado. O offset só é commitado depois que a
// mensagem foi projetada ou enviada para a DLQ.
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		if err := p.process(ctx, m); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.deadLetter(ctx, m, err)
		}

		if err := p.Reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka commit failed", zap.Error(err), zap.Int64("offset", m.Offset))
			p.fail("commit")
		}
	}
}

var errDecode = errors.New("decode")

func (p *Processor) process(ctx context.Context, m kafka.Message) error {
	var ev events.MarketEvent
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		p.fail("decode")
		return fmt.Errorf("%w: %v", errDecode, err)
	}

	var snap events.OddsSnapshot
	err := p.retry(ctx, func() error {
		var err error
		if snap, err = p.Repo.UpsertMarket(ctx, ev.Market); err != nil {
			return err
		}
		if ev.Position != nil {
			return p.Repo.UpsertPosition(ctx, *ev.Position, ev.Ts)
		}
		return nil
	})
	if err != nil {
		p.fail("db")
		return err
	}
	if p.OnPersist != nil {
		p.OnPersist()
	}

	// cache e broadcast não bloqueiam a projeção
	if err := p.Cache.SetOdds(ctx, snap); err != nil {
		p.Log.Warn("redis set failed", zap.String("market_id", snap.MarketID), zap.Error(err))
		p.fail("cache")
	} else if p.OnCached != nil {
		p.OnCached()
	}
	p.broadcast(ev.Type, snap)
	return nil
}

func (p *Processor) broadcast(typ string, snap events.OddsSnapshot) {
	b, _ := json.Marshal(pubsub.WSUpdate{MarketID: snap.MarketID, Type: typ, Payload: snap})

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := p.Broadcaster.Publish(ctx, p.Channel, b); err != nil {
		p.Log.Warn("ws broadcast publish failed", zap.Error(err))
		p.fail("broadcast")
	}
}

func (p *Processor) retry(ctx context.Context, fn func() error) error {
	retries := p.Retries
	if retries <= 0 {
		retries = 3
	}
	err := fn()
	for i := 0; err != nil && i < retries; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Backoff * time.Duration(i+1)):
		}
		err = fn()
	}
	return err
}

func (p *Processor) deadLetter(ctx context.Context, m kafka.Message, cause error) {
	p.Log.Error("projection failed, sending to dlq",
		zap.Int("partition", m.Partition),
		zap.Int64("offset", m.Offset),
		zap.ByteString("key", m.Key),
		zap.Error(cause),
	)
	if p.DLQ == nil {
		return
	}
	msg := kafka.Message{
		Key:   m.Key,
		Value: m.Value,
		Headers: append(m.Headers,
			kafka.Header{Key: "error", Value: []byte(cause.Error())},
			kafka.Header{Key: "source_offset", Value: []byte(fmt.Sprint(m.Offset))},
		),
		Time: time.Now(),
	}
	if err := p.DLQ.WriteMessages(ctx, msg); err != nil {
		p.Log.Error("dlq write failed", zap.Error(err))
		p.fail("dlq")
		return
	}
	if p.OnDLQ != nil {
		p.OnDLQ()
	}
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}

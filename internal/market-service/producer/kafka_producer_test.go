package producer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

type captureWriter struct{ msgs []kafka.Message }

func (c *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	c.msgs = append(c.msgs, msgs...)
	return nil
}

func TestPublishKeysByMarket(t *testing.T) {
	w := &captureWriter{}
	p := &KafkaPublisher{Writer: w, Topic: "market_events"}

	ev := events.MarketEvent{
		EventID: "e1",
		Type:    events.BetPlaced,
		Market:  events.Market{ID: "m1", PoolA: "100", PoolB: "0", OddsA: 10000},
		Position: &events.Position{
			ID: "p1", MarketID: "m1", Bettor: "alice", Side: "A", Amount: "100",
		},
		Ts: time.Unix(1700000000, 0).UTC(),
	}
	if err := p.Publish(context.Background(), ev); err != nil {
		t.Fatal(err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("messages = %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "m1" {
		t.Errorf("key = %s", msg.Key)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != events.BetPlaced {
		t.Errorf("headers = %+v", msg.Headers)
	}

	var got events.MarketEvent
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatal(err)
	}
	if got.Position == nil || got.Position.Amount != "100" || got.Market.OddsA != 10000 {
		t.Errorf("decoded = %+v", got)
	}
}

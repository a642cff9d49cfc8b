package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/internal/market-engine/ledger"
)

type countingLocker struct{ calls int32 }

func (c *countingLocker) LockExpired(context.Context) []ledger.Market {
	if atomic.AddInt32(&c.calls, 1) == 1 {
		return []ledger.Market{{ID: "m1"}, {ID: "m2"}}
	}
	return nil
}

func TestSweeperLocksOnStartAndStops(t *testing.T) {
	locker := &countingLocker{}
	var locked int32
	s := &LockSweeper{
		Log:      zap.NewNop(),
		Engine:   locker,
		Interval: 5 * time.Millisecond,
		OnLocked: func(n int) { atomic.AddInt32(&locked, int32(n)) },
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&locker.calls) < 3 {
		select {
		case <-deadline:
			t.Fatal("sweeper did not tick")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
	if atomic.LoadInt32(&locked) != 2 {
		t.Errorf("locked = %d, want 2", locked)
	}
}

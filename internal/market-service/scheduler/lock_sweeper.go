package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/internal/market-engine/ledger"
)

// Locker é a parte do motor usada pelo sweeper.
type Locker interface {
	LockExpired(ctx context.Context) []ledger.Market
}

// LockSweeper fecha periodicamente as apostas de mercados com prazo vencido.
// O motor não roda timers; quem dispara o Active -> Locked é este loop.
type LockSweeper struct {
	Log      *zap.Logger
	Engine   Locker
	Interval time.Duration
	OnLocked func(n int) // métricas
}

// Run bloqueia até ctx ser cancelado. Faz uma varredura imediata na subida.
func (s *LockSweeper) Run(ctx context.Context) error {
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			s.sweep(ctx)
		}
	}
}

func (s *LockSweeper) sweep(ctx context.Context) {
	locked := s.Engine.LockExpired(ctx)
	if len(locked) == 0 {
		return
	}
	s.Log.Info("lock sweep", zap.Int("locked", len(locked)))
	if s.OnLocked != nil {
		s.OnLocked(len(locked))
	}
}

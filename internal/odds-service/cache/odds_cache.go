package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	sharedcache "github.com/radieske/prediction-market-poc/internal/shared/cache"
	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

// Cache lê o snapshot de odds gravado pelo projector e regrava o que veio do
// banco quando a chave expirou.
type Cache struct{ R *redis.Client }

func New(r *redis.Client) *Cache { return &Cache{R: r} }

func (c *Cache) GetOdds(ctx context.Context, marketID string) (events.OddsSnapshot, bool, error) {
	b, err := c.R.Get(ctx, sharedcache.OddsKey(marketID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return events.OddsSnapshot{}, false, nil
	}
	if err != nil {
		return events.OddsSnapshot{}, false, err
	}
	var s events.OddsSnapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return events.OddsSnapshot{}, false, err
	}
	return s, true, nil
}

// SetOddsNX não sobrescreve: o projector é o dono da chave.
func (c *Cache) SetOddsNX(ctx context.Context, s events.OddsSnapshot, ttl time.Duration) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.R.SetNX(ctx, sharedcache.OddsKey(s.MarketID), b, ttl).Err()
}

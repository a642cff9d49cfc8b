package leaderboard

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

const (
	SortVolume   = "volume"
	SortAccuracy = "accuracy"

	// MinTradesForAccuracy evita que uma aposta certeira lidere o ranking.
	MinTradesForAccuracy = 5
)

var ErrUnknownSort = errors.New("unknown leaderboard sort")

// Row é o agregado por apostador lido da projeção. Valores em string decimal.
type Row struct {
	Bettor        string
	Volume        string
	Trades        int
	WinningTrades int
	TotalPayout   string
}

type Entry struct {
	Rank          int    `json:"rank"`
	Bettor        string `json:"bettor"`
	Volume        string `json:"volume"`
	Trades        int    `json:"trades"`
	WinningTrades int    `json:"winningTrades"`
	Accuracy      string `json:"accuracy"` // percentual, "62.50"
	TotalPayout   string `json:"totalPayout"`
}

type scored struct {
	row      Row
	volume   decimal.Decimal
	accuracy decimal.Decimal
}

// Rank ordena por volume ou por acerto e numera a partir de 1.
func Rank(rows []Row, by string, limit int) ([]Entry, error) {
	if by == "" {
		by = SortVolume
	}
	if by != SortVolume && by != SortAccuracy {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSort, by)
	}

	items := make([]scored, 0, len(rows))
	for _, r := range rows {
		if by == SortAccuracy && r.Trades < MinTradesForAccuracy {
			continue
		}
		vol, err := decimal.NewFromString(r.Volume)
		if err != nil {
			return nil, fmt.Errorf("bettor %s volume: %w", r.Bettor, err)
		}
		items = append(items, scored{row: r, volume: vol, accuracy: accuracy(r)})
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if by == SortAccuracy {
			if c := a.accuracy.Cmp(b.accuracy); c != 0 {
				return c > 0
			}
		}
		if c := a.volume.Cmp(b.volume); c != 0 {
			return c > 0
		}
		return a.row.Bettor < b.row.Bettor
	})

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	out := make([]Entry, len(items))
	for i, s := range items {
		out[i] = Entry{
			Rank:          i + 1,
			Bettor:        s.row.Bettor,
			Volume:        s.row.Volume,
			Trades:        s.row.Trades,
			WinningTrades: s.row.WinningTrades,
			Accuracy:      s.accuracy.StringFixed(2),
			TotalPayout:   s.row.TotalPayout,
		}
	}
	return out, nil
}

func accuracy(r Row) decimal.Decimal {
	if r.Trades == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(r.WinningTrades)).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(int64(r.Trades)), 2)
}

package odds

import (
	"github.com/radieske/prediction-market-poc/internal/market-engine/money"
)

// Total é 100% em basis points.
const Total = money.BpsDenominator

// EmptyPoolBps é a convenção para mercado sem apostas: 50/50.
const EmptyPoolBps = Total / 2

// Odds são as probabilidades implícitas de cada lado em basis points.
// A + B == Total sempre.
type Odds struct {
	A uint32 `json:"oddsA"`
	B uint32 `json:"oddsB"`
}

// Implied calcula as odds a partir dos pools. B é derivado de A para que a
// soma seja exatamente Total.
func Implied(poolA, poolB money.Money) Odds {
	total, err := poolA.Add(poolB)
	if err != nil {
		// soma não cabe em 256 bits; metade de cada lado sempre cabe
		two := money.FromUint64(2)
		one := money.FromUint64(1)
		poolA, _ = poolA.MulDiv(one, two)
		poolB, _ = poolB.MulDiv(one, two)
		total, _ = poolA.Add(poolB)
	}
	if total.IsZero() {
		return Odds{A: EmptyPoolBps, B: EmptyPoolBps}
	}
	a, _ := poolA.MulDiv(money.FromUint64(Total), total)
	bps, _ := a.Uint64()
	return Odds{A: uint32(bps), B: Total - uint32(bps)}
}

// Percent retorna as odds em percentual, ex: 5000 bps -> 50.00.
func (o Odds) Percent() (a, b float64) {
	return float64(o.A) / 100, float64(o.B) / 100
}

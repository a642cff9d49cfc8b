// Package money implementa o valor monetário exato usado pelo motor de
// liquidação: inteiro sem sinal de 256 bits na menor unidade da moeda,
// mesma largura do ledger on-chain. Não existe ponto flutuante aqui.
package money

import (
	"database/sql/driver"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/radieske/prediction-market-poc/internal/market-engine/errs"
)

// BpsDenominator é 100% em basis points.
const BpsDenominator = 10000

// Money é imutável; todas as operações devolvem um novo valor.
type Money struct {
	v uint256.Int
}

// Zero é o valor nulo.
var Zero = Money{}

func FromUint64(n uint64) Money {
	var m Money
	m.v.SetUint64(n)
	return m
}

// Parse lê um inteiro decimal não negativo, ex: "1000000000000000000".
func Parse(s string) (Money, error) {
	var m Money
	if err := m.v.SetFromDecimal(s); err != nil {
		return Zero, fmt.Errorf("parse money %q: %w", s, err)
	}
	return m, nil
}

// MustParse é para constantes e testes.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(o Money) (Money, error) {
	var r Money
	if _, overflow := r.v.AddOverflow(&m.v, &o.v); overflow {
		return Zero, fmt.Errorf("%w: %s + %s", errs.ErrOverflow, m, o)
	}
	return r, nil
}

// Sub falha com ErrUnderflow se o resultado for negativo.
func (m Money) Sub(o Money) (Money, error) {
	var r Money
	if _, underflow := r.v.SubOverflow(&m.v, &o.v); underflow {
		return Zero, fmt.Errorf("%w: %s - %s", errs.ErrUnderflow, m, o)
	}
	return r, nil
}

// MulDiv calcula floor(m * num / den) com produto intermediário de 512 bits,
// então só há overflow se o quociente não couber em 256 bits.
func (m Money) MulDiv(num, den Money) (Money, error) {
	if den.IsZero() {
		return Zero, fmt.Errorf("%w: division by zero", errs.ErrOverflow)
	}
	var r Money
	if _, overflow := r.v.MulDivOverflow(&m.v, &num.v, &den.v); overflow {
		return Zero, fmt.Errorf("%w: %s * %s / %s", errs.ErrOverflow, m, num, den)
	}
	return r, nil
}

// MulBps aplica uma taxa em basis points com arredondamento para baixo.
func (m Money) MulBps(bps uint32) (Money, error) {
	return m.MulDiv(FromUint64(uint64(bps)), FromUint64(BpsDenominator))
}

func (m Money) Cmp(o Money) int { return m.v.Cmp(&o.v) }

func (m Money) IsZero() bool { return m.v.IsZero() }

func (m Money) LessThan(o Money) bool { return m.Cmp(o) < 0 }

func (m Money) GreaterThan(o Money) bool { return m.Cmp(o) > 0 }

// Uint64 retorna o valor e se ele cabe em 64 bits.
func (m Money) Uint64() (uint64, bool) {
	return m.v.Uint64(), m.v.IsUint64()
}

func (m Money) String() string { return m.v.Dec() }

// MarshalText serializa como string decimal (JSON: "123").
func (m Money) MarshalText() ([]byte, error) {
	return []byte(m.v.Dec()), nil
}

func (m *Money) UnmarshalText(b []byte) error {
	p, err := Parse(string(b))
	if err != nil {
		return err
	}
	*m = p
	return nil
}

// Value grava como texto; a coluna no Postgres é NUMERIC(78,0).
func (m Money) Value() (driver.Value, error) {
	return m.v.Dec(), nil
}

func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = Zero
		return nil
	case []byte:
		return m.UnmarshalText(v)
	case string:
		return m.UnmarshalText([]byte(v))
	case int64:
		if v < 0 {
			return fmt.Errorf("%w: negative amount %d", errs.ErrUnderflow, v)
		}
		*m = FromUint64(uint64(v))
		return nil
	default:
		return fmt.Errorf("scan money: unsupported type %T", src)
	}
}

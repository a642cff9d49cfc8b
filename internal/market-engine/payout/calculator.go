// Package payout concentra as duas contas de pagamento do mercado: a prévia
// antes da aposta e o valor final de um claim. Funções puras, sem estado.
package payout

import (
	"fmt"

	"github.com/radieske/prediction-market-poc/internal/market-engine/errs"
	"github.com/radieske/prediction-market-poc/internal/market-engine/ledger"
	"github.com/radieske/prediction-market-poc/internal/market-engine/money"
)

// Breakdown detalha como o total foi composto. Total = Stake + Share - Fees.
type Breakdown struct {
	Stake money.Money `json:"stake"`
	Share money.Money `json:"shareOfOpposing"`
	Fees  money.Money `json:"fees"`
	Total money.Money `json:"total"`
}

// Kind classifica o resultado de um claim.
type Kind string

const (
	KindWin    Kind = "WIN"
	KindLoss   Kind = "LOSS"
	KindRefund Kind = "REFUND"
)

// Preview estima o ganho de uma aposta hipotética com os pools atuais:
// o lado apostado já inclui a aposta, o pool oposto não muda.
func Preview(bet money.Money, side ledger.Outcome, m ledger.Market) (Breakdown, error) {
	if !side.IsSide() {
		return Breakdown{}, fmt.Errorf("%w: preview side must be A or B, got %s", errs.ErrInvalidOutcome, side)
	}
	if bet.IsZero() {
		return Breakdown{}, fmt.Errorf("%w: preview with zero amount", errs.ErrInvalidBetAmount)
	}
	sidePool, opposing := m.Pools(side)
	newSidePool, err := sidePool.Add(bet)
	if err != nil {
		return Breakdown{}, err
	}
	return winnings(bet, opposing, newSidePool, m.FeeBps())
}

// Final calcula o pagamento de uma posição num mercado terminal. Vencedor
// usa os pools finais; perdedor recebe zero; Cancelled e Invalid reembolsam
// o stake sem taxa.
func Final(m ledger.Market, side ledger.Outcome, amount money.Money) (Breakdown, Kind, error) {
	switch m.Status {
	case ledger.StatusCancelled:
		return refund(amount), KindRefund, nil
	case ledger.StatusResolved:
	default:
		return Breakdown{}, "", fmt.Errorf("%w: market %s is %s", errs.ErrMarketNotResolved, m.ID, m.Status)
	}

	switch m.Result {
	case ledger.OutcomeInvalid:
		return refund(amount), KindRefund, nil
	case side:
		sidePool, opposing := m.Pools(side)
		b, err := winnings(amount, opposing, sidePool, m.FeeBps())
		if err != nil {
			return Breakdown{}, "", err
		}
		return b, KindWin, nil
	default:
		return Breakdown{Stake: amount}, KindLoss, nil
	}
}

// winnings = stake + floor(stake*opposing/sidePool) - floor(share*feeBps/10000)
func winnings(stake, opposing, sidePool money.Money, feeBps uint32) (Breakdown, error) {
	if feeBps > money.BpsDenominator {
		return Breakdown{}, fmt.Errorf("%w: fee %d bps above 100%%", errs.ErrOverflow, feeBps)
	}
	share, err := stake.MulDiv(opposing, sidePool)
	if err != nil {
		return Breakdown{}, err
	}
	fees, err := share.MulBps(feeBps)
	if err != nil {
		return Breakdown{}, err
	}
	net, err := share.Sub(fees)
	if err != nil {
		return Breakdown{}, err
	}
	total, err := stake.Add(net)
	if err != nil {
		return Breakdown{}, err
	}
	return Breakdown{Stake: stake, Share: share, Fees: fees, Total: total}, nil
}

func refund(amount money.Money) Breakdown {
	return Breakdown{Stake: amount, Total: amount}
}

package errs

import "errors"

// Tipos de erro do motor de liquidação. Todos são valores recuperáveis
// devolvidos ao chamador; comparar com errors.Is.
var (
	ErrInvalidBetAmount       = errors.New("invalid bet amount")
	ErrMarketNotActive        = errors.New("market not active")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrMarketNotResolved      = errors.New("market not resolved")
	ErrAlreadyClaimed         = errors.New("position already claimed")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrPositionNotFound       = errors.New("position not found")
	ErrMarketNotFound         = errors.New("market not found")
	ErrInvalidMarket          = errors.New("invalid market parameters")
	ErrInvalidOutcome         = errors.New("invalid outcome")

	// Underflow/Overflow indicam bug de programação ou configuração
	ErrUnderflow = errors.New("money underflow")
	ErrOverflow  = errors.New("money overflow")
)

var codes = []struct {
	err  error
	code string
}{
	{ErrInvalidBetAmount, "INVALID_BET_AMOUNT"},
	{ErrMarketNotActive, "MARKET_NOT_ACTIVE"},
	{ErrInvalidStateTransition, "INVALID_STATE_TRANSITION"},
	{ErrMarketNotResolved, "MARKET_NOT_RESOLVED"},
	{ErrAlreadyClaimed, "ALREADY_CLAIMED"},
	{ErrUnauthorized, "UNAUTHORIZED"},
	{ErrPositionNotFound, "POSITION_NOT_FOUND"},
	{ErrMarketNotFound, "MARKET_NOT_FOUND"},
	{ErrInvalidMarket, "INVALID_MARKET"},
	{ErrInvalidOutcome, "INVALID_OUTCOME"},
	{ErrUnderflow, "UNDERFLOW"},
	{ErrOverflow, "OVERFLOW"},
}

// Code retorna o código estável do tipo de erro, usado pela camada de
// apresentação para escolher a mensagem. Erros desconhecidos viram "INTERNAL".
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "INTERNAL"
}

// IsFatal indica violação de invariante aritmética.
func IsFatal(err error) bool {
	return errors.Is(err, ErrUnderflow) || errors.Is(err, ErrOverflow)
}

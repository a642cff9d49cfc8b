package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/internal/market-engine/errs"
	"github.com/radieske/prediction-market-poc/internal/market-service/dto"
)

var errBadRequest = errors.New("malformed request body")

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, errs.ErrInvalidBetAmount),
		errors.Is(err, errs.ErrInvalidMarket),
		errors.Is(err, errs.ErrInvalidOutcome):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrMarketNotFound),
		errors.Is(err, errs.ErrPositionNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrMarketNotActive),
		errors.Is(err, errs.ErrInvalidStateTransition),
		errors.Is(err, errs.ErrMarketNotResolved),
		errors.Is(err, errs.ErrAlreadyClaimed):
		return http.StatusConflict
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeError traduz o erro do motor em {"error": CODE, "message": ...}.
func (a *API) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	code := errs.Code(err)
	if errors.Is(err, errBadRequest) {
		code = "BAD_REQUEST"
	}
	if status == http.StatusInternalServerError && a.Log != nil {
		a.Log.Error("request failed", zap.String("code", code), zap.Error(err))
	}
	writeJSON(w, status, dto.ErrorResponse{Error: code, Message: err.Error()})
}

package api

import (
	"errors"
	"net/http"

	"invest-ledger-go/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor maps service sentinels onto HTTP statuses. Unrecognized
// errors become a 500 without leaking internals.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrOwnerNotFound),
		errors.Is(err, store.ErrPlanNotFound),
		errors.Is(err, store.ErrInvestmentNotFound),
		errors.Is(err, store.ErrDepositNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInvalidAmount),
		errors.Is(err, store.ErrAmountOutOfRange),
		errors.Is(err, store.ErrPlanInactive),
		errors.Is(err, store.ErrInvalidPlan):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrDuplicateTransaction),
		errors.Is(err, store.ErrAlreadySettled),
		errors.Is(err, store.ErrProfileExists),
		errors.Is(err, store.ErrNotConfirmed),
		errors.Is(err, store.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, store.ErrConcurrentModification):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		zap.L().Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

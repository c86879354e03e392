// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vouchify/vouchify-backend/internal/models"
	"github.com/vouchify/vouchify-backend/internal/services"
	"github.com/vouchify/vouchify-backend/internal/utils"
)

// respondServiceError maps service-layer sentinel errors to stable HTTP
// status codes and error codes. Anything unrecognized becomes a 500
// without leaking internals to the client.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrVoucherNotFound):
		utils.NotFoundResponse(c, "voucher")
	case errors.Is(err, services.ErrTransactionNotFound):
		utils.NotFoundResponse(c, "transaction")
	case errors.Is(err, services.ErrPayoutNotFound):
		utils.NotFoundResponse(c, "payout")
	case errors.Is(err, services.ErrUserNotFound):
		utils.NotFoundResponse(c, "user")

	case errors.Is(err, services.ErrVoucherSoldOut):
		utils.ConflictResponse(c, "VOUCHER_SOLD_OUT", err.Error(), nil)
	case errors.Is(err, services.ErrVoucherExpired):
		utils.ConflictResponse(c, "VOUCHER_EXPIRED", err.Error(), nil)
	case errors.Is(err, services.ErrVoucherNotAvailable):
		utils.ConflictResponse(c, "VOUCHER_NOT_AVAILABLE", err.Error(), nil)
	case errors.Is(err, services.ErrDuplicateScratchCode):
		utils.ConflictResponse(c, "DUPLICATE_SCRATCH_CODE", err.Error(), nil)
	case errors.Is(err, services.ErrVoucherHasSales):
		utils.ConflictResponse(c, "VOUCHER_HAS_SALES", err.Error(), nil)
	case errors.Is(err, services.ErrInsufficientBalance):
		utils.ConflictResponse(c, "INSUFFICIENT_BALANCE", err.Error(), nil)
	case errors.Is(err, services.ErrCodeNotReady):
		utils.ConflictResponse(c, "CODE_NOT_READY", err.Error(), nil)

	case errors.Is(err, services.ErrPurchaseLimitExceeded):
		utils.ForbiddenResponse(c, err.Error())
	case errors.Is(err, services.ErrSelfPurchase):
		utils.ForbiddenResponse(c, err.Error())
	case errors.Is(err, services.ErrNotTransactionParty):
		utils.ForbiddenResponse(c, err.Error())
	case errors.Is(err, services.ErrNotVoucherOwner):
		utils.ForbiddenResponse(c, err.Error())

	case errors.Is(err, services.ErrPriceExceedsOriginal):
		utils.BadRequestResponse(c, err.Error(), nil)

	default:
		var transitionErr *models.InvalidTransitionError
		if errors.As(err, &transitionErr) {
			utils.ConflictResponse(c, "INVALID_TRANSITION", transitionErr.Error(), gin.H{
				"from": transitionErr.From,
				"to":   transitionErr.To,
			})
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil)
	}
}

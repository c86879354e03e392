// internal/handlers/errors_test.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vouchify/vouchify-backend/internal/models"
	"github.com/vouchify/vouchify-backend/internal/services"
	"github.com/vouchify/vouchify-backend/internal/utils"
)

func recordServiceError(t *testing.T, err error) (int, utils.APIResponse) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	respondServiceError(c, err)

	var body utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestRespondServiceErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"voucher not found", services.ErrVoucherNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"transaction not found", services.ErrTransactionNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"sold out", services.ErrVoucherSoldOut, http.StatusConflict, "VOUCHER_SOLD_OUT"},
		{"expired", services.ErrVoucherExpired, http.StatusConflict, "VOUCHER_EXPIRED"},
		{"not available", services.ErrVoucherNotAvailable, http.StatusConflict, "VOUCHER_NOT_AVAILABLE"},
		{"duplicate code", services.ErrDuplicateScratchCode, http.StatusConflict, "DUPLICATE_SCRATCH_CODE"},
		{"insufficient balance", services.ErrInsufficientBalance, http.StatusConflict, "INSUFFICIENT_BALANCE"},
		{"code not ready", services.ErrCodeNotReady, http.StatusConflict, "CODE_NOT_READY"},
		{"limit exceeded", services.ErrPurchaseLimitExceeded, http.StatusForbidden, "FORBIDDEN"},
		{"self purchase", services.ErrSelfPurchase, http.StatusForbidden, "FORBIDDEN"},
		{"not a party", services.ErrNotTransactionParty, http.StatusForbidden, "FORBIDDEN"},
		{"price above face value", services.ErrPriceExceedsOriginal, http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown error stays opaque", errors.New("pq: connection refused"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := recordServiceError(t, tc.err)

			assert.Equal(t, tc.status, status)
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tc.code, body.Error.Code)
		})
	}
}

func TestRespondServiceErrorNeverLeaksInternals(t *testing.T) {
	_, body := recordServiceError(t, errors.New("dial tcp 10.0.0.5:5432: i/o timeout"))

	require.NotNil(t, body.Error)
	assert.NotContains(t, body.Error.Message, "10.0.0.5")
	assert.Equal(t, "internal server error", body.Error.Message)
}

func TestRespondServiceErrorInvalidTransition(t *testing.T) {
	err := &models.InvalidTransitionError{
		From: models.TransactionStatusCompleted,
		To:   models.TransactionStatusPending,
	}

	status, body := recordServiceError(t, err)

	assert.Equal(t, http.StatusConflict, status)
	require.NotNil(t, body.Error)
	assert.Equal(t, "INVALID_TRANSITION", body.Error.Code)

	details, ok := body.Error.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "completed", details["from"])
	assert.Equal(t, "pending", details["to"])
}

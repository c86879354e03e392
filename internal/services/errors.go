// internal/services/errors.go
package services

import "errors"

// Purchase precondition failures. Each maps to a stable 4xx code at the
// handler boundary; none of them are retried automatically.
var (
	ErrVoucherNotFound       = errors.New("voucher not found")
	ErrVoucherNotAvailable   = errors.New("voucher is not available for purchase")
	ErrVoucherExpired        = errors.New("voucher has expired")
	ErrVoucherSoldOut        = errors.New("voucher is sold out")
	ErrPurchaseLimitExceeded = errors.New("purchase limit reached for this voucher")
	ErrSelfPurchase          = errors.New("sellers cannot purchase their own voucher")
)

var (
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrNotTransactionParty  = errors.New("caller is not a party to this transaction")
	ErrCodeNotReady         = errors.New("scratch code is available only after payment confirmation")
	ErrInsufficientBalance  = errors.New("insufficient wallet balance")
	ErrDuplicateScratchCode = errors.New("this scratch code is already listed")
	ErrPriceExceedsOriginal = errors.New("listed price cannot exceed original price")
	ErrNotVoucherOwner      = errors.New("caller does not own this voucher")
	ErrVoucherHasSales      = errors.New("voucher with completed sales cannot be deleted")
	ErrPayoutNotFound       = errors.New("payout not found")
	ErrUserNotFound         = errors.New("user not found")
)

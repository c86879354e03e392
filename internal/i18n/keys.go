// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserNotFound       = "auth.user_not_found"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthLogoutSuccess      = "auth.logout_success"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAuthPasswordReset      = "auth.password_reset"
	KeyAdminAccessDenied      = "auth.admin_access_denied"

	// Validation
	KeyValidationInvalid = "validation.invalid"

	// Vouchers
	KeyVoucherCreated       = "voucher.created"
	KeyVoucherUpdated       = "voucher.updated"
	KeyVoucherDeleted       = "voucher.deleted"
	KeyVoucherNotFound      = "voucher.not_found"
	KeyVoucherNotAvailable  = "voucher.not_available"
	KeyVoucherExpired       = "voucher.expired"
	KeyVoucherSoldOut       = "voucher.sold_out"
	KeyVoucherApproved      = "voucher.approved"
	KeyVoucherRejected      = "voucher.rejected"
	KeyVoucherDuplicateCode = "voucher.duplicate_code"

	// Purchases
	KeyPurchaseLimitExceeded = "purchase.limit_exceeded"
	KeyPurchaseSelfForbidden = "purchase.self_forbidden"
	KeyPurchasePendingAdmin  = "purchase.pending_admin_confirmation"
	KeyPurchaseCompleted     = "purchase.completed"
	KeyPurchaseFailed        = "purchase.failed"
	KeyPurchaseRefunded      = "purchase.refunded"
	KeyPurchaseConfirmed     = "purchase.confirmed"
	KeyPurchaseRejected      = "purchase.rejected"

	// Transactions
	KeyTransactionNotFound     = "transaction.not_found"
	KeyTransactionNotSettled   = "transaction.not_settled"
	KeyTransactionInvalidState = "transaction.invalid_state"

	// Wallet
	KeyWalletInsufficient = "wallet.insufficient_balance"
	KeyWalletCredited     = "wallet.credited"

	// Payouts
	KeyPayoutNotFound = "payout.not_found"
	KeyPayoutPaid     = "payout.paid"
	KeyPayoutRejected = "payout.rejected"
)

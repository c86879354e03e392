// internal/models/transaction.go
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Transaction is one buyer's purchase attempt against one voucher unit.
// Rows are append-only: a transaction is never deleted, only transitioned.
// Monetary fields are snapshots taken at purchase time so later voucher
// edits or fee changes never retroactively alter a settled sale.
type Transaction struct {
	BaseModel
	VoucherID uuid.UUID `json:"voucher_id" gorm:"type:uuid;not null;index"`
	BuyerID   uuid.UUID `json:"buyer_id" gorm:"type:uuid;not null;index"`
	SellerID  uuid.UUID `json:"seller_id" gorm:"type:uuid;not null;index"`

	AmountPaid   float64 `json:"amount_paid" gorm:"type:decimal(10,2);not null"`
	PlatformFee  float64 `json:"platform_fee" gorm:"type:decimal(10,2);not null"`
	CompanyShare float64 `json:"company_share" gorm:"type:decimal(10,2);not null"`
	SellerPayout float64 `json:"seller_payout" gorm:"type:decimal(10,2);not null"`

	PaymentMethod    PaymentMethod `json:"payment_method" gorm:"type:varchar(20);not null"`
	PaymentReference string        `json:"payment_reference,omitempty" gorm:"size:255"`
	PaymentProof     string        `json:"payment_proof,omitempty" gorm:"size:512"`

	Status TransactionStatus `json:"status" gorm:"type:varchar(30);default:'pending';index"`

	// ScratchCodeRevealed records that the buyer has been shown the
	// decrypted code at least once. Audit trail, not a security boundary.
	ScratchCodeRevealed bool       `json:"scratch_code_revealed" gorm:"default:false"`
	RevealedAt          *time.Time `json:"revealed_at,omitempty"`

	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	RefundedAt    *time.Time `json:"refunded_at,omitempty"`
	FailureReason string     `json:"failure_reason,omitempty" gorm:"type:text"`

	// Relationships
	Voucher Voucher `json:"voucher,omitempty" gorm:"foreignKey:VoucherID"`
	Buyer   User    `json:"buyer,omitempty" gorm:"foreignKey:BuyerID"`
	Seller  User    `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
}

// InvalidTransitionError is returned when a state change does not match a
// row in the transition table. It carries both states for diagnostics and
// is fatal to the request; callers must not retry.
type InvalidTransitionError struct {
	From TransactionStatus
	To   TransactionStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transaction transition from %q to %q", e.From, e.To)
}

// transitionTable lists the permitted next states for each status.
// refunded and failed are terminal; failed is reachable from any
// non-terminal state, refunded only from paid/completed.
var transitionTable = map[TransactionStatus][]TransactionStatus{
	TransactionStatusPending:      {TransactionStatusPendingAdmin, TransactionStatusPaid, TransactionStatusCompleted, TransactionStatusFailed},
	TransactionStatusPendingAdmin: {TransactionStatusPaid, TransactionStatusCompleted, TransactionStatusFailed},
	TransactionStatusPaid:         {TransactionStatusCompleted, TransactionStatusRefunded, TransactionStatusFailed},
	TransactionStatusCompleted:    {TransactionStatusRefunded},
	TransactionStatusRefunded:     {},
	TransactionStatusFailed:       {},
}

func CanTransition(from, to TransactionStatus) bool {
	for _, next := range transitionTable[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition moves the transaction to the target status or returns an
// *InvalidTransitionError without mutating anything.
func (t *Transaction) Transition(to TransactionStatus) error {
	if !CanTransition(t.Status, to) {
		return &InvalidTransitionError{From: t.Status, To: to}
	}
	t.Status = to
	return nil
}

// IsSettled reports whether the buyer's payment has been confirmed and the
// scratch code may be revealed.
func (t *Transaction) IsSettled() bool {
	return t.Status == TransactionStatusCompleted || t.Status == TransactionStatusPaid
}

func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusRefunded || t.Status == TransactionStatusFailed
}

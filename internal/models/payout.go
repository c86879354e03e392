// internal/models/payout.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Payout is the seller-side disbursement created when a transaction
// settles. One row per transaction.
type Payout struct {
	BaseModel
	SellerID      uuid.UUID    `json:"seller_id" gorm:"type:uuid;not null;index"`
	TransactionID uuid.UUID    `json:"transaction_id" gorm:"type:uuid;not null;uniqueIndex"`
	Amount        float64      `json:"amount" gorm:"type:decimal(10,2);not null"`
	Status        PayoutStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`

	// AdminReference holds the disbursement proof (UTR, transfer id)
	// attached by the admin when marking the payout paid.
	AdminReference string     `json:"admin_reference,omitempty" gorm:"size:255"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	RejectReason   string     `json:"reject_reason,omitempty" gorm:"type:text"`

	// Queries is a free-form message thread between the seller and the
	// admin about this disbursement.
	Queries JSONB `json:"queries" gorm:"type:jsonb"`

	// Relationships
	Seller      User        `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
	Transaction Transaction `json:"transaction,omitempty" gorm:"foreignKey:TransactionID"`
}

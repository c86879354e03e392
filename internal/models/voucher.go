// internal/models/voucher.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Voucher is a listed, sellable gift-voucher with a secret redemption code.
// ScratchCode holds the encrypted blob and is never serialized or selected
// by default query projections; trusted code paths select it explicitly.
type Voucher struct {
	BaseModel
	SellerID    uuid.UUID      `json:"seller_id" gorm:"type:uuid;not null;index"`
	Brand       string         `json:"brand" gorm:"size:100;not null;index"`
	Title       string         `json:"title" gorm:"size:255;not null"`
	Description string         `json:"description" gorm:"type:text"`
	Category    string         `json:"category" gorm:"size:100;index"`
	Images      pq.StringArray `json:"images" gorm:"type:text[]"`
	Tags        pq.StringArray `json:"tags" gorm:"type:text[]"`

	OriginalPrice       float64 `json:"original_price" gorm:"type:decimal(10,2);not null"`
	ListedPrice         float64 `json:"listed_price" gorm:"type:decimal(10,2);not null"`
	DiscountPercent     float64 `json:"discount_percent" gorm:"type:decimal(5,2);default:0"`
	PlatformFeePercent  float64 `json:"platform_fee_percent" gorm:"type:decimal(5,2);not null"`
	CompanySharePercent float64 `json:"company_share_percent" gorm:"type:decimal(5,2);not null"`
	SellerPayout        float64 `json:"seller_payout" gorm:"type:decimal(10,2);not null"`

	Quantity     int       `json:"quantity" gorm:"not null;default:1"`
	LimitPerUser int       `json:"limit_per_user" gorm:"not null;default:1"`
	ExpiryDate   time.Time `json:"expiry_date" gorm:"not null;index"`

	Status     VoucherStatus `json:"status" gorm:"type:varchar(20);default:'draft';index"`
	IsApproved bool          `json:"is_approved" gorm:"default:false"`

	ScratchCode     string `json:"-" gorm:"type:text;->:false;<-:create"`
	ScratchCodeHash string `json:"-" gorm:"size:64;index"`

	// Attempts counts failed or suspicious redemption attempts on this
	// voucher; it feeds the fraud review queue.
	Attempts int `json:"attempts" gorm:"default:0"`

	ViewCount  int64 `json:"view_count" gorm:"default:0"`
	SalesCount int64 `json:"sales_count" gorm:"default:0"`

	// Relationships
	Seller       User          `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
	Transactions []Transaction `json:"transactions,omitempty" gorm:"foreignKey:VoucherID"`
}

// IsSellable reports whether the voucher can be purchased right now.
// The quantity check is advisory here; the authoritative check is the
// conditional decrement performed at reservation time.
func (v *Voucher) IsSellable(now time.Time) bool {
	return v.Status == VoucherStatusPublished &&
		v.IsApproved &&
		v.Quantity > 0 &&
		v.ExpiryDate.After(now)
}

func (v *Voucher) IsExpired(now time.Time) bool {
	return !v.ExpiryDate.After(now)
}

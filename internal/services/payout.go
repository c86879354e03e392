// internal/services/payout.go
package services

import (
	"github.com/shopspring/decimal"
)

// PayoutBreakdown is the monetary split of one voucher sale. It is
// computed once at listing time and frozen into the transaction at
// purchase time; global fee changes never retroactively alter it.
type PayoutBreakdown struct {
	AmountPaid   float64 `json:"amount_paid"`
	PlatformFee  float64 `json:"platform_fee"`
	CompanyShare float64 `json:"company_share"`
	SellerPayout float64 `json:"seller_payout"`
}

var oneHundred = decimal.NewFromInt(100)

// ComputePayoutBreakdown splits listedPrice into the platform fee, the
// company share, and the seller payout. Every step rounds half-up to two
// decimal places, so fee + share + payout always reconstructs the listed
// price exactly.
func ComputePayoutBreakdown(listedPrice, platformFeePercent, companySharePercent float64) PayoutBreakdown {
	price := decimal.NewFromFloat(listedPrice).Round(2)
	fee := price.Mul(decimal.NewFromFloat(platformFeePercent)).Div(oneHundred).Round(2)
	share := price.Mul(decimal.NewFromFloat(companySharePercent)).Div(oneHundred).Round(2)
	payout := price.Sub(fee).Sub(share)

	return PayoutBreakdown{
		AmountPaid:   price.InexactFloat64(),
		PlatformFee:  fee.InexactFloat64(),
		CompanyShare: share.InexactFloat64(),
		SellerPayout: payout.InexactFloat64(),
	}
}

// ComputeDiscountPercent returns how far below face value the listing
// price sits, rounded to two decimal places.
func ComputeDiscountPercent(originalPrice, listedPrice float64) float64 {
	original := decimal.NewFromFloat(originalPrice)
	if original.IsZero() {
		return 0
	}

	listed := decimal.NewFromFloat(listedPrice)
	return original.Sub(listed).Div(original).Mul(oneHundred).Round(2).InexactFloat64()
}

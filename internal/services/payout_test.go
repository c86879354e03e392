// internal/services/payout_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputePayoutBreakdown(t *testing.T) {
	breakdown := ComputePayoutBreakdown(1000, 5, 2)

	assert.Equal(t, 1000.0, breakdown.AmountPaid)
	assert.Equal(t, 50.0, breakdown.PlatformFee)
	assert.Equal(t, 20.0, breakdown.CompanyShare)
	assert.Equal(t, 930.0, breakdown.SellerPayout)
}

func TestComputePayoutBreakdownRounding(t *testing.T) {
	// 333.33 at 5% is 16.6665, which rounds half-up to 16.67.
	breakdown := ComputePayoutBreakdown(333.33, 5, 2)

	assert.Equal(t, 16.67, breakdown.PlatformFee)
	assert.Equal(t, 6.67, breakdown.CompanyShare)
	assert.Equal(t, 309.99, breakdown.SellerPayout)
}

func TestComputePayoutBreakdownReconstructs(t *testing.T) {
	prices := []float64{0.01, 1, 9.99, 100.50, 333.33, 12345.67}

	for _, price := range prices {
		breakdown := ComputePayoutBreakdown(price, 5, 2)
		sum := breakdown.PlatformFee + breakdown.CompanyShare + breakdown.SellerPayout
		assert.InDelta(t, price, sum, 0.001, "price %v should split exactly", price)
	}
}

func TestComputePayoutBreakdownZeroFees(t *testing.T) {
	breakdown := ComputePayoutBreakdown(500, 0, 0)

	assert.Equal(t, 0.0, breakdown.PlatformFee)
	assert.Equal(t, 0.0, breakdown.CompanyShare)
	assert.Equal(t, 500.0, breakdown.SellerPayout)
}

func TestComputeDiscountPercent(t *testing.T) {
	assert.Equal(t, 25.0, ComputeDiscountPercent(1000, 750))
	assert.Equal(t, 0.0, ComputeDiscountPercent(1000, 1000))
	assert.Equal(t, 33.33, ComputeDiscountPercent(300, 200.01))
	assert.Equal(t, 0.0, ComputeDiscountPercent(0, 100))
}

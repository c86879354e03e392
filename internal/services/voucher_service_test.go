// internal/services/voucher_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vouchify/vouchify-backend/internal/models"
	"github.com/vouchify/vouchify-backend/internal/utils"
)

func validCreateRequest() *CreateVoucherRequest {
	return &CreateVoucherRequest{
		Brand:         "Flipkart",
		Title:         "Flipkart Gift Card 500",
		Category:      "shopping",
		OriginalPrice: 500,
		ListedPrice:   450,
		Quantity:      2,
		LimitPerUser:  1,
		ExpiryDate:    time.Now().Add(60 * 24 * time.Hour),
		ScratchCode:   "FLIP-1234-ABCD-5678",
	}
}

func TestCreateVoucherEncryptsCode(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVoucherService(db, testConfig(), nil)
	seller := createTestUser(t, db, "seller", 0)

	req := validCreateRequest()
	voucher, err := svc.CreateVoucher(seller.ID, req)
	require.NoError(t, err)

	assert.Equal(t, models.VoucherStatusPending, voucher.Status)
	assert.False(t, voucher.IsApproved)
	assert.Equal(t, 10.0, voucher.DiscountPercent)
	assert.Equal(t, 418.5, voucher.SellerPayout)
	assert.Equal(t, utils.HashScratchCode(req.ScratchCode), voucher.ScratchCodeHash)

	// The stored blob is ciphertext, never the plaintext code.
	var blobs []string
	require.NoError(t, db.Model(&models.Voucher{}).
		Where("id = ?", voucher.ID).Pluck("scratch_code", &blobs).Error)
	require.Len(t, blobs, 1)
	assert.NotEqual(t, req.ScratchCode, blobs[0])
	assert.NotContains(t, blobs[0], "FLIP")

	plaintext, err := utils.DecryptScratchCode(testScratchKey, blobs[0])
	require.NoError(t, err)
	assert.Equal(t, req.ScratchCode, plaintext)
}

func TestCreateVoucherRejectsDuplicateCode(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVoucherService(db, testConfig(), nil)
	seller := createTestUser(t, db, "seller", 0)
	other := createTestUser(t, db, "other", 0)

	_, err := svc.CreateVoucher(seller.ID, validCreateRequest())
	require.NoError(t, err)

	// Same code, different casing and grouping, different seller.
	req := validCreateRequest()
	req.ScratchCode = "flip 1234 abcd 5678"
	_, err = svc.CreateVoucher(other.ID, req)
	assert.ErrorIs(t, err, ErrDuplicateScratchCode)
}

func TestCreateVoucherDuplicateAllowedAfterRejection(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVoucherService(db, testConfig(), nil)
	seller := createTestUser(t, db, "seller", 0)

	first, err := svc.CreateVoucher(seller.ID, validCreateRequest())
	require.NoError(t, err)

	require.NoError(t, db.Model(first).
		Update("status", models.VoucherStatusRejected).Error)

	_, err = svc.CreateVoucher(seller.ID, validCreateRequest())
	assert.NoError(t, err)
}

func TestCreateVoucherValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVoucherService(db, testConfig(), nil)
	seller := createTestUser(t, db, "seller", 0)

	t.Run("price above face value", func(t *testing.T) {
		req := validCreateRequest()
		req.ListedPrice = 501
		_, err := svc.CreateVoucher(seller.ID, req)
		assert.ErrorIs(t, err, ErrPriceExceedsOriginal)
	})

	t.Run("already expired", func(t *testing.T) {
		req := validCreateRequest()
		req.ExpiryDate = time.Now().Add(-time.Hour)
		_, err := svc.CreateVoucher(seller.ID, req)
		assert.ErrorIs(t, err, ErrVoucherExpired)
	})

	t.Run("malformed scratch code", func(t *testing.T) {
		req := validCreateRequest()
		req.ScratchCode = "short"
		_, err := svc.CreateVoucher(seller.ID, req)
		assert.Error(t, err)
	})

	t.Run("suspended seller", func(t *testing.T) {
		suspended := createTestUser(t, db, "suspended", 0)
		require.NoError(t, db.Model(suspended).
			Update("status", models.UserStatusSuspended).Error)

		req := validCreateRequest()
		req.ScratchCode = "SUSP-9999-8888-7777"
		_, err := svc.CreateVoucher(suspended.ID, req)
		assert.Error(t, err)
	})
}

func TestCreateVoucherDraftSkipsReview(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVoucherService(db, testConfig(), nil)
	seller := createTestUser(t, db, "seller", 0)

	req := validCreateRequest()
	req.Draft = true
	voucher, err := svc.CreateVoucher(seller.ID, req)
	require.NoError(t, err)

	assert.Equal(t, models.VoucherStatusDraft, voucher.Status)
}

func TestGetVoucherVisibility(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVoucherService(db, testConfig(), nil)
	seller := createTestUser(t, db, "seller", 0)
	stranger := createTestUser(t, db, "stranger", 0)

	pending, err := svc.CreateVoucher(seller.ID, validCreateRequest())
	require.NoError(t, err)

	// A pending listing exists only for its seller and admins.
	_, err = svc.GetVoucher(pending.ID, &stranger.ID, false)
	assert.ErrorIs(t, err, ErrVoucherNotFound)

	_, err = svc.GetVoucher(pending.ID, nil, false)
	assert.ErrorIs(t, err, ErrVoucherNotFound)

	got, err := svc.GetVoucher(pending.ID, &seller.ID, false)
	require.NoError(t, err)
	assert.Equal(t, pending.ID, got.ID)

	_, err = svc.GetVoucher(pending.ID, nil, true)
	assert.NoError(t, err)

	// Published listings are public, with the blob withheld.
	live, _ := createLiveVoucher(t, db, seller.ID, 1, 100)
	got, err = svc.GetVoucher(live.ID, &stranger.ID, false)
	require.NoError(t, err)
	assert.Empty(t, got.ScratchCode)
}

func TestUpdateVoucherRefreezesBreakdown(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVoucherService(db, testConfig(), nil)
	seller := createTestUser(t, db, "seller", 0)
	other := createTestUser(t, db, "other", 0)

	voucher, _ := createLiveVoucher(t, db, seller.ID, 1, 400)

	_, err := svc.UpdateVoucher(voucher.ID, other.ID, &UpdateVoucherRequest{Title: "hijacked"})
	assert.ErrorIs(t, err, ErrNotVoucherOwner)

	updated, err := svc.UpdateVoucher(voucher.ID, seller.ID, &UpdateVoucherRequest{
		ListedPrice: 300,
	})
	require.NoError(t, err)
	assert.Equal(t, 300.0, updated.ListedPrice)
	assert.Equal(t, 40.0, updated.DiscountPercent)
	assert.Equal(t, 279.0, updated.SellerPayout)

	_, err = svc.UpdateVoucher(voucher.ID, seller.ID, &UpdateVoucherRequest{
		ListedPrice: voucher.OriginalPrice + 1,
	})
	assert.ErrorIs(t, err, ErrPriceExceedsOriginal)
}

func TestUpdateVoucherRestockReopensListing(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVoucherService(db, testConfig(), nil)
	seller := createTestUser(t, db, "seller", 0)

	voucher, _ := createLiveVoucher(t, db, seller.ID, 1, 100)
	require.NoError(t, db.Model(voucher).Updates(map[string]interface{}{
		"quantity": 0, "status": models.VoucherStatusSoldOut,
	}).Error)

	qty := 3
	updated, err := svc.UpdateVoucher(voucher.ID, seller.ID, &UpdateVoucherRequest{
		Quantity: &qty,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Quantity)
	assert.Equal(t, models.VoucherStatusPublished, updated.Status)
}

func TestDeleteVoucherBlockedBySales(t *testing.T) {
	db := setupTestDB(t)
	voucherSvc := NewVoucherService(db, testConfig(), nil)
	purchaseSvc := NewPurchaseService(db, testConfig(), nil)

	seller := createTestUser(t, db, "seller", 0)
	buyer := createTestUser(t, db, "buyer", 500)
	voucher, _ := createLiveVoucher(t, db, seller.ID, 2, 100)

	_, err := purchaseSvc.Purchase(buyer.ID, &PurchaseRequest{
		VoucherID:     voucher.ID,
		PaymentMethod: "wallet",
	})
	require.NoError(t, err)

	err = voucherSvc.DeleteVoucher(voucher.ID, seller.ID, false)
	assert.ErrorIs(t, err, ErrVoucherHasSales)

	// A listing with no settled sales can go.
	fresh, _ := createLiveVoucher(t, db, seller.ID, 1, 100)
	assert.NoError(t, voucherSvc.DeleteVoucher(fresh.ID, seller.ID, false))

	_, err = voucherSvc.GetVoucher(fresh.ID, &seller.ID, false)
	assert.ErrorIs(t, err, ErrVoucherNotFound)
}

func TestSearchVouchersFilters(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVoucherService(db, testConfig(), nil)
	seller := createTestUser(t, db, "seller", 0)

	cheap, _ := createLiveVoucher(t, db, seller.ID, 1, 100)
	pricey, _ := createLiveVoucher(t, db, seller.ID, 1, 900)

	// A pending listing never appears in search.
	_, err := svc.CreateVoucher(seller.ID, validCreateRequest())
	require.NoError(t, err)

	all, total, err := svc.SearchVouchers(VoucherSearchParams{PaginationParams: testPagination()})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)

	min := 500.0
	expensive, total, err := svc.SearchVouchers(VoucherSearchParams{
		PaginationParams: testPagination(),
		PriceMin:         &min,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, pricey.ID, expensive[0].ID)

	params := testPagination()
	params.Brand = "AMAZON"
	byBrand, total, err := svc.SearchVouchers(VoucherSearchParams{PaginationParams: params})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, byBrand, 2)

	// Expired listings drop out of results immediately.
	require.NoError(t, db.Model(cheap).
		UpdateColumn("expiry_date", time.Now().Add(-time.Minute)).Error)
	_, total, err = svc.SearchVouchers(VoucherSearchParams{PaginationParams: testPagination()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestExpireVouchersSweep(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVoucherService(db, testConfig(), nil)
	seller := createTestUser(t, db, "seller", 0)

	expired, _ := createLiveVoucher(t, db, seller.ID, 1, 100)
	require.NoError(t, db.Model(expired).
		UpdateColumn("expiry_date", time.Now().Add(-time.Hour)).Error)

	alive, _ := createLiveVoucher(t, db, seller.ID, 1, 100)

	count, err := svc.ExpireVouchers(time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	var sweptVoucher, liveVoucher models.Voucher
	require.NoError(t, db.First(&sweptVoucher, "id = ?", expired.ID).Error)
	require.NoError(t, db.First(&liveVoucher, "id = ?", alive.ID).Error)
	assert.Equal(t, models.VoucherStatusExpired, sweptVoucher.Status)
	assert.Equal(t, models.VoucherStatusPublished, liveVoucher.Status)

	// The sweep is idempotent.
	count, err = svc.ExpireVouchers(time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestGetBrands(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVoucherService(db, testConfig(), nil)
	seller := createTestUser(t, db, "seller", 0)

	createLiveVoucher(t, db, seller.ID, 1, 100)
	createLiveVoucher(t, db, seller.ID, 1, 200)

	brands, err := svc.GetBrands()
	require.NoError(t, err)
	assert.Equal(t, []string{"Amazon"}, brands)
}

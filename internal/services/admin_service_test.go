// internal/services/admin_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vouchify/vouchify-backend/internal/models"
)

func TestApproveVoucherPublishes(t *testing.T) {
	db := setupTestDB(t)
	adminSvc := NewAdminService(db, nil)
	voucherSvc := NewVoucherService(db, testConfig(), nil)

	seller := createTestUser(t, db, "seller", 0)
	admin := createTestUser(t, db, "admin", 0)

	voucher, err := voucherSvc.CreateVoucher(seller.ID, validCreateRequest())
	require.NoError(t, err)

	require.NoError(t, adminSvc.ApproveVoucher(voucher.ID, admin.ID))

	var approved models.Voucher
	require.NoError(t, db.First(&approved, "id = ?", voucher.ID).Error)
	assert.Equal(t, models.VoucherStatusPublished, approved.Status)
	assert.True(t, approved.IsApproved)

	// Approval is not repeatable.
	err = adminSvc.ApproveVoucher(voucher.ID, admin.ID)
	assert.ErrorIs(t, err, ErrVoucherNotAvailable)
}

func TestRejectVoucherFreesCodeForRelisting(t *testing.T) {
	db := setupTestDB(t)
	adminSvc := NewAdminService(db, nil)
	voucherSvc := NewVoucherService(db, testConfig(), nil)

	seller := createTestUser(t, db, "seller", 0)
	admin := createTestUser(t, db, "admin", 0)

	voucher, err := voucherSvc.CreateVoucher(seller.ID, validCreateRequest())
	require.NoError(t, err)

	require.NoError(t, adminSvc.RejectVoucher(voucher.ID, admin.ID, "unreadable photo"))

	var rejected models.Voucher
	require.NoError(t, db.First(&rejected, "id = ?", voucher.ID).Error)
	assert.Equal(t, models.VoucherStatusRejected, rejected.Status)
	assert.False(t, rejected.IsApproved)

	// The same code can be listed again once the old listing is dead.
	_, err = voucherSvc.CreateVoucher(seller.ID, validCreateRequest())
	assert.NoError(t, err)
}

func TestPayoutLifecycle(t *testing.T) {
	db := setupTestDB(t)
	adminSvc := NewAdminService(db, nil)
	purchaseSvc := NewPurchaseService(db, testConfig(), nil)

	seller := createTestUser(t, db, "seller", 0)
	buyer := createTestUser(t, db, "buyer", 500)
	admin := createTestUser(t, db, "admin", 0)
	voucher, _ := createLiveVoucher(t, db, seller.ID, 1, 200)

	resp, err := purchaseSvc.Purchase(buyer.ID, &PurchaseRequest{
		VoucherID:     voucher.ID,
		PaymentMethod: "wallet",
	})
	require.NoError(t, err)

	var payout models.Payout
	require.NoError(t, db.First(&payout, "transaction_id = ?", resp.Transaction.ID).Error)

	loaded, err := adminSvc.GetPayout(payout.ID)
	require.NoError(t, err)
	assert.Equal(t, seller.ID, loaded.SellerID)
	assert.Equal(t, 186.0, loaded.Amount)

	withQuery, err := adminSvc.AddPayoutQuery(payout.ID, seller.ID, "when is this going out?")
	require.NoError(t, err)
	messages, ok := withQuery.Queries["messages"].([]interface{})
	require.True(t, ok)
	assert.Len(t, messages, 1)

	paid, err := adminSvc.MarkPayoutPaid(payout.ID, admin.ID, "NEFT-20260829-001")
	require.NoError(t, err)
	assert.Equal(t, models.PayoutStatusPaid, paid.Status)
	assert.Equal(t, "NEFT-20260829-001", paid.AdminReference)
	assert.NotNil(t, paid.PaidAt)

	// A paid payout is settled; it cannot be paid or rejected again.
	_, err = adminSvc.MarkPayoutPaid(payout.ID, admin.ID, "NEFT-20260829-002")
	assert.Error(t, err)
	_, err = adminSvc.RejectPayout(payout.ID, admin.ID, "duplicate")
	assert.Error(t, err)
}

func TestGetPayoutsFilter(t *testing.T) {
	db := setupTestDB(t)
	adminSvc := NewAdminService(db, nil)
	purchaseSvc := NewPurchaseService(db, testConfig(), nil)

	seller := createTestUser(t, db, "seller", 0)
	buyer := createTestUser(t, db, "buyer", 1000)

	first, _ := createLiveVoucher(t, db, seller.ID, 1, 100)
	second, _ := createLiveVoucher(t, db, seller.ID, 1, 200)

	for _, v := range []*models.Voucher{first, second} {
		_, err := purchaseSvc.Purchase(buyer.ID, &PurchaseRequest{
			VoucherID:     v.ID,
			PaymentMethod: "wallet",
		})
		require.NoError(t, err)
	}

	pending := models.PayoutStatusPending
	payouts, total, err := adminSvc.GetPayouts(AdminPayoutFilter{
		PaginationParams: testPagination(),
		Status:           &pending,
		SellerID:         &seller.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, payouts, 2)
}

func TestUpdateSettingUpserts(t *testing.T) {
	db := setupTestDB(t)
	adminSvc := NewAdminService(db, nil)
	admin := createTestUser(t, db, "admin", 0)

	require.NoError(t, adminSvc.UpdateSetting("payment", "platform_fee_percent", 7.5, "number", admin.ID))

	settings, err := adminSvc.GetSettings()
	require.NoError(t, err)
	setting, ok := settings["payment.platform_fee_percent"]
	require.True(t, ok)
	assert.Equal(t, 7.5, setting.Value["value"])

	require.NoError(t, adminSvc.UpdateSetting("payment", "platform_fee_percent", 6.0, "number", admin.ID))

	settings, err = adminSvc.GetSettings()
	require.NoError(t, err)
	assert.Equal(t, 6.0, settings["payment.platform_fee_percent"].Value["value"])
}

func TestDashboardStats(t *testing.T) {
	db := setupTestDB(t)
	adminSvc := NewAdminService(db, nil)
	purchaseSvc := NewPurchaseService(db, testConfig(), nil)

	seller := createTestUser(t, db, "seller", 0)
	buyer := createTestUser(t, db, "buyer", 500)
	voucher, _ := createLiveVoucher(t, db, seller.ID, 2, 150)

	_, err := purchaseSvc.Purchase(buyer.ID, &PurchaseRequest{
		VoucherID:     voucher.ID,
		PaymentMethod: "wallet",
	})
	require.NoError(t, err)

	stats, err := adminSvc.GetDashboardStats()
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.TotalVouchers)
	assert.Equal(t, int64(1), stats.TotalTransactions)
	assert.Equal(t, int64(1), stats.PendingPayouts)
	assert.Equal(t, 150.0, stats.TotalRevenue)
	assert.Equal(t, 10.5, stats.PlatformFees)
}

func TestWalletTopUpAndBalance(t *testing.T) {
	db := setupTestDB(t)
	walletSvc := NewWalletService(db)
	user := createTestUser(t, db, "user", 100)

	balance, err := walletSvc.GetBalance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, balance)

	balance, err = walletSvc.TopUp(user.ID, &TopUpRequest{Amount: 250, Reference: "upi-abc"})
	require.NoError(t, err)
	assert.Equal(t, 350.0, balance)
}

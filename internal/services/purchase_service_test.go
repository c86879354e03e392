// internal/services/purchase_service_test.go
package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vouchify/vouchify-backend/internal/models"
)

func TestPurchaseWithWalletSettlesImmediately(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPurchaseService(db, testConfig(), nil)

	seller := createTestUser(t, db, "seller", 0)
	buyer := createTestUser(t, db, "buyer", 500)
	voucher, _ := createLiveVoucher(t, db, seller.ID, 1, 200)

	resp, err := svc.Purchase(buyer.ID, &PurchaseRequest{
		VoucherID:     voucher.ID,
		PaymentMethod: "wallet",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Transaction)

	assert.Equal(t, models.TransactionStatusCompleted, resp.Transaction.Status)
	assert.Equal(t, 200.0, resp.Transaction.AmountPaid)
	assert.Equal(t, 10.0, resp.Transaction.PlatformFee)
	assert.Equal(t, 4.0, resp.Transaction.CompanyShare)
	assert.Equal(t, 186.0, resp.Transaction.SellerPayout)
	assert.NotNil(t, resp.Transaction.ProcessedAt)

	var updatedBuyer models.User
	require.NoError(t, db.First(&updatedBuyer, "id = ?", buyer.ID).Error)
	assert.Equal(t, 300.0, updatedBuyer.WalletBalance)

	var updatedVoucher models.Voucher
	require.NoError(t, db.First(&updatedVoucher, "id = ?", voucher.ID).Error)
	assert.Equal(t, 0, updatedVoucher.Quantity)
	assert.Equal(t, models.VoucherStatusSoldOut, updatedVoucher.Status)
	assert.Equal(t, int64(1), updatedVoucher.SalesCount)

	var payout models.Payout
	require.NoError(t, db.First(&payout, "transaction_id = ?", resp.Transaction.ID).Error)
	assert.Equal(t, seller.ID, payout.SellerID)
	assert.Equal(t, 186.0, payout.Amount)
	assert.Equal(t, models.PayoutStatusPending, payout.Status)
}

func TestPurchaseWithCashAwaitsAdmin(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPurchaseService(db, testConfig(), nil)

	seller := createTestUser(t, db, "seller", 0)
	buyer := createTestUser(t, db, "buyer", 0)
	voucher, _ := createLiveVoucher(t, db, seller.ID, 3, 100)

	resp, err := svc.Purchase(buyer.ID, &PurchaseRequest{
		VoucherID:        voucher.ID,
		PaymentMethod:    "cash",
		PaymentReference: "upi-ref-123",
	})
	require.NoError(t, err)

	assert.Equal(t, models.TransactionStatusPendingAdmin, resp.Transaction.Status)
	assert.Nil(t, resp.Transaction.ProcessedAt)

	// The unit is reserved even though payment is unverified.
	var updatedVoucher models.Voucher
	require.NoError(t, db.First(&updatedVoucher, "id = ?", voucher.ID).Error)
	assert.Equal(t, 2, updatedVoucher.Quantity)
	assert.Equal(t, models.VoucherStatusPublished, updatedVoucher.Status)

	// No payout before settlement.
	var payoutCount int64
	db.Model(&models.Payout{}).Where("transaction_id = ?", resp.Transaction.ID).Count(&payoutCount)
	assert.Equal(t, int64(0), payoutCount)
}

func TestPurchasePreconditionErrors(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPurchaseService(db, testConfig(), nil)

	seller := createTestUser(t, db, "seller", 0)
	buyer := createTestUser(t, db, "buyer", 1000)

	t.Run("voucher not found", func(t *testing.T) {
		_, err := svc.Purchase(buyer.ID, &PurchaseRequest{
			VoucherID:     uuid.New(),
			PaymentMethod: "cash",
		})
		assert.ErrorIs(t, err, ErrVoucherNotFound)
	})

	t.Run("unpublished voucher", func(t *testing.T) {
		voucher, _ := createLiveVoucher(t, db, seller.ID, 1, 100)
		require.NoError(t, db.Model(voucher).Updates(map[string]interface{}{
			"status": models.VoucherStatusPending, "is_approved": false,
		}).Error)

		_, err := svc.Purchase(buyer.ID, &PurchaseRequest{
			VoucherID:     voucher.ID,
			PaymentMethod: "cash",
		})
		assert.ErrorIs(t, err, ErrVoucherNotAvailable)
	})

	t.Run("expired voucher", func(t *testing.T) {
		voucher, _ := createLiveVoucher(t, db, seller.ID, 1, 100)
		require.NoError(t, db.Model(voucher).
			UpdateColumn("expiry_date", time.Now().Add(-time.Hour)).Error)

		_, err := svc.Purchase(buyer.ID, &PurchaseRequest{
			VoucherID:     voucher.ID,
			PaymentMethod: "cash",
		})
		assert.ErrorIs(t, err, ErrVoucherExpired)
	})

	t.Run("self purchase", func(t *testing.T) {
		voucher, _ := createLiveVoucher(t, db, seller.ID, 1, 100)

		_, err := svc.Purchase(seller.ID, &PurchaseRequest{
			VoucherID:     voucher.ID,
			PaymentMethod: "cash",
		})
		assert.ErrorIs(t, err, ErrSelfPurchase)
	})

	t.Run("limit per user", func(t *testing.T) {
		voucher, _ := createLiveVoucher(t, db, seller.ID, 5, 100)

		_, err := svc.Purchase(buyer.ID, &PurchaseRequest{
			VoucherID:     voucher.ID,
			PaymentMethod: "cash",
		})
		require.NoError(t, err)

		_, err = svc.Purchase(buyer.ID, &PurchaseRequest{
			VoucherID:     voucher.ID,
			PaymentMethod: "cash",
		})
		assert.ErrorIs(t, err, ErrPurchaseLimitExceeded)
	})
}

func TestPurchaseLastUnitRace(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPurchaseService(db, testConfig(), nil)

	seller := createTestUser(t, db, "seller", 0)
	buyers := []*models.User{
		createTestUser(t, db, "first", 500),
		createTestUser(t, db, "second", 500),
	}
	voucher, _ := createLiveVoucher(t, db, seller.ID, 1, 100)

	// Both buyers hit the last unit at the same time. The conditional
	// decrement admits exactly one, whichever order the writes land in.
	errs := make(chan error, len(buyers))
	var wg sync.WaitGroup
	for _, buyer := range buyers {
		wg.Add(1)
		go func(buyerID uuid.UUID) {
			defer wg.Done()
			_, err := svc.Purchase(buyerID, &PurchaseRequest{
				VoucherID:     voucher.ID,
				PaymentMethod: "wallet",
			})
			errs <- err
		}(buyer.ID)
	}
	wg.Wait()
	close(errs)

	var won, lost int
	for err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrVoucherSoldOut):
			lost++
		default:
			t.Fatalf("unexpected purchase error: %v", err)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, lost)

	// Exactly one unit sold and exactly one wallet debited.
	var txCount int64
	db.Model(&models.Transaction{}).Where("voucher_id = ?", voucher.ID).Count(&txCount)
	assert.Equal(t, int64(1), txCount)

	var balances []float64
	require.NoError(t, db.Model(&models.User{}).
		Where("id IN ?", []uuid.UUID{buyers[0].ID, buyers[1].ID}).
		Order("wallet_balance").Pluck("wallet_balance", &balances).Error)
	assert.Equal(t, []float64{400, 500}, balances)

	var updatedVoucher models.Voucher
	require.NoError(t, db.First(&updatedVoucher, "id = ?", voucher.ID).Error)
	assert.Equal(t, 0, updatedVoucher.Quantity)
	assert.Equal(t, models.VoucherStatusSoldOut, updatedVoucher.Status)
}

func TestPurchaseInsufficientBalanceRollsBackReservation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPurchaseService(db, testConfig(), nil)

	seller := createTestUser(t, db, "seller", 0)
	buyer := createTestUser(t, db, "buyer", 50)
	voucher, _ := createLiveVoucher(t, db, seller.ID, 1, 200)

	_, err := svc.Purchase(buyer.ID, &PurchaseRequest{
		VoucherID:     voucher.ID,
		PaymentMethod: "wallet",
	})
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// The whole transaction rolled back: unit still available, no
	// transaction row written.
	var updatedVoucher models.Voucher
	require.NoError(t, db.First(&updatedVoucher, "id = ?", voucher.ID).Error)
	assert.Equal(t, 1, updatedVoucher.Quantity)
	assert.Equal(t, models.VoucherStatusPublished, updatedVoucher.Status)

	var txCount int64
	db.Model(&models.Transaction{}).Where("voucher_id = ?", voucher.ID).Count(&txCount)
	assert.Equal(t, int64(0), txCount)
}

func TestConfirmTransactionReleasesCode(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPurchaseService(db, testConfig(), nil)

	seller := createTestUser(t, db, "seller", 0)
	buyer := createTestUser(t, db, "buyer", 0)
	admin := createTestUser(t, db, "admin", 0)
	voucher, plainCode := createLiveVoucher(t, db, seller.ID, 1, 150)

	resp, err := svc.Purchase(buyer.ID, &PurchaseRequest{
		VoucherID:     voucher.ID,
		PaymentMethod: "cash",
	})
	require.NoError(t, err)
	txnID := resp.Transaction.ID

	// Code is locked before admin confirmation.
	_, err = svc.RevealScratchCode(buyer.ID, txnID)
	assert.ErrorIs(t, err, ErrCodeNotReady)

	confirmed, err := svc.ConfirmTransaction(admin.ID, txnID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, confirmed.Status)
	assert.NotNil(t, confirmed.ProcessedAt)

	// Payout opens at settlement.
	var payout models.Payout
	require.NoError(t, db.First(&payout, "transaction_id = ?", txnID).Error)
	assert.Equal(t, models.PayoutStatusPending, payout.Status)

	// Only the buyer can reveal.
	_, err = svc.RevealScratchCode(seller.ID, txnID)
	assert.ErrorIs(t, err, ErrNotTransactionParty)

	reveal, err := svc.RevealScratchCode(buyer.ID, txnID)
	require.NoError(t, err)
	assert.Equal(t, plainCode, reveal.ScratchCode)
	assert.Equal(t, "Amazon", reveal.Brand)

	// Reveal is idempotent and keeps the first timestamp.
	again, err := svc.RevealScratchCode(buyer.ID, txnID)
	require.NoError(t, err)
	assert.Equal(t, plainCode, again.ScratchCode)

	var stored models.Transaction
	require.NoError(t, db.First(&stored, "id = ?", txnID).Error)
	assert.True(t, stored.ScratchCodeRevealed)
	assert.NotNil(t, stored.RevealedAt)
}

func TestConfirmTwiceFails(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPurchaseService(db, testConfig(), nil)

	seller := createTestUser(t, db, "seller", 0)
	buyer := createTestUser(t, db, "buyer", 0)
	admin := createTestUser(t, db, "admin", 0)
	voucher, _ := createLiveVoucher(t, db, seller.ID, 1, 100)

	resp, err := svc.Purchase(buyer.ID, &PurchaseRequest{
		VoucherID:     voucher.ID,
		PaymentMethod: "cash",
	})
	require.NoError(t, err)

	_, err = svc.ConfirmTransaction(admin.ID, resp.Transaction.ID)
	require.NoError(t, err)

	_, err = svc.ConfirmTransaction(admin.ID, resp.Transaction.ID)
	var transitionErr *models.InvalidTransitionError
	assert.ErrorAs(t, err, &transitionErr)
}

func TestRejectTransactionRestocks(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPurchaseService(db, testConfig(), nil)

	seller := createTestUser(t, db, "seller", 0)
	buyer := createTestUser(t, db, "buyer", 0)
	admin := createTestUser(t, db, "admin", 0)
	voucher, _ := createLiveVoucher(t, db, seller.ID, 1, 100)

	resp, err := svc.Purchase(buyer.ID, &PurchaseRequest{
		VoucherID:     voucher.ID,
		PaymentMethod: "cash",
	})
	require.NoError(t, err)

	// Last unit: listing flipped to sold_out on reservation.
	var midVoucher models.Voucher
	require.NoError(t, db.First(&midVoucher, "id = ?", voucher.ID).Error)
	assert.Equal(t, models.VoucherStatusSoldOut, midVoucher.Status)

	rejected, err := svc.RejectTransaction(admin.ID, resp.Transaction.ID, "no payment received")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusFailed, rejected.Status)
	assert.Equal(t, "no payment received", rejected.FailureReason)

	var updatedVoucher models.Voucher
	require.NoError(t, db.First(&updatedVoucher, "id = ?", voucher.ID).Error)
	assert.Equal(t, 1, updatedVoucher.Quantity)
	assert.Equal(t, models.VoucherStatusPublished, updatedVoucher.Status)
}

func TestRefundWalletPurchase(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPurchaseService(db, testConfig(), nil)

	seller := createTestUser(t, db, "seller", 0)
	buyer := createTestUser(t, db, "buyer", 300)
	admin := createTestUser(t, db, "admin", 0)
	voucher, _ := createLiveVoucher(t, db, seller.ID, 1, 100)

	resp, err := svc.Purchase(buyer.ID, &PurchaseRequest{
		VoucherID:     voucher.ID,
		PaymentMethod: "wallet",
	})
	require.NoError(t, err)

	refunded, err := svc.RefundTransaction(admin.ID, resp.Transaction.ID, "buyer reported dead code")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusRefunded, refunded.Status)
	assert.NotNil(t, refunded.RefundedAt)

	// Wallet money came back.
	var updatedBuyer models.User
	require.NoError(t, db.First(&updatedBuyer, "id = ?", buyer.ID).Error)
	assert.Equal(t, 300.0, updatedBuyer.WalletBalance)

	// The payout for this sale is withdrawn.
	var payout models.Payout
	require.NoError(t, db.First(&payout, "transaction_id = ?", resp.Transaction.ID).Error)
	assert.Equal(t, models.PayoutStatusRejected, payout.Status)

	// The unit is NOT restocked; the code may already be known.
	var updatedVoucher models.Voucher
	require.NoError(t, db.First(&updatedVoucher, "id = ?", voucher.ID).Error)
	assert.Equal(t, 0, updatedVoucher.Quantity)
	assert.Equal(t, models.VoucherStatusSoldOut, updatedVoucher.Status)
}

func TestFailStaleConfirmations(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	svc := NewPurchaseService(db, cfg, nil)

	seller := createTestUser(t, db, "seller", 0)
	stale := createTestUser(t, db, "stale", 0)
	fresh := createTestUser(t, db, "fresh", 0)
	voucher, _ := createLiveVoucher(t, db, seller.ID, 5, 100)

	staleResp, err := svc.Purchase(stale.ID, &PurchaseRequest{
		VoucherID:     voucher.ID,
		PaymentMethod: "cash",
	})
	require.NoError(t, err)

	freshResp, err := svc.Purchase(fresh.ID, &PurchaseRequest{
		VoucherID:     voucher.ID,
		PaymentMethod: "cash",
	})
	require.NoError(t, err)

	// Age the first confirmation past the timeout.
	old := time.Now().Add(-time.Duration(cfg.Purchase.ConfirmationTimeoutHours+1) * time.Hour)
	require.NoError(t, db.Model(&models.Transaction{}).
		Where("id = ?", staleResp.Transaction.ID).
		UpdateColumn("created_at", old).Error)

	swept, err := svc.FailStaleConfirmations(time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	var staleTxn, freshTxn models.Transaction
	require.NoError(t, db.First(&staleTxn, "id = ?", staleResp.Transaction.ID).Error)
	require.NoError(t, db.First(&freshTxn, "id = ?", freshResp.Transaction.ID).Error)
	assert.Equal(t, models.TransactionStatusFailed, staleTxn.Status)
	assert.Equal(t, models.TransactionStatusPendingAdmin, freshTxn.Status)

	// Only the stale reservation is returned.
	var updatedVoucher models.Voucher
	require.NoError(t, db.First(&updatedVoucher, "id = ?", voucher.ID).Error)
	assert.Equal(t, 4, updatedVoucher.Quantity)
}

func TestScratchCodeNeverSerialized(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPurchaseService(db, testConfig(), nil)

	seller := createTestUser(t, db, "seller", 0)
	buyer := createTestUser(t, db, "buyer", 500)
	voucher, _ := createLiveVoucher(t, db, seller.ID, 1, 100)

	resp, err := svc.Purchase(buyer.ID, &PurchaseRequest{
		VoucherID:     voucher.ID,
		PaymentMethod: "wallet",
	})
	require.NoError(t, err)

	// Loading a transaction with its voucher never populates the blob.
	loaded, err := svc.GetTransaction(resp.Transaction.ID, buyer.ID, false)
	require.NoError(t, err)
	assert.Empty(t, loaded.Voucher.ScratchCode)
}

func TestListTransactionsByRole(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPurchaseService(db, testConfig(), nil)

	seller := createTestUser(t, db, "seller", 0)
	buyer := createTestUser(t, db, "buyer", 500)
	voucher, _ := createLiveVoucher(t, db, seller.ID, 2, 100)

	_, err := svc.Purchase(buyer.ID, &PurchaseRequest{
		VoucherID:     voucher.ID,
		PaymentMethod: "wallet",
	})
	require.NoError(t, err)

	asBuyer, total, err := svc.ListTransactions(buyer.ID, "buyer", testPagination())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, asBuyer, 1)

	asSeller, total, err := svc.ListTransactions(seller.ID, "seller", testPagination())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, asSeller, 1)

	none, total, err := svc.ListTransactions(seller.ID, "buyer", testPagination())
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Len(t, none, 0)
}

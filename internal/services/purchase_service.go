// internal/services/purchase_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"github.com/stripe/stripe-go/v74/refund"
	"gorm.io/gorm"

	"github.com/vouchify/vouchify-backend/internal/config"
	"github.com/vouchify/vouchify-backend/internal/models"
	"github.com/vouchify/vouchify-backend/internal/utils"
)

type PurchaseService struct {
	db                  *gorm.DB
	config              *config.Config
	notificationService *NotificationService
}

type PurchaseRequest struct {
	VoucherID        uuid.UUID `json:"voucher_id" validate:"required"`
	PaymentMethod    string    `json:"payment_method" validate:"required,oneof=cash stripe wallet"`
	PaymentReference string    `json:"payment_reference,omitempty"`
}

// PurchaseResponse carries the created transaction plus, for card
// payments, the Stripe client secret the frontend needs to finish the
// payment. The secret is never persisted.
type PurchaseResponse struct {
	Transaction  *models.Transaction `json:"transaction"`
	ClientSecret string              `json:"client_secret,omitempty"`
}

type ConfirmStripeRequest struct {
	TransactionID   uuid.UUID `json:"transaction_id" validate:"required"`
	PaymentIntentID string    `json:"payment_intent_id" validate:"required"`
}

type RevealResponse struct {
	ScratchCode string     `json:"scratch_code"`
	Brand       string     `json:"brand"`
	ExpiryDate  time.Time  `json:"expiry_date"`
	RevealedAt  *time.Time `json:"revealed_at,omitempty"`
}

func NewPurchaseService(db *gorm.DB, cfg *config.Config, notificationService *NotificationService) *PurchaseService {
	stripe.Key = cfg.Payment.StripeSecretKey

	return &PurchaseService{
		db:                  db,
		config:              cfg,
		notificationService: notificationService,
	}
}

// Purchase reserves one unit of a voucher for the buyer and opens a
// transaction in the state matching the payment method. The reservation
// is a conditional decrement, so two buyers racing for the last unit can
// never both succeed; the loser gets ErrVoucherSoldOut.
func (s *PurchaseService) Purchase(buyerID uuid.UUID, req *PurchaseRequest) (*PurchaseResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	method := models.PaymentMethod(req.PaymentMethod)
	now := time.Now()

	var transaction *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var voucher models.Voucher
		if err := tx.First(&voucher, "id = ?", req.VoucherID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVoucherNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		// Precondition checks are ordered so the buyer gets the most
		// specific error first. They are advisory; the conditional
		// decrement below is the authoritative availability check.
		if voucher.Status != models.VoucherStatusPublished || !voucher.IsApproved {
			if voucher.Status == models.VoucherStatusSoldOut {
				return ErrVoucherSoldOut
			}
			if voucher.Status == models.VoucherStatusExpired {
				return ErrVoucherExpired
			}
			return ErrVoucherNotAvailable
		}
		if voucher.IsExpired(now) {
			return ErrVoucherExpired
		}
		if voucher.Quantity <= 0 {
			return ErrVoucherSoldOut
		}

		var priorPurchases int64
		if err := tx.Model(&models.Transaction{}).
			Where("voucher_id = ? AND buyer_id = ? AND status NOT IN ?", voucher.ID, buyerID,
				[]models.TransactionStatus{models.TransactionStatusFailed, models.TransactionStatusRefunded}).
			Count(&priorPurchases).Error; err != nil {
			return fmt.Errorf("failed to count prior purchases: %w", err)
		}
		if int(priorPurchases) >= voucher.LimitPerUser {
			return ErrPurchaseLimitExceeded
		}

		if voucher.SellerID == buyerID {
			return ErrSelfPurchase
		}

		// Atomic reservation of one unit.
		res := tx.Model(&models.Voucher{}).
			Where("id = ? AND quantity > 0", voucher.ID).
			UpdateColumn("quantity", gorm.Expr("quantity - 1"))
		if res.Error != nil {
			return fmt.Errorf("failed to reserve voucher: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrVoucherSoldOut
		}

		// Flip to sold_out if that reservation took the last unit.
		tx.Model(&models.Voucher{}).
			Where("id = ? AND quantity = 0 AND status = ?", voucher.ID, models.VoucherStatusPublished).
			UpdateColumn("status", models.VoucherStatusSoldOut)

		breakdown := ComputePayoutBreakdown(voucher.ListedPrice,
			voucher.PlatformFeePercent, voucher.CompanySharePercent)

		transaction = &models.Transaction{
			VoucherID:        voucher.ID,
			BuyerID:          buyerID,
			SellerID:         voucher.SellerID,
			AmountPaid:       breakdown.AmountPaid,
			PlatformFee:      breakdown.PlatformFee,
			CompanyShare:     breakdown.CompanyShare,
			SellerPayout:     breakdown.SellerPayout,
			PaymentMethod:    method,
			PaymentReference: req.PaymentReference,
			Status:           models.TransactionStatusPending,
		}

		switch method {
		case models.PaymentMethodWallet:
			if err := debitWallet(tx, buyerID, breakdown.AmountPaid); err != nil {
				return err
			}
			transaction.Status = models.TransactionStatusCompleted
			transaction.ProcessedAt = &now
			if err := tx.Create(transaction).Error; err != nil {
				return fmt.Errorf("failed to create transaction: %w", err)
			}
			return s.recordSale(tx, transaction)

		case models.PaymentMethodCash:
			// Manual payment: the buyer pays the seller directly and an
			// admin confirms before the code is released.
			transaction.Status = models.TransactionStatusPendingAdmin

		case models.PaymentMethodStripe:
			transaction.Status = models.TransactionStatusPending
		}

		if err := tx.Create(transaction).Error; err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	response := &PurchaseResponse{Transaction: transaction}

	if method == models.PaymentMethodStripe {
		secret, err := s.createPaymentIntent(transaction)
		if err != nil {
			// The reserved unit goes back on failure so the listing is
			// not stuck with phantom inventory.
			s.failAndRestock(transaction.ID, "payment intent creation failed")
			return nil, fmt.Errorf("failed to create payment intent: %w", err)
		}
		response.ClientSecret = secret
	}

	if s.notificationService != nil {
		go s.notificationService.NotifyPurchaseInitiated(transaction)
		if transaction.Status == models.TransactionStatusPendingAdmin {
			go s.notificationService.NotifyAdminsPaymentReview(transaction)
		}
		if transaction.Status == models.TransactionStatusCompleted {
			go s.notificationService.NotifySaleSettled(transaction)
		}
	}

	return response, nil
}

func (s *PurchaseService) createPaymentIntent(transaction *models.Transaction) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(transaction.AmountPaid * 100)),
		Currency: stripe.String("inr"),
	}
	params.AddMetadata("transaction_id", transaction.ID.String())
	params.AddMetadata("voucher_id", transaction.VoucherID.String())
	params.AddMetadata("buyer_id", transaction.BuyerID.String())

	pi, err := paymentintent.New(params)
	if err != nil {
		return "", err
	}

	if err := s.db.Model(&models.Transaction{}).
		Where("id = ?", transaction.ID).
		Update("payment_reference", pi.ID).Error; err != nil {
		return "", fmt.Errorf("failed to store payment reference: %w", err)
	}
	transaction.PaymentReference = pi.ID

	return pi.ClientSecret, nil
}

// ConfirmStripePayment checks the payment intent status with Stripe and
// settles or fails the transaction accordingly.
func (s *PurchaseService) ConfirmStripePayment(buyerID uuid.UUID, req *ConfirmStripeRequest) (*models.Transaction, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var transaction models.Transaction
	if err := s.db.First(&transaction, "id = ?", req.TransactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if transaction.BuyerID != buyerID {
		return nil, ErrNotTransactionParty
	}

	if transaction.PaymentReference != req.PaymentIntentID {
		return nil, ErrNotTransactionParty
	}

	pi, err := paymentintent.Get(req.PaymentIntentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		err = s.db.Transaction(func(tx *gorm.DB) error {
			return s.settleTransaction(tx, &transaction, models.TransactionStatusCompleted)
		})
		if err != nil {
			return nil, err
		}
		if s.notificationService != nil {
			go s.notificationService.NotifySaleSettled(&transaction)
		}

	case stripe.PaymentIntentStatusRequiresAction, stripe.PaymentIntentStatusRequiresConfirmation,
		stripe.PaymentIntentStatusRequiresPaymentMethod, stripe.PaymentIntentStatusProcessing:
		// Still in flight, nothing to do yet.

	default:
		if err := s.failAndRestock(transaction.ID, "card payment failed"); err != nil {
			return nil, err
		}
		s.db.First(&transaction, "id = ?", transaction.ID)
	}

	return &transaction, nil
}

// ConfirmTransaction is the admin side of the manual payment flow: the
// admin verified the buyer's off-platform payment and releases the code.
func (s *PurchaseService) ConfirmTransaction(adminID, transactionID uuid.UUID) (*models.Transaction, error) {
	var transaction models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&transaction, "id = ?", transactionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		return s.settleTransaction(tx, &transaction, models.TransactionStatusCompleted)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"transaction_id": transactionID,
		"admin_id":       adminID,
	}).Info("Manual payment confirmed")

	if s.notificationService != nil {
		go s.notificationService.NotifySaleSettled(&transaction)
	}

	return &transaction, nil
}

// RejectTransaction fails a manual payment the admin could not verify.
// The reserved unit goes back into the listing.
func (s *PurchaseService) RejectTransaction(adminID, transactionID uuid.UUID, reason string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&transaction, "id = ?", transactionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		return s.failTransaction(tx, &transaction, reason)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"transaction_id": transactionID,
		"admin_id":       adminID,
		"reason":         reason,
	}).Info("Manual payment rejected")

	if s.notificationService != nil {
		go s.notificationService.NotifyPurchaseRejected(&transaction, reason)
	}

	return &transaction, nil
}

// RefundTransaction reverses a settled sale. Wallet payments are
// re-credited and card payments refunded through Stripe; cash refunds
// happen off-platform and are only recorded here. The unit is NOT
// restocked because the code may already have been revealed.
func (s *PurchaseService) RefundTransaction(adminID, transactionID uuid.UUID, reason string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.First(&transaction, "id = ?", transactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := transaction.Transition(models.TransactionStatusRefunded); err != nil {
		return nil, err
	}

	if transaction.PaymentMethod == models.PaymentMethodStripe && transaction.PaymentReference != "" {
		params := &stripe.RefundParams{
			PaymentIntent: stripe.String(transaction.PaymentReference),
			Amount:        stripe.Int64(int64(transaction.AmountPaid * 100)),
			Reason:        stripe.String("requested_by_customer"),
		}
		if _, err := refund.New(params); err != nil {
			return nil, fmt.Errorf("failed to process refund: %w", err)
		}
	}

	now := time.Now()
	transaction.RefundedAt = &now
	transaction.FailureReason = reason

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&transaction).Error; err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}

		if transaction.PaymentMethod == models.PaymentMethodWallet {
			if err := creditWallet(tx, transaction.BuyerID, transaction.AmountPaid); err != nil {
				return err
			}
		}

		// An unpaid payout for this sale is withdrawn with it.
		if err := tx.Model(&models.Payout{}).
			Where("transaction_id = ? AND status = ?", transaction.ID, models.PayoutStatusPending).
			Updates(map[string]interface{}{
				"status":        models.PayoutStatusRejected,
				"reject_reason": "sale refunded",
			}).Error; err != nil {
			return fmt.Errorf("failed to withdraw payout: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"transaction_id": transactionID,
		"admin_id":       adminID,
		"reason":         reason,
	}).Info("Transaction refunded")

	if s.notificationService != nil {
		go s.notificationService.NotifyRefund(&transaction)
	}

	return &transaction, nil
}

// RevealScratchCode decrypts the purchased code for the buyer. It is
// idempotent; the first successful call stamps revealed_at. A blob that
// fails authentication raises a fraud alert instead of returning data.
func (s *PurchaseService) RevealScratchCode(buyerID, transactionID uuid.UUID) (*RevealResponse, error) {
	var transaction models.Transaction
	if err := s.db.Preload("Voucher").First(&transaction, "id = ?", transactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if transaction.BuyerID != buyerID {
		return nil, ErrNotTransactionParty
	}

	if !transaction.IsSettled() {
		return nil, ErrCodeNotReady
	}

	// The encrypted blob is excluded from normal projections; fetch it
	// explicitly here, in the one code path allowed to see it.
	var blobs []string
	if err := s.db.Model(&models.Voucher{}).
		Where("id = ?", transaction.VoucherID).
		Pluck("scratch_code", &blobs).Error; err != nil {
		return nil, fmt.Errorf("failed to load scratch code: %w", err)
	}
	if len(blobs) == 0 {
		return nil, ErrVoucherNotFound
	}

	code, err := utils.DecryptScratchCode(s.config.Secrets.ScratchCodeKey, blobs[0])
	if err != nil {
		if errors.Is(err, utils.ErrScratchIntegrity) || errors.Is(err, utils.ErrScratchBlobFormat) {
			s.recordIntegrityFailure(&transaction)
		}
		return nil, err
	}

	if !transaction.ScratchCodeRevealed {
		now := time.Now()
		if err := s.db.Model(&models.Transaction{}).
			Where("id = ?", transaction.ID).
			Updates(map[string]interface{}{
				"scratch_code_revealed": true,
				"revealed_at":           now,
			}).Error; err != nil {
			return nil, fmt.Errorf("failed to record reveal: %w", err)
		}
		transaction.RevealedAt = &now
	}

	return &RevealResponse{
		ScratchCode: code,
		Brand:       transaction.Voucher.Brand,
		ExpiryDate:  transaction.Voucher.ExpiryDate,
		RevealedAt:  transaction.RevealedAt,
	}, nil
}

func (s *PurchaseService) GetTransaction(transactionID, userID uuid.UUID, isAdmin bool) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Preload("Voucher").Preload("Buyer").Preload("Seller").
		First(&transaction, "id = ?", transactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !isAdmin && transaction.BuyerID != userID && transaction.SellerID != userID {
		return nil, ErrNotTransactionParty
	}

	return &transaction, nil
}

func (s *PurchaseService) ListTransactions(userID uuid.UUID, role string, params utils.PaginationParams) ([]models.Transaction, int64, error) {
	query := s.db.Model(&models.Transaction{}).Preload("Voucher")

	switch role {
	case "buyer":
		query = query.Where("buyer_id = ?", userID)
	case "seller":
		query = query.Where("seller_id = ?", userID)
	default:
		query = query.Where("buyer_id = ? OR seller_id = ?", userID, userID)
	}

	if params.Search != "" {
		query = query.Where("status = ?", params.Search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	allowedSortFields := []string{"created_at", "amount_paid", "status", "processed_at"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var transactions []models.Transaction
	if err := query.Find(&transactions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	return transactions, total, nil
}

// AttachPaymentProof lets the buyer attach an uploaded receipt to a
// manual payment awaiting admin review.
func (s *PurchaseService) AttachPaymentProof(buyerID, transactionID uuid.UUID, proofURL string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.First(&transaction, "id = ?", transactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if transaction.BuyerID != buyerID {
		return nil, ErrNotTransactionParty
	}

	if transaction.Status != models.TransactionStatusPendingAdmin &&
		transaction.Status != models.TransactionStatusPending {
		return nil, &models.InvalidTransitionError{From: transaction.Status, To: transaction.Status}
	}

	if err := s.db.Model(&transaction).Update("payment_proof", proofURL).Error; err != nil {
		return nil, fmt.Errorf("failed to attach payment proof: %w", err)
	}
	transaction.PaymentProof = proofURL

	return &transaction, nil
}

// FailStaleConfirmations sweeps manual payments that sat in
// pending_admin_confirmation past the configured timeout. Each one is
// failed and its unit restocked. Returns the number swept.
func (s *PurchaseService) FailStaleConfirmations(now time.Time) (int, error) {
	cutoff := now.Add(-time.Duration(s.config.Purchase.ConfirmationTimeoutHours) * time.Hour)

	var stale []models.Transaction
	if err := s.db.Where("status = ? AND created_at < ?",
		models.TransactionStatusPendingAdmin, cutoff).Find(&stale).Error; err != nil {
		return 0, fmt.Errorf("failed to list stale confirmations: %w", err)
	}

	swept := 0
	for i := range stale {
		transaction := stale[i]
		err := s.db.Transaction(func(tx *gorm.DB) error {
			// Re-check under the transaction; an admin may have confirmed
			// between the listing query and now.
			if err := tx.First(&transaction, "id = ?", transaction.ID).Error; err != nil {
				return err
			}
			if transaction.Status != models.TransactionStatusPendingAdmin {
				return nil
			}
			return s.failTransaction(tx, &transaction, "admin confirmation timed out")
		})
		if err != nil {
			logrus.WithError(err).WithField("transaction_id", transaction.ID).
				Warn("Failed to sweep stale confirmation")
			continue
		}
		if transaction.Status == models.TransactionStatusFailed {
			swept++
			if s.notificationService != nil {
				go s.notificationService.NotifyPurchaseRejected(&transaction, "admin confirmation timed out")
			}
		}
	}

	if swept > 0 {
		logrus.WithField("count", swept).Info("Swept stale manual confirmations")
	}

	return swept, nil
}

// Internal state helpers. All of them expect to run inside a database
// transaction passed in by the caller.

func (s *PurchaseService) settleTransaction(tx *gorm.DB, transaction *models.Transaction, to models.TransactionStatus) error {
	if err := transaction.Transition(to); err != nil {
		return err
	}

	now := time.Now()
	transaction.ProcessedAt = &now
	if err := tx.Save(transaction).Error; err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	return s.recordSale(tx, transaction)
}

// recordSale opens the seller's payout and bumps the sales counter.
// The payout amount is the snapshot frozen at purchase time.
func (s *PurchaseService) recordSale(tx *gorm.DB, transaction *models.Transaction) error {
	payout := &models.Payout{
		SellerID:      transaction.SellerID,
		TransactionID: transaction.ID,
		Amount:        transaction.SellerPayout,
		Status:        models.PayoutStatusPending,
	}
	if err := tx.Create(payout).Error; err != nil {
		return fmt.Errorf("failed to create payout: %w", err)
	}

	if err := tx.Model(&models.Voucher{}).
		Where("id = ?", transaction.VoucherID).
		UpdateColumn("sales_count", gorm.Expr("sales_count + 1")).Error; err != nil {
		return fmt.Errorf("failed to update sales count: %w", err)
	}

	return nil
}

func (s *PurchaseService) failTransaction(tx *gorm.DB, transaction *models.Transaction, reason string) error {
	if err := transaction.Transition(models.TransactionStatusFailed); err != nil {
		return err
	}

	transaction.FailureReason = reason
	if err := tx.Save(transaction).Error; err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	if transaction.PaymentMethod == models.PaymentMethodWallet {
		if err := creditWallet(tx, transaction.BuyerID, transaction.AmountPaid); err != nil {
			return err
		}
	}

	return s.restockVoucher(tx, transaction.VoucherID)
}

// restockVoucher returns one reserved unit and reopens a sold_out
// listing unless it expired in the meantime.
func (s *PurchaseService) restockVoucher(tx *gorm.DB, voucherID uuid.UUID) error {
	if err := tx.Model(&models.Voucher{}).
		Where("id = ?", voucherID).
		UpdateColumn("quantity", gorm.Expr("quantity + 1")).Error; err != nil {
		return fmt.Errorf("failed to restock voucher: %w", err)
	}

	if err := tx.Model(&models.Voucher{}).
		Where("id = ? AND status = ? AND expiry_date > ?",
			voucherID, models.VoucherStatusSoldOut, time.Now()).
		UpdateColumn("status", models.VoucherStatusPublished).Error; err != nil {
		return fmt.Errorf("failed to reopen voucher: %w", err)
	}

	return nil
}

func (s *PurchaseService) failAndRestock(transactionID uuid.UUID, reason string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var transaction models.Transaction
		if err := tx.First(&transaction, "id = ?", transactionID).Error; err != nil {
			return err
		}
		return s.failTransaction(tx, &transaction, reason)
	})
}

func (s *PurchaseService) recordIntegrityFailure(transaction *models.Transaction) {
	s.db.Model(&models.Voucher{}).
		Where("id = ?", transaction.VoucherID).
		UpdateColumn("attempts", gorm.Expr("attempts + 1"))

	notification := &models.AdminNotification{
		Type:     "scratch_code_integrity",
		Title:    "Scratch code failed decryption",
		Message:  fmt.Sprintf("Stored code for voucher %s could not be decrypted during reveal", transaction.VoucherID),
		Priority: "high",
		Data: models.JSONB{
			"voucher_id":     transaction.VoucherID.String(),
			"transaction_id": transaction.ID.String(),
			"buyer_id":       transaction.BuyerID.String(),
		},
	}
	if err := s.db.Create(notification).Error; err != nil {
		logrus.WithError(err).Error("Failed to record integrity alert")
	}

	logrus.WithFields(logrus.Fields{
		"voucher_id":     transaction.VoucherID,
		"transaction_id": transaction.ID,
	}).Error("Scratch code integrity failure")
}

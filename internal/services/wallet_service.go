// internal/services/wallet_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vouchify/vouchify-backend/internal/models"
)

type WalletService struct {
	db *gorm.DB
}

type TopUpRequest struct {
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Reference string  `json:"reference,omitempty"`
}

func NewWalletService(db *gorm.DB) *WalletService {
	return &WalletService{db: db}
}

func (s *WalletService) GetBalance(userID uuid.UUID) (float64, error) {
	var user models.User
	if err := s.db.Select("wallet_balance").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("database error: %w", err)
	}
	return user.WalletBalance, nil
}

// TopUp credits the wallet. Reconciliation against the external payment
// reference happens on the admin side; the balance itself is simple
// add/subtract bookkeeping.
func (s *WalletService) TopUp(userID uuid.UUID, req *TopUpRequest) (float64, error) {
	if err := creditWallet(s.db, userID, req.Amount); err != nil {
		return 0, err
	}
	return s.GetBalance(userID)
}

// creditWallet and debitWallet operate on whichever handle the caller
// passes so purchase flows can run them inside their own DB transaction.
func creditWallet(db *gorm.DB, userID uuid.UUID, amount float64) error {
	res := db.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("wallet_balance", gorm.Expr("wallet_balance + ?", amount))
	if res.Error != nil {
		return fmt.Errorf("failed to credit wallet: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// debitWallet is a conditional update: it only subtracts when the balance
// covers the amount, so two concurrent purchases cannot overdraw.
func debitWallet(db *gorm.DB, userID uuid.UUID, amount float64) error {
	res := db.Model(&models.User{}).
		Where("id = ? AND wallet_balance >= ?", userID, amount).
		UpdateColumn("wallet_balance", gorm.Expr("wallet_balance - ?", amount))
	if res.Error != nil {
		return fmt.Errorf("failed to debit wallet: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientBalance
	}
	return nil
}

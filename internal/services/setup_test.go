// internal/services/setup_test.go
package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vouchify/vouchify-backend/internal/config"
	"github.com/vouchify/vouchify-backend/internal/models"
	"github.com/vouchify/vouchify-backend/internal/utils"
)

const testScratchKey = "test-scratch-master-key-32-chars!!"

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// sqlite allows a single writer; cap the pool at one connection so
	// concurrent test traffic queues instead of hitting a busy error.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Voucher{},
		&models.Transaction{},
		&models.Payout{},
		&models.AdminSettings{},
		&models.AuditLog{},
		&models.AdminNotification{},
	)
	require.NoError(t, err)

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		JWT: config.JWTConfig{
			AccessTokenTTL:  24,
			RefreshTokenTTL: 168,
		},
		Payment: config.PaymentConfig{
			PlatformFeePercent:  5.0,
			CompanySharePercent: 2.0,
			MinimumPayout:       10.0,
		},
		Secrets: config.SecretsConfig{
			ScratchCodeKey: testScratchKey,
		},
		Purchase: config.PurchaseConfig{
			ConfirmationTimeoutHours: 48,
			ExpirySweepMinutes:       30,
		},
	}
}

func testPagination() utils.PaginationParams {
	return utils.PaginationParams{Page: 1, Limit: 20, Sort: "created_at", Order: "desc"}
}

func createTestUser(t *testing.T, db *gorm.DB, username string, balance float64) *models.User {
	t.Helper()

	user := &models.User{
		Username:      username,
		Email:         username + "@test.local",
		UserType:      models.UserTypeMember,
		Status:        models.UserStatusActive,
		WalletBalance: balance,
	}
	require.NoError(t, user.SetPassword("Testing123!"))
	require.NoError(t, db.Create(user).Error)

	return user
}

// createLiveVoucher writes a published, approved listing directly,
// bypassing the review queue. Returns the listing and the plaintext
// scratch code for reveal assertions.
func createLiveVoucher(t *testing.T, db *gorm.DB, sellerID uuid.UUID, quantity int, price float64) (*models.Voucher, string) {
	t.Helper()

	code := "TEST-" + uuid.New().String()[:13]
	blob, err := utils.EncryptScratchCode(testScratchKey, code)
	require.NoError(t, err)

	breakdown := ComputePayoutBreakdown(price, 5.0, 2.0)

	voucher := &models.Voucher{
		SellerID:            sellerID,
		Brand:               "Amazon",
		Title:               "Amazon Gift Card",
		Category:            "shopping",
		OriginalPrice:       price * 1.25,
		ListedPrice:         price,
		PlatformFeePercent:  5.0,
		CompanySharePercent: 2.0,
		SellerPayout:        breakdown.SellerPayout,
		Quantity:            quantity,
		LimitPerUser:        1,
		ExpiryDate:          time.Now().Add(30 * 24 * time.Hour),
		Status:              models.VoucherStatusPublished,
		IsApproved:          true,
		ScratchCode:         blob,
		ScratchCodeHash:     utils.HashScratchCode(code),
	}
	require.NoError(t, db.Create(voucher).Error)

	return voucher, code
}

// internal/database/connection.go
package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vouchify/vouchify-backend/internal/config"
	"github.com/vouchify/vouchify-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.Info("Database connection established")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed")
	}
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations")

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		return fmt.Errorf("failed to create UUID extension: %w", err)
	}

	err := db.AutoMigrate(
		&models.User{},
		&models.Voucher{},
		&models.Transaction{},
		&models.Payout{},
		&models.AdminSettings{},
		&models.AuditLog{},
		&models.AdminNotification{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logrus.Info("Database migrations completed")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_type_status ON users(user_type, status)",

		// Voucher indexes
		"CREATE INDEX IF NOT EXISTS idx_vouchers_seller ON vouchers(seller_id)",
		"CREATE INDEX IF NOT EXISTS idx_vouchers_brand_status ON vouchers(brand, status)",
		"CREATE INDEX IF NOT EXISTS idx_vouchers_status_expiry ON vouchers(status, expiry_date)",
		"CREATE INDEX IF NOT EXISTS idx_vouchers_code_hash ON vouchers(scratch_code_hash)",
		"CREATE INDEX IF NOT EXISTS idx_vouchers_created_at ON vouchers(created_at DESC)",

		// Transaction indexes
		"CREATE INDEX IF NOT EXISTS idx_transactions_buyer ON transactions(buyer_id)",
		"CREATE INDEX IF NOT EXISTS idx_transactions_seller ON transactions(seller_id)",
		"CREATE INDEX IF NOT EXISTS idx_transactions_voucher ON transactions(voucher_id)",
		"CREATE INDEX IF NOT EXISTS idx_transactions_status_created ON transactions(status, created_at)",

		// Payout indexes
		"CREATE INDEX IF NOT EXISTS idx_payouts_seller_status ON payouts(seller_id, status)",

		// Admin indexes
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_action ON audit_logs(user_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_admin_notifications_status ON admin_notifications(status, priority)",
		"CREATE INDEX IF NOT EXISTS idx_admin_settings_category ON admin_settings(category, key)",

		// Full-text search index
		"CREATE INDEX IF NOT EXISTS idx_vouchers_search ON vouchers USING GIN(to_tsvector('english', brand || ' ' || title || ' ' || coalesce(description, '')))",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			logrus.WithError(err).Warnf("Failed to create index: %s", index)
		}
	}

	return nil
}

// SeedInitialData creates the default admin account and platform
// settings on first boot.
func SeedInitialData(db *gorm.DB) error {
	logrus.Info("Seeding initial data")

	var adminCount int64
	db.Model(&models.User{}).Where("user_type = ?", models.UserTypeAdmin).Count(&adminCount)

	if adminCount == 0 {
		admin := &models.User{
			Username: "admin",
			Email:    "admin@vouchify.app",
			UserType: models.UserTypeAdmin,
			Status:   models.UserStatusActive,
			ProfileData: models.JSONB{
				"role": "super_admin",
			},
		}

		if err := admin.SetPassword("admin123!@#"); err != nil {
			return fmt.Errorf("failed to set admin password: %w", err)
		}

		if err := db.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		logrus.Info("Default admin user created")
	}

	defaultSettings := []models.AdminSettings{
		{
			Category:    "general",
			Key:         "platform_name",
			Value:       models.JSONB{"value": "Vouchify"},
			DataType:    "string",
			Description: "Platform name displayed to users",
		},
		{
			Category:    "payments",
			Key:         "platform_fee_percent",
			Value:       models.JSONB{"value": 5.0},
			DataType:    "number",
			Description: "Platform fee percentage applied to new listings",
		},
		{
			Category:    "payments",
			Key:         "company_share_percent",
			Value:       models.JSONB{"value": 2.0},
			DataType:    "number",
			Description: "Company share percentage applied to new listings",
		},
		{
			Category:    "payments",
			Key:         "minimum_payout",
			Value:       models.JSONB{"value": 10.0},
			DataType:    "number",
			Description: "Minimum amount for payout disbursement",
		},
		{
			Category:    "purchases",
			Key:         "confirmation_timeout_hours",
			Value:       models.JSONB{"value": 48},
			DataType:    "number",
			Description: "Hours before an unconfirmed manual payment is failed",
		},
		{
			Category:    "content",
			Key:         "auto_approve_vouchers",
			Value:       models.JSONB{"value": false},
			DataType:    "boolean",
			Description: "Publish new voucher listings without admin review",
		},
	}

	for _, setting := range defaultSettings {
		var count int64
		db.Model(&models.AdminSettings{}).Where("category = ? AND key = ?", setting.Category, setting.Key).Count(&count)

		if count == 0 {
			var admin models.User
			if err := db.Where("user_type = ?", models.UserTypeAdmin).First(&admin).Error; err == nil {
				setting.UpdatedBy = admin.ID
				if err := db.Create(&setting).Error; err != nil {
					logrus.WithError(err).Warnf("Failed to create setting %s.%s", setting.Category, setting.Key)
				}
			}
		}
	}

	logrus.Info("Initial data seeding completed")
	return nil
}

// WithTransaction runs fn inside a transaction, rolling back on error
// or panic.
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

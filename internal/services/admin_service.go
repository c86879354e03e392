// internal/services/admin_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vouchify/vouchify-backend/internal/models"
	"github.com/vouchify/vouchify-backend/internal/utils"
)

type AdminService struct {
	db                  *gorm.DB
	notificationService *NotificationService
}

type AdminDashboardStats struct {
	TotalUsers        int64 `json:"total_users"`
	ActiveUsers       int64 `json:"active_users"`
	NewUsersThisMonth int64 `json:"new_users_this_month"`

	TotalVouchers   int64 `json:"total_vouchers"`
	PendingVouchers int64 `json:"pending_vouchers"`
	LiveVouchers    int64 `json:"live_vouchers"`

	TotalTransactions    int64 `json:"total_transactions"`
	PendingConfirmations int64 `json:"pending_confirmations"`
	PendingPayouts       int64 `json:"pending_payouts"`

	TotalRevenue   float64 `json:"total_revenue"`
	MonthlyRevenue float64 `json:"monthly_revenue"`
	PlatformFees   float64 `json:"platform_fees"`
	RevenueGrowth  float64 `json:"revenue_growth"`
	UserGrowth     float64 `json:"user_growth"`
}

type AdminUserFilter struct {
	utils.PaginationParams
	UserType *models.UserType   `json:"user_type,omitempty"`
	Status   *models.UserStatus `json:"status,omitempty"`
}

type AdminVoucherFilter struct {
	utils.PaginationParams
	Status   *models.VoucherStatus `json:"status,omitempty"`
	SellerID *uuid.UUID            `json:"seller_id,omitempty"`
}

type AdminTransactionFilter struct {
	utils.PaginationParams
	Status        *models.TransactionStatus `json:"status,omitempty"`
	PaymentMethod *models.PaymentMethod     `json:"payment_method,omitempty"`
	CreatedAfter  *time.Time                `json:"created_after,omitempty"`
	CreatedBefore *time.Time                `json:"created_before,omitempty"`
}

type AdminPayoutFilter struct {
	utils.PaginationParams
	Status   *models.PayoutStatus `json:"status,omitempty"`
	SellerID *uuid.UUID           `json:"seller_id,omitempty"`
}

func NewAdminService(db *gorm.DB, notificationService *NotificationService) *AdminService {
	return &AdminService{
		db:                  db,
		notificationService: notificationService,
	}
}

func (s *AdminService) GetDashboardStats() (*AdminDashboardStats, error) {
	stats := &AdminDashboardStats{}
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonthStart := monthStart.AddDate(0, -1, 0)

	s.db.Model(&models.User{}).Count(&stats.TotalUsers)
	s.db.Model(&models.User{}).Where("status = ?", models.UserStatusActive).Count(&stats.ActiveUsers)
	s.db.Model(&models.User{}).Where("created_at >= ?", monthStart).Count(&stats.NewUsersThisMonth)

	s.db.Model(&models.Voucher{}).Count(&stats.TotalVouchers)
	s.db.Model(&models.Voucher{}).Where("status = ?", models.VoucherStatusPending).Count(&stats.PendingVouchers)
	s.db.Model(&models.Voucher{}).Where("status = ?", models.VoucherStatusPublished).Count(&stats.LiveVouchers)

	s.db.Model(&models.Transaction{}).Count(&stats.TotalTransactions)
	s.db.Model(&models.Transaction{}).
		Where("status = ?", models.TransactionStatusPendingAdmin).Count(&stats.PendingConfirmations)
	s.db.Model(&models.Payout{}).
		Where("status = ?", models.PayoutStatusPending).Count(&stats.PendingPayouts)

	settled := []models.TransactionStatus{models.TransactionStatusCompleted, models.TransactionStatusPaid}

	s.db.Model(&models.Transaction{}).
		Where("status IN ?", settled).
		Select("COALESCE(SUM(amount_paid), 0)").Scan(&stats.TotalRevenue)

	s.db.Model(&models.Transaction{}).
		Where("status IN ? AND created_at >= ?", settled, monthStart).
		Select("COALESCE(SUM(amount_paid), 0)").Scan(&stats.MonthlyRevenue)

	s.db.Model(&models.Transaction{}).
		Where("status IN ?", settled).
		Select("COALESCE(SUM(platform_fee + company_share), 0)").Scan(&stats.PlatformFees)

	var lastMonthUsers int64
	s.db.Model(&models.User{}).
		Where("created_at >= ? AND created_at < ?", lastMonthStart, monthStart).
		Count(&lastMonthUsers)

	var lastMonthRevenue float64
	s.db.Model(&models.Transaction{}).
		Where("status IN ? AND created_at >= ? AND created_at < ?", settled, lastMonthStart, monthStart).
		Select("COALESCE(SUM(amount_paid), 0)").Scan(&lastMonthRevenue)

	if lastMonthUsers > 0 {
		stats.UserGrowth = float64(stats.NewUsersThisMonth-lastMonthUsers) / float64(lastMonthUsers) * 100
	}
	if lastMonthRevenue > 0 {
		stats.RevenueGrowth = (stats.MonthlyRevenue - lastMonthRevenue) / lastMonthRevenue * 100
	}

	return stats, nil
}

// User management

func (s *AdminService) GetUsers(filter AdminUserFilter) ([]models.User, int64, error) {
	query := s.db.Model(&models.User{})

	if filter.UserType != nil {
		query = query.Where("user_type = ?", *filter.UserType)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		searchTerm := "%" + filter.Search + "%"
		query = query.Where("username ILIKE ? OR email ILIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "username", "email", "status", "wallet_balance"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	return users, total, nil
}

func (s *AdminService) UpdateUserStatus(userID uuid.UUID, status models.UserStatus, adminID uuid.UUID, reason string) error {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	if user.UserType == models.UserTypeAdmin && user.ID != adminID {
		return errors.New("cannot modify another admin's status")
	}

	oldStatus := user.Status
	user.Status = status

	if err := s.db.Save(&user).Error; err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}

	go s.createAuditLog(adminID, "UPDATE_USER_STATUS", "user", &userID,
		map[string]interface{}{"status": oldStatus},
		map[string]interface{}{"status": status, "reason": reason})

	return nil
}

// Voucher moderation

func (s *AdminService) GetVouchers(filter AdminVoucherFilter) ([]models.Voucher, int64, error) {
	query := s.db.Model(&models.Voucher{}).Preload("Seller")

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.SellerID != nil {
		query = query.Where("seller_id = ?", *filter.SellerID)
	}
	if filter.Brand != "" {
		query = query.Where("brand = ?", filter.Brand)
	}
	if filter.Search != "" {
		searchTerm := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR brand ILIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count vouchers: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "status", "listed_price", "expiry_date"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var vouchers []models.Voucher
	if err := query.Find(&vouchers).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch vouchers: %w", err)
	}

	return vouchers, total, nil
}

// ApproveVoucher publishes a pending listing.
func (s *AdminService) ApproveVoucher(voucherID, adminID uuid.UUID) error {
	var voucher models.Voucher
	if err := s.db.First(&voucher, "id = ?", voucherID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVoucherNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	if voucher.Status != models.VoucherStatusPending {
		return ErrVoucherNotAvailable
	}
	if voucher.IsExpired(time.Now()) {
		return ErrVoucherExpired
	}

	updates := map[string]interface{}{
		"status":      models.VoucherStatusPublished,
		"is_approved": true,
	}
	if err := s.db.Model(&voucher).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to approve voucher: %w", err)
	}

	go s.createAuditLog(adminID, "APPROVE_VOUCHER", "voucher", &voucherID,
		map[string]interface{}{"status": models.VoucherStatusPending},
		map[string]interface{}{"status": models.VoucherStatusPublished})

	if s.notificationService != nil {
		go s.notificationService.NotifyVoucherApproved(&voucher)
	}

	return nil
}

func (s *AdminService) RejectVoucher(voucherID, adminID uuid.UUID, reason string) error {
	var voucher models.Voucher
	if err := s.db.First(&voucher, "id = ?", voucherID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVoucherNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	if voucher.Status != models.VoucherStatusPending {
		return ErrVoucherNotAvailable
	}

	updates := map[string]interface{}{
		"status":      models.VoucherStatusRejected,
		"is_approved": false,
	}
	if err := s.db.Model(&voucher).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to reject voucher: %w", err)
	}

	go s.createAuditLog(adminID, "REJECT_VOUCHER", "voucher", &voucherID,
		map[string]interface{}{"status": models.VoucherStatusPending},
		map[string]interface{}{"status": models.VoucherStatusRejected, "reason": reason})

	if s.notificationService != nil {
		go s.notificationService.NotifyVoucherRejected(&voucher, reason)
	}

	return nil
}

// Transaction oversight

func (s *AdminService) GetTransactions(filter AdminTransactionFilter) ([]models.Transaction, int64, error) {
	query := s.db.Model(&models.Transaction{}).
		Preload("Voucher").Preload("Buyer").Preload("Seller")

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PaymentMethod != nil {
		query = query.Where("payment_method = ?", *filter.PaymentMethod)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	allowedSortFields := []string{"created_at", "amount_paid", "status", "processed_at"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var transactions []models.Transaction
	if err := query.Find(&transactions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	return transactions, total, nil
}

// Payout management

func (s *AdminService) GetPayouts(filter AdminPayoutFilter) ([]models.Payout, int64, error) {
	query := s.db.Model(&models.Payout{}).Preload("Seller").Preload("Transaction")

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.SellerID != nil {
		query = query.Where("seller_id = ?", *filter.SellerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count payouts: %w", err)
	}

	allowedSortFields := []string{"created_at", "amount", "status", "paid_at"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var payouts []models.Payout
	if err := query.Find(&payouts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch payouts: %w", err)
	}

	return payouts, total, nil
}

func (s *AdminService) GetPayout(payoutID uuid.UUID) (*models.Payout, error) {
	var payout models.Payout
	if err := s.db.Preload("Seller").Preload("Transaction").
		First(&payout, "id = ?", payoutID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPayoutNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &payout, nil
}

// MarkPayoutPaid records the off-platform disbursement with its
// transfer reference.
func (s *AdminService) MarkPayoutPaid(payoutID, adminID uuid.UUID, adminReference string) (*models.Payout, error) {
	var payout models.Payout
	if err := s.db.First(&payout, "id = ?", payoutID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPayoutNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if payout.Status != models.PayoutStatusPending {
		return nil, errors.New("only pending payouts can be marked paid")
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":          models.PayoutStatusPaid,
		"admin_reference": adminReference,
		"paid_at":         now,
	}
	if err := s.db.Model(&payout).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to mark payout paid: %w", err)
	}
	payout.Status = models.PayoutStatusPaid
	payout.AdminReference = adminReference
	payout.PaidAt = &now

	go s.createAuditLog(adminID, "MARK_PAYOUT_PAID", "payout", &payoutID,
		map[string]interface{}{"status": models.PayoutStatusPending},
		map[string]interface{}{"status": models.PayoutStatusPaid, "reference": adminReference})

	if s.notificationService != nil {
		go s.notificationService.NotifyPayoutPaid(&payout)
	}

	return &payout, nil
}

func (s *AdminService) RejectPayout(payoutID, adminID uuid.UUID, reason string) (*models.Payout, error) {
	var payout models.Payout
	if err := s.db.First(&payout, "id = ?", payoutID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPayoutNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if payout.Status != models.PayoutStatusPending {
		return nil, errors.New("only pending payouts can be rejected")
	}

	updates := map[string]interface{}{
		"status":        models.PayoutStatusRejected,
		"reject_reason": reason,
	}
	if err := s.db.Model(&payout).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to reject payout: %w", err)
	}
	payout.Status = models.PayoutStatusRejected
	payout.RejectReason = reason

	go s.createAuditLog(adminID, "REJECT_PAYOUT", "payout", &payoutID,
		map[string]interface{}{"status": models.PayoutStatusPending},
		map[string]interface{}{"status": models.PayoutStatusRejected, "reason": reason})

	return &payout, nil
}

// AddPayoutQuery appends a message to the payout's query thread. Both
// the seller and admins use this to dispute or clarify a disbursement.
func (s *AdminService) AddPayoutQuery(payoutID, authorID uuid.UUID, message string) (*models.Payout, error) {
	var payout models.Payout
	if err := s.db.First(&payout, "id = ?", payoutID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPayoutNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if payout.Queries == nil {
		payout.Queries = models.JSONB{"messages": []interface{}{}}
	}

	messages, _ := payout.Queries["messages"].([]interface{})
	messages = append(messages, map[string]interface{}{
		"author_id": authorID.String(),
		"message":   message,
		"at":        time.Now().Format(time.RFC3339),
	})
	payout.Queries["messages"] = messages

	if err := s.db.Model(&payout).Update("queries", payout.Queries).Error; err != nil {
		return nil, fmt.Errorf("failed to add payout query: %w", err)
	}

	return &payout, nil
}

// Settings

func (s *AdminService) GetSettings() (map[string]models.AdminSettings, error) {
	var settings []models.AdminSettings
	if err := s.db.Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch settings: %w", err)
	}

	result := make(map[string]models.AdminSettings)
	for _, setting := range settings {
		result[setting.Category+"."+setting.Key] = setting
	}

	return result, nil
}

func (s *AdminService) UpdateSetting(category, key string, value interface{}, dataType string, adminID uuid.UUID) error {
	var setting models.AdminSettings
	err := s.db.Where("category = ? AND key = ?", category, key).First(&setting).Error

	newValue := models.JSONB{"value": value}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		setting = models.AdminSettings{
			Category:  category,
			Key:       key,
			Value:     newValue,
			DataType:  dataType,
			UpdatedBy: adminID,
		}
		if err := s.db.Create(&setting).Error; err != nil {
			return fmt.Errorf("failed to create setting: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("database error: %w", err)
	} else {
		oldValue := setting.Value
		setting.Value = newValue
		setting.DataType = dataType
		setting.UpdatedBy = adminID

		if err := s.db.Save(&setting).Error; err != nil {
			return fmt.Errorf("failed to update setting: %w", err)
		}

		go s.createAuditLog(adminID, "UPDATE_SETTING", "admin_settings", &setting.ID,
			map[string]interface{}{"value": oldValue},
			map[string]interface{}{"value": newValue})
	}

	return nil
}

// Notifications

func (s *AdminService) GetNotifications(params utils.PaginationParams) ([]models.AdminNotification, int64, error) {
	query := s.db.Model(&models.AdminNotification{})

	if params.Search != "" {
		query = query.Where("status = ?", params.Search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	allowedSortFields := []string{"created_at", "priority", "status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var notifications []models.AdminNotification
	if err := query.Find(&notifications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	return notifications, total, nil
}

func (s *AdminService) MarkNotificationRead(notificationID uuid.UUID) error {
	now := time.Now()
	res := s.db.Model(&models.AdminNotification{}).
		Where("id = ?", notificationID).
		Updates(map[string]interface{}{"status": "read", "read_at": now})
	if res.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.New("notification not found")
	}
	return nil
}

// Audit

func (s *AdminService) GetAuditLogs(params utils.PaginationParams) ([]models.AuditLog, int64, error) {
	query := s.db.Model(&models.AuditLog{}).Preload("User")

	if params.Search != "" {
		query = query.Where("action = ? OR resource_type = ?", params.Search, params.Search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	allowedSortFields := []string{"created_at", "action", "resource_type"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var logs []models.AuditLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit logs: %w", err)
	}

	return logs, total, nil
}

func (s *AdminService) createAuditLog(userID uuid.UUID, action, resourceType string, resourceID *uuid.UUID, oldValues, newValues map[string]interface{}) {
	log := &models.AuditLog{
		UserID:       &userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		OldValues:    models.JSONB(oldValues),
		NewValues:    models.JSONB(newValues),
	}
	s.db.Create(log)
}

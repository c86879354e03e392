// internal/services/voucher_service.go
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/vouchify/vouchify-backend/internal/config"
	"github.com/vouchify/vouchify-backend/internal/models"
	"github.com/vouchify/vouchify-backend/internal/utils"
)

type VoucherService struct {
	db                  *gorm.DB
	config              *config.Config
	notificationService *NotificationService
}

type CreateVoucherRequest struct {
	Brand         string    `json:"brand" validate:"required,min=2,max=100"`
	Title         string    `json:"title" validate:"required,min=3,max=255"`
	Description   string    `json:"description,omitempty"`
	Category      string    `json:"category" validate:"required"`
	OriginalPrice float64   `json:"original_price" validate:"required,gt=0"`
	ListedPrice   float64   `json:"listed_price" validate:"required,gt=0"`
	Quantity      int       `json:"quantity" validate:"required,min=1"`
	LimitPerUser  int       `json:"limit_per_user" validate:"min=1"`
	ExpiryDate    time.Time `json:"expiry_date" validate:"required"`
	ScratchCode   string    `json:"scratch_code" validate:"required,scratch_code"`
	Images        []string  `json:"images,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	Draft         bool      `json:"draft,omitempty"`
}

type UpdateVoucherRequest struct {
	Title        string     `json:"title,omitempty" validate:"omitempty,min=3,max=255"`
	Description  string     `json:"description,omitempty"`
	Category     string     `json:"category,omitempty"`
	ListedPrice  float64    `json:"listed_price,omitempty" validate:"omitempty,gt=0"`
	Quantity     *int       `json:"quantity,omitempty" validate:"omitempty,min=0"`
	LimitPerUser *int       `json:"limit_per_user,omitempty" validate:"omitempty,min=1"`
	ExpiryDate   *time.Time `json:"expiry_date,omitempty"`
	Images       []string   `json:"images,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
}

type VoucherSearchParams struct {
	utils.PaginationParams
	SellerID *uuid.UUID `json:"seller_id,omitempty"`
	PriceMin *float64   `json:"price_min,omitempty"`
	PriceMax *float64   `json:"price_max,omitempty"`
	Tags     []string   `json:"tags,omitempty"`
}

func NewVoucherService(db *gorm.DB, cfg *config.Config, notificationService *NotificationService) *VoucherService {
	return &VoucherService{
		db:                  db,
		config:              cfg,
		notificationService: notificationService,
	}
}

// CreateVoucher lists a voucher for sale. The scratch code is encrypted
// before it touches the database; a missing encryption key fails the whole
// request rather than storing plaintext.
func (s *VoucherService) CreateVoucher(sellerID uuid.UUID, req *CreateVoucherRequest) (*models.Voucher, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if req.ListedPrice > req.OriginalPrice {
		return nil, ErrPriceExceedsOriginal
	}

	if !req.ExpiryDate.After(time.Now()) {
		return nil, ErrVoucherExpired
	}

	var seller models.User
	if err := s.db.First(&seller, "id = ?", sellerID).Error; err != nil {
		return nil, fmt.Errorf("seller not found: %w", err)
	}

	if seller.Status != models.UserStatusActive {
		return nil, errors.New("seller account is not active")
	}

	codeHash := utils.HashScratchCode(req.ScratchCode)

	// Duplicate-listing detection: the same real-world code must not be
	// listed twice while a live listing for it exists.
	var duplicates int64
	if err := s.db.Model(&models.Voucher{}).
		Where("scratch_code_hash = ? AND status NOT IN ?", codeHash,
			[]models.VoucherStatus{models.VoucherStatusRejected, models.VoucherStatusExpired}).
		Count(&duplicates).Error; err != nil {
		return nil, fmt.Errorf("failed to check duplicate code: %w", err)
	}
	if duplicates > 0 {
		return nil, ErrDuplicateScratchCode
	}

	ciphertext, err := utils.EncryptScratchCode(s.config.Secrets.ScratchCodeKey, req.ScratchCode)
	if err != nil {
		return nil, err
	}

	limitPerUser := req.LimitPerUser
	if limitPerUser == 0 {
		limitPerUser = 1
	}

	status := models.VoucherStatusPending
	if req.Draft {
		status = models.VoucherStatusDraft
	}

	breakdown := ComputePayoutBreakdown(req.ListedPrice,
		s.config.Payment.PlatformFeePercent, s.config.Payment.CompanySharePercent)

	voucher := &models.Voucher{
		SellerID:            sellerID,
		Brand:               req.Brand,
		Title:               req.Title,
		Description:         req.Description,
		Category:            req.Category,
		Images:              req.Images,
		Tags:                req.Tags,
		OriginalPrice:       req.OriginalPrice,
		ListedPrice:         req.ListedPrice,
		DiscountPercent:     ComputeDiscountPercent(req.OriginalPrice, req.ListedPrice),
		PlatformFeePercent:  s.config.Payment.PlatformFeePercent,
		CompanySharePercent: s.config.Payment.CompanySharePercent,
		SellerPayout:        breakdown.SellerPayout,
		Quantity:            req.Quantity,
		LimitPerUser:        limitPerUser,
		ExpiryDate:          req.ExpiryDate,
		Status:              status,
		ScratchCode:         ciphertext,
		ScratchCodeHash:     codeHash,
	}

	if err := s.db.Create(voucher).Error; err != nil {
		return nil, fmt.Errorf("failed to create voucher: %w", err)
	}

	if s.notificationService != nil && status == models.VoucherStatusPending {
		go s.notificationService.NotifyAdminsVoucherReview(voucher)
	}

	return voucher, nil
}

func (s *VoucherService) GetVoucher(id uuid.UUID, userID *uuid.UUID, isAdmin bool) (*models.Voucher, error) {
	var voucher models.Voucher
	if err := s.db.Preload("Seller").First(&voucher, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVoucherNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	// Non-published listings are visible only to their seller and admins.
	if voucher.Status != models.VoucherStatusPublished &&
		voucher.Status != models.VoucherStatusSoldOut && !isAdmin {
		if userID == nil || *userID != voucher.SellerID {
			return nil, ErrVoucherNotFound
		}
	}

	if userID == nil || *userID != voucher.SellerID {
		go s.incrementViewCount(id)
	}

	return &voucher, nil
}

func (s *VoucherService) UpdateVoucher(id uuid.UUID, sellerID uuid.UUID, req *UpdateVoucherRequest) (*models.Voucher, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var voucher models.Voucher
	if err := s.db.First(&voucher, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVoucherNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if voucher.SellerID != sellerID {
		return nil, ErrNotVoucherOwner
	}

	updates := make(map[string]interface{})
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Category != "" {
		updates["category"] = req.Category
	}
	if req.ListedPrice > 0 {
		if req.ListedPrice > voucher.OriginalPrice {
			return nil, ErrPriceExceedsOriginal
		}
		// Re-freeze the payout breakdown whenever pricing inputs change.
		breakdown := ComputePayoutBreakdown(req.ListedPrice,
			voucher.PlatformFeePercent, voucher.CompanySharePercent)
		updates["listed_price"] = req.ListedPrice
		updates["discount_percent"] = ComputeDiscountPercent(voucher.OriginalPrice, req.ListedPrice)
		updates["seller_payout"] = breakdown.SellerPayout
	}
	if req.Quantity != nil {
		updates["quantity"] = *req.Quantity
		if *req.Quantity > 0 && voucher.Status == models.VoucherStatusSoldOut {
			updates["status"] = models.VoucherStatusPublished
		}
	}
	if req.LimitPerUser != nil {
		updates["limit_per_user"] = *req.LimitPerUser
	}
	if req.ExpiryDate != nil {
		if !req.ExpiryDate.After(time.Now()) {
			return nil, ErrVoucherExpired
		}
		updates["expiry_date"] = *req.ExpiryDate
	}
	if req.Images != nil {
		updates["images"] = pq.StringArray(req.Images)
	}
	if req.Tags != nil {
		updates["tags"] = pq.StringArray(req.Tags)
	}

	if err := s.db.Model(&voucher).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update voucher: %w", err)
	}

	s.db.Preload("Seller").First(&voucher, "id = ?", id)
	return &voucher, nil
}

func (s *VoucherService) DeleteVoucher(id uuid.UUID, callerID uuid.UUID, isAdmin bool) error {
	var voucher models.Voucher
	if err := s.db.First(&voucher, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVoucherNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	if voucher.SellerID != callerID && !isAdmin {
		return ErrNotVoucherOwner
	}

	var salesCount int64
	if err := s.db.Model(&models.Transaction{}).
		Where("voucher_id = ? AND status IN ?", id,
			[]models.TransactionStatus{models.TransactionStatusCompleted, models.TransactionStatusPaid}).
		Count(&salesCount).Error; err != nil {
		return fmt.Errorf("failed to check sales: %w", err)
	}

	if salesCount > 0 {
		return ErrVoucherHasSales
	}

	// Soft delete
	if err := s.db.Delete(&voucher).Error; err != nil {
		return fmt.Errorf("failed to delete voucher: %w", err)
	}

	return nil
}

func (s *VoucherService) SearchVouchers(params VoucherSearchParams) ([]models.Voucher, int64, error) {
	now := time.Now()
	query := s.db.Model(&models.Voucher{}).Preload("Seller").
		Where("status = ? AND is_approved = ? AND expiry_date > ?",
			models.VoucherStatusPublished, true, now)

	if params.SellerID != nil {
		query = query.Where("seller_id = ?", *params.SellerID)
	}

	if params.Brand != "" {
		query = query.Where("LOWER(brand) = ?", strings.ToLower(params.Brand))
	}

	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(brand) LIKE ? OR LOWER(description) LIKE ?",
			searchTerm, searchTerm, searchTerm)
	}

	if params.PriceMin != nil {
		query = query.Where("listed_price >= ?", *params.PriceMin)
	}

	if params.PriceMax != nil {
		query = query.Where("listed_price <= ?", *params.PriceMax)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count vouchers: %w", err)
	}

	allowedSortFields := []string{"created_at", "listed_price", "discount_percent", "expiry_date", "sales_count"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var vouchers []models.Voucher
	if err := query.Find(&vouchers).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch vouchers: %w", err)
	}

	return vouchers, total, nil
}

func (s *VoucherService) GetSellerVouchers(sellerID uuid.UUID, params utils.PaginationParams) ([]models.Voucher, int64, error) {
	query := s.db.Model(&models.Voucher{}).Where("seller_id = ?", sellerID)

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(brand) LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count seller vouchers: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "status", "listed_price", "quantity"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var vouchers []models.Voucher
	if err := query.Find(&vouchers).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch seller vouchers: %w", err)
	}

	return vouchers, total, nil
}

func (s *VoucherService) GetBrands() ([]string, error) {
	var brands []string
	if err := s.db.Model(&models.Voucher{}).
		Where("status = ?", models.VoucherStatusPublished).
		Distinct().Order("brand").Pluck("brand", &brands).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch brands: %w", err)
	}
	return brands, nil
}

// ExpireVouchers sweeps published listings whose expiry date has passed.
// Returns the number of vouchers expired.
func (s *VoucherService) ExpireVouchers(now time.Time) (int64, error) {
	res := s.db.Model(&models.Voucher{}).
		Where("status IN ? AND expiry_date <= ?",
			[]models.VoucherStatus{models.VoucherStatusPublished, models.VoucherStatusPending, models.VoucherStatusSoldOut}, now).
		Update("status", models.VoucherStatusExpired)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to expire vouchers: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Helper methods

func (s *VoucherService) incrementViewCount(voucherID uuid.UUID) {
	s.db.Model(&models.Voucher{}).Where("id = ?", voucherID).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))
}

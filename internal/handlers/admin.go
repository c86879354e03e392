// internal/handlers/admin.go
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vouchify/vouchify-backend/internal/i18n"
	"github.com/vouchify/vouchify-backend/internal/models"
	"github.com/vouchify/vouchify-backend/internal/services"
	"github.com/vouchify/vouchify-backend/internal/utils"
)

type AdminHandler struct {
	adminService    *services.AdminService
	purchaseService *services.PurchaseService
	storageService  *services.StorageService
}

func NewAdminHandler(adminService *services.AdminService, purchaseService *services.PurchaseService, storageService *services.StorageService) *AdminHandler {
	return &AdminHandler{
		adminService:    adminService,
		purchaseService: purchaseService,
		storageService:  storageService,
	}
}

// GET /admin/dashboard
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"stats": stats})
}

// GET /admin/users
func (h *AdminHandler) GetUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	filter := services.AdminUserFilter{PaginationParams: params}
	if userType := c.Query("user_type"); userType != "" {
		ut := models.UserType(userType)
		filter.UserType = &ut
	}
	if status := c.Query("status"); status != "" {
		us := models.UserStatus(status)
		filter.Status = &us
	}

	users, total, err := h.adminService.GetUsers(filter)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(users, total, params)
	utils.PaginatedResponse(c, result)
}

// PUT /admin/users/:id/status
func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return
	}

	var req struct {
		Status string `json:"status" validate:"required,oneof=active suspended banned"`
		Reason string `json:"reason,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	if err := h.adminService.UpdateUserStatus(userID, models.UserStatus(req.Status), adminID, req.Reason); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "user status updated"})
}

// GET /admin/vouchers
func (h *AdminHandler) GetVouchers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	filter := services.AdminVoucherFilter{PaginationParams: params}
	if status := c.Query("status"); status != "" {
		vs := models.VoucherStatus(status)
		filter.Status = &vs
	}
	if sellerIDStr := c.Query("seller_id"); sellerIDStr != "" {
		if sellerID, err := uuid.Parse(sellerIDStr); err == nil {
			filter.SellerID = &sellerID
		}
	}

	vouchers, total, err := h.adminService.GetVouchers(filter)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(vouchers, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /admin/vouchers/:id/approve
func (h *AdminHandler) ApproveVoucher(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}

	voucherID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid voucher ID", nil)
		return
	}

	if err := h.adminService.ApproveVoucher(voucherID, adminID); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyVoucherApproved),
	})
}

// POST /admin/vouchers/:id/reject
func (h *AdminHandler) RejectVoucher(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}

	voucherID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid voucher ID", nil)
		return
	}

	var req struct {
		Reason string `json:"reason" validate:"required,max=1000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if err := h.adminService.RejectVoucher(voucherID, adminID, req.Reason); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyVoucherRejected),
	})
}

// GET /admin/transactions
func (h *AdminHandler) GetTransactions(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	filter := services.AdminTransactionFilter{PaginationParams: params}
	if status := c.Query("status"); status != "" {
		ts := models.TransactionStatus(status)
		filter.Status = &ts
	}
	if method := c.Query("payment_method"); method != "" {
		pm := models.PaymentMethod(method)
		filter.PaymentMethod = &pm
	}
	if afterStr := c.Query("created_after"); afterStr != "" {
		if after, err := time.Parse(time.RFC3339, afterStr); err == nil {
			filter.CreatedAfter = &after
		}
	}
	if beforeStr := c.Query("created_before"); beforeStr != "" {
		if before, err := time.Parse(time.RFC3339, beforeStr); err == nil {
			filter.CreatedBefore = &before
		}
	}

	transactions, total, err := h.adminService.GetTransactions(filter)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(transactions, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /admin/transactions/:id/confirm
func (h *AdminHandler) ConfirmTransaction(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}

	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid transaction ID", nil)
		return
	}

	transaction, err := h.purchaseService.ConfirmTransaction(adminID, transactionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeyPurchaseConfirmed),
		"transaction": transaction,
	})
}

// POST /admin/transactions/:id/reject
func (h *AdminHandler) RejectTransaction(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}

	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid transaction ID", nil)
		return
	}

	var req struct {
		Reason string `json:"reason" validate:"required,max=1000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	transaction, err := h.purchaseService.RejectTransaction(adminID, transactionID, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeyPurchaseRejected),
		"transaction": transaction,
	})
}

// POST /admin/transactions/:id/refund
func (h *AdminHandler) RefundTransaction(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}

	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid transaction ID", nil)
		return
	}

	var req struct {
		Reason string `json:"reason" validate:"required,max=1000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	transaction, err := h.purchaseService.RefundTransaction(adminID, transactionID, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeyPurchaseRefunded),
		"transaction": transaction,
	})
}

// GET /admin/transactions/:id/payment-proof
func (h *AdminHandler) GetPaymentProofURL(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}

	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid transaction ID", nil)
		return
	}

	transaction, err := h.purchaseService.GetTransaction(transactionID, adminID, true)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if transaction.PaymentProof == "" {
		utils.NotFoundResponse(c, "payment proof")
		return
	}

	url, err := h.storageService.GeneratePresignedURL(transaction.PaymentProof, 15*time.Minute)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"url": url})
}

// GET /admin/payouts
func (h *AdminHandler) GetPayouts(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	filter := services.AdminPayoutFilter{PaginationParams: params}
	if status := c.Query("status"); status != "" {
		ps := models.PayoutStatus(status)
		filter.Status = &ps
	}
	if sellerIDStr := c.Query("seller_id"); sellerIDStr != "" {
		if sellerID, err := uuid.Parse(sellerIDStr); err == nil {
			filter.SellerID = &sellerID
		}
	}

	payouts, total, err := h.adminService.GetPayouts(filter)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(payouts, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /admin/payouts/:id/pay
func (h *AdminHandler) MarkPayoutPaid(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}

	payoutID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid payout ID", nil)
		return
	}

	var req struct {
		Reference string `json:"reference" validate:"required,max=255"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	payout, err := h.adminService.MarkPayoutPaid(payoutID, adminID, req.Reference)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPayoutPaid),
		"payout":  payout,
	})
}

// POST /admin/payouts/:id/reject
func (h *AdminHandler) RejectPayout(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}

	payoutID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid payout ID", nil)
		return
	}

	var req struct {
		Reason string `json:"reason" validate:"required,max=1000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	payout, err := h.adminService.RejectPayout(payoutID, adminID, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPayoutRejected),
		"payout":  payout,
	})
}

// GET /admin/settings
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.adminService.GetSettings()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"settings": settings})
}

// PUT /admin/settings
func (h *AdminHandler) UpdateSetting(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Category string      `json:"category" validate:"required"`
		Key      string      `json:"key" validate:"required"`
		Value    interface{} `json:"value" validate:"required"`
		DataType string      `json:"data_type" validate:"required,oneof=string number boolean json"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	if err := h.adminService.UpdateSetting(req.Category, req.Key, req.Value, req.DataType, adminID); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "setting updated"})
}

// GET /admin/notifications
func (h *AdminHandler) GetNotifications(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	notifications, total, err := h.adminService.GetNotifications(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(notifications, total, params)
	utils.PaginatedResponse(c, result)
}

// PUT /admin/notifications/:id/read
func (h *AdminHandler) MarkNotificationRead(c *gin.Context) {
	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid notification ID", nil)
		return
	}

	if err := h.adminService.MarkNotificationRead(notificationID); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "notification read"})
}

// GET /admin/audit-logs
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	logs, total, err := h.adminService.GetAuditLogs(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(logs, total, params)
	utils.PaginatedResponse(c, result)
}

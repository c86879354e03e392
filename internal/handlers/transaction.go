// internal/handlers/transaction.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vouchify/vouchify-backend/internal/i18n"
	"github.com/vouchify/vouchify-backend/internal/services"
	"github.com/vouchify/vouchify-backend/internal/utils"
)

type TransactionHandler struct {
	purchaseService *services.PurchaseService
	storageService  *services.StorageService
}

func NewTransactionHandler(purchaseService *services.PurchaseService, storageService *services.StorageService) *TransactionHandler {
	return &TransactionHandler{
		purchaseService: purchaseService,
		storageService:  storageService,
	}
}

// POST /purchases
func (h *TransactionHandler) Purchase(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	resp, err := h.purchaseService.Purchase(buyerID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	messageKey := i18n.KeyPurchaseCompleted
	if resp.Transaction.Status == "pending_admin_confirmation" {
		messageKey = i18n.KeyPurchasePendingAdmin
	}

	utils.CreatedResponse(c, gin.H{
		"message":  i18n.T(lang, messageKey),
		"purchase": resp,
	})
}

// POST /purchases/confirm-payment
func (h *TransactionHandler) ConfirmStripePayment(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.ConfirmStripeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	transaction, err := h.purchaseService.ConfirmStripePayment(buyerID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"transaction": transaction})
}

// GET /transactions
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	role := c.Query("role")

	transactions, total, err := h.purchaseService.ListTransactions(userID, role, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(transactions, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /transactions/:id
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid transaction ID", nil)
		return
	}

	isAdmin := false
	if userType, exists := utils.GetUserTypeFromContext(c); exists {
		isAdmin = userType == "admin"
	}

	transaction, err := h.purchaseService.GetTransaction(id, userID, isAdmin)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"transaction": transaction})
}

// GET /transactions/:id/code
func (h *TransactionHandler) RevealScratchCode(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid transaction ID", nil)
		return
	}

	reveal, err := h.purchaseService.RevealScratchCode(buyerID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"code": reveal})
}

// POST /transactions/:id/payment-proof
func (h *TransactionHandler) UploadPaymentProof(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid transaction ID", nil)
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "No file provided", err.Error())
		return
	}
	defer file.Close()

	options := h.storageService.GetDefaultUploadOptions("payment_proofs")
	result, err := h.storageService.UploadFile(file, header, options)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	transaction, err := h.purchaseService.AttachPaymentProof(buyerID, id, result.Key)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"transaction": transaction,
		"upload":      result,
	})
}

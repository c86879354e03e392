// internal/handlers/voucher.go
package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vouchify/vouchify-backend/internal/i18n"
	"github.com/vouchify/vouchify-backend/internal/services"
	"github.com/vouchify/vouchify-backend/internal/utils"
)

type VoucherHandler struct {
	voucherService *services.VoucherService
	storageService *services.StorageService
}

func NewVoucherHandler(voucherService *services.VoucherService, storageService *services.StorageService) *VoucherHandler {
	return &VoucherHandler{
		voucherService: voucherService,
		storageService: storageService,
	}
}

// GET /vouchers
func (h *VoucherHandler) GetVouchers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	searchParams := services.VoucherSearchParams{
		PaginationParams: params,
	}

	if sellerIDStr := c.Query("seller_id"); sellerIDStr != "" {
		if sellerID, err := uuid.Parse(sellerIDStr); err == nil {
			searchParams.SellerID = &sellerID
		}
	}

	if priceMinStr := c.Query("price_min"); priceMinStr != "" {
		if priceMin, err := strconv.ParseFloat(priceMinStr, 64); err == nil {
			searchParams.PriceMin = &priceMin
		}
	}

	if priceMaxStr := c.Query("price_max"); priceMaxStr != "" {
		if priceMax, err := strconv.ParseFloat(priceMaxStr, 64); err == nil {
			searchParams.PriceMax = &priceMax
		}
	}

	if tags := c.Query("tags"); tags != "" {
		searchParams.Tags = strings.Split(tags, ",")
	}

	vouchers, total, err := h.voucherService.SearchVouchers(searchParams)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(vouchers, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /vouchers/brands
func (h *VoucherHandler) GetBrands(c *gin.Context) {
	brands, err := h.voucherService.GetBrands()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"brands": brands})
}

// POST /vouchers
func (h *VoucherHandler) CreateVoucher(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	sellerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	voucher, err := h.voucherService.CreateVoucher(sellerID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyVoucherCreated),
		"voucher": voucher,
	})
}

// GET /vouchers/:id
func (h *VoucherHandler) GetVoucher(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid voucher ID", nil)
		return
	}

	var userID *uuid.UUID
	if userIDStr, exists := utils.GetUserIDFromContext(c); exists {
		if uid, err := uuid.Parse(userIDStr); err == nil {
			userID = &uid
		}
	}

	isAdmin := false
	if userType, exists := utils.GetUserTypeFromContext(c); exists {
		isAdmin = userType == "admin"
	}

	voucher, err := h.voucherService.GetVoucher(id, userID, isAdmin)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"voucher": voucher})
}

// PUT /vouchers/:id
func (h *VoucherHandler) UpdateVoucher(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	sellerID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid voucher ID", nil)
		return
	}

	var req services.UpdateVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	voucher, err := h.voucherService.UpdateVoucher(id, sellerID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyVoucherUpdated),
		"voucher": voucher,
	})
}

// DELETE /vouchers/:id
func (h *VoucherHandler) DeleteVoucher(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid voucher ID", nil)
		return
	}

	isAdmin := false
	if userType, exists := utils.GetUserTypeFromContext(c); exists {
		isAdmin = userType == "admin"
	}

	if err := h.voucherService.DeleteVoucher(id, userID, isAdmin); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyVoucherDeleted),
	})
}

// GET /vouchers/mine
func (h *VoucherHandler) GetMyVouchers(c *gin.Context) {
	sellerID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	vouchers, total, err := h.voucherService.GetSellerVouchers(sellerID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(vouchers, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /vouchers/images
func (h *VoucherHandler) UploadImage(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "No file provided", err.Error())
		return
	}
	defer file.Close()

	if err := h.storageService.ValidateImage(file); err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	options := h.storageService.GetDefaultUploadOptions("voucher_images")
	result, err := h.storageService.UploadFile(file, header, options)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, gin.H{"upload": result})
}

// currentUserID pulls the authenticated user out of the request context
// and writes the error response itself when the request is anonymous.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return uuid.Nil, false
	}

	return userID, true
}

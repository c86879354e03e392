// internal/handlers/payout.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vouchify/vouchify-backend/internal/models"
	"github.com/vouchify/vouchify-backend/internal/services"
	"github.com/vouchify/vouchify-backend/internal/utils"
)

type PayoutHandler struct {
	adminService *services.AdminService
}

func NewPayoutHandler(adminService *services.AdminService) *PayoutHandler {
	return &PayoutHandler{adminService: adminService}
}

// GET /payouts (seller's own payouts)
func (h *PayoutHandler) GetMyPayouts(c *gin.Context) {
	sellerID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	filter := services.AdminPayoutFilter{
		PaginationParams: params,
		SellerID:         &sellerID,
	}
	if status := c.Query("status"); status != "" {
		payoutStatus := models.PayoutStatus(status)
		filter.Status = &payoutStatus
	}

	payouts, total, err := h.adminService.GetPayouts(filter)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(payouts, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /payouts/:id/queries
func (h *PayoutHandler) AddQuery(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid payout ID", nil)
		return
	}

	var req struct {
		Message string `json:"message" validate:"required,max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	// A seller may only write on their own payout thread.
	if userType, _ := utils.GetUserTypeFromContext(c); userType != "admin" {
		payout, err := h.adminService.GetPayout(id)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		if payout.SellerID != userID {
			utils.ForbiddenResponse(c, "not your payout")
			return
		}
	}

	payout, err := h.adminService.AddPayoutQuery(id, userID, req.Message)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"payout": payout})
}

// internal/handlers/label.go
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/assetgrid/itam-backend/internal/services"
	"github.com/assetgrid/itam-backend/internal/utils"
)

type LabelHandler struct {
	lifecycleService *services.LifecycleService
}

func NewLabelHandler(lifecycleService *services.LifecycleService) *LabelHandler {
	return &LabelHandler{lifecycleService: lifecycleService}
}

type GenerateLabelsRequest struct {
	AssetIDs []uuid.UUID `json:"asset_ids" validate:"required,min=1"`
}

// POST /v1/labels/bulk
func (h *LabelHandler) GenerateLabels(c *gin.Context) {
	var req GenerateLabelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	var requestedBy *uuid.UUID
	if userIDStr, ok := utils.GetUserIDFromContext(c); ok {
		if userID, err := uuid.Parse(userIDStr); err == nil {
			requestedBy = &userID
		}
	}

	result, err := h.lifecycleService.GenerateLabels(c.Request.Context(), req.AssetIDs, requestedBy)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"batch": result,
	})
}

type ReleaseHoldsRequest struct {
	RetentionDays int `json:"retention_days" validate:"required,gt=0"`
}

// POST /v1/maintenance/release-expired-holds
func (h *LabelHandler) ReleaseExpiredHolds(c *gin.Context) {
	var req ReleaseHoldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	released, err := h.lifecycleService.ReleaseExpiredHolds(time.Duration(req.RetentionDays) * 24 * time.Hour)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"released_count": released,
	})
}

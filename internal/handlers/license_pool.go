// internal/handlers/license_pool.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/assetgrid/itam-backend/internal/services"
	"github.com/assetgrid/itam-backend/internal/utils"
)

type LicensePoolHandler struct {
	poolService *services.LicensePoolService
}

func NewLicensePoolHandler(poolService *services.LicensePoolService) *LicensePoolHandler {
	return &LicensePoolHandler{poolService: poolService}
}

// GET /v1/license-pools
func (h *LicensePoolHandler) GetLicensePools(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	var productID *uuid.UUID
	if productIDStr := c.Query("software_product_id"); productIDStr != "" {
		if parsed, err := uuid.Parse(productIDStr); err == nil {
			productID = &parsed
		}
	}

	pools, total, err := h.poolService.ListLicensePools(params, productID)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(pools, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /v1/license-pools
func (h *LicensePoolHandler) CreateLicensePool(c *gin.Context) {
	var req services.CreateLicensePoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	pool, err := h.poolService.CreateLicensePool(&req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"license_pool": pool,
	})
}

// GET /v1/license-pools/:id
func (h *LicensePoolHandler) GetLicensePool(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid license pool ID", nil)
		return
	}

	pool, err := h.poolService.GetLicensePool(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"license_pool": pool,
	})
}

// PATCH /v1/license-pools/:id
func (h *LicensePoolHandler) UpdateLicensePool(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid license pool ID", nil)
		return
	}

	var req services.UpdateLicensePoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	pool, err := h.poolService.UpdateLicensePool(id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"license_pool": pool,
	})
}

// GET /v1/license-pools/:id/availability
func (h *LicensePoolHandler) GetAvailability(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid license pool ID", nil)
		return
	}

	available, err := h.poolService.AvailableCount(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"license_pool_id":    id,
		"available_licenses": available,
	})
}

// internal/handlers/asset.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/assetgrid/itam-backend/internal/models"
	"github.com/assetgrid/itam-backend/internal/services"
	"github.com/assetgrid/itam-backend/internal/utils"
)

type AssetHandler struct {
	assetService     *services.AssetService
	lifecycleService *services.LifecycleService
}

func NewAssetHandler(assetService *services.AssetService, lifecycleService *services.LifecycleService) *AssetHandler {
	return &AssetHandler{
		assetService:     assetService,
		lifecycleService: lifecycleService,
	}
}

// GET /v1/assets
func (h *AssetHandler) GetAssets(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	searchParams := services.AssetSearchParams{
		PaginationParams: params,
	}

	if status := c.Query("status"); status != "" {
		s := models.AssetStatus(status)
		searchParams.Status = &s
	}
	if assetType := c.Query("asset_type"); assetType != "" {
		t := models.AssetType(assetType)
		searchParams.AssetType = &t
	}
	if productIDStr := c.Query("product_id"); productIDStr != "" {
		if productID, err := uuid.Parse(productIDStr); err == nil {
			searchParams.ProductID = &productID
		}
	}
	if assigneeStr := c.Query("assigned_to"); assigneeStr != "" {
		if assignee, err := uuid.Parse(assigneeStr); err == nil {
			searchParams.AssignedTo = &assignee
		}
	}
	if parentStr := c.Query("parent_asset_id"); parentStr != "" {
		if parent, err := uuid.Parse(parentStr); err == nil {
			searchParams.ParentAssetID = &parent
		}
	}
	searchParams.IncludeDeleted = c.Query("include_deleted") == "true"

	assets, total, err := h.assetService.SearchAssets(searchParams)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(assets, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /v1/assets
func (h *AssetHandler) CreateAsset(c *gin.Context) {
	var req services.CreateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	asset, err := h.assetService.CreateAsset(&req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"asset": asset,
	})
}

// GET /v1/assets/:id
func (h *AssetHandler) GetAsset(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid asset ID", nil)
		return
	}

	includeDeleted := c.Query("include_deleted") == "true"

	asset, err := h.assetService.GetAsset(id, includeDeleted)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"asset": asset,
	})
}

// PATCH /v1/assets/:id
func (h *AssetHandler) UpdateAsset(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid asset ID", nil)
		return
	}

	var req services.UpdateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	asset, err := h.assetService.UpdateAsset(id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"asset": asset,
	})
}

// POST /v1/assets/:id/assign
func (h *AssetHandler) AssignAsset(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid asset ID", nil)
		return
	}

	var req services.AssignAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	asset, err := h.assetService.Assign(id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"asset": asset,
	})
}

// POST /v1/assets/:id/unassign
func (h *AssetHandler) UnassignAsset(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid asset ID", nil)
		return
	}

	asset, err := h.assetService.Unassign(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"asset": asset,
	})
}

// POST /v1/assets/:id/status
func (h *AssetHandler) ChangeAssetStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid asset ID", nil)
		return
	}

	var req services.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	asset, err := h.assetService.ChangeStatus(id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"asset": asset,
	})
}

// GET /v1/assets/:id/components
func (h *AssetHandler) GetAssetComponents(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid asset ID", nil)
		return
	}

	components, err := h.assetService.ListComponents(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"components": components,
	})
}

// DELETE /v1/assets/:id
func (h *AssetHandler) DeleteAsset(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid asset ID", nil)
		return
	}

	if err := h.lifecycleService.SoftDelete(id); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Asset deleted",
	})
}

// POST /v1/assets/:id/restore
func (h *AssetHandler) RestoreAsset(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid asset ID", nil)
		return
	}

	asset, err := h.lifecycleService.Restore(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Asset restored",
		"asset":   asset,
	})
}

// internal/handlers/installation.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/assetgrid/itam-backend/internal/services"
	"github.com/assetgrid/itam-backend/internal/utils"
)

type InstallationHandler struct {
	installationService *services.InstallationService
}

func NewInstallationHandler(installationService *services.InstallationService) *InstallationHandler {
	return &InstallationHandler{installationService: installationService}
}

// GET /v1/assets/:id/software-installations
func (h *InstallationHandler) GetAssetInstallations(c *gin.Context) {
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid asset ID", nil)
		return
	}

	installations, err := h.installationService.ListForAsset(assetID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"installations": installations,
	})
}

// POST /v1/assets/:id/software-installations
func (h *InstallationHandler) AddInstallation(c *gin.Context) {
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid asset ID", nil)
		return
	}

	var req services.AddInstallationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	installation, err := h.installationService.AddInstallation(assetID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"installation": installation,
	})
}

// GET /v1/software-installations/:id
func (h *InstallationHandler) GetInstallation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid installation ID", nil)
		return
	}

	installation, err := h.installationService.GetInstallation(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"installation": installation,
	})
}

// PATCH /v1/software-installations/:id
func (h *InstallationHandler) UpdateInstallation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid installation ID", nil)
		return
	}

	var req services.UpdateInstallationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	installation, err := h.installationService.UpdateInstallation(id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"installation": installation,
	})
}

// DELETE /v1/software-installations/:id
func (h *InstallationHandler) RemoveInstallation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid installation ID", nil)
		return
	}

	if err := h.installationService.RemoveInstallation(id); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Installation removed",
	})
}

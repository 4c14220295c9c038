// internal/handlers/errors.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/assetgrid/itam-backend/internal/services"
	"github.com/assetgrid/itam-backend/internal/utils"
)

// handleServiceError maps domain error codes onto HTTP statuses. Anything
// without a code is an infrastructure failure.
func handleServiceError(c *gin.Context, err error) {
	de, ok := services.AsDomainError(err)
	if !ok {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	status := http.StatusBadRequest
	switch de.Code {
	case services.CodeNotFound:
		status = http.StatusNotFound
	case services.CodePoolExhausted, services.CodeRestoreConflict,
		services.CodeAlreadyAssigned, services.CodeAlreadyDeleted,
		services.CodeNotDeleted, services.CodeInvalidTransition:
		status = http.StatusConflict
	case services.CodeTooManyAssets:
		status = http.StatusRequestEntityTooLarge
	}

	var details interface{}
	if de.Field != "" {
		details = gin.H{"field": de.Field}
	}
	utils.ErrorResponse(c, status, de.Code, de.Message, details)
}

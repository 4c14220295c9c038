// internal/utils/validator.go
package utils

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("asset_type", validateEnum("standalone", "component"))
	validate.RegisterValidation("asset_status", validateEnum(
		"available", "assigned", "in_use", "under_repair", "maintenance",
		"disposed", "in_transit", "lost", "damaged"))
	validate.RegisterValidation("importance", validateEnum("critical", "high", "medium", "low"))
	validate.RegisterValidation("condition_status", validateEnum("excellent", "good", "fair", "poor"))
	validate.RegisterValidation("license_type", validateEnum("per_user", "per_device", "concurrent", "site", "volume"))
	validate.RegisterValidation("product_category", validateEnum("hardware", "software", "peripheral", "consumable"))
	validate.RegisterValidation("software_type", validateEnum("operating_system", "application", "utility", "driver"))
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateEnum(allowed ...string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		for _, a := range allowed {
			if value == a {
				return true
			}
		}
		return false
	}
}

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "gt":
		return e.Field() + " must be greater than " + e.Param()
	case "uuid":
		return e.Field() + " must be a valid UUID"
	case "asset_type", "asset_status", "importance", "condition_status",
		"license_type", "product_category", "software_type":
		return e.Field() + " has an invalid value"
	default:
		return e.Field() + " is invalid"
	}
}

package dto

import (
	"github.com/go-playground/validator/v10"

	"github.com/promptforge-labs/forge_api/shared"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("prompt_format", validatePromptFormat)
}

func GetValidator() *validator.Validate {
	return validate
}

func validatePromptFormat(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}

	for _, format := range shared.PromptFormats {
		if value == format {
			return true
		}
	}

	return false
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func FormatValidationErrors(err error) []ValidationError {
	var errs []ValidationError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			var message string

			switch fieldError.Tag() {
			case "required":
				message = fieldError.Field() + " is required"
			case "min":
				message = fieldError.Field() + " must be at least " + fieldError.Param() + " characters"
			case "max":
				message = fieldError.Field() + " must be at most " + fieldError.Param() + " characters"
			case "prompt_format":
				message = fieldError.Field() + " must be one of: paragraph, bullet, structured, conversational"
			case "oneof":
				message = fieldError.Field() + " must be one of: " + fieldError.Param()
			default:
				message = fieldError.Field() + " is invalid"
			}

			errs = append(errs, ValidationError{
				Field:   fieldError.Field(),
				Message: message,
			})
		}
	}

	return errs
}

type Validator interface {
	Validate() error
}

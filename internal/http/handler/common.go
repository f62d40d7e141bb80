package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/straye-as/preflight/internal/domain"
)

var validate = validator.New()

// respondJSON writes data as a JSON response with the given status. A
// nil payload sends the status line alone.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondValidationError reports every failed field at once, keyed by
// the JSON field name.
func respondValidationError(w http.ResponseWriter, err error) {
	fieldErrors := make(map[string]string)

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fieldErrors[jsonFieldName(fe.Field())] = validationMessage(fe)
		}
	}

	respondJSON(w, http.StatusBadRequest, domain.APIError{
		Type:   domain.ErrorTypeValidation,
		Title:  "Validation Error",
		Status: http.StatusBadRequest,
		Detail: "The request body failed validation",
		Errors: fieldErrors,
	})
}

// validationMessage renders one field error in user-facing terms.
func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", jsonFieldName(fe.Field()))
	case "max":
		return fmt.Sprintf("Cannot be longer than %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("Cannot be shorter than %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("Value must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Value must be at most %s", fe.Param())
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return fmt.Sprintf("Allowed values: %s", fe.Param())
	default:
		return domain.GetValidationMessage(fe.Tag())
	}
}

// jsonFieldName lowercases the first character, matching the camelCase
// JSON tags on the request DTOs.
func jsonFieldName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

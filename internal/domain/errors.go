package domain

// ErrorTypeValidation marks problem documents produced by request
// validation. Operational failures use ErrorResponse instead.
const ErrorTypeValidation = "validation_error"

// APIError is an RFC 7807 style problem document. It is reserved for
// requests refused outright, before any diagnostic work starts.
type APIError struct {
	Type   string            `json:"type"`
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Title
}

// validationMessages maps validator tags to fallback messages for tags
// the handlers do not render specially.
var validationMessages = map[string]string{
	"required": "This field is required",
	"max":      "Exceeds maximum length",
	"min":      "Below minimum length",
	"email":    "Must be a valid email address",
	"uuid":     "Must be a valid UUID",
	"oneof":    "Must be one of the allowed values",
	"gte":      "Must be greater than or equal to minimum value",
	"lte":      "Must be less than or equal to maximum value",
}

// GetValidationMessage returns a generic message for a validation tag.
func GetValidationMessage(tag string) string {
	if msg, ok := validationMessages[tag]; ok {
		return msg
	}
	return "Validation failed: " + tag
}

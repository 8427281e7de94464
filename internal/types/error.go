package types

import "fmt"

// Error types carried in the JSON error envelope
const (
	ErrorTypeAuthorization = "data.authorization.user"
	ErrorTypeValidation    = "data.validation.input"
	ErrorTypeRateLimit     = "data.ratelimit.generation"
	ErrorTypeNotFound      = "data.notfound"
	ErrorTypeConflict      = "data.conflict"
	ErrorTypeExport        = "data.export"
	ErrorTypeInternal      = "data.internal"
)

type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

// NewError builds a CustomError
func NewError(code int, message, errorType string) *CustomError {
	return &CustomError{Code: code, Message: message, Type: errorType}
}

package serrors

import "fmt"

// BaseError is a coded error for framework-level failures. Business errors
// in the org module use services.ServiceError instead; BaseError exists for
// infrastructure (event bus, bootstrap) where no HTTP status applies.
type BaseError struct {
	Code    string
	Message string
	Details string
}

func (e *BaseError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
}

func NewError(code, message, details string) *BaseError {
	return &BaseError{Code: code, Message: message, Details: details}
}

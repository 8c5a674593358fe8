package services

import (
	"errors"
	"fmt"
	"net/http"
)

// ServiceError is the typed failure every org operation surfaces to its
// caller. Status carries the error kind (404 not found, 400 bad request,
// 409 conflict); the HTTP layer maps it to the transport representation.
type ServiceError struct {
	Status  int
	Code    string
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

func newServiceError(status int, code, message string, cause error) *ServiceError {
	return &ServiceError{Status: status, Code: code, Message: message, Cause: cause}
}

func badRequest(code, message string) *ServiceError {
	return newServiceError(http.StatusBadRequest, code, message, nil)
}

func notFound(message string) *ServiceError {
	return newServiceError(http.StatusNotFound, "ORG_NOT_FOUND", message, nil)
}

func conflict(code, message string, cause error) *ServiceError {
	return newServiceError(http.StatusConflict, code, message, cause)
}

func isNotFound(err error) bool {
	var svcErr *ServiceError
	return errors.As(err, &svcErr) && svcErr.Status == http.StatusNotFound
}

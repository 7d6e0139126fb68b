// Package errors maps EcoCart failures onto HTTP statuses and stable
// machine-readable codes.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels classify failures. Wrap them with %w or carry them in an AppError.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrUnprocessable  = errors.New("unprocessable")
	ErrServiceUnavail = errors.New("service unavailable")
)

// Codes sent to clients for plain sentinel errors.
const (
	CodeNotFound      = "NOT_FOUND"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeUnprocessable = "UNPROCESSABLE"
	CodeUnavailable   = "SERVICE_UNAVAILABLE"
	CodeInternal      = "INTERNAL_ERROR"
)

// kind is one row of the classification table. An empty message means the
// error text itself is safe to show.
type kind struct {
	sentinel error
	status   int
	code     string
	message  string
}

var kinds = []kind{
	{ErrNotFound, http.StatusNotFound, CodeNotFound, "resource not found"},
	{ErrInvalidInput, http.StatusBadRequest, CodeInvalidInput, ""},
	{ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized, "unauthorized"},
	{ErrUnprocessable, http.StatusUnprocessableEntity, CodeUnprocessable, ""},
	{ErrServiceUnavail, http.StatusServiceUnavailable, CodeUnavailable, "storage is unavailable, try again later"},
}

// AppError is a failure with a client-facing code and message.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports a missing resource.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput reports a request the caller must fix.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidInput,
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Unauthorized reports a missing or unusable session.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// Unprocessable reports a well-formed request the current state refuses,
// under a domain-specific code such as EMPTY_CART.
func Unprocessable(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  http.StatusUnprocessableEntity,
		Err:     ErrUnprocessable,
	}
}

// Classify returns the status, code and client-safe message for err. An
// AppError anywhere in the chain wins; otherwise the first matching sentinel
// decides, and anything unknown is an internal error with a generic message.
func Classify(err error) (status int, code, message string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status, appErr.Code, appErr.Message
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			msg := k.message
			if msg == "" {
				msg = err.Error()
			}
			return k.status, k.code, msg
		}
	}
	return http.StatusInternalServerError, CodeInternal, "an internal error occurred"
}

// HTTPStatus returns the HTTP status code for err.
func HTTPStatus(err error) int {
	status, _, _ := Classify(err)
	return status
}

package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound             = "NOT_FOUND"
	CodeResourceRetired      = "RESOURCE_RETIRED"
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeInsufficientCapacity = "INSUFFICIENT_CAPACITY"
	CodeAlreadyCancelled     = "ALREADY_CANCELLED"
	CodeStorageTimeout       = "STORAGE_TIMEOUT"
	CodePartialFailure       = "PARTIAL_FAILURE"
	CodeValidation           = "VALIDATION_ERROR"
	CodeConflict             = "CONFLICT"
	CodeInternal             = "INTERNAL_ERROR"
)

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

func (e *AppError) ToJSON() []byte {
	response := ErrorResponse{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
	data, _ := json.Marshal(response)
	return data
}

type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

func NotFoundWithID(resource, id string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func ResourceRetired(id string) *AppError {
	return &AppError{
		Code:       CodeResourceRetired,
		Message:    "resource is retired and no longer reservable",
		HTTPStatus: http.StatusGone,
		Details: map[string]any{
			"resource_id": id,
		},
	}
}

func InvalidRequest(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidRequest,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func Validation(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    details,
	}
}

func InsufficientCapacity(resourceID string, requested int) *AppError {
	return &AppError{
		Code:       CodeInsufficientCapacity,
		Message:    "resource has insufficient capacity",
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"resource_id": resourceID,
			"requested":   requested,
		},
	}
}

func AlreadyCancelled(reservationID string) *AppError {
	return &AppError{
		Code:       CodeAlreadyCancelled,
		Message:    "reservation is no longer booked",
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"reservation_id": reservationID,
		},
	}
}

func StorageTimeout(operation string, err error) *AppError {
	return &AppError{
		Code:       CodeStorageTimeout,
		Message:    fmt.Sprintf("storage did not answer in time during %s", operation),
		HTTPStatus: http.StatusGatewayTimeout,
		Err:        err,
	}
}

// PartialFailure marks the one state the engine cannot repair on its own:
// a compensation step failed and capacity may disagree with the ledger until
// an operator reconciles them.
func PartialFailure(message string, err error) *AppError {
	return &AppError{
		Code:       CodePartialFailure,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("Internal server error", err)
}

func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

package utils

import (
	"errors"
	"net/http"

	"retailtasks/logging"

	"go.mongodb.org/mongo-driver/mongo"
)

// AppError is a failure with a status a client is allowed to see.
type AppError struct {
	StatusCode int
	Message    string
}

func (e *AppError) Error() string { return e.Message }

func NewAppError(statusCode int, message string) *AppError {
	return &AppError{StatusCode: statusCode, Message: message}
}

func BadRequest(message string) *AppError   { return NewAppError(http.StatusBadRequest, message) }
func Unauthorized(message string) *AppError { return NewAppError(http.StatusUnauthorized, message) }
func Forbidden(message string) *AppError    { return NewAppError(http.StatusForbidden, message) }
func NotFound(message string) *AppError     { return NewAppError(http.StatusNotFound, message) }
func Conflict(message string) *AppError     { return NewAppError(http.StatusConflict, message) }

// IsStatus reports whether err is an AppError with the given status.
func IsStatus(err error, statusCode int) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.StatusCode == statusCode
}

// HandleError writes err as a response. Unknown errors become a 500 and are
// logged; the client only sees a generic message.
func HandleError(w http.ResponseWriter, err error) {
	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		HandleMessageResponse(w, appErr.Message, appErr.StatusCode)
	case errors.Is(err, mongo.ErrNoDocuments):
		HandleMessageResponse(w, "Resource not found", http.StatusNotFound)
	default:
		logging.Logger.Errorf("Event ID: UNEXPECTED_ERROR, Description: %v", err)
		HandleMessageResponse(w, "Internal server error", http.StatusInternalServerError)
	}
}

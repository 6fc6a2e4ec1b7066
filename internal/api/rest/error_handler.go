package rest

import (
	"context"
	"errors"
	"net/http"

	domainErrors "github.com/davidleathers/fraudguard-backend/internal/domain/errors"
)

// mapError converts an error from the service layer into an HTTP status
// plus the wire-level code and message.
func mapError(err error) (status int, code, message string) {
	if err == nil {
		return http.StatusOK, "", ""
	}

	var appErr *domainErrors.AppError
	if errors.As(err, &appErr) {
		status := appErr.StatusCode
		if status == 0 {
			status = http.StatusInternalServerError
		}
		return status, appErr.Code, appErr.Message
	}

	if errors.Is(err, context.Canceled) {
		return http.StatusRequestTimeout, "REQUEST_CANCELED", "Request was canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusRequestTimeout, "REQUEST_TIMEOUT", "Request timed out"
	}

	return http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred"
}

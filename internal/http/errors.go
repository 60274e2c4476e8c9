package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/cloudyy74/frappe-user-admin/internal/models"
	"github.com/cloudyy74/frappe-user-admin/internal/screen"
	"github.com/cloudyy74/frappe-user-admin/internal/service"
)

type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (re ResponseError) Error() string {
	return re.Message
}

func newResponseError(code string, msg string) ResponseError {
	return ResponseError{
		Code:    code,
		Message: msg,
	}
}

func newInternalError(msg string, args ...any) ResponseError {
	return newResponseError(ErrCodeInternal, fmt.Sprintf(msg, args...))
}

func (rtr *router) handleError(w http.ResponseWriter, err error) {
	respErr := rtr.mapError(err)
	status := statusForCode(respErr.Code)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(&models.ErrorResponse{
		Error: models.Error{
			Code:    respErr.Code,
			Message: respErr.Message,
		},
	})
}

func (rtr *router) mapError(err error) ResponseError {
	var respErr ResponseError
	if errors.As(err, &respErr) {
		return respErr
	}

	switch {
	case errors.Is(err, screen.ErrUserNotFound):
		return newResponseError(ErrCodeNotFound, "user not found")
	case errors.Is(err, screen.ErrRequestPending):
		return newResponseError(ErrCodeConflict, "another request is still pending")
	case errors.Is(err, screen.ErrDialogClosed), errors.Is(err, screen.ErrNoSelection):
		return newResponseError(ErrCodeConflict, err.Error())
	case errors.Is(err, screen.ErrUnknownColumn):
		return newResponseError(ErrCodeBadRequest, err.Error())
	case errors.Is(err, service.ErrAuditValidation):
		return newResponseError(ErrCodeValidation, err.Error())
	default:
		rtr.log.Error("unhandled error", "error", err)
		return newInternalError("internal error")
	}
}

// refused reports whether the screen rejected an action before calling the
// backend. Backend failures are surfaced to the user as notices instead.
func refused(err error) bool {
	return errors.Is(err, screen.ErrUserNotFound) ||
		errors.Is(err, screen.ErrRequestPending) ||
		errors.Is(err, screen.ErrDialogClosed) ||
		errors.Is(err, screen.ErrNoSelection) ||
		errors.Is(err, screen.ErrUnknownColumn)
}

func statusForCode(code string) int {
	switch code {
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

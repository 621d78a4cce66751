package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	h "flockmanager/internal/delivery/http/helpers"
	"flockmanager/internal/domain"
)

// Client-facing messages. Credential failures share one message so callers
// cannot tell a forged token from an expired one.
const (
	msgInvalidCheckInToken = "Invalid or expired QR code token. Please scan the QR code again."
	msgInvalidLogin        = "Invalid or expired login link. Please request a new one."
	msgAlreadyCheckedIn    = "You have already checked in to this event"
	msgEventNotFound       = "Event not found"
	msgMemberNotFound      = "Member not found. Please verify your name matches the name in the system. " +
		"The name matching is case-insensitive and handles spacing variations."
	msgAuthRequired       = "Authentication required"
	msgStorageUnavailable = "Database connection error. Please try again later."
	msgServiceUnavailable = "Service temporarily unavailable. Please try again later."
	msgCheckInFailed      = "An error occurred during check-in. Please try again."
	msgRequestFailed      = "An error occurred. Please try again."
)

// errorWriter maps domain errors onto the response envelope. In production the
// detail of unexpected errors is logged but never sent to the client.
type errorWriter struct {
	logger     *slog.Logger
	production bool
}

func (e errorWriter) validation(w http.ResponseWriter, err error) bool {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, verr.Message)
		return true
	}
	if errors.Is(err, domain.ErrInvalidInput) {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "Invalid input")
		return true
	}
	return false
}

func (e errorWriter) internal(w http.ResponseWriter, r *http.Request, err error, generic string) {
	e.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	msg := generic
	if !e.production {
		msg = err.Error()
	}
	h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, msg)
}

func (e errorWriter) unavailable(w http.ResponseWriter, r *http.Request, err error, msg string) {
	e.logger.WarnContext(r.Context(), "dependency unavailable", "path", r.URL.Path, "err", err)
	h.WriteJSONError(w, http.StatusServiceUnavailable, h.ErrCodeUnavailable, msg)
}

// checkIn writes the response for an error from the check-in flow, including
// ticket issuance and attendance listing.
func (e errorWriter) checkIn(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case e.validation(w, err):
	case errors.Is(err, domain.ErrInvalidCredential):
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, msgInvalidCheckInToken)
	case errors.Is(err, domain.ErrEventNotFound):
		h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, msgEventNotFound)
	case errors.Is(err, domain.ErrMemberNotFound):
		h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, msgMemberNotFound)
	case errors.Is(err, domain.ErrAlreadyCheckedIn):
		h.WriteJSONError(w, http.StatusConflict, h.ErrCodeConflict, msgAlreadyCheckedIn)
	case errors.Is(err, domain.ErrUnauthorized):
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, msgAuthRequired)
	case errors.Is(err, domain.ErrUnavailable):
		e.unavailable(w, r, err, msgStorageUnavailable)
	default:
		e.internal(w, r, err, msgCheckInFailed)
	}
}

// auth writes the response for an error from login or session lookup.
func (e errorWriter) auth(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case e.validation(w, err):
	case errors.Is(err, domain.ErrInvalidCredential), errors.Is(err, domain.ErrMemberNotFound):
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, msgInvalidLogin)
	case errors.Is(err, domain.ErrUnauthorized):
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, msgAuthRequired)
	case errors.Is(err, domain.ErrUnavailable):
		e.unavailable(w, r, err, msgServiceUnavailable)
	default:
		e.internal(w, r, err, msgRequestFailed)
	}
}

package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/upfrom/backend/internal/delivery/http/helpers"
	"github.com/upfrom/backend/internal/domain"
)

// writeServiceError maps domain sentinel errors to HTTP status codes and
// writes the standard error envelope. Unrecognized errors are logged and
// returned as 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrEventStarted),
		errors.Is(err, domain.ErrEventCancelled),
		errors.Is(err, domain.ErrEventNotCancelled),
		errors.Is(err, domain.ErrAlreadyInvited),
		errors.Is(err, domain.ErrEventIsPublic),
		errors.Is(err, domain.ErrEventNotPublic),
		errors.Is(err, domain.ErrNoEventImage),
		errors.Is(err, domain.ErrDuplicateEmail):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}

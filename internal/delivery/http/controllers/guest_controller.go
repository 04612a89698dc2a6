package controllers

import (
	"log/slog"
	"net/http"

	"github.com/upfrom/backend/internal/delivery/http/helpers"
	"github.com/upfrom/backend/internal/delivery/http/middleware"
	"github.com/upfrom/backend/internal/domain"
)

// SetGuestListRequest is the request body for PUT /events/{eventID}/guests.
// user_ids is the full desired guest list; guests not in it are removed.
type SetGuestListRequest struct {
	UserIDs []string `json:"user_ids"`
}

// Validate implements Validator.
func (s SetGuestListRequest) Validate() []string {
	var errs []string
	if s.UserIDs == nil {
		errs = append(errs, "user_ids is required (may be empty)")
	}
	for _, id := range s.UserIDs {
		if id == "" {
			errs = append(errs, "user_ids must not contain empty IDs")
			break
		}
	}
	return errs
}

// RSVPRequest is the request body for invitation responses.
// is_attending: true accepts, false declines, null resets to pending.
type RSVPRequest struct {
	IsAttending *bool `json:"is_attending"`
}

type GuestController struct {
	Logger  *slog.Logger
	Service domain.EventUserService
}

func NewGuestController(logger *slog.Logger, svc domain.EventUserService) *GuestController {
	return &GuestController{
		Logger:  logger,
		Service: svc,
	}
}

// SetGuestList godoc
// @Summary Replace the guest list of a team event
// @Description Reconciles the guest list to exactly the given user IDs. Kept guests keep their responses; new guests start pending. Only the event owner may call this, and only before the event starts.
// @Tags guests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body SetGuestListRequest true "Desired guest list"
// @Success 200 {object} helpers.APIResponse "data contains the event"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (started, cancelled, or all-teams event)"
// @Router /events/{eventID}/guests [put]
func (c *GuestController) SetGuestList(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req SetGuestListRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	event, err := c.Service.SetGuestList(r.Context(), eventID, req.UserIDs, callerID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// ListGuests godoc
// @Summary List event guests
// @Description Guests are sorted accepted first, then declined, then pending.
// @Tags guests
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the guest list"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/guests [get]
func (c *GuestController) ListGuests(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	guests, err := c.Service.ListEventGuests(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, guests)
}

// RSVP godoc
// @Summary Respond to an event invitation
// @Description Sets the caller's attendance answer. Rejected once the event has started or been cancelled.
// @Tags guests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body RSVPRequest true "Attendance answer"
// @Success 200 {object} helpers.APIResponse "data contains the event"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (not invited)"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (started or cancelled)"
// @Router /events/{eventID}/rsvp [put]
func (c *GuestController) RSVP(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req RSVPRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	event, err := c.Service.UpdateInvitationStatus(r.Context(), eventID, userID, req.IsAttending)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// JoinEvent godoc
// @Summary Join a public (all teams) event
// @Description Adds the caller to the guest list as accepted. Only events without a team can be joined.
// @Tags guests
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the event"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (team event, started, cancelled, or already joined)"
// @Router /events/{eventID}/join [post]
func (c *GuestController) JoinEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	event, err := c.Service.JoinPublicEvent(r.Context(), eventID, userID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// LeaveEvent godoc
// @Summary Leave a public (all teams) event
// @Description Removes the caller from the guest list entirely.
// @Tags guests
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the event"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (not a guest)"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (team event, started, or cancelled)"
// @Router /events/{eventID}/leave [post]
func (c *GuestController) LeaveEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	event, err := c.Service.LeavePublicEvent(r.Context(), eventID, userID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// MyAttendance godoc
// @Summary Attendance counts for the authenticated user
// @Description Per-user accepted/declined/pending/total counts, optionally bounded by from/to (RFC3339).
// @Tags guests
// @Produce json
// @Security BearerAuth
// @Param from query string false "Range start (RFC3339)"
// @Param to query string false "Range end (RFC3339)"
// @Success 200 {object} helpers.APIResponse "data contains the attendance rows"
// @Router /me/attendance [get]
func (c *GuestController) MyAttendance(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	rng, err := helpers.ParseTimeRange(r)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	rows, err := c.Service.GetAttendance(r.Context(), []string{userID}, rng)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, rows)
}

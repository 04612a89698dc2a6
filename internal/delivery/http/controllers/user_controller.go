package controllers

import (
	"log/slog"
	"net/http"

	"github.com/upfrom/backend/internal/delivery/http/helpers"
	"github.com/upfrom/backend/internal/delivery/http/middleware"
	"github.com/upfrom/backend/internal/domain"
)

// UpdateProfileRequest is the request body for PATCH /me.
// All fields optional; omitted fields are unchanged.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	AvatarURL *string `json:"avatar_url"`
}

// Validate implements Validator.
func (u UpdateProfileRequest) Validate() []string {
	var errs []string
	if u.FirstName != nil && *u.FirstName == "" {
		errs = append(errs, "first_name must not be empty")
	}
	if u.LastName != nil && *u.LastName == "" {
		errs = append(errs, "last_name must not be empty")
	}
	return errs
}

// PreferencesRequest is the request body for PUT /me/preferences.
type PreferencesRequest struct {
	NewEvents        bool `json:"new_events"`
	EventUpdates     bool `json:"event_updates"`
	GuestListChanges bool `json:"guest_list_changes"`
	ChatMessages     bool `json:"chat_messages"`
}

type UserController struct {
	Logger  *slog.Logger
	Service domain.UserService
}

func NewUserController(logger *slog.Logger, svc domain.UserService) *UserController {
	return &UserController{
		Logger:  logger,
		Service: svc,
	}
}

// Me godoc
// @Summary Get the authenticated user's profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the user"
// @Router /me [get]
func (c *UserController) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	user, err := c.Service.GetByID(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, user)
}

// UpdateMe godoc
// @Summary Update the authenticated user's profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UpdateProfileRequest true "Fields to update (all optional)"
// @Success 200 {object} helpers.APIResponse "data contains the updated user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /me [patch]
func (c *UserController) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req UpdateProfileRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	user, err := c.Service.GetByID(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.AvatarURL != nil {
		user.AvatarURL = req.AvatarURL
	}
	if err := c.Service.Update(r.Context(), user); err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, user)
}

// GetPreferences godoc
// @Summary Get the authenticated user's notification preferences
// @Description Users without a stored row get the default (everything on).
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the preferences"
// @Router /me/preferences [get]
func (c *UserController) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	prefs, err := c.Service.GetPreferences(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, prefs)
}

// SetPreferences godoc
// @Summary Replace the authenticated user's notification preferences
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body PreferencesRequest true "Preference flags"
// @Success 200 {object} helpers.APIResponse "data contains the stored preferences"
// @Router /me/preferences [put]
func (c *UserController) SetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req PreferencesRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	prefs := &domain.NotificationPreferences{
		UserID:           userID,
		NewEvents:        req.NewEvents,
		EventUpdates:     req.EventUpdates,
		GuestListChanges: req.GuestListChanges,
		ChatMessages:     req.ChatMessages,
	}
	if err := c.Service.SetPreferences(r.Context(), prefs); err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, prefs)
}

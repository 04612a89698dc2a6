package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/upfrom/backend/internal/delivery/http/helpers"
	"github.com/upfrom/backend/internal/domain"
)

// CreateOrganizationRequest is the request body for POST /admin/organizations.
type CreateOrganizationRequest struct {
	Name    string `json:"name"`
	Details string `json:"details"`
}

// Validate implements Validator.
func (c CreateOrganizationRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	}
	return errs
}

// AddTeamMemberRequest is the request body for POST /admin/teams/{teamID}/members.
type AddTeamMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Validate implements Validator.
func (a AddTeamMemberRequest) Validate() []string {
	var errs []string
	if a.UserID == "" {
		errs = append(errs, "user_id is required")
	}
	if a.Role == "" {
		errs = append(errs, "role is required")
	}
	return errs
}

// AdminController hosts the admin surface: organization and team management,
// event restore, guest-list overrides, and attendance rollups.
type AdminController struct {
	Logger        *slog.Logger
	Organizations domain.OrganizationService
	Teams         domain.TeamService
	Events        domain.EventService
	Guests        domain.EventUserService
}

func NewAdminController(logger *slog.Logger,
	orgs domain.OrganizationService,
	teams domain.TeamService,
	events domain.EventService,
	guests domain.EventUserService,
) *AdminController {
	return &AdminController{
		Logger:        logger,
		Organizations: orgs,
		Teams:         teams,
		Events:        events,
		Guests:        guests,
	}
}

// CreateOrganization godoc
// @Summary Create an organization
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateOrganizationRequest true "Organization data"
// @Success 201 {object} helpers.APIResponse "data contains the created organization"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /admin/organizations [post]
func (c *AdminController) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req CreateOrganizationRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	org := domain.NewOrganization(req.Name, req.Details, time.Time{}, time.Time{})
	if err := c.Organizations.Create(r.Context(), org); err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, org)
}

// ListOrganizations godoc
// @Summary List organizations
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the organizations"
// @Router /admin/organizations [get]
func (c *AdminController) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := c.Organizations.List(r.Context())
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, orgs)
}

// GetOrganization godoc
// @Summary Get an organization by ID
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param orgID path string true "Organization ID"
// @Success 200 {object} helpers.APIResponse "data contains the organization"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /admin/organizations/{orgID} [get]
func (c *AdminController) GetOrganization(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("orgID")
	if orgID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing orgID")
		return
	}
	org, err := c.Organizations.GetByID(r.Context(), orgID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, org)
}

// ListOrganizationTeams godoc
// @Summary List teams of an organization
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param orgID path string true "Organization ID"
// @Success 200 {object} helpers.APIResponse "data contains the teams"
// @Router /admin/organizations/{orgID}/teams [get]
func (c *AdminController) ListOrganizationTeams(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("orgID")
	if orgID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing orgID")
		return
	}
	teams, err := c.Teams.ListByOrganizationID(r.Context(), orgID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, teams)
}

// GetTeam godoc
// @Summary Get a team by ID
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param teamID path string true "Team ID"
// @Success 200 {object} helpers.APIResponse "data contains the team"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /admin/teams/{teamID} [get]
func (c *AdminController) GetTeam(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("teamID")
	if teamID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing teamID")
		return
	}
	team, err := c.Teams.GetByID(r.Context(), teamID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, team)
}

// AddTeamMember godoc
// @Summary Add a user to a team
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param teamID path string true "Team ID"
// @Param body body AddTeamMemberRequest true "Member to add (role: member or mentor)"
// @Success 204 "member added"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /admin/teams/{teamID}/members [post]
func (c *AdminController) AddTeamMember(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("teamID")
	if teamID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing teamID")
		return
	}
	var req AddTeamMemberRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Teams.AddMember(r.Context(), teamID, req.UserID, req.Role); err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveTeamMember godoc
// @Summary Remove a user from a team
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param teamID path string true "Team ID"
// @Param userID path string true "User ID"
// @Success 204 "member removed"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /admin/teams/{teamID}/members/{userID} [delete]
func (c *AdminController) RemoveTeamMember(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("teamID")
	userID := r.PathValue("userID")
	if teamID == "" || userID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing teamID or userID")
		return
	}
	if err := c.Teams.RemoveMember(r.Context(), teamID, userID); err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RestoreEvent godoc
// @Summary Restore a cancelled event
// @Description Clears the cancellation flag. Restoring an event that is not cancelled is a conflict. No notification is sent.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the restored event"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (not cancelled)"
// @Router /admin/events/{eventID}/restore [post]
func (c *AdminController) RestoreEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	event, err := c.Events.Restore(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// SetGuestList godoc
// @Summary Replace the guest list of a team event (admin)
// @Description Same reconciliation as the owner endpoint but without the ownership check. The resulting notification also reaches the event owner.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body SetGuestListRequest true "Desired guest list"
// @Success 200 {object} helpers.APIResponse "data contains the event"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (started, cancelled, or all-teams event)"
// @Router /admin/events/{eventID}/guests [put]
func (c *AdminController) SetGuestList(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req SetGuestListRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Guests.AdminSetGuestList(r.Context(), eventID, req.UserIDs)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// TeamAttendance godoc
// @Summary Attendance rollup for a team's members
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param teamID path string true "Team ID"
// @Param from query string false "Range start (RFC3339)"
// @Param to query string false "Range end (RFC3339)"
// @Success 200 {object} helpers.APIResponse "data contains the attendance rows"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /admin/teams/{teamID}/attendance [get]
func (c *AdminController) TeamAttendance(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("teamID")
	if teamID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing teamID")
		return
	}
	rng, err := helpers.ParseTimeRange(r)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	rows, err := c.Guests.GetTeamAttendance(r.Context(), teamID, rng)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, rows)
}

// OrganizationAttendance godoc
// @Summary Attendance rollup for an organization's members
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param orgID path string true "Organization ID"
// @Param from query string false "Range start (RFC3339)"
// @Param to query string false "Range end (RFC3339)"
// @Success 200 {object} helpers.APIResponse "data contains the attendance rows"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /admin/organizations/{orgID}/attendance [get]
func (c *AdminController) OrganizationAttendance(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("orgID")
	if orgID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing orgID")
		return
	}
	rng, err := helpers.ParseTimeRange(r)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	rows, err := c.Guests.GetOrganizationAttendance(r.Context(), orgID, rng)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, rows)
}

// Attendance godoc
// @Summary Attendance rollup across all users
// @Description Optionally filtered by user_id query parameters (repeatable) and a from/to time range.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param user_id query []string false "User IDs to include (repeatable; omit for all users)"
// @Param from query string false "Range start (RFC3339)"
// @Param to query string false "Range end (RFC3339)"
// @Success 200 {object} helpers.APIResponse "data contains the attendance rows"
// @Router /admin/attendance [get]
func (c *AdminController) Attendance(w http.ResponseWriter, r *http.Request) {
	rng, err := helpers.ParseTimeRange(r)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	// Absent user_id params mean no user filter at all.
	var userIDs []string
	if vals, ok := r.URL.Query()["user_id"]; ok {
		userIDs = vals
	}
	rows, err := c.Guests.GetAttendance(r.Context(), userIDs, rng)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, rows)
}

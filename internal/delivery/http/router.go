package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/upfrom/backend/internal/delivery/http/controllers"
	"github.com/upfrom/backend/internal/delivery/http/middleware"
	"github.com/upfrom/backend/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(
	verifier domain.TokenVerifier,
	authController *controllers.AuthController,
	eventController *controllers.EventController,
	guestController *controllers.GuestController,
	userController *controllers.UserController,
	adminController *controllers.AdminController,
) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier)

	// Auth
	mux.HandleFunc("POST /auth/login", authController.Login)

	// Profile
	mux.HandleFunc("GET /me", auth(userController.Me))
	mux.HandleFunc("PATCH /me", auth(userController.UpdateMe))
	mux.HandleFunc("GET /me/preferences", auth(userController.GetPreferences))
	mux.HandleFunc("PUT /me/preferences", auth(userController.SetPreferences))
	mux.HandleFunc("GET /me/events", auth(eventController.ListMyEvents))
	mux.HandleFunc("GET /me/attendance", auth(guestController.MyAttendance))

	// Events
	mux.HandleFunc("POST /events", auth(eventController.CreateEvent))
	mux.HandleFunc("GET /events/{eventID}", auth(eventController.GetEvent))
	mux.HandleFunc("PATCH /events/{eventID}", auth(eventController.UpdateEvent))
	mux.HandleFunc("POST /events/{eventID}/cancel", auth(eventController.CancelEvent))
	mux.HandleFunc("POST /events/{eventID}/image/upload-url", auth(eventController.GenerateImageUploadURL))
	mux.HandleFunc("POST /events/{eventID}/image/complete", auth(eventController.CompleteImageUpload))
	mux.HandleFunc("DELETE /events/{eventID}/image", auth(eventController.RemoveImage))
	mux.HandleFunc("GET /teams/{teamID}/events", auth(eventController.ListTeamEvents))

	// Guest lists and attendance
	mux.HandleFunc("PUT /events/{eventID}/guests", auth(guestController.SetGuestList))
	mux.HandleFunc("GET /events/{eventID}/guests", auth(guestController.ListGuests))
	mux.HandleFunc("PUT /events/{eventID}/rsvp", auth(guestController.RSVP))
	mux.HandleFunc("POST /events/{eventID}/join", auth(guestController.JoinEvent))
	mux.HandleFunc("POST /events/{eventID}/leave", auth(guestController.LeaveEvent))

	// Admin surface
	mux.HandleFunc("POST /admin/organizations", auth(adminController.CreateOrganization))
	mux.HandleFunc("GET /admin/organizations", auth(adminController.ListOrganizations))
	mux.HandleFunc("GET /admin/organizations/{orgID}", auth(adminController.GetOrganization))
	mux.HandleFunc("GET /admin/organizations/{orgID}/teams", auth(adminController.ListOrganizationTeams))
	mux.HandleFunc("GET /admin/organizations/{orgID}/attendance", auth(adminController.OrganizationAttendance))
	mux.HandleFunc("GET /admin/teams/{teamID}", auth(adminController.GetTeam))
	mux.HandleFunc("POST /admin/teams/{teamID}/members", auth(adminController.AddTeamMember))
	mux.HandleFunc("DELETE /admin/teams/{teamID}/members/{userID}", auth(adminController.RemoveTeamMember))
	mux.HandleFunc("GET /admin/teams/{teamID}/attendance", auth(adminController.TeamAttendance))
	mux.HandleFunc("POST /admin/events/{eventID}/restore", auth(adminController.RestoreEvent))
	mux.HandleFunc("PUT /admin/events/{eventID}/guests", auth(adminController.SetGuestList))
	mux.HandleFunc("GET /admin/attendance", auth(adminController.Attendance))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}

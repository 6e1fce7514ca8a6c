package handlers

import (
	"github.com/labstack/echo/v4"
)

// Register mounts every API route on e. auth verifies bearer tokens.
func (h *Handler) Register(e *echo.Echo, auth echo.MiddlewareFunc) {
	e.Validator = NewValidator()

	// Public
	e.GET("/health/live", h.Live)
	e.GET("/health/ready", h.Ready)
	e.POST("/api/users", h.RegisterUser)

	// Protected – require valid JWT in Authorization header
	api := e.Group("/api", auth, h.Authenticate)
	api.GET("/users/me", h.Me)

	api.GET("/race-weekends", h.RaceWeekends)
	api.GET("/race-weekends/:id", h.RaceWeekend)

	api.POST("/predictions", h.CreatePrediction)
	api.GET("/predictions/mine", h.MyPredictions)
	api.GET("/predictions/:id", h.Prediction)
	api.GET("/predictions/:id/score", h.PredictionScore)

	api.POST("/leagues", h.CreateLeague)
	api.GET("/leagues", h.SearchLeagues)
	api.GET("/leagues/my", h.MyLeagues)
	api.GET("/leagues/:id", h.League)
	api.DELETE("/leagues/:id", h.DeleteLeague)
	api.GET("/leagues/:id/standings", h.Standings)
	api.GET("/leagues/:id/members", h.Members)
	api.POST("/leagues/:id/members/:userId", h.AddMember)
	api.DELETE("/leagues/:id/members/:userId", h.RemoveMember)
	api.POST("/leagues/:id/leave", h.LeaveLeague)
	api.PUT("/leagues/:id/owner", h.TransferOwnership)

	// Admin – authenticated user must carry isAdmin
	admin := api.Group("/admin", h.RequireAdmin)
	admin.GET("/users", h.AdminUsers)
	admin.PUT("/users/:id/role", h.AdminUpdateRole)
	admin.DELETE("/users/:id", h.AdminDeleteUser)
	admin.GET("/leagues", h.AdminLeagues)
	admin.DELETE("/leagues/:id", h.AdminDeleteLeague)
	admin.GET("/stats", h.AdminStats)
	admin.POST("/race-weekends", h.AdminCreateRaceWeekend)
	admin.DELETE("/race-weekends/:id", h.AdminDeleteRaceWeekend)
	admin.PUT("/race-weekends/:id/results", h.AdminReplaceResults)
	admin.POST("/race-weekends/:id/recompute", h.AdminRecompute)
	admin.PUT("/race-results/:id", h.AdminCorrectResult)
}

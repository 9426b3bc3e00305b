package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/room-reservation/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/room-reservation/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Create a route group under the /v1/auth prefix for operations that do
	// not require an existing session (register, login, refresh).  Each of
	// these handlers is responsible for generating or exchanging tokens.
	g := e.Group("/v1/auth")
	// Register a POST endpoint to handle user registration at /v1/auth/register.
	g.POST("/register", a.Register)
	// Register a POST endpoint to handle user login at /v1/auth/login.
	g.POST("/login", a.Login)
	// Register a POST endpoint to refresh access tokens at /v1/auth/refresh. This rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Register a POST endpoint to issue a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Register a POST endpoint to log out using a refresh token or a bearer
	// token.  The handler accepts a JSON body containing a `refresh_token`
	// and will invalidate that token; with only a bearer it revokes every
	// session of the user.
	g.POST("/logout", a.Logout)

	// Create another group for routes that require a valid access token.  All
	// handlers registered on this group will execute the JWTAuth middleware
	// before being invoked.  Protected endpoints live under /v1.
	auth := e.Group("/v1")
	// Apply the JWTAuth middleware to the protected group using the provided secret.
	auth.Use(middleware.JWTAuth(jwtSecret))
	// Any authenticated role may query its own identity.
	auth.Use(middleware.RequireRole("ADMIN", "CLIENT"))
	// Register a GET endpoint at /v1/me that returns the authenticated user's information.
	auth.GET("/me", a.Me)

	// Additionally map POST /v1/logout to the same handler.  This route lives
	// at the top level (outside of the protected group) so it does not
	// require a JWT.
	e.POST("/v1/logout", a.Logout)
}

// RegisterRooms registers the room catalogue and availability endpoints.
// Read endpoints are public so visitors can browse rooms before signing
// up; the optional cache middleware is applied to them when non-nil.
// Create, update and delete are restricted to the ADMIN role.
func RegisterRooms(e *echo.Echo, r *handler.RoomHandler, cache echo.MiddlewareFunc, jwtSecret string) {
	reads := []echo.MiddlewareFunc{}
	if cache != nil {
		reads = append(reads, cache)
	}
	// Public browse endpoints.  The cache key includes the query string
	// so each room/date grid is cached separately.
	e.GET("/v1/rooms", r.List, reads...)
	e.GET("/v1/rooms/:id", r.Get, reads...)
	e.GET("/v1/rooms/:id/availability", r.Availability, reads...)

	// Administration endpoints require a valid token carrying the ADMIN role.
	admin := e.Group("/v1/rooms")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole("ADMIN"))
	admin.POST("", r.Create)
	admin.PUT("/:id", r.Update)
	admin.DELETE("/:id", r.Delete)
}

// RegisterReservations registers reservation admission and lifecycle
// endpoints.  Creating, listing and cancelling are open to any caller;
// approve and reject are moderation actions behind the ADMIN role.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string) {
	e.POST("/v1/reservations", h.Create)
	e.GET("/v1/reservations", h.List)
	e.POST("/v1/reservations/:id/cancel", h.Cancel)

	admin := e.Group("/v1/reservations")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole("ADMIN"))
	admin.POST("/:id/approve", h.Approve)
	admin.POST("/:id/reject", h.Reject)
}

package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/laptop-inventory/internal/middleware"
)

// RegisterUsers registers the admin user-management routes and the
// dashboard statistics under /api. All of them require the admin role.
//
// Middleware is attached per route rather than with g.Use, which would also
// gate the group's not-found catch-all.
func RegisterUsers(e *echo.Echo, d Deps) {
	h := d.Users
	g := e.Group("/api")
	auth := middleware.JWTAuth(d.Verifier)
	admin := middleware.RequireAdmin()
	cache, drop := d.cache(), d.invalidate()

	g.GET("/users", h.List, auth, admin, cache)
	g.GET("/users/:id", h.Get, auth, admin, cache)
	g.POST("/users", h.Create, auth, admin, drop)
	g.PUT("/users/:id", h.Update, auth, admin, drop)
	g.DELETE("/users/:id", h.Delete, auth, admin, drop)

	g.GET("/stats", h.Stats, auth, admin, cache)
}

package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/laptop-inventory/internal/middleware"
)

// RegisterLaptops registers the inventory routes under /api. Every route
// needs a valid token; admin routes add the role gate. Shared listings go
// through the response cache and every write drops it.
func RegisterLaptops(e *echo.Echo, d Deps) {
	h := d.Laptops
	g := e.Group("/api")
	auth := middleware.JWTAuth(d.Verifier)
	admin := middleware.RequireAdmin()
	cache, drop := d.cache(), d.invalidate()

	// ---- Any authenticated user ----
	g.GET("/laptops/available", h.Available, auth, cache)
	g.GET("/my-laptops", h.Mine, auth) // per caller, never cached
	g.POST("/laptops/:id/borrow", h.Borrow, auth, drop)
	g.POST("/laptops/:id/return", h.Return, auth, drop)
	g.POST("/laptops/:id/maintenance", h.RequestMaintenance, auth, drop)

	// ---- Admin ----
	g.GET("/laptops", h.List, auth, admin, cache)
	g.GET("/laptops/maintenance", h.Maintenance, auth, admin, cache)
	g.GET("/laptops/:id", h.Get, auth, admin, cache)
	g.POST("/laptops", h.Create, auth, admin, drop)
	g.PUT("/laptops/:id", h.Update, auth, admin, drop)
	g.DELETE("/laptops/:id", h.Delete, auth, admin, drop)
	g.POST("/laptops/:id/complete-maintenance", h.CompleteMaintenance, auth, admin, drop)
}

package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/laptop-inventory/internal/handler"    // HTTP handlers
	"github.com/iliyamo/laptop-inventory/internal/middleware" // JWT authentication, role gate and cache
)

// Deps carries everything the route tables need. Cache and Invalidate may
// be nil, in which case listings are served uncached.
type Deps struct {
	Auth       *handler.AuthHandler
	Laptops    *handler.LaptopHandler
	Users      *handler.UserHandler
	Verifier   middleware.Verifier
	Cache      echo.MiddlewareFunc
	Invalidate echo.MiddlewareFunc
}

func (d Deps) cache() echo.MiddlewareFunc {
	if d.Cache == nil {
		return noop
	}
	return d.Cache
}

func (d Deps) invalidate() echo.MiddlewareFunc {
	if d.Invalidate == nil {
		return noop
	}
	return d.Invalidate
}

func noop(next echo.HandlerFunc) echo.HandlerFunc { return next }

// Register mounts every route on e.
func Register(e *echo.Echo, d Deps) {
	RegisterRoutes(e)
	RegisterAuth(e, d)
	RegisterLaptops(e, d)
	RegisterUsers(e, d)
}

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication and self-service routes.
// Register and login are open; everything else needs a bearer token.
func RegisterAuth(e *echo.Echo, d Deps) {
	g := e.Group("/api")
	// A new account changes the user listing and the stats.
	g.POST("/register", d.Auth.Register, d.invalidate())
	g.POST("/login", d.Auth.Login)

	auth := middleware.JWTAuth(d.Verifier)
	g.GET("/auth/verify", d.Auth.Verify, auth)
	// A name or email change shows up in populated listings.
	g.PUT("/profile", d.Auth.UpdateProfile, auth, d.invalidate())
	g.PUT("/profile/password", d.Auth.ChangePassword, auth)
}

package middleware // middleware provides shared request processing for handlers

import (
	"github.com/labstack/echo/v4" // echo provides middleware chaining and context

	"github.com/iliyamo/laptop-inventory/internal/service"
)

// RequireAdmin rejects callers that are not administrators. It runs the same
// predicate the service applies, so a route gate and the operation behind it
// can never disagree. JWTAuth must run first.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := service.Authorize(CurrentUser(c), service.AdminOnly); err != nil {
				return err
			}
			return next(c)
		}
	}
}

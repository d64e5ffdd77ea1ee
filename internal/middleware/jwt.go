package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"strings" // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/laptop-inventory/internal/model"
)

// userKey is the echo context key the authenticated user is stored under.
const userKey = "user"

// Verifier resolves a raw bearer token to the user it belongs to.
// *service.Service satisfies it.
type Verifier interface {
	Verify(ctx context.Context, token string) (model.User, error)
}

// JWTAuth returns an Echo middleware that validates the Bearer access token
// and loads the acting user. The user is reloaded on every request, so a
// role change or account deletion takes effect without waiting for the
// token to expire. Handlers read it back with CurrentUser.
//
// Failures are returned as errors and rendered by the global error handler.
func JWTAuth(v Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A missing or non-Bearer header verifies as an empty token,
			// which the verifier reports as unauthenticated.
			raw := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))

			u, err := v.Verify(c.Request().Context(), raw)
			if err != nil {
				return err
			}
			c.Set(userKey, u)
			return next(c)
		}
	}
}

// CurrentUser returns the user stored by JWTAuth, or the zero User on
// routes that are not authenticated.
func CurrentUser(c echo.Context) model.User {
	u, _ := c.Get(userKey).(model.User)
	return u
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

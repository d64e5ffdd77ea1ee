package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/laptop-inventory/internal/logging"
	"github.com/iliyamo/laptop-inventory/internal/service"
)

// requestTimeout bounds the store work behind a single request.
const requestTimeout = 5 * time.Second

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// errBadBody is returned when the JSON body cannot be decoded.
var errBadBody = echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")

// statusFor maps an error to the status code and client message. Internal
// failures never leak their cause.
func statusFor(err error) (int, string) {
	var se *service.Error
	if errors.As(err, &se) {
		switch {
		case errors.Is(se.Kind, service.ErrUnauthenticated):
			return http.StatusUnauthorized, se.Msg
		case errors.Is(se.Kind, service.ErrForbidden):
			return http.StatusForbidden, se.Msg
		case errors.Is(se.Kind, service.ErrNotFound):
			return http.StatusNotFound, se.Msg
		case errors.Is(se.Kind, service.ErrConflict),
			errors.Is(se.Kind, service.ErrInvalidCredentials),
			errors.Is(se.Kind, service.ErrValidation):
			return http.StatusBadRequest, se.Msg
		}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		}
		return he.Code, msg
	}
	return http.StatusInternalServerError, "Server error"
}

// ErrorHandler renders every error as {"message": ...}. It replaces echo's
// default so router errors (unknown route, wrong method) look the same as
// handler errors.
func ErrorHandler(base *slog.Logger) echo.HTTPErrorHandler {
	if base == nil {
		base = slog.Default()
	}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, msg := statusFor(err)
		if status >= http.StatusInternalServerError {
			ctx := c.Request().Context()
			l := logging.FromContext(ctx)
			if l == slog.Default() {
				l = base
			}
			l.ErrorContext(ctx, "request failed", "method", c.Request().Method, "path", c.Path(), "err", err)
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, echo.Map{"message": msg})
		}
		if werr != nil {
			base.Error("write error response", "err", werr)
		}
	}
}

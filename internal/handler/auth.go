package handler

import (
	"net/http" // HTTP status codes and primitives

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/laptop-inventory/internal/middleware"
	"github.com/iliyamo/laptop-inventory/internal/service"
)

// AuthHandler bundles dependencies for auth and self-service endpoints.
type AuthHandler struct {
	Svc *service.Service
}

func NewAuthHandler(svc *service.Service) *AuthHandler {
	if svc == nil {
		panic("nil service passed to NewAuthHandler")
	}
	return &AuthHandler{Svc: svc}
}

// Register: create a regular account and return a token immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return errBadBody
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	res, err := h.Svc.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, authResp{Token: res.Token, ExpiresAt: res.ExpiresAt, User: res.User})
}

// Login: verify credentials and issue a fresh token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return errBadBody
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResp{Token: res.Token, ExpiresAt: res.ExpiresAt, User: res.User})
}

// Verify echoes the user the bearer token resolved to. JWTAuth has already
// done the work.
func (h *AuthHandler) Verify(c echo.Context) error {
	return c.JSON(http.StatusOK, userResp{User: middleware.CurrentUser(c).Public()})
}

// UpdateProfile: PUT /api/profile
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	var req profileReq
	if err := c.Bind(&req); err != nil {
		return errBadBody
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.Svc.UpdateProfile(ctx, middleware.CurrentUser(c), service.ProfilePatch{Name: req.Name, Email: req.Email})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

// ChangePassword: PUT /api/profile/password
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req passwordReq
	if err := c.Bind(&req); err != nil {
		return errBadBody
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Svc.ChangePassword(ctx, middleware.CurrentUser(c), req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResp{Message: "Password updated successfully"})
}

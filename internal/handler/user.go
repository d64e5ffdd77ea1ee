package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/laptop-inventory/internal/middleware"
	"github.com/iliyamo/laptop-inventory/internal/service"
)

// UserHandler serves the admin user-management endpoints and the dashboard
// statistics.
type UserHandler struct {
	Svc *service.Service
}

func NewUserHandler(svc *service.Service) *UserHandler {
	if svc == nil {
		panic("nil service passed to NewUserHandler")
	}
	return &UserHandler{Svc: svc}
}

// List: GET /api/users
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	us, err := h.Svc.ListUsers(ctx, middleware.CurrentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, us)
}

// Get: GET /api/users/:id
func (h *UserHandler) Get(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.Svc.GetUser(ctx, middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

// Create: POST /api/users
func (h *UserHandler) Create(c echo.Context) error {
	var req userReq
	if err := c.Bind(&req); err != nil {
		return errBadBody
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.Svc.CreateUser(ctx, middleware.CurrentUser(c), service.NewUser{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, u)
}

// Update: PUT /api/users/:id
func (h *UserHandler) Update(c echo.Context) error {
	var req userPatchReq
	if err := c.Bind(&req); err != nil {
		return errBadBody
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.Svc.UpdateUser(ctx, middleware.CurrentUser(c), c.Param("id"), service.UserPatch{
		Name:     req.Name,
		Email:    req.Email,
		Role:     req.Role,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

// Delete: DELETE /api/users/:id
func (h *UserHandler) Delete(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Svc.DeleteUser(ctx, middleware.CurrentUser(c), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResp{Message: "User deleted successfully"})
}

// Stats: GET /api/stats
func (h *UserHandler) Stats(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	st, err := h.Svc.Stats(ctx, middleware.CurrentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/laptop-inventory/internal/middleware"
	"github.com/iliyamo/laptop-inventory/internal/model"
	"github.com/iliyamo/laptop-inventory/internal/service"
)

// LaptopHandler serves the inventory and lifecycle endpoints.
type LaptopHandler struct {
	Svc *service.Service
}

func NewLaptopHandler(svc *service.Service) *LaptopHandler {
	if svc == nil {
		panic("nil service passed to NewLaptopHandler")
	}
	return &LaptopHandler{Svc: svc}
}

// List: GET /api/laptops (admin, holders populated)
func (h *LaptopHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	vs, err := h.Svc.ListLaptops(ctx, middleware.CurrentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, viewList(vs))
}

// Available: GET /api/laptops/available
func (h *LaptopHandler) Available(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	ls, err := h.Svc.ListAvailable(ctx, middleware.CurrentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, laptopList(ls))
}

// Maintenance: GET /api/laptops/maintenance (admin, holders populated)
func (h *LaptopHandler) Maintenance(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	vs, err := h.Svc.ListMaintenance(ctx, middleware.CurrentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, viewList(vs))
}

// Mine: GET /api/my-laptops
func (h *LaptopHandler) Mine(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	ls, err := h.Svc.MyLaptops(ctx, middleware.CurrentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, laptopList(ls))
}

// Get: GET /api/laptops/:id (admin)
func (h *LaptopHandler) Get(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	v, err := h.Svc.GetLaptop(ctx, middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toLaptopResp(v.Laptop, v.Holder))
}

// Create: POST /api/laptops (admin)
func (h *LaptopHandler) Create(c echo.Context) error {
	var req laptopReq
	if err := c.Bind(&req); err != nil {
		return errBadBody
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	l, err := h.Svc.CreateLaptop(ctx, middleware.CurrentUser(c), service.NewLaptop{
		Brand:        req.Brand,
		Model:        req.Model,
		SerialNumber: req.SerialNumber,
		Specs:        req.Specs,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toLaptopResp(l, nil))
}

// Update: PUT /api/laptops/:id (admin)
func (h *LaptopHandler) Update(c echo.Context) error {
	var req laptopPatchReq
	if err := c.Bind(&req); err != nil {
		return errBadBody
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	l, err := h.Svc.UpdateLaptop(ctx, middleware.CurrentUser(c), c.Param("id"), req.patch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toLaptopResp(l, nil))
}

// Delete: DELETE /api/laptops/:id (admin)
func (h *LaptopHandler) Delete(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Svc.DeleteLaptop(ctx, middleware.CurrentUser(c), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResp{Message: "Laptop deleted successfully"})
}

// transitionFunc is the shape shared by Borrow, Return and the maintenance
// transitions.
type transitionFunc func(ctx context.Context, actor model.User, id string) (model.Laptop, error)

func (h *LaptopHandler) transition(c echo.Context, op transitionFunc) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	l, err := op(ctx, middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toLaptopResp(l, nil))
}

// Borrow: POST /api/laptops/:id/borrow
func (h *LaptopHandler) Borrow(c echo.Context) error {
	return h.transition(c, h.Svc.Borrow)
}

// Return: POST /api/laptops/:id/return
func (h *LaptopHandler) Return(c echo.Context) error {
	return h.transition(c, h.Svc.Return)
}

// RequestMaintenance: POST /api/laptops/:id/maintenance
func (h *LaptopHandler) RequestMaintenance(c echo.Context) error {
	return h.transition(c, h.Svc.RequestMaintenance)
}

// CompleteMaintenance: POST /api/laptops/:id/complete-maintenance (admin)
func (h *LaptopHandler) CompleteMaintenance(c echo.Context) error {
	return h.transition(c, h.Svc.CompleteMaintenance)
}

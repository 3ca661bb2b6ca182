package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/shop-control/internal/client"
	"github.com/iliyamo/shop-control/internal/config"
	"github.com/iliyamo/shop-control/internal/repository"
)

// UserHandler implements the admin-only account management endpoints of
// the user service. Every lifecycle transition (activate / deactivate /
// delete) commits locally first and then synchronously propagates to the
// product service using the admin caller's own bearer token. A failed
// propagation is reported as a server error AFTER the local change stands:
// the stores can diverge and nothing here reconciles them.
type UserHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Products *client.ProductClient
}

func NewUserHandler(cfg config.Config, u *repository.UserRepo, p *client.ProductClient) *UserHandler {
	if u == nil || p == nil {
		panic("nil dependency passed to NewUserHandler")
	}
	return &UserHandler{Cfg: cfg, Users: u, Products: p}
}

type userDTO struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	IsActive    bool      `json:"is_active"`
	IsConfirmed bool      `json:"is_confirmed"`
	CreatedAt   time.Time `json:"created_at"`
}

type updateUserReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func toUserDTO(u repository.User) userDTO {
	return userDTO{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		IsActive:    u.IsActive,
		IsConfirmed: u.IsConfirmed,
		CreatedAt:   u.CreatedAt,
	}
}

// List handles GET /api/users?page=&pageSize=
func (h *UserHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("pageSize"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx, page, pageSize)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	items := make([]userDTO, 0, len(users))
	for _, u := range users {
		items = append(items, toUserDTO(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /api/users/:id
func (h *UserHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toUserDTO(u))
}

// Update handles PUT /api/users/:id
func (h *UserHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/email required"})
	}
	role := normalizeRole(req.Role)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Users.Update(ctx, id, req.Name, req.Email, role); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete handles DELETE /api/users/:id. The account row is removed
// physically, then the product service is told to remove every product the
// account owned, soft-deleted ones included.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}

	if err := h.notifyDeleted(c, id); err != nil {
		// Local delete already committed; the product store now holds
		// orphaned rows until a later bulk delete succeeds.
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete products for user"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Activate handles PUT /api/users/activate/:id. Activating an already
// active account is a valid no-op; the toggle still propagates and
// converges to the same product visibility.
func (h *UserHandler) Activate(c echo.Context) error {
	return h.setActive(c, true)
}

// Deactivate handles PUT /api/users/deactivate/:id.
func (h *UserHandler) Deactivate(c echo.Context) error {
	return h.setActive(c, false)
}

func (h *UserHandler) setActive(c echo.Context, active bool) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Users.SetActive(ctx, id, active); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	if err := h.Products.NotifyUserStatusChanged(c.Request().Context(), bearerFrom(c), id, active); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update product status for user"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) notifyDeleted(c echo.Context, id uint64) error {
	return h.Products.NotifyUserDeleted(c.Request().Context(), bearerFrom(c), id)
}

// bearerFrom returns the raw Authorization header of the inbound request.
// Propagation forwards the admin caller's own credential unmodified; the
// user service holds no service credential of its own.
func bearerFrom(c echo.Context) string {
	return c.Request().Header.Get("Authorization")
}

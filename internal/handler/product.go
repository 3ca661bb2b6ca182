package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/shop-control/internal/repository"
)

// ProductHandler implements the product service endpoints. Owner
// operations are scoped to the subject id the verified token carries; the
// two internal bulk endpoints are role-gated instead (an admin toggling or
// purging another user's products never owns them).
type ProductHandler struct {
	Products *repository.ProductRepo
}

func NewProductHandler(p *repository.ProductRepo) *ProductHandler {
	if p == nil {
		panic("nil repository passed to NewProductHandler")
	}
	return &ProductHandler{Products: p}
}

type productReq struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	IsAvailable bool    `json:"is_available"`
}

// notFoundMsg deliberately covers both a missing product and someone
// else's product, so a caller cannot probe which ids exist.
const notFoundMsg = "product not found or you don't have access to it"

func (r *productReq) validate() string {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return "name is required"
	}
	if r.Price < 0 {
		return "price must be >= 0"
	}
	return ""
}

// Create handles POST /api/products. Ownership is taken from the caller's
// token, never from the body.
func (h *ProductHandler) Create(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	p := &repository.Product{
		UserID:      callerID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		IsAvailable: req.IsAvailable,
	}
	if err := h.Products.Create(c.Request().Context(), p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create product"})
	}
	return c.JSON(http.StatusCreated, p)
}

// Get handles GET /api/products/:id.
func (h *ProductHandler) Get(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	p, err := h.Products.GetByIDAndOwner(c.Request().Context(), id, callerID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": notFoundMsg})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, p)
}

// List handles GET /api/products?name=&minPrice=&maxPrice=&isAvailable=
// and returns only the caller's own visible products.
func (h *ProductHandler) List(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var f repository.ProductFilter
	f.Name = strings.TrimSpace(c.QueryParam("name"))
	if v := c.QueryParam("minPrice"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid minPrice"})
		}
		f.MinPrice = &n
	}
	if v := c.QueryParam("maxPrice"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid maxPrice"})
		}
		f.MaxPrice = &n
	}
	if v := c.QueryParam("isAvailable"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid isAvailable"})
		}
		f.IsAvailable = &b
	}

	items, err := h.Products.Filter(c.Request().Context(), callerID, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Update handles PUT /api/products/:id.
func (h *ProductHandler) Update(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	if _, err := h.Products.GetByIDAndOwner(c.Request().Context(), id, callerID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": notFoundMsg})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if err := h.Products.Update(c.Request().Context(), id, callerID, req.Name, req.Description, req.Price, req.IsAvailable); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete handles DELETE /api/products/:id, a physical removal of the
// caller's own product.
func (h *ProductHandler) Delete(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	if err := h.Products.Delete(c.Request().Context(), id, callerID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": notFoundMsg})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ToggleUserProducts handles PUT /api/products/toggle-user-products/:userId,
// the propagation target for account activation/deactivation. The body is
// a bare JSON boolean (the user service sends `true` or `false`, not an
// object). is_active=false soft-deletes every product of the user;
// is_active=true restores every product. The statement ignores the
// visibility filter, so applying the same value twice converges.
func (h *ProductHandler) ToggleUserProducts(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var isActive bool
	if err := json.NewDecoder(c.Request().Body).Decode(&isActive); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "body must be a json boolean"})
	}

	if err := h.Products.ToggleByUser(c.Request().Context(), userID, isActive); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "toggle failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteUserProducts handles DELETE /api/products/user/:userId, the
// propagation target for account deletion. Every product of the user is
// removed permanently, soft-deleted rows included.
func (h *ProductHandler) DeleteUserProducts(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	if err := h.Products.DeleteByUser(c.Request().Context(), userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

package handler

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/shop-control/internal/config"
	"github.com/iliyamo/shop-control/internal/middleware"
	"github.com/iliyamo/shop-control/internal/repository"
)

func newProductHandler(t *testing.T) (*ProductHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewProductHandler(repository.NewProductRepo(db)), mock
}

// productCtx builds an echo context the way the auth middleware leaves it:
// subject id and role already placed on the context.
func productCtx(t *testing.T, method, target, body string, callerID uint64) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if callerID != 0 {
		c.Set("user_id", callerID)
		c.Set("role", "User")
	}
	return c, rec
}

func mockProductRow(id, owner uint64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "user_id", "name", "description",
		"price", "is_available", "is_deleted", "created_at", "updated_at"}).
		AddRow(id, owner, "widget", "a widget", 9.99, true, false, now, now)
}

func TestProductCreateTakesOwnerFromToken(t *testing.T) {
	h, mock := newProductHandler(t)
	mock.ExpectExec("INSERT INTO products").
		WithArgs(uint64(7), "widget", "a widget", 9.99, true).
		WillReturnResult(sqlmock.NewResult(31, 1))
	mock.ExpectQuery("SELECT created_at, updated_at FROM products").
		WithArgs(uint64(31)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).
			AddRow(time.Now(), time.Now()))

	// user_id in the body must be ignored; ownership comes from the token.
	body := `{"name":"widget","description":"a widget","price":9.99,"is_available":true,"user_id":999}`
	c, rec := productCtx(t, http.MethodPost, "/api/products", body, 7)

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":31`)
	assert.Contains(t, rec.Body.String(), `"user_id":7`)
	// the 201 body carries the stored timestamps, not zero times
	assert.NotContains(t, rec.Body.String(), "0001-01-01")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductCreateRejectsBadInput(t *testing.T) {
	h, _ := newProductHandler(t)

	for name, body := range map[string]string{
		"missing name":   `{"price":1}`,
		"blank name":     `{"name":"   ","price":1}`,
		"negative price": `{"name":"widget","price":-1}`,
	} {
		t.Run(name, func(t *testing.T) {
			c, rec := productCtx(t, http.MethodPost, "/api/products", body, 7)
			require.NoError(t, h.Create(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestProductGetMissingAuthContext(t *testing.T) {
	h, _ := newProductHandler(t)
	c, rec := productCtx(t, http.MethodGet, "/api/products/31", "", 0)
	c.SetParamNames("id")
	c.SetParamValues("31")

	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProductGetAnswersNotFoundForForeignProduct(t *testing.T) {
	h, mock := newProductHandler(t)
	mock.ExpectQuery("SELECT .+ FROM products").
		WithArgs(uint64(31), uint64(8)).
		WillReturnError(sql.ErrNoRows)

	c, rec := productCtx(t, http.MethodGet, "/api/products/31", "", 8)
	c.SetParamNames("id")
	c.SetParamValues("31")

	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), notFoundMsg)
}

func TestProductListParsesFilters(t *testing.T) {
	h, mock := newProductHandler(t)
	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM products WHERE user_id=? AND is_deleted=0 AND name LIKE ? AND price >= ? AND price <= ? AND is_available = ? ORDER BY id")).
		WithArgs(uint64(7), "%wid%", 1.0, 20.0, true).
		WillReturnRows(mockProductRow(31, 7))

	c, rec := productCtx(t, http.MethodGet,
		"/api/products?name=wid&minPrice=1&maxPrice=20&isAvailable=true", "", 7)

	require.NoError(t, h.List(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"items":[`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductListRejectsBadFilters(t *testing.T) {
	h, _ := newProductHandler(t)

	for name, query := range map[string]string{
		"non-numeric minPrice": "minPrice=abc",
		"negative maxPrice":    "maxPrice=-2",
		"bad isAvailable":      "isAvailable=maybe",
	} {
		t.Run(name, func(t *testing.T) {
			c, rec := productCtx(t, http.MethodGet, "/api/products?"+query, "", 7)
			require.NoError(t, h.List(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestProductUpdateChecksOwnershipFirst(t *testing.T) {
	h, mock := newProductHandler(t)
	mock.ExpectQuery("SELECT .+ FROM products").
		WithArgs(uint64(31), uint64(8)).
		WillReturnError(sql.ErrNoRows)

	c, rec := productCtx(t, http.MethodPut, "/api/products/31",
		`{"name":"widget","price":5}`, 8)
	c.SetParamNames("id")
	c.SetParamValues("31")

	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet()) // no UPDATE was attempted
}

func TestProductUpdateNoChangeStillSucceeds(t *testing.T) {
	h, mock := newProductHandler(t)
	mock.ExpectQuery("SELECT .+ FROM products").
		WithArgs(uint64(31), uint64(7)).
		WillReturnRows(mockProductRow(31, 7))
	mock.ExpectExec("UPDATE products SET name").
		WithArgs("widget", "a widget", 9.99, true, uint64(31), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0)) // MySQL: identical values, zero rows

	c, rec := productCtx(t, http.MethodPut, "/api/products/31",
		`{"name":"widget","description":"a widget","price":9.99,"is_available":true}`, 7)
	c.SetParamNames("id")
	c.SetParamValues("31")

	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductDelete(t *testing.T) {
	h, mock := newProductHandler(t)
	mock.ExpectExec("DELETE FROM products WHERE id").
		WithArgs(uint64(31), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := productCtx(t, http.MethodDelete, "/api/products/31", "", 7)
	c.SetParamNames("id")
	c.SetParamValues("31")

	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestToggleUserProductsBareBooleanBody(t *testing.T) {
	h, mock := newProductHandler(t)
	mock.ExpectExec("UPDATE products SET is_deleted").
		WithArgs(true, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	c, rec := productCtx(t, http.MethodPut, "/api/products/toggle-user-products/7", "false", 1)
	c.SetParamNames("userId")
	c.SetParamValues("7")

	require.NoError(t, h.ToggleUserProducts(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleUserProductsRejectsObjectBody(t *testing.T) {
	h, _ := newProductHandler(t)
	c, rec := productCtx(t, http.MethodPut, "/api/products/toggle-user-products/7",
		`{"is_active":false}`, 1)
	c.SetParamNames("userId")
	c.SetParamValues("7")

	require.NoError(t, h.ToggleUserProducts(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "json boolean")
}

// A cached listing must not outlive a bulk toggle: once an admin hides a
// user's products, repeating the exact pre-toggle query has to re-read the
// store and come back empty, not replay the cached page for up to TTL.
func TestToggleUserProductsInvalidatesCachedListings(t *testing.T) {
	h, mock := newProductHandler(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cacheCfg := config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{"GET": true},
		TTL:          30 * time.Second,
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
	}

	asUser := func(id uint64) echo.MiddlewareFunc {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				c.Set("user_id", id)
				c.Set("role", "Admin")
				return next(c)
			}
		}
	}

	// Wired the way the product router does it: reads behind the cache,
	// every route behind the invalidator.
	e := echo.New()
	e.GET("/api/products", h.List,
		asUser(7), middleware.NewCacheInvalidator(cacheCfg, rdb), middleware.NewRedisCache(cacheCfg, rdb))
	e.PUT("/api/products/toggle-user-products/:userId", h.ToggleUserProducts,
		asUser(1), middleware.NewCacheInvalidator(cacheCfg, rdb))

	// first listing: one visible product, entering the cache
	mock.ExpectQuery("SELECT .+ FROM products WHERE user_id").
		WithArgs(uint64(7)).
		WillReturnRows(mockProductRow(2, 7))

	first := httptest.NewRecorder()
	e.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Contains(t, first.Body.String(), `"id":2`)

	// deactivation toggle hides every product of user 7
	mock.ExpectExec("UPDATE products SET is_deleted").
		WithArgs(true, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	toggleReq := httptest.NewRequest(http.MethodPut,
		"/api/products/toggle-user-products/7", strings.NewReader("false"))
	toggleReq.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	toggle := httptest.NewRecorder()
	e.ServeHTTP(toggle, toggleReq)
	require.Equal(t, http.StatusNoContent, toggle.Code)

	// the identical query re-reads the store and sees nothing
	mock.ExpectQuery("SELECT .+ FROM products WHERE user_id").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "description",
			"price", "is_available", "is_deleted", "created_at", "updated_at"}))

	second := httptest.NewRecorder()
	e.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "MISS", second.Header().Get("X-Cache"))
	assert.NotContains(t, second.Body.String(), `"id":2`)
	assert.Contains(t, second.Body.String(), `"items":[]`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUserProducts(t *testing.T) {
	h, mock := newProductHandler(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM products WHERE user_id=?")).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 4))

	c, rec := productCtx(t, http.MethodDelete, "/api/products/user/7", "", 1)
	c.SetParamNames("userId")
	c.SetParamValues("7")

	require.NoError(t, h.DeleteUserProducts(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/shop-control/internal/config"
	"github.com/iliyamo/shop-control/internal/repository"
	"github.com/iliyamo/shop-control/internal/utils"
)

func testConfig() config.Config {
	return config.Config{
		Env:           "test",
		JWTSecret:     "auth-test-secret",
		JWTIssuer:     "user-service",
		JWTAudience:   "shop-control",
		AccessTTLMin:  15,
		BcryptCost:    bcrypt.MinCost,
		PublicBaseURL: "http://localhost:8080",
	}
}

func newAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAuthHandler(testConfig(), repository.NewUserRepo(db)), mock
}

func authCtx(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
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
	return e.NewContext(req, rec), rec
}

func accountRow(hash string, confirmed, active bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "name", "email", "password_hash",
		"role", "is_active", "is_confirmed", "confirmation_token",
		"password_reset_token", "password_reset_expires_at", "created_at", "updated_at"}).
		AddRow(5, "Ada", "ada@example.com", hash, "User",
			active, confirmed, nil, nil, nil, now, now)
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := utils.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	return hash
}

func TestRegisterSucceedsEvenWithoutBroker(t *testing.T) {
	h, mock := newAuthHandler(t)
	mock.ExpectExec("INSERT INTO users").
		WithArgs("Ada", "ada@example.com", sqlmock.AnyArg(), "User", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(5, 1))

	// No broker is running here: the mail event publish fails and the
	// registration must still answer success.
	c, rec := authCtx(t, http.MethodPost, "/api/auths/register",
		`{"name":"Ada","email":"Ada@Example.COM","password":"s3cret"}`)

	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "check your email")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterNormalizesUnknownRole(t *testing.T) {
	h, mock := newAuthHandler(t)
	mock.ExpectExec("INSERT INTO users").
		WithArgs("Ada", "ada@example.com", sqlmock.AnyArg(), "User", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(5, 1))

	c, rec := authCtx(t, http.MethodPost, "/api/auths/register",
		`{"name":"Ada","email":"ada@example.com","password":"s3cret","role":"Superuser"}`)

	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, mock := newAuthHandler(t)
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'ada@example.com' for key 'users.email'"))

	c, rec := authCtx(t, http.MethodPost, "/api/auths/register",
		`{"name":"Ada","email":"ada@example.com","password":"s3cret"}`)

	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestConfirmEmailInvalidToken(t *testing.T) {
	h, mock := newAuthHandler(t)
	mock.ExpectQuery("SELECT .+ FROM users WHERE confirmation_token").
		WithArgs("bad").
		WillReturnError(sql.ErrNoRows)

	c, rec := authCtx(t, http.MethodGet, "/api/auths/confirm-email?token=bad", "")
	require.NoError(t, h.ConfirmEmail(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConfirmEmailRedeemsToken(t *testing.T) {
	h, mock := newAuthHandler(t)
	mock.ExpectQuery("SELECT .+ FROM users WHERE confirmation_token").
		WithArgs("tok").
		WillReturnRows(accountRow("$2a$hash", false, true))
	mock.ExpectExec("UPDATE users SET is_confirmed=1, confirmation_token=NULL").
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := authCtx(t, http.MethodGet, "/api/auths/confirm-email?token=tok", "")
	require.NoError(t, h.ConfirmEmail(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginUnknownEmail(t *testing.T) {
	h, mock := newAuthHandler(t)
	mock.ExpectQuery("SELECT .+ FROM users WHERE email").
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	c, rec := authCtx(t, http.MethodPost, "/api/auths/login",
		`{"email":"nobody@example.com","password":"s3cret"}`)
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	h, mock := newAuthHandler(t)
	mock.ExpectQuery("SELECT .+ FROM users WHERE email").
		WillReturnRows(accountRow(mustHash(t, "s3cret"), true, true))

	c, rec := authCtx(t, http.MethodPost, "/api/auths/login",
		`{"email":"ada@example.com","password":"wrong"}`)
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid login credentials")
}

func TestLoginUnconfirmedAccount(t *testing.T) {
	h, mock := newAuthHandler(t)
	mock.ExpectQuery("SELECT .+ FROM users WHERE email").
		WillReturnRows(accountRow(mustHash(t, "s3cret"), false, true))

	c, rec := authCtx(t, http.MethodPost, "/api/auths/login",
		`{"email":"ada@example.com","password":"s3cret"}`)
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "not confirmed")
}

func TestLoginDeactivatedAccount(t *testing.T) {
	h, mock := newAuthHandler(t)
	mock.ExpectQuery("SELECT .+ FROM users WHERE email").
		WillReturnRows(accountRow(mustHash(t, "s3cret"), true, false))

	c, rec := authCtx(t, http.MethodPost, "/api/auths/login",
		`{"email":"ada@example.com","password":"s3cret"}`)
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "deactivated")
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	h, mock := newAuthHandler(t)
	mock.ExpectQuery("SELECT .+ FROM users WHERE email").
		WillReturnRows(accountRow(mustHash(t, "s3cret"), true, true))

	c, rec := authCtx(t, http.MethodPost, "/api/auths/login",
		`{"email":"ada@example.com","password":"s3cret"}`)
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp loginResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	cfg := testConfig()
	claims, err := utils.VerifyAccessToken(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), claims.UserID)
	assert.Equal(t, "User", claims.Role)
}

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	h, mock := newAuthHandler(t)
	mock.ExpectQuery("SELECT .+ FROM users WHERE email").
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	c, rec := authCtx(t, http.MethodPost, "/api/auths/request-password-reset",
		`{"email":"nobody@example.com"}`)
	require.NoError(t, h.RequestPasswordReset(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestPasswordResetStoresToken(t *testing.T) {
	h, mock := newAuthHandler(t)
	mock.ExpectQuery("SELECT .+ FROM users WHERE email").
		WillReturnRows(accountRow("$2a$hash", true, true))
	mock.ExpectExec("UPDATE users SET password_reset_token").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := authCtx(t, http.MethodPost, "/api/auths/request-password-reset",
		`{"email":"ada@example.com"}`)
	require.NoError(t, h.RequestPasswordReset(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetPasswordExpiredToken(t *testing.T) {
	h, mock := newAuthHandler(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "email", "password_hash",
		"role", "is_active", "is_confirmed", "confirmation_token",
		"password_reset_token", "password_reset_expires_at", "created_at", "updated_at"}).
		AddRow(5, "Ada", "ada@example.com", "$2a$hash", "User",
			true, true, nil, "tok", now.Add(-time.Minute), now, now)
	mock.ExpectQuery("SELECT .+ FROM users WHERE password_reset_token").
		WithArgs("tok").
		WillReturnRows(rows)

	c, rec := authCtx(t, http.MethodPost, "/api/auths/reset-password?token=tok",
		`{"new_password":"newpass"}`)
	require.NoError(t, h.ResetPassword(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "expired")
}

func TestResetPasswordReplacesHashAndBurnsToken(t *testing.T) {
	h, mock := newAuthHandler(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "email", "password_hash",
		"role", "is_active", "is_confirmed", "confirmation_token",
		"password_reset_token", "password_reset_expires_at", "created_at", "updated_at"}).
		AddRow(5, "Ada", "ada@example.com", "$2a$old", "User",
			true, true, nil, "tok", now.Add(30*time.Minute), now, now)
	mock.ExpectQuery("SELECT .+ FROM users WHERE password_reset_token").
		WithArgs("tok").
		WillReturnRows(rows)
	mock.ExpectExec("UPDATE users SET password_hash").
		WithArgs(sqlmock.AnyArg(), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := authCtx(t, http.MethodPost, "/api/auths/reset-password?token=tok",
		`{"new_password":"newpass"}`)
	require.NoError(t, h.ResetPassword(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

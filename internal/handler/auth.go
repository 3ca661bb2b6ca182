package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/shop-control/internal/config"
	"github.com/iliyamo/shop-control/internal/queue"
	"github.com/iliyamo/shop-control/internal/repository"
	queue_publisher "github.com/iliyamo/shop-control/internal/service"
	"github.com/iliyamo/shop-control/internal/utils"
)

// AuthHandler bundles dependencies for the public auth endpoints of the
// user service: registration, email confirmation, login and password reset.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"` // User | Admin
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type resetRequestReq struct {
	Email string `json:"email"`
}
type resetPasswordReq struct {
	NewPassword string `json:"new_password"`
}
type loginResp struct {
	Token string `json:"token"`
}

// normalizeRole constrains the requested role to the two known values.
// Anything unknown registers as a plain User.
func normalizeRole(raw string) string {
	if strings.EqualFold(strings.TrimSpace(raw), "Admin") {
		return "Admin"
	}
	return "User"
}

// Register creates the account active but unconfirmed and publishes a
// confirmation mail event carrying the one-time token link. The caller
// cannot log in until the link is followed.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/email/password required"})
	}
	role := normalizeRole(req.Role)

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}
	confirmToken, err := utils.NewMailToken()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.Create(ctx, req.Name, req.Email, hash, role, confirmToken); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "a user with this email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	confirmLink := fmt.Sprintf("%s/api/auths/confirm-email?token=%s", h.Cfg.PublicBaseURL, confirmToken)
	// Mail delivery runs through the broker; a broker outage must not fail
	// the registration that already committed.
	_ = queue_publisher.PublishMailRequested(ctx, queue.MailRequestedEvent{
		To:          req.Email,
		Subject:     "Confirm your account",
		Body:        fmt.Sprintf("<p>To confirm your account, please click the link below:</p><p><a href='%s'>Confirm Account</a></p>", confirmLink),
		Kind:        "confirmation",
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Registration successful! Please check your email to confirm your account.",
	})
}

// ConfirmEmail redeems the one-time confirmation token from the mailed
// link. The token is cleared on use, so the link works exactly once.
func (h *AuthHandler) ConfirmEmail(c echo.Context) error {
	token := strings.TrimSpace(c.QueryParam("token"))
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByConfirmationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invalid confirmation token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Users.Confirm(ctx, u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirm failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Your account has been confirmed successfully."})
}

// Login verifies credentials and returns a signed access token. An
// unconfirmed or deactivated account is refused with the same status as a
// wrong password.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid login credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid login credentials"})
	}
	if !u.IsConfirmed {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account not confirmed, please check your email"})
	}
	if !u.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "your account has been deactivated, please contact support"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, h.Cfg.JWTIssuer, h.Cfg.JWTAudience, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	return c.JSON(http.StatusOK, loginResp{Token: access.Token})
}

// RequestPasswordReset stores a time-boxed reset token and publishes the
// reset link mail event.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req resetRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user with the specified email was not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	resetToken, err := utils.NewMailToken()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	expires := time.Now().UTC().Add(time.Hour)
	if err := h.Users.SetResetToken(ctx, u.ID, resetToken, expires); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store token failed"})
	}

	resetLink := fmt.Sprintf("%s/api/auths/reset-password?token=%s", h.Cfg.PublicBaseURL, resetToken)
	_ = queue_publisher.PublishMailRequested(ctx, queue.MailRequestedEvent{
		To:          u.Email,
		Subject:     "Password Reset Request",
		Body:        fmt.Sprintf("<p>To reset your password, please click the link below:</p><p><a href='%s'>Reset Password</a></p>", resetLink),
		Kind:        "password_reset",
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "Password reset link sent to your email."})
}

// ResetPassword redeems a reset token before its expiry and replaces the
// password. The token is cleared on use and on success only.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	token := strings.TrimSpace(c.QueryParam("token"))
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "new_password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired password reset token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !u.PasswordResetExpiresAt.Valid || !u.PasswordResetExpiresAt.Time.After(time.Now().UTC()) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired password reset token"})
	}

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}
	if err := h.Users.ResetPassword(ctx, u.ID, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password has been reset successfully."})
}

package middleware // middleware contains reusable HTTP middleware shared by both services

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/shop-control/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the verified subject id and role into the request context.
// The secret, issuer and audience must match the values the user service
// signs with; the product service runs the exact same verification, which
// is the whole trust model between the two services.  Handlers read the
// caller via c.Get("user_id") (uint64) and c.Get("role") (string).
func JWTAuth(secret, issuer, audience string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            claims, err := utils.VerifyAccessToken(secret, issuer, audience, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            c.Set("user_id", claims.UserID)
            c.Set("role", claims.Role)
            return next(c)
        }
    }
}

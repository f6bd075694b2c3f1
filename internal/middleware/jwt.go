package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "context"  // Authenticator looks the session up with the request context
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/croabboard/internal/model" // authenticated user stored in the context
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "session"

// Authenticator resolves a raw session token to its user and session id.
// service.Auth implements it.
type Authenticator interface {
    Authenticate(ctx context.Context, raw string) (model.User, string, error)
}

// SessionAuth returns an Echo middleware that requires a valid session.
// The token is read from the session cookie, or from an
// "Authorization: Bearer" header for API clients.  On success the user,
// its id and the session id are stored in the context under KeyUser,
// KeyUserID and KeySessionID.
func SessionAuth(auth Authenticator) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw := tokenFrom(c)
            if raw == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "authentication required"})
            }
            // The session row decides: a revoked or expired session is
            // rejected even when the token signature is still valid.
            user, sid, err := auth.Authenticate(c.Request().Context(), raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "invalid or expired session"})
            }
            c.Set(KeyUserID, user.ID)
            c.Set(KeyUser, user)
            c.Set(KeySessionID, sid)
            return next(c)
        }
    }
}

func tokenFrom(c echo.Context) string {
    if h := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
        return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
    }
    if ck, err := c.Cookie(SessionCookie); err == nil {
        return ck.Value
    }
    return ""
}

package middleware

// identity.go holds the context keys set by SessionAuth and the helpers
// handlers use to read them, plus ClientInfo which records the caller's
// address for the audit trail.

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/croabboard/internal/model"
    "github.com/iliyamo/croabboard/internal/queue"
)

// Keys under which SessionAuth stores the authenticated caller.
const (
    KeyUserID    = "user_id"
    KeyUser      = "user"
    KeySessionID = "session_id"
)

// UserID returns the authenticated user's id, or 0 for anonymous requests.
func UserID(c echo.Context) uint64 {
    if v, ok := c.Get(KeyUserID).(uint64); ok {
        return v
    }
    return 0
}

// CurrentUser returns the authenticated user stored by SessionAuth.
func CurrentUser(c echo.Context) (model.User, bool) {
    u, ok := c.Get(KeyUser).(model.User)
    return u, ok
}

// SessionID returns the id of the session the request was made with.
func SessionID(c echo.Context) string {
    s, _ := c.Get(KeySessionID).(string)
    return s
}

// ClientInfo copies the client IP and user agent into the request
// context so events emitted while serving the request carry them.
func ClientInfo() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            req := c.Request()
            ctx := queue.WithClient(req.Context(), queue.Client{IP: c.RealIP(), UserAgent: req.UserAgent()})
            c.SetRequest(req.WithContext(ctx))
            return next(c)
        }
    }
}

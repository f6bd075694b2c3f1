package handler

import (
    "context"  // provides context with cancellation for service calls
    "net/http" // HTTP status codes and primitives
    "strconv"  // string-to-int conversion
    "time"     // cookie expiry

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/croabboard/internal/logging"    // structured logger
    "github.com/iliyamo/croabboard/internal/middleware" // session cookie name and caller helpers
    "github.com/iliyamo/croabboard/internal/model"      // user type
    "github.com/iliyamo/croabboard/internal/service"    // auth service
)

// AuthHandler bundles dependencies for auth and account endpoints.
type AuthHandler struct {
    Auth         *service.Auth
    Log          logging.Logger
    SecureCookie bool // set the Secure flag on the session cookie
}

func NewAuthHandler(auth *service.Auth, log logging.Logger, secureCookie bool) *AuthHandler {
    return &AuthHandler{Auth: auth, Log: log, SecureCookie: secureCookie}
}

// ----- DTOs -----

type credentialsReq struct {
    Username string `json:"username" form:"username"`
    Password string `json:"password" form:"password"`
}

type resetPasswordReq struct {
    Password        string `json:"password" form:"password"`
    ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
}

type userPart struct {
    ID       uint64 `json:"id"`
    Username string `json:"username"`
    BtnSize  int    `json:"btn_size"`
    IsAdmin  bool   `json:"is_admin"`
}

func toUserPart(u model.User) userPart {
    return userPart{ID: u.ID, Username: u.Username, BtnSize: u.BtnSize, IsAdmin: u.IsAdmin}
}

// Register creates an account. Duplicate usernames and missing fields are 400.
func (h *AuthHandler) Register(c echo.Context) error {
    var req credentialsReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "invalid body")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    u, err := h.Auth.Register(ctx, req.Username, req.Password)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return ok(c, http.StatusCreated, "user created", echo.Map{"user": toUserPart(u)})
}

// Login opens a session. The token is set as an HttpOnly cookie and also
// returned in the body for clients that send it as a Bearer token.
func (h *AuthHandler) Login(c echo.Context) error {
    var req credentialsReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "invalid body")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    u, tok, err := h.Auth.Login(ctx, req.Username, req.Password)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    c.SetCookie(h.sessionCookie(tok.Token, tok.Exp))
    return ok(c, http.StatusOK, "logged in", echo.Map{
        "user":    toUserPart(u),
        "token":   tok.Token,
        "expires": tok.Exp,
    })
}

// Logout revokes the current session and clears the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    if err := h.Auth.Logout(ctx, middleware.SessionID(c)); err != nil {
        return writeError(c, h.Log, err)
    }
    ck := h.sessionCookie("", time.Unix(0, 0))
    ck.MaxAge = -1
    c.SetCookie(ck)
    return ok(c, http.StatusOK, "logged out", nil)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
    u, found := middleware.CurrentUser(c)
    if !found {
        return fail(c, http.StatusUnauthorized, "authentication required")
    }
    p := toUserPart(u)
    return c.JSON(http.StatusOK, echo.Map{
        "success":  true,
        "id":       p.ID,
        "username": p.Username,
        "btn_size": p.BtnSize,
        "is_admin": p.IsAdmin,
    })
}

// ResetPassword changes the password and closes every other session of
// the user.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
    var req resetPasswordReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "invalid body")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    err := h.Auth.ResetPassword(ctx, middleware.UserID(c), middleware.SessionID(c), req.Password, req.ConfirmPassword)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return ok(c, http.StatusOK, "password updated", nil)
}

// SetButtonSize stores the display size of the user's buttons.
func (h *AuthHandler) SetButtonSize(c echo.Context) error {
    size, err := strconv.Atoi(c.Param("n"))
    if err != nil {
        return fail(c, http.StatusBadRequest, "button size must be an integer")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    if err := h.Auth.SetButtonSize(ctx, middleware.UserID(c), size); err != nil {
        return writeError(c, h.Log, err)
    }
    return ok(c, http.StatusOK, "button size updated", echo.Map{"btn_size": size})
}

func (h *AuthHandler) sessionCookie(value string, exp time.Time) *http.Cookie {
    return &http.Cookie{
        Name:     middleware.SessionCookie,
        Value:    value,
        Path:     "/",
        Expires:  exp,
        HttpOnly: true,
        Secure:   h.SecureCookie,
        SameSite: http.SameSiteLaxMode,
    }
}

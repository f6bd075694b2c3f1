package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/croabboard/internal/logging"
    "github.com/iliyamo/croabboard/internal/service"
)

// AdminHandler serves the read-only admin listings. Routes are mounted
// behind middleware.RequireAdmin.
type AdminHandler struct {
    Admin *service.Admin
    Log   logging.Logger
}

func NewAdminHandler(a *service.Admin, log logging.Logger) *AdminHandler {
    return &AdminHandler{Admin: a, Log: log}
}

type adminUser struct {
    ID        uint64 `json:"id"`
    Username  string `json:"username"`
    IsAdmin   bool   `json:"is_admin"`
    Buttons   int    `json:"buttons"`
    CreatedAt string `json:"created_at"`
}

type adminHistoryItem struct {
    historyItem
    OwnerID uint64 `json:"owner_id"`
}

func (h *AdminHandler) Users(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    users, err := h.Admin.Users(ctx)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    out := make([]adminUser, 0, len(users))
    for _, u := range users {
        out = append(out, adminUser{
            ID:        u.ID,
            Username:  u.Username,
            IsAdmin:   u.IsAdmin,
            Buttons:   u.Buttons,
            CreatedAt: u.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "users": out})
}

func (h *AdminHandler) History(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    recs, err := h.Admin.History(ctx)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    items := toHistoryItems(recs)
    out := make([]adminHistoryItem, 0, len(items))
    for i, it := range items {
        out = append(out, adminHistoryItem{historyItem: it, OwnerID: recs[i].OwnerID})
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "history": out})
}

// AuditLogs lists the newest audit entries (?limit=, default 100).
func (h *AdminHandler) AuditLogs(c echo.Context) error {
    limit, err := queryInt(c, "limit")
    if err != nil {
        return fail(c, http.StatusBadRequest, "limit must be an integer")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    logs, err := h.Admin.AuditLogs(ctx, limit)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "logs": nonNil(logs)})
}

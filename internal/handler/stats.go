package handler

import (
    "context"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/croabboard/internal/logging"
    "github.com/iliyamo/croabboard/internal/middleware"
    "github.com/iliyamo/croabboard/internal/service"
)

// StatsHandler records button plays and reports the most played ones.
type StatsHandler struct {
    Stats *service.Stats
    Log   logging.Logger
}

func NewStatsHandler(s *service.Stats, log logging.Logger) *StatsHandler {
    return &StatsHandler{Stats: s, Log: log}
}

func (h *StatsHandler) Play(c echo.Context) error {
    id, valid := parseID(c.Param("id"))
    if !valid {
        return fail(c, http.StatusBadRequest, "invalid button id")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    if err := h.Stats.RecordPlay(ctx, middleware.UserID(c), id); err != nil {
        return writeError(c, h.Log, err)
    }
    return ok(c, http.StatusOK, "play recorded", nil)
}

// MostPlayed lists the user's buttons by play count (?limit=, default 20).
func (h *StatsHandler) MostPlayed(c echo.Context) error {
    limit, err := queryInt(c, "limit")
    if err != nil {
        return fail(c, http.StatusBadRequest, "limit must be an integer")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    out, err := h.Stats.MostPlayed(ctx, middleware.UserID(c), limit)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "buttons": nonNil(out)})
}

// queryInt parses an optional integer query parameter; absent is 0.
func queryInt(c echo.Context, name string) (int, error) {
    raw := c.QueryParam(name)
    if raw == "" {
        return 0, nil
    }
    return strconv.Atoi(raw)
}

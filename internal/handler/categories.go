package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/croabboard/internal/logging"
    "github.com/iliyamo/croabboard/internal/service"
)

// CategoryHandler manages the shared category catalogue.
type CategoryHandler struct {
    Categories *service.Categories
    Log        logging.Logger
}

func NewCategoryHandler(cats *service.Categories, log logging.Logger) *CategoryHandler {
    return &CategoryHandler{Categories: cats, Log: log}
}

type categoryReq struct {
    Name  string `json:"name" form:"name"`
    Color string `json:"color" form:"color"`
}

// List returns every category with its button count.
func (h *CategoryHandler) List(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    cats, err := h.Categories.List(ctx)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "categories": nonNil(cats)})
}

func (h *CategoryHandler) Create(c echo.Context) error {
    var req categoryReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "invalid body")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    cat, err := h.Categories.Create(ctx, req.Name, req.Color)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return ok(c, http.StatusCreated, "category created", echo.Map{"category": cat})
}

func (h *CategoryHandler) Update(c echo.Context) error {
    id, valid := parseID(c.Param("id"))
    if !valid {
        return fail(c, http.StatusBadRequest, "invalid category id")
    }
    var req categoryReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "invalid body")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    cat, err := h.Categories.Update(ctx, id, req.Name, req.Color)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return ok(c, http.StatusOK, "category updated", echo.Map{"category": cat})
}

// Delete removes an unused category; one still referenced is 400.
func (h *CategoryHandler) Delete(c echo.Context) error {
    id, valid := parseID(c.Param("id"))
    if !valid {
        return fail(c, http.StatusBadRequest, "invalid category id")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    if err := h.Categories.Delete(ctx, id); err != nil {
        return writeError(c, h.Log, err)
    }
    return ok(c, http.StatusOK, "category deleted", nil)
}

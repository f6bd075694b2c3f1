package handler

import (
    "context"
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/croabboard/internal/logging"
    "github.com/iliyamo/croabboard/internal/model"
    "github.com/iliyamo/croabboard/internal/storage"
)

// AssetHandler serves stored asset content.
type AssetHandler struct {
    Store storage.Store
    Log   logging.Logger
}

func NewAssetHandler(store storage.Store, log logging.Logger) *AssetHandler {
    return &AssetHandler{Store: store, Log: log}
}

// Get writes the content of /asset/:kind/:ref. Unknown kinds, malformed
// refs and missing content are all 404.
func (h *AssetHandler) Get(c echo.Context) error {
    kind, err := model.ParseAssetKind(c.Param("kind"))
    if err != nil {
        return fail(c, http.StatusNotFound, "asset not found")
    }
    ref := c.Param("ref")

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    content, err := h.Store.Retrieve(ctx, kind, ref)
    if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidRef) {
        return fail(c, http.StatusNotFound, "asset not found")
    }
    if err != nil {
        h.Log.Error(ctx, "asset read failed", "kind", kind, "ref", ref, "err", err)
        return fail(c, http.StatusInternalServerError, "internal error")
    }
    c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=86400")
    return c.Blob(http.StatusOK, storage.ContentType(kind, ref, content), content)
}

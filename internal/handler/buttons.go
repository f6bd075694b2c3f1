package handler

import (
    "context"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/croabboard/internal/logging"
    "github.com/iliyamo/croabboard/internal/middleware"
    "github.com/iliyamo/croabboard/internal/model"
    "github.com/iliyamo/croabboard/internal/service"
)

// ButtonHandler serves the board: listing, creation, ordering,
// categorisation, deletion, restore and asset edits.
type ButtonHandler struct {
    Lifecycle  *service.Lifecycle
    Ordering   *service.Ordering
    Categories *service.Categories
    Log        logging.Logger
}

func NewButtonHandler(l *service.Lifecycle, o *service.Ordering, cats *service.Categories, log logging.Logger) *ButtonHandler {
    if l == nil || o == nil || cats == nil {
        panic("nil service passed to NewButtonHandler")
    }
    return &ButtonHandler{Lifecycle: l, Ordering: o, Categories: cats, Log: log}
}

// ----- DTOs -----

type positionReq struct {
    ID          uint64 `json:"id"`
    NewPosition int    `json:"new_position"`
}

// updateButtonsReq is either a reposition batch or a category change.
type updateButtonsReq struct {
    Positions    []positionReq `json:"positions"`
    ButtonID     uint64        `json:"button_id"`
    CategoryName *string       `json:"category_name"`
}

type renameReq struct {
    ButtonName string `json:"ButtonName"`
    ImageID    uint64 `json:"image_id"`
}

type historyItem struct {
    ID       uint64 `json:"id"`
    Date     string `json:"date"`
    Name     string `json:"name"`
    Category string `json:"category,omitempty"`
    Status   string `json:"status"`
    ImageRef string `json:"image_ref"`
    SoundRef string `json:"sound_ref"`
}

func toHistoryItems(in []model.DeletedButton) []historyItem {
    out := make([]historyItem, 0, len(in))
    for _, h := range in {
        out = append(out, historyItem{
            ID:       h.ID,
            Date:     h.DeletedAt.UTC().Format("2006-01-02 15:04:05"),
            Name:     h.Name,
            Category: h.CategoryName,
            Status:   string(h.Status),
            ImageRef: h.ImageRef,
            SoundRef: h.SoundRef,
        })
    }
    return out
}

// List returns the user's board in display order. ?category= keeps the
// buttons whose category name contains the value.
func (h *ButtonHandler) List(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    views, err := h.Ordering.List(ctx, middleware.UserID(c), strings.TrimSpace(c.QueryParam("category")))
    if err != nil {
        return writeError(c, h.Log, err)
    }
    size := 0
    if u, found := middleware.CurrentUser(c); found {
        size = u.BtnSize
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "buttons": nonNil(views), "btn_size": size})
}

// Create uploads a new button from a multipart form: image (required),
// sound, name and category.
func (h *ButtonHandler) Create(c echo.Context) error {
    image, err := formUpload(c, "image")
    if err != nil {
        return fail(c, http.StatusBadRequest, "invalid image upload")
    }
    sound, err := formUpload(c, "sound")
    if err != nil {
        return fail(c, http.StatusBadRequest, "invalid sound upload")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    view, err := h.Lifecycle.Create(ctx, middleware.UserID(c), service.CreateButtonInput{
        Name:     c.FormValue("name"),
        Category: c.FormValue("category"),
        Image:    image,
        Sound:    sound,
    })
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return ok(c, http.StatusCreated, "button created", echo.Map{"button": view})
}

// Update applies a reposition batch ({positions}) or sets the category of
// one button ({button_id, category_name}); an empty name detaches it.
func (h *ButtonHandler) Update(c echo.Context) error {
    var req updateButtonsReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "invalid body")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    uid := middleware.UserID(c)
    switch {
    case req.Positions != nil:
        positions := make([]model.Position, 0, len(req.Positions))
        for _, p := range req.Positions {
            positions = append(positions, model.Position{ButtonID: p.ID, Tri: p.NewPosition})
        }
        if err := h.Ordering.Reposition(ctx, uid, positions); err != nil {
            return writeError(c, h.Log, err)
        }
        return ok(c, http.StatusOK, "positions updated", nil)
    case req.ButtonID != 0 && req.CategoryName != nil:
        cat, err := h.Categories.Assign(ctx, uid, req.ButtonID, *req.CategoryName)
        if err != nil {
            return writeError(c, h.Log, err)
        }
        if cat.ID == 0 {
            return ok(c, http.StatusOK, "category removed", nil)
        }
        return ok(c, http.StatusOK, "category updated", echo.Map{"category": cat})
    }
    return fail(c, http.StatusBadRequest, "positions or button_id and category_name are required")
}

// Unlink removes a button from the user's board (?button_id=).
func (h *ButtonHandler) Unlink(c echo.Context) error {
    id, valid := parseID(c.QueryParam("button_id"))
    if !valid {
        return fail(c, http.StatusBadRequest, "button_id is required")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    res, err := h.Lifecycle.Unlink(ctx, middleware.UserID(c), id)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return ok(c, http.StatusOK, "button removed", echo.Map{"purged": res.Purged, "history_id": res.HistoryID})
}

// Link puts an existing button on the user's board.
func (h *ButtonHandler) Link(c echo.Context) error {
    id, valid := parseID(c.Param("id"))
    if !valid {
        return fail(c, http.StatusBadRequest, "invalid button id")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    tri, err := h.Ordering.Append(ctx, middleware.UserID(c), id)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return ok(c, http.StatusCreated, "button linked", echo.Map{"button_id": id, "tri": tri})
}

// DeletePermanent deletes the button pairing image_id with sound_id and
// records it in the delete history. A sound_id of 0 or "null" matches a
// button without sound.
func (h *ButtonHandler) DeletePermanent(c echo.Context) error {
    imageID, valid := parseID(c.Param("image_id"))
    if !valid {
        return fail(c, http.StatusNotFound, "button not found")
    }
    var soundID uint64
    if raw := c.Param("sound_id"); raw != "0" && raw != "null" && raw != "" {
        if soundID, valid = parseID(raw); !valid {
            return fail(c, http.StatusNotFound, "button not found")
        }
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    historyID, err := h.Lifecycle.DeleteByAssets(ctx, middleware.UserID(c), imageID, soundID)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return ok(c, http.StatusOK, "button deleted", echo.Map{"history_id": historyID})
}

// Restore recreates a deleted button from its history record.
func (h *ButtonHandler) Restore(c echo.Context) error {
    id, valid := parseID(c.Param("id"))
    if !valid {
        return fail(c, http.StatusNotFound, "history record not found")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    view, err := h.Lifecycle.Restore(ctx, middleware.UserID(c), id)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return ok(c, http.StatusOK, "button restored", echo.Map{"button": view})
}

// History lists the user's deleted buttons, newest first.
func (h *ButtonHandler) History(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    recs, err := h.Lifecycle.History(ctx, middleware.UserID(c))
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "history": toHistoryItems(recs)})
}

// Search lists the user's buttons by category substring. No match is 404.
func (h *ButtonHandler) Search(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    views, err := h.Categories.Search(ctx, middleware.UserID(c), c.QueryParam("category"))
    if err != nil {
        return writeError(c, h.Log, err)
    }
    if len(views) == 0 {
        return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "no buttons in a matching category", "buttons": []model.ButtonView{}})
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "buttons": views})
}

// ReplaceAsset swaps the image or sound of a button (multipart: image or
// sound file, id of the asset, optional new name).
func (h *ButtonHandler) ReplaceAsset(c echo.Context) error {
    id, valid := parseID(c.FormValue("id"))
    if !valid {
        return fail(c, http.StatusBadRequest, "asset id is required")
    }
    kind := model.AssetImage
    up, err := formUpload(c, "image")
    if err == nil && up == nil {
        kind = model.AssetSound
        up, err = formUpload(c, "sound")
    }
    if err != nil {
        return fail(c, http.StatusBadRequest, "invalid upload")
    }
    if up == nil {
        return fail(c, http.StatusBadRequest, "image or sound file is required")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    if err := h.Lifecycle.ReplaceAsset(ctx, middleware.UserID(c), id, kind, up, c.FormValue("name")); err != nil {
        return writeError(c, h.Log, err)
    }
    return ok(c, http.StatusOK, string(kind)+" replaced", nil)
}

// Rename renames the button whose image asset is image_id.
func (h *ButtonHandler) Rename(c echo.Context) error {
    var req renameReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "invalid body")
    }
    if req.ImageID == 0 {
        return fail(c, http.StatusBadRequest, "image_id is required")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    if err := h.Lifecycle.Rename(ctx, middleware.UserID(c), req.ImageID, req.ButtonName); err != nil {
        return writeError(c, h.Log, err)
    }
    return ok(c, http.StatusOK, "button renamed", nil)
}

// nonNil keeps empty listings encoded as [] instead of null.
func nonNil[T any](s []T) []T {
    if s == nil {
        return []T{}
    }
    return s
}

package handler_test

import (
    "bytes"
    "encoding/json"
    "fmt"
    "mime/multipart"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/croabboard/internal/handler"
    "github.com/iliyamo/croabboard/internal/logging"
    "github.com/iliyamo/croabboard/internal/middleware"
    "github.com/iliyamo/croabboard/internal/model"
    "github.com/iliyamo/croabboard/internal/queue"
    "github.com/iliyamo/croabboard/internal/repository/memory"
    "github.com/iliyamo/croabboard/internal/router"
    "github.com/iliyamo/croabboard/internal/service"
    "github.com/iliyamo/croabboard/internal/storage"
)

var (
    pngBytes = []byte("\x89PNG\r\n\x1a\nfoo-image")
    mp3Bytes = []byte("ID3foo-sound")
)

type server struct {
    t *testing.T
    e *echo.Echo
}

func newServer(t *testing.T) *server {
    t.Helper()
    log := logging.Nop()
    repos := memory.NewManager()
    store, err := storage.NewDiskStore(t.TempDir())
    require.NoError(t, err)
    events := queue.AuditSink{Audit: repos.Audit(repos.Conn())}

    auth := service.NewAuth(repos, service.AuthConfig{Secret: "test-secret", BcryptCost: 4}, events, log)
    ordering := service.NewOrdering(repos, log)
    cats := service.NewCategories(repos, log)
    lifecycle := service.NewLifecycle(repos, store, ordering, cats, events, log)

    e := echo.New()
    e.Use(middleware.ClientInfo())
    router.RegisterRoutes(e, router.Handlers{
        Auth:       handler.NewAuthHandler(auth, log, false),
        Buttons:    handler.NewButtonHandler(lifecycle, ordering, cats, log),
        Categories: handler.NewCategoryHandler(cats, log),
        Stats:      handler.NewStatsHandler(service.NewStats(repos, log), log),
        Admin:      handler.NewAdminHandler(service.NewAdmin(repos), log),
        Assets:     handler.NewAssetHandler(store, log),
        Health:     handler.Health(nil),
    }, router.Middleware{Session: middleware.SessionAuth(auth)})
    return &server{t: t, e: e}
}

func (s *server) do(method, path, token string, body any) *httptest.ResponseRecorder {
    s.t.Helper()
    var req *http.Request
    switch b := body.(type) {
    case nil:
        req = httptest.NewRequest(method, path, nil)
    default:
        raw, err := json.Marshal(b)
        require.NoError(s.t, err)
        req = httptest.NewRequest(method, path, bytes.NewReader(raw))
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    if token != "" {
        req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
    }
    rec := httptest.NewRecorder()
    s.e.ServeHTTP(rec, req)
    return rec
}

type file struct {
    field, name string
    content     []byte
}

func (s *server) doForm(method, path, token string, fields map[string]string, files ...file) *httptest.ResponseRecorder {
    s.t.Helper()
    var buf bytes.Buffer
    w := multipart.NewWriter(&buf)
    for k, v := range fields {
        require.NoError(s.t, w.WriteField(k, v))
    }
    for _, f := range files {
        fw, err := w.CreateFormFile(f.field, f.name)
        require.NoError(s.t, err)
        _, err = fw.Write(f.content)
        require.NoError(s.t, err)
    }
    require.NoError(s.t, w.Close())

    req := httptest.NewRequest(method, path, &buf)
    req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
    req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
    rec := httptest.NewRecorder()
    s.e.ServeHTTP(rec, req)
    return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
    t.Helper()
    var out T
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
    return out
}

type envelope struct {
    Success bool   `json:"success"`
    Message string `json:"message"`
}

type buttonResp struct {
    envelope
    Button model.ButtonView `json:"button"`
}

type listResp struct {
    envelope
    Buttons []model.ButtonView `json:"buttons"`
    BtnSize int                `json:"btn_size"`
}

type historyResp struct {
    History []struct {
        ID       uint64 `json:"id"`
        Name     string `json:"name"`
        Status   string `json:"status"`
        ImageRef string `json:"image_ref"`
        SoundRef string `json:"sound_ref"`
    } `json:"history"`
}

func (s *server) login(user, pass string) string {
    s.t.Helper()
    rec := s.do(http.MethodPost, "/login", "", map[string]string{"username": user, "password": pass})
    require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
    out := decode[struct {
        Token string `json:"token"`
    }](s.t, rec)
    require.NotEmpty(s.t, out.Token)
    return out.Token
}

func (s *server) upload(token, name string, files ...file) model.ButtonView {
    s.t.Helper()
    rec := s.doForm(http.MethodPost, "/buttons", token, map[string]string{"name": name}, files...)
    require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
    return decode[buttonResp](s.t, rec).Button
}

func TestBoardScenario(t *testing.T) {
    s := newServer(t)

    rec := s.do(http.MethodPost, "/register", "", map[string]string{"username": "alice", "password": "pw1"})
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
    rec = s.do(http.MethodPost, "/login", "", map[string]string{"username": "alice", "password": "nope"})
    require.Equal(t, http.StatusUnauthorized, rec.Code)
    rec = s.do(http.MethodPost, "/login", "", map[string]string{"username": "alice", "password": ""})
    require.Equal(t, http.StatusUnauthorized, rec.Code)
    token := s.login("alice", "pw1")

    foo := s.upload(token, "foo", file{"image", "a.png", pngBytes}, file{"sound", "c.mp3", mp3Bytes})
    assert.Equal(t, 1, foo.Tri)
    require.NotNil(t, foo.SoundID)
    bar := s.upload(token, "bar", file{"image", "b.png", []byte("\x89PNG\r\n\x1a\nbar")})
    assert.Equal(t, 2, bar.Tri)

    rec = s.do(http.MethodPut, "/buttons", token, map[string]any{
        "positions": []map[string]any{{"id": bar.ID, "new_position": 1}},
    })
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

    list := decode[listResp](t, s.do(http.MethodGet, "/buttons", token, nil))
    require.Len(t, list.Buttons, 2)
    assert.Equal(t, "bar", list.Buttons[0].Name)
    assert.Equal(t, "foo", list.Buttons[1].Name)
    assert.Equal(t, 150, list.BtnSize)

    rec = s.do(http.MethodDelete, fmt.Sprintf("/button-permanent/%d/%d", foo.ImageID, *foo.SoundID), token, nil)
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

    hist := decode[historyResp](t, s.do(http.MethodGet, "/history", token, nil))
    require.Len(t, hist.History, 1)
    assert.Equal(t, "foo", hist.History[0].Name)
    assert.Equal(t, "deleted", hist.History[0].Status)
    historyID := hist.History[0].ID

    rec = s.do(http.MethodPost, fmt.Sprintf("/restore/%d", historyID), token, nil)
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    restored := decode[buttonResp](t, rec).Button
    assert.Equal(t, "foo", restored.Name)
    assert.Equal(t, 3, restored.Tri)
    assert.NotEqual(t, foo.ID, restored.ID)

    hist = decode[historyResp](t, s.do(http.MethodGet, "/history", token, nil))
    assert.Equal(t, "restored", hist.History[0].Status)
    rec = s.do(http.MethodPost, fmt.Sprintf("/restore/%d", historyID), token, nil)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.False(t, decode[envelope](t, rec).Success)

    rec = s.do(http.MethodGet, "/asset/image/"+restored.ImageRef, token, nil)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, pngBytes, rec.Body.Bytes())
    assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
    assert.Equal(t, "public, max-age=86400", rec.Header().Get(echo.HeaderCacheControl))
    rec = s.do(http.MethodGet, "/asset/sound/"+restored.SoundRef, token, nil)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, mp3Bytes, rec.Body.Bytes())
}

func TestSearchAndCategories(t *testing.T) {
    s := newServer(t)
    require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/register", "", map[string]string{"username": "bob", "password": "pw"}).Code)
    token := s.login("bob", "pw")
    b := s.upload(token, "horn", file{"image", "h.png", pngBytes})

    assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/search", token, nil).Code)
    assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/search?category=mem", token, nil).Code)

    rec := s.do(http.MethodPut, "/buttons", token, map[string]any{"button_id": b.ID, "category_name": "Memes"})
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

    found := decode[listResp](t, s.do(http.MethodGet, "/search?category=mem", token, nil))
    require.Len(t, found.Buttons, 1)
    assert.Equal(t, "Memes", found.Buttons[0].Category)

    filtered := decode[listResp](t, s.do(http.MethodGet, "/buttons?category=music", token, nil))
    assert.Empty(t, filtered.Buttons)

    cats := decode[struct {
        Categories []model.CategoryUsage `json:"categories"`
    }](t, s.do(http.MethodGet, "/categories", token, nil))
    require.Len(t, cats.Categories, 1)
    id := cats.Categories[0].ID

    assert.Equal(t, http.StatusBadRequest, s.do(http.MethodDelete, fmt.Sprintf("/categories/%d", id), token, nil).Code)
    rec = s.do(http.MethodPut, "/buttons", token, map[string]any{"button_id": b.ID, "category_name": ""})
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    assert.Equal(t, http.StatusOK, s.do(http.MethodDelete, fmt.Sprintf("/categories/%d", id), token, nil).Code)
    assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, fmt.Sprintf("/categories/%d", id), token, nil).Code)
}

func TestRepositionPartialFailure(t *testing.T) {
    s := newServer(t)
    require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/register", "", map[string]string{"username": "carol", "password": "pw"}).Code)
    token := s.login("carol", "pw")
    a := s.upload(token, "a", file{"image", "a.png", pngBytes})
    b := s.upload(token, "b", file{"image", "b.png", pngBytes})

    rec := s.do(http.MethodPut, "/buttons", token, map[string]any{
        "positions": []map[string]any{{"id": b.ID, "new_position": 1}, {"id": 999, "new_position": 2}},
    })
    require.Equal(t, http.StatusNotFound, rec.Code)
    assert.Contains(t, rec.Body.String(), "999")

    list := decode[listResp](t, s.do(http.MethodGet, "/buttons", token, nil))
    require.Len(t, list.Buttons, 2)
    assert.Equal(t, a.ID, list.Buttons[0].ID)
    assert.Equal(t, 1, list.Buttons[0].Tri)
    assert.Equal(t, 2, list.Buttons[1].Tri)
}

func TestSharingUnlinkAndEdits(t *testing.T) {
    s := newServer(t)
    for _, u := range []string{"dan", "erin"} {
        require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/register", "", map[string]string{"username": u, "password": "pw"}).Code)
    }
    dan, erin := s.login("dan", "pw"), s.login("erin", "pw")
    b := s.upload(dan, "honk", file{"image", "h.png", pngBytes})

    rec := s.do(http.MethodPost, fmt.Sprintf("/buttons/%d/link", b.ID), erin, nil)
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
    assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, fmt.Sprintf("/buttons/%d/link", b.ID), erin, nil).Code)

    rec = s.do(http.MethodPut, "/button-name", erin, map[string]any{"ButtonName": "HONK", "image_id": b.ImageID})
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

    rec = s.doForm(http.MethodPost, "/button-asset", dan, map[string]string{"id": fmt.Sprint(b.ImageID)},
        file{"image", "new.png", []byte("\x89PNG\r\n\x1a\nnew")})
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    list := decode[listResp](t, s.do(http.MethodGet, "/buttons", dan, nil))
    require.Len(t, list.Buttons, 1)
    assert.Equal(t, "HONK", list.Buttons[0].Name)
    assert.NotEqual(t, b.ImageRef, list.Buttons[0].ImageRef)
    assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/asset/image/"+b.ImageRef, dan, nil).Code)

    assert.Equal(t, http.StatusBadRequest, s.do(http.MethodDelete, "/buttons", dan, nil).Code)
    rec = s.do(http.MethodDelete, fmt.Sprintf("/buttons?button_id=%d", b.ID), dan, nil)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), `"purged":false`)
    rec = s.do(http.MethodDelete, fmt.Sprintf("/buttons?button_id=%d", b.ID), erin, nil)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), `"purged":true`)
    assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, fmt.Sprintf("/buttons?button_id=%d", b.ID), erin, nil).Code)
}

func TestSessionsAndAccount(t *testing.T) {
    s := newServer(t)
    assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/healthz", "", nil).Code)
    assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/buttons", "", nil).Code)
    assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/me", "garbage", nil).Code)

    require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/register", "", map[string]string{"username": "fay", "password": "pw"}).Code)
    rec := s.do(http.MethodPost, "/register", "", map[string]string{"username": "fay", "password": "pw"})
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/register", "", map[string]string{"username": "gus"}).Code)

    token := s.login("fay", "pw")
    other := s.login("fay", "pw")
    me := decode[struct {
        Username string `json:"username"`
    }](t, s.do(http.MethodGet, "/me", token, nil))
    assert.Equal(t, "fay", me.Username)

    assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/button-size/10", token, nil).Code)
    require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/button-size/200", token, nil).Code)
    assert.Equal(t, 200, decode[listResp](t, s.do(http.MethodGet, "/buttons", token, nil)).BtnSize)

    rec = s.do(http.MethodPost, "/reset-password", token, map[string]string{"password": "a", "confirmPassword": "b"})
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    rec = s.do(http.MethodPost, "/reset-password", token, map[string]string{"password": "new", "confirmPassword": "new"})
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/me", other, nil).Code)
    assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/me", token, nil).Code)

    assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/admin/users", token, nil).Code)

    rec = s.do(http.MethodPost, "/logout", token, nil)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.True(t, strings.Contains(rec.Header().Get("Set-Cookie"), middleware.SessionCookie+"="))
    assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/me", token, nil).Code)
}

func TestStatsEndpoints(t *testing.T) {
    s := newServer(t)
    require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/register", "", map[string]string{"username": "hal", "password": "pw"}).Code)
    token := s.login("hal", "pw")
    b := s.upload(token, "ding", file{"image", "d.png", pngBytes})

    for i := 0; i < 2; i++ {
        require.Equal(t, http.StatusOK, s.do(http.MethodPost, fmt.Sprintf("/play/%d", b.ID), token, nil).Code)
    }
    assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/play/4242", token, nil).Code)
    assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/stats/most-played?limit=0x", token, nil).Code)
    assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/stats/most-played?limit=5000", token, nil).Code)

    out := decode[struct {
        Buttons []model.ButtonStat `json:"buttons"`
    }](t, s.do(http.MethodGet, "/stats/most-played", token, nil))
    require.Len(t, out.Buttons, 1)
    assert.Equal(t, int64(2), out.Buttons[0].PlayCount)
}

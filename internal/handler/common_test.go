package handler

import (
    "errors"
    "fmt"
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"

    "github.com/iliyamo/croabboard/internal/logging"
    "github.com/iliyamo/croabboard/internal/service"
)

func TestWriteErrorStatus(t *testing.T) {
    cases := []struct {
        err  error
        code int
    }{
        {fmt.Errorf("%w: name is required", service.ErrValidation), http.StatusBadRequest},
        {fmt.Errorf("%w: already restored", service.ErrConflict), http.StatusBadRequest},
        {fmt.Errorf("%w: button 3", service.ErrNotFound), http.StatusNotFound},
        {&service.PartialFailureError{Missing: []uint64{7}}, http.StatusNotFound},
        {service.ErrUnauthorized, http.StatusUnauthorized},
        {errors.New("disk on fire"), http.StatusInternalServerError},
    }
    e := echo.New()
    for _, tc := range cases {
        rec := httptest.NewRecorder()
        c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
        assert.NoError(t, writeError(c, logging.Nop(), tc.err))
        assert.Equal(t, tc.code, rec.Code, tc.err.Error())
        assert.Contains(t, rec.Body.String(), `"success":false`)
    }
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
    rec := httptest.NewRecorder()
    c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
    _ = writeError(c, logging.Nop(), errors.New("dial tcp 10.0.0.3:3306: refused"))
    assert.NotContains(t, rec.Body.String(), "10.0.0.3")
}

func TestParseID(t *testing.T) {
    id, valid := parseID("42")
    assert.True(t, valid)
    assert.Equal(t, uint64(42), id)
    for _, bad := range []string{"", "0", "-1", "x"} {
        _, valid = parseID(bad)
        assert.False(t, valid, bad)
    }
}

package handler // handler defines http handlers

import (
    "errors"   // errors.Is / errors.As classify service errors
    "io"       // io.ReadAll drains uploaded files
    "net/http" // status codes
    "strconv"  // strconv converts path and query parameters
    "time"     // request timeouts

    "github.com/labstack/echo/v4" // echo defines request context types

    "github.com/iliyamo/croabboard/internal/logging" // logs unexpected failures
    "github.com/iliyamo/croabboard/internal/service" // error taxonomy and upload type
)

// requestTimeout bounds the service calls of a single request.
const requestTimeout = 5 * time.Second

// ok writes {success: true, message} merged with extra fields.
func ok(c echo.Context, status int, message string, extra echo.Map) error {
    body := echo.Map{"success": true, "message": message}
    for k, v := range extra {
        body[k] = v
    }
    return c.JSON(status, body)
}

// fail writes the {success: false, message} envelope.
func fail(c echo.Context, status int, message string) error {
    return c.JSON(status, echo.Map{"success": false, "message": message})
}

// writeError maps a service error onto a status code. Validation and
// conflict errors are 400, missing entities 404, bad credentials 401;
// anything else is logged and reported as a generic 500.
func writeError(c echo.Context, log logging.Logger, err error) error {
    var partial *service.PartialFailureError
    switch {
    case errors.As(err, &partial):
        return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": err.Error(), "missing": partial.Missing})
    case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrConflict):
        return fail(c, http.StatusBadRequest, err.Error())
    case errors.Is(err, service.ErrNotFound):
        return fail(c, http.StatusNotFound, err.Error())
    case errors.Is(err, service.ErrUnauthorized):
        return fail(c, http.StatusUnauthorized, err.Error())
    }
    log.Error(c.Request().Context(), "request failed", "method", c.Request().Method, "path", c.Path(), "err", err)
    return fail(c, http.StatusInternalServerError, "internal error")
}

// parseID reads a positive integer from s.
func parseID(s string) (uint64, bool) {
    n, err := strconv.ParseUint(s, 10, 64)
    if err != nil || n == 0 {
        return 0, false
    }
    return n, true
}

// formUpload reads the multipart file field. A missing field yields nil.
func formUpload(c echo.Context, field string) (*service.Upload, error) {
    fh, err := c.FormFile(field)
    if errors.Is(err, http.ErrMissingFile) {
        return nil, nil
    }
    if err != nil {
        return nil, err
    }
    f, err := fh.Open()
    if err != nil {
        return nil, err
    }
    defer f.Close()
    content, err := io.ReadAll(f)
    if err != nil {
        return nil, err
    }
    return &service.Upload{Filename: fh.Filename, Content: content}, nil
}

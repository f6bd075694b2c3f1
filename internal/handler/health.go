package handler // declare the package name; contains HTTP handlers

import (
    "context"  // bounds the dependency checks
    "net/http" // net/http provides status codes and response helpers
    "time"     // ping timeout

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Pinger is a dependency whose reachability Health reports (*sql.DB).
type Pinger interface {
    PingContext(ctx context.Context) error
}

// Health returns a health-check handler used by load balancers and
// monitoring.  With no dependencies it answers a plain "ok"; otherwise
// each one is pinged and any failure yields 503.
func Health(deps map[string]Pinger) echo.HandlerFunc {
    return func(c echo.Context) error {
        if len(deps) == 0 {
            return c.String(http.StatusOK, "ok")
        }
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()
        status, code := echo.Map{}, http.StatusOK
        for name, p := range deps {
            if err := p.PingContext(ctx); err != nil {
                status[name] = err.Error()
                code = http.StatusServiceUnavailable
                continue
            }
            status[name] = "ok"
        }
        return c.JSON(code, status)
    }
}

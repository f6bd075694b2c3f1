package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/croabboard/internal/handler"    // HTTP handlers
	"github.com/iliyamo/croabboard/internal/middleware" // session auth, admin check, rate limit and cache
)

// Handlers groups everything RegisterRoutes mounts.
type Handlers struct {
	Auth       *handler.AuthHandler
	Buttons    *handler.ButtonHandler
	Categories *handler.CategoryHandler
	Stats      *handler.StatsHandler
	Admin      *handler.AdminHandler
	Assets     *handler.AssetHandler
	Health     echo.HandlerFunc
}

// Middleware are the route-level middlewares built by the caller.
// Session is required; RateLimit and AssetCache may be nil.
type Middleware struct {
	Session    echo.MiddlewareFunc
	RateLimit  echo.MiddlewareFunc
	AssetCache echo.MiddlewareFunc
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// RegisterRoutes registers every route of the soundboard on e.
func RegisterRoutes(e *echo.Echo, h Handlers, m Middleware) {
	if m.RateLimit == nil {
		m.RateLimit = passThrough
	}
	if m.AssetCache == nil {
		m.AssetCache = passThrough
	}

	// Health checks are exempt from authentication and rate limiting.
	if h.Health != nil {
		e.GET("/healthz", h.Health)
	}

	// Account creation and login do not require a session.
	e.POST("/register", h.Auth.Register, m.RateLimit)
	e.POST("/login", h.Auth.Login, m.RateLimit)

	// Everything else requires a session. The limiter runs after session
	// auth so buckets can be keyed per user. Middleware is attached per
	// route so unknown paths still answer 404.
	auth := []echo.MiddlewareFunc{m.Session, m.RateLimit}

	e.POST("/logout", h.Auth.Logout, auth...)
	e.GET("/me", h.Auth.Me, auth...)
	e.POST("/reset-password", h.Auth.ResetPassword, auth...)
	e.POST("/button-size/:n", h.Auth.SetButtonSize, auth...)

	// ---- Board ----
	e.GET("/buttons", h.Buttons.List, auth...)
	e.POST("/buttons", h.Buttons.Create, auth...)
	e.PUT("/buttons", h.Buttons.Update, auth...)
	e.DELETE("/buttons", h.Buttons.Unlink, auth...)
	e.POST("/buttons/:id/link", h.Buttons.Link, auth...)
	e.DELETE("/button-permanent/:image_id/:sound_id", h.Buttons.DeletePermanent, auth...)
	e.POST("/button-asset", h.Buttons.ReplaceAsset, auth...)
	e.PUT("/button-name", h.Buttons.Rename, auth...)
	e.GET("/history", h.Buttons.History, auth...)
	e.POST("/restore/:id", h.Buttons.Restore, auth...)
	e.GET("/search", h.Buttons.Search, auth...)

	// ---- Assets ----
	e.GET("/asset/:kind/:ref", h.Assets.Get, m.Session, m.RateLimit, m.AssetCache)

	// ---- Categories ----
	e.GET("/categories", h.Categories.List, auth...)
	e.POST("/categories", h.Categories.Create, auth...)
	e.PUT("/categories/:id", h.Categories.Update, auth...)
	e.DELETE("/categories/:id", h.Categories.Delete, auth...)

	// ---- Stats ----
	e.POST("/play/:id", h.Stats.Play, auth...)
	e.GET("/stats/most-played", h.Stats.MostPlayed, auth...)

	// ---- Admin ----
	if h.Admin != nil {
		admin := []echo.MiddlewareFunc{m.Session, m.RateLimit, middleware.RequireAdmin()}
		e.GET("/admin/users", h.Admin.Users, admin...)
		e.GET("/admin/history", h.Admin.History, admin...)
		e.GET("/admin/audit-logs", h.Admin.AuditLogs, admin...)
	}
}

package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/observability"
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics
}

// MiddlewareStack installs the storeroom middleware chain.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        cfg.Config != nil && cfg.Config.IsProduction(),
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
	})

	perMinute := 300
	if cfg.Config != nil && cfg.Config.RateLimitPerMinute > 0 {
		perMinute = cfg.Config.RateLimitPerMinute
	}

	stack := []func(http.Handler) http.Handler{
		secureMiddleware.Handler,
		httprate.LimitByIP(perMinute, time.Minute),
	}
	if cfg.Metrics != nil {
		stack = append(stack, cfg.Metrics.Middleware)
	}
	if cfg.Config != nil && cfg.Config.AppRequestTimeout > 0 {
		stack = append(stack, func(next http.Handler) http.Handler {
			return http.TimeoutHandler(next, cfg.Config.AppRequestTimeout, http.StatusText(http.StatusServiceUnavailable))
		})
	}
	return stack
}

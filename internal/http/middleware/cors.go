package middleware

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"
	"github.com/straye-as/preflight/internal/config"
	"go.uber.org/zap"
)

// CORS builds the cross-origin policy for the API surface. Origins come
// from configuration; without any, development allows every origin and
// all other environments refuse cross-origin calls.
func CORS(cfg *config.CORSConfig, environment string, logger *zap.Logger) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   cfg.ExposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}

	dev := environment == "development" || environment == "local" || environment == ""

	switch {
	case slices.Contains(cfg.AllowedOrigins, "*"):
		if !dev {
			logger.Warn("CORS wildcard origin outside development",
				zap.String("environment", environment))
		}
		opts.AllowOriginFunc = allowAnyOrigin

	case len(cfg.AllowedOrigins) > 0:
		opts.AllowedOrigins = cfg.AllowedOrigins
		logger.Info("CORS origins configured",
			zap.Strings("origins", cfg.AllowedOrigins))

	case dev:
		opts.AllowOriginFunc = allowAnyOrigin
		logger.Info("CORS open for development")

	default:
		// An empty AllowedOrigins list falls back to "*" inside the cors
		// package, so denial has to go through AllowOriginFunc.
		opts.AllowOriginFunc = denyAllOrigins
		logger.Warn("CORS has no configured origins, denying cross-origin requests",
			zap.String("environment", environment))
	}

	return cors.Handler(opts)
}

func allowAnyOrigin(r *http.Request, origin string) bool { return origin != "" }

func denyAllOrigins(r *http.Request, origin string) bool { return false }

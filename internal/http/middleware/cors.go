package middleware

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"
	"github.com/motorserv/srf-api/internal/config"
	"go.uber.org/zap"
)

// exposedHeaders are always readable by browser clients: export downloads
// need the file name and support requests quote the request id.
var exposedHeaders = []string{"Content-Disposition", "X-Request-ID", "Retry-After"}

func isDevelopment(environment string) bool {
	return environment == "" || environment == "development" || environment == "local"
}

// CORS returns a CORS middleware configured from the application config.
// A "*" origin or an empty list in development reflects any origin; an
// empty list elsewhere denies cross-origin requests.
func CORS(cfg *config.CORSConfig, environment string, logger *zap.Logger) func(http.Handler) http.Handler {
	exposed := slices.Clone(cfg.ExposedHeaders)
	for _, h := range exposedHeaders {
		if !slices.Contains(exposed, h) {
			exposed = append(exposed, h)
		}
	}

	options := cors.Options{
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   exposed,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}

	allowAny := func(r *http.Request, origin string) bool { return origin != "" }

	switch {
	case slices.Contains(cfg.AllowedOrigins, "*"):
		if !isDevelopment(environment) {
			logger.Warn("CORS configured with wildcard origin outside development",
				zap.String("environment", environment))
		}
		options.AllowOriginFunc = allowAny
	case len(cfg.AllowedOrigins) > 0:
		options.AllowedOrigins = cfg.AllowedOrigins
		logger.Info("CORS configured with explicit origins", zap.Strings("origins", cfg.AllowedOrigins))
	case isDevelopment(environment):
		options.AllowOriginFunc = allowAny
		logger.Info("CORS allowing all origins in development")
	default:
		// empty AllowedOrigins would mean "*" to go-chi/cors
		options.AllowOriginFunc = func(r *http.Request, origin string) bool { return false }
		logger.Warn("CORS has no allowed origins; cross-origin requests are denied",
			zap.String("environment", environment))
	}

	return cors.Handler(options)
}

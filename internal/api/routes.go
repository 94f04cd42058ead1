package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cutline/cutline/internal/logging"
	"github.com/cutline/cutline/internal/playback"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(LoopbackGuard())

	r.Get("/health", healthHandler(cfg))
	r.Get("/media/{token}", mediaHandler(cfg))
	r.Head("/media/{token}", mediaHandler(cfg))

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:        "ok",
			Version:       cfg.Version,
			UptimeS:       uptime,
			ActiveSources: cfg.Registry.Active(),
		})
	}
}

func mediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")

		err := cfg.Registry.ServeSource(w, r, token)
		switch {
		case err == nil:
		case errors.Is(err, playback.ErrUnknownSource):
			WriteError(w, http.StatusNotFound, "source not found", "NOT_FOUND")
		default:
			cfg.Logger.Error("media error", "error", err, "token", logging.SanitizeToken(token))
			WriteError(w, http.StatusInternalServerError, "cannot read source", "INTERNAL_ERROR")
		}
	}
}

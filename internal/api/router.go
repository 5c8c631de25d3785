package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	apiMiddleware "github.com/phrazzld/handset/internal/api/middleware"
)

// NewRouter registers every route on a chi router with the standard
// middleware stack.
func NewRouter(imports *ImportHandler, calls *CallSettingsHandler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(logger))

	r.Route("/api", func(r chi.Router) {
		r.Route("/imports", func(r chi.Router) {
			r.Get("/", imports.ListImports)
			r.Post("/sim/{iccID}", imports.ImportFromSIM)
			r.Post("/sdcard", imports.ImportFromSDCard)
			r.Post("/vcard", imports.ImportVCard)
			r.Get("/last/{source}", imports.GetLastImport)
			r.Get("/{id}", imports.GetImport)
			r.Delete("/{id}", imports.CancelImport)
		})

		r.Get("/call-barring", calls.GetBarring)
		r.Post("/call-barring/passcode", calls.ChangePasscode)
		r.Post("/call-barring/{program}/toggle", calls.ToggleBarring)

		r.Get("/call-forwarding", calls.GetForwarding)
		r.Put("/call-forwarding/{reason}", calls.SetForwarding)

		r.Get("/call-waiting", calls.GetWaiting)
		r.Put("/call-waiting", calls.SetWaiting)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}

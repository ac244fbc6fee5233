package apihttp

import (
	"log/slog"
	"net/http"

	"github.com/example/prereqkit/internal/auth"
	"github.com/example/prereqkit/internal/rate"
	"github.com/example/prereqkit/pkg/jsonutil"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes holds the endpoint handlers. Nil handlers are not mounted.
type Routes struct {
	Balance  http.Handler
	Derive   http.Handler
	Convert  http.Handler
	Preview  http.Handler
	Receipts http.Handler
	Admin    http.Handler
}

// NewRouter wires routes and middlewares. /api is guarded by store.
func NewRouter(routes Routes, lm *rate.LimiterMap, store auth.APIKeyStore, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(CORS)
	r.Use(RateLimit(lm))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if store != nil {
			if err := store.Ping(r.Context()); err != nil {
				jsonutil.JSON(w, http.StatusInternalServerError, map[string]string{"status": "unhealthy"})
				return
			}
		}
		jsonutil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(Auth(store))
		mount(api, http.MethodPost, "/get-balance", routes.Balance)
		mount(api, http.MethodPost, "/derive-pda", routes.Derive)
		mount(api, http.MethodPost, "/convert", routes.Convert)
		mount(api, http.MethodPost, "/prereq/preview", routes.Preview)
		mount(api, http.MethodGet, "/receipts/{signer}", routes.Receipts)
	})
	if routes.Admin != nil {
		r.Handle("/admin/create-key", routes.Admin)
	}

	return r
}

func mount(r chi.Router, method, pattern string, h http.Handler) {
	if h == nil {
		return
	}
	r.Method(method, pattern, h)
}

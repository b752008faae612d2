package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/bookstore-api/shared/middleware"
)

// RouterParams holds everything the HTTP router is built from.
type RouterParams struct {
	Auth     *AuthHandler
	Book     *BookHandler
	Purchase *PurchaseHandler
	Health   *HealthHandler
	Verifier middleware.TokenVerifier
	Logger   *zerolog.Logger

	AllowedOrigins []string
	// UploadsDir, when set, is served under /uploads.
	UploadsDir string
}

func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(p.Logger))
	r.Use(middleware.Recoverer(p.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: p.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	requireAuth := middleware.NewJWTMiddleware(p.Verifier)

	r.Get("/", p.Health.Banner)
	r.Get("/healthz", p.Health.Healthz)

	if p.UploadsDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(p.UploadsDir))))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) { p.Auth.RegisterRoutes(r, requireAuth) })
		r.Route("/books", func(r chi.Router) { p.Book.RegisterRoutes(r, requireAuth) })
		r.Route("/purchases", func(r chi.Router) { p.Purchase.RegisterRoutes(r, requireAuth) })
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/locallibrary/catalog/internal/handler"
	"github.com/locallibrary/catalog/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Root     *handler.Handler
	Health   *handler.HealthHandler
	Catalog  *handler.CatalogHandler
	Authors  *handler.AuthorHandler
	Books    *handler.BookHandler
	Taxonomy *handler.TaxonomyHandler
	Loans    *handler.LoanHandler
	Activity *handler.ActivityHandler
	APIKeys  *handler.APIKeyHandler
	Metrics  http.Handler // nil leaves /metrics unmounted
}

// RouterConfig holds the middleware settings for NewRouter.
type RouterConfig struct {
	Logger        *slog.Logger
	Auth          middleware.AuthConfig
	RateLimit     middleware.RateLimitConfig
	CORS          middleware.CORSConfig
	IsDevelopment bool
	MaxBodyBytes  int64
	SecureCookies bool
}

// NewRouter builds the catalog route table.
func NewRouter(h Handlers, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger, cfg.IsDevelopment))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))
	r.Use(middleware.CORS(cfg.CORS))
	if cfg.MaxBodyBytes > 0 {
		r.Use(middleware.MaxBodySize(cfg.MaxBodyBytes))
	}

	// Probes and service info
	r.Get("/healthz", h.Health.Healthz)
	r.Get("/readyz", h.Health.Readyz)
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}
	r.Get("/", h.Root.Info)

	ulidID := middleware.ValidatePathID("id", middleware.ULIDKind)
	uuidID := middleware.ValidatePathID("id", middleware.UUIDKind)
	keyID := middleware.ValidatePathID("key_id", middleware.ULIDKind)

	r.Route("/api/v1", func(r chi.Router) {
		// Public browsing, limited per client IP
		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(cfg.SecureCookies))
			r.Use(middleware.RateLimitIP(cfg.RateLimit))

			r.Get("/catalog/summary", h.Catalog.Summary)
			r.Get("/books", h.Books.List)
			r.With(ulidID).Get("/books/{id}", h.Books.Get)
			r.Get("/authors", h.Authors.List)
			r.With(ulidID).Get("/authors/{id}", h.Authors.Get)
			r.Get("/genres", h.Taxonomy.ListGenres)
			r.Get("/languages", h.Taxonomy.ListLanguages)
		})

		// API key holders, limited per key
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.Auth))
			r.Use(middleware.RateLimitAPI(cfg.RateLimit))

			r.With(middleware.RequireRead()).Get("/loans/mine", h.Loans.Mine)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireLibrarian())

				r.Get("/loans", h.Loans.All)
				r.With(uuidID).Get("/book-instances/{id}/renew", h.Loans.RenewalForm)
				r.With(uuidID).Post("/book-instances/{id}/renew", h.Loans.Renew)

				r.Post("/authors", h.Authors.Create)
				r.With(ulidID).Patch("/authors/{id}", h.Authors.Update)
				r.With(ulidID).Delete("/authors/{id}", h.Authors.Delete)

				r.Post("/books", h.Books.Create)
				r.With(ulidID).Patch("/books/{id}", h.Books.Update)
				r.With(ulidID).Delete("/books/{id}", h.Books.Delete)
				r.With(ulidID).Post("/books/{id}/instances", h.Books.AddInstance)

				r.Post("/genres", h.Taxonomy.CreateGenre)
				r.Post("/languages", h.Taxonomy.CreateLanguage)

				r.Get("/activity", h.Activity.List)
			})

			r.Route("/api-keys", func(r chi.Router) {
				r.Use(middleware.RequireAdmin())
				r.Get("/", h.APIKeys.ListAPIKeys)
				r.Post("/", h.APIKeys.CreateAPIKey)
				r.With(keyID).Delete("/{key_id}", h.APIKeys.RevokeAPIKey)
				r.With(keyID).Post("/{key_id}/rotate", h.APIKeys.RotateAPIKey)
			})
		})
	})

	r.NotFound(h.Root.NotFound)
	r.MethodNotAllowed(h.Root.MethodNotAllowed)

	return r
}

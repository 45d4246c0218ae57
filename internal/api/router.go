package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/recipes/internal/auth"
	"github.com/mmynk/recipes/internal/middleware"
	"github.com/mmynk/recipes/internal/service"
)

// Config holds HTTP surface settings.
type Config struct {
	CORSOrigins []string
	// TokenRateLimit is token requests per IP per minute; zero disables it.
	TokenRateLimit int
	// MediaURL prefixes stored image paths in responses.
	MediaURL string
	// MediaDir, when set, is served read-only under MediaURL.
	MediaDir string
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the router dispatches to.
type Deps struct {
	Auth        *service.AuthService
	Recipes     *service.RecipeService
	Tags        *service.AttributeService
	Ingredients *service.AttributeService
	Tokens      *auth.TokenIssuer
	Users       middleware.UserLoader
	Health      Pinger
	Logger      *slog.Logger
}

type handler struct {
	deps     Deps
	mediaURL string
}

// NewRouter builds the HTTP handler for the whole API.
func NewRouter(cfg Config, deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if cfg.MediaURL == "" {
		cfg.MediaURL = "/media/"
	}
	h := &handler{deps: deps, mediaURL: cfg.MediaURL}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(deps.Logger))
	r.Use(middleware.Metrics)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.healthz)
	r.Handle("/metrics", promhttp.Handler())

	if cfg.MediaDir != "" {
		prefix := "/" + strings.Trim(cfg.MediaURL, "/")
		fs := http.StripPrefix(prefix+"/", http.FileServer(http.Dir(cfg.MediaDir)))
		r.Handle(prefix+"/*", fs)
	}

	requireAuth := middleware.RequireAuth(deps.Tokens, deps.Users)

	r.Route("/api/user", func(r chi.Router) {
		r.Post("/create", h.createUser)
		r.Group(func(r chi.Router) {
			if cfg.TokenRateLimit > 0 {
				r.Use(httprate.LimitByIP(cfg.TokenRateLimit, time.Minute))
			}
			r.Post("/token", h.createToken)
		})
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", h.getMe)
			r.Put("/me", h.updateMe(false))
			r.Patch("/me", h.updateMe(true))
		})
	})

	r.Route("/api/recipe", func(r chi.Router) {
		r.Use(requireAuth)

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", h.listRecipes)
			r.Post("/", h.createRecipe)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getRecipe)
				r.Put("/", h.updateRecipe(false))
				r.Patch("/", h.updateRecipe(true))
				r.Delete("/", h.deleteRecipe)
				r.Post("/upload-image", h.uploadImage)
			})
		})

		mountAttributes(r, "/tags", deps.Tags)
		mountAttributes(r, "/ingredients", deps.Ingredients)
	})

	return r
}

func mountAttributes(r chi.Router, pattern string, svc *service.AttributeService) {
	ah := &attributeHandler{svc: svc}
	r.Route(pattern, func(r chi.Router) {
		r.Get("/", ah.list)
		r.Post("/", ah.create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", ah.get)
			r.Put("/", ah.update(false))
			r.Patch("/", ah.update(true))
			r.Delete("/", ah.delete)
		})
	})
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.deps.Health != nil {
		if err := h.deps.Health.Ping(ctx); err != nil {
			h.deps.Logger.Error("Health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

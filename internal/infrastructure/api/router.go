package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"

	"brandwisp-store-sync/docs"
	"brandwisp-store-sync/internal/application"
	"brandwisp-store-sync/internal/domain"
	"brandwisp-store-sync/internal/ports"
)

// WebhookVerifier checks the HMAC header of a webhook body
type WebhookVerifier interface {
	Verify(payload []byte, header string) error
}

// Installer runs the OAuth install flow
type Installer interface {
	BeginInstall(ctx context.Context, userID, shop, returnURL string) (string, error)
	CompleteInstall(ctx context.Context, query url.Values) (*application.InstallResult, error)
}

// StoreSyncer runs an on-demand sync of one store
type StoreSyncer interface {
	SyncStore(ctx context.Context, storeID string, trigger domain.SyncTrigger) (*domain.SyncResult, error)
}

// Dependencies are the collaborators served by the router
type Dependencies struct {
	Verifier       WebhookVerifier
	Dispatcher     *application.WebhookDispatcher
	WebhookLog     ports.WebhookLogRepository
	Installer      Installer
	Syncer         StoreSyncer
	Metrics        ports.Metrics
	MetricsHandler http.Handler
	AllowedOrigins []string
	// APIKey guards /api/v1 through the X-Integration-Key header
	APIKey string
	// HealthStats adds runtime counters to /health
	HealthStats func() map[string]interface{}
	// SwaggerJSON replaces the embedded OpenAPI document
	SwaggerJSON []byte
}

// NewRouter builds the HTTP routes of the service
func NewRouter(deps Dependencies, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{"status": "ok"}
		if deps.HealthStats != nil {
			body["connections"] = deps.HealthStats()
		}
		writeJSON(w, http.StatusOK, body)
	})

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	swaggerJSON := deps.SwaggerJSON
	if len(swaggerJSON) == 0 {
		swaggerJSON = docs.SwaggerJSON
	}
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(swaggerJSON)
	})
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	if deps.Installer != nil {
		r.Get("/auth/shopify", oauthInitHandler(deps.Installer, logger))
		r.Get("/auth/callback", oauthCallbackHandler(deps.Installer, logger))
	}

	r.Post("/webhooks/shopify", webhookHandler(deps.Verifier, deps.Dispatcher, deps.WebhookLog, deps.Metrics, logger))

	if deps.Syncer != nil {
		r.Route("/api/v1", func(r chi.Router) {
			r.Use(requireIntegrationKey(deps.APIKey, logger))
			r.Post("/stores/{storeID}/sync", syncStoreHandler(deps.Syncer, logger))
		})
	}

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

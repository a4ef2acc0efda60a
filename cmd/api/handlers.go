package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/saintvisionai/platform-api/internal/infra/http/handlers"
	"github.com/saintvisionai/platform-api/internal/infra/http/middleware"
)

// Handlers is every HTTP entry point the API serves.
type Handlers struct {
	Health       *handlers.HealthHandler
	Billing      *handlers.BillingWebhookHandler
	CRMWebhook   *handlers.CRMWebhookHandler
	CRMActions   *handlers.CRMActionsHandler
	Checkout     *handlers.CheckoutHandler
	Subscription *handlers.SubscriptionHandler
	Provisioning *handlers.ProvisioningHandler
}

func newRouter(h Handlers, origins []string, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", middleware.UserIDHeader},
	}))

	r.Get("/health", h.Health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/stripe/webhook", h.Billing.Handle)
	r.Post("/ghl-webhook", h.CRMWebhook.Handle)

	r.Post("/checkout", h.Checkout.Handle)
	r.Get("/subscription/{userId}", h.Subscription.HandleGet)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUserID)
		r.Post("/ghl-actions", h.CRMActions.HandleAction)
		r.Post("/ghl-contacts", h.CRMActions.HandleContact)
		r.Post("/ghl-pipeline", h.CRMActions.HandlePipeline)
		r.Post("/provisioning/retry", h.Provisioning.HandleRetry)
	})

	return r
}

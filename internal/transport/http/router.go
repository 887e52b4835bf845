package http

import (
	"context"
	"net/http"

	"github.com/go-chat-push/internal/config"
	"github.com/go-chat-push/internal/domain"
	"github.com/go-chat-push/internal/transport/http/handler"
	appmiddleware "github.com/go-chat-push/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. ctx bounds
// background work owned by the router's middleware.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	passthrough := func(next http.Handler) http.Handler { return next }
	triggerAuth := []func(http.Handler) http.Handler{passthrough}
	identify := passthrough
	if deps.Verifier != nil {
		triggerAuth = []func(http.Handler) http.Handler{
			appmiddleware.Auth(deps.Verifier),
			appmiddleware.RequireRole(domain.RoleTrigger),
		}
		identify = appmiddleware.Identify(deps.Verifier)
	}

	rps, burst := deps.BroadcastRate, deps.BroadcastBurst
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 10
	}
	broadcastRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(rps), burst)

	healthH := handler.NewHealthHandler()
	triggerH := handler.NewTriggerHandler(deps.Dispatch)
	broadcastH := handler.NewBroadcastHandler(deps.Dispatch)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)

		// Change-feed deliveries, signed by the event source.
		r.Group(func(r chi.Router) {
			r.Use(triggerAuth...)
			r.Post("/triggers/messages", triggerH.MessageCreated)
			r.Post("/triggers/users", triggerH.UserCreated)
			r.Put("/triggers/users/{id}", triggerH.UserUpdated)
		})

		r.With(broadcastRL.Limit, identify).Post("/broadcasts", broadcastH.Send)
	})

	return r
}

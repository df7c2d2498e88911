/**
 * @description
 * This file sets up the HTTP router for the storefront-service using the
 * go-chi/chi router. It defines the API routes, applies middleware for
 * logging, CORS, and authentication, and maps the routes to their
 * corresponding handler functions.
 */
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new Chi router and registers the storefront-service routes.
func NewRouter(h *Handler, jwksURL string) *chi.Mux {
	r := chi.NewRouter()

	// Setup middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Storefront service is healthy"))
	})

	// Protected routes that require authentication
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(jwksURL))

		// Catalog browsing
		r.Get("/games", h.handleListGames)
		r.Get("/games/{gameID}", h.handleGetGame)

		// Cart
		r.Route("/cart/user/{userID}", func(r chi.Router) {
			r.Get("/", h.handleGetCart)
			r.Delete("/", h.handleClearCart)
			r.Post("/items", h.handleAddItem)
			r.Put("/items/{itemID}", h.handleUpdateQuantity)
			r.Delete("/items/{itemID}", h.handleRemoveItem)
			r.Post("/checkout", h.handleCheckout)
		})

		// Entitlements and library
		r.Get("/users/{userID}/games/{gameID}/access", h.handleResolveAccess)
		r.Get("/users/{userID}/library", h.handleGetLibrary)
		r.Get("/users/{userID}/entitlement", h.handleHasEntitlement)

		// Direct purchase
		r.Post("/purchases", h.handlePurchase)

		// Subscriptions
		r.Get("/plans", h.handleListPlans)
		r.Get("/users/{userID}/subscription", h.handleGetSubscription)
		r.Post("/users/{userID}/subscription", h.handleSubscribe)
	})

	return r
}

package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the public API surface.
func NewRouter(
	cartHandler *CartHandler,
	productHandler *ProductHandler,
	checkoutHandler *CheckoutHandler,
	historyHandler *HistoryHandler,
	requestTimeout time.Duration,
) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.ListProducts)
			r.Get("/{productID}", productHandler.GetProduct)
		})

		r.Route("/cart/{sessionID}", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{productID}", cartHandler.UpdateQuantity)
			r.Delete("/items/{productID}", cartHandler.RemoveItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", checkoutHandler.CreateOrder)
			r.Get("/{orderID}", checkoutHandler.GetOrder)
			r.Get("/history/{email}", historyHandler.OrdersByEmail)
		})

		r.Post("/payments/verify", checkoutHandler.VerifyPayment)

		r.Route("/billing", func(r chi.Router) {
			r.Get("/{email}", historyHandler.BillingByEmail)
			r.Get("/order/{orderID}", historyHandler.BillingByOrderID)
		})
	})

	return r
}

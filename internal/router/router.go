package router

import (
	"net/http"

	"github.com/ceureg/ceureg/internal/handler"
	"github.com/ceureg/ceureg/internal/middleware"
)

// New creates and configures the HTTP router
func New(h *handler.Handler, mw *middleware.Middleware) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoints
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ready", h.Ready)

	// API v1 routes
	mux.HandleFunc("GET /api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"CEU Registry API v1","version":"0.1.0"}`))
	})

	// Certificate delivery routes
	mux.HandleFunc("GET /api/v1/events/{id}", h.GetEvent)
	mux.HandleFunc("POST /api/v1/events/{id}/certificates/send", h.SendCertificates)
	mux.HandleFunc("GET /api/v1/events/{id}/deliveries", h.ListDeliveries)
	mux.HandleFunc("GET /api/v1/events/{id}/deliveries/coverage", h.DeliveryCoverage)

	// Middleware stack, innermost first. RequestID sits outermost so the
	// access log and panic log both carry the id.
	var handler http.Handler = mux
	handler = mw.SecurityHeaders(handler)
	handler = mw.Logger(handler)
	handler = mw.Recover(handler)
	handler = mw.RequestID(handler)

	return handler
}

package routes

import (
	"net/http"

	"github.com/docpoint/docpoint-backend/internal/api/handlers"
	"github.com/docpoint/docpoint-backend/internal/api/middleware"
	"github.com/docpoint/docpoint-backend/internal/infrastructure/observability"
	"github.com/docpoint/docpoint-backend/pkg/config"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	availabilityHandler *handlers.AvailabilityHandler
	appointmentHandler  *handlers.AppointmentHandler
	sseHandler          *handlers.SSEHandler

	authConfig      *config.AuthConfig
	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	availabilityHandler *handlers.AvailabilityHandler,
	appointmentHandler *handlers.AppointmentHandler,
	sseHandler *handlers.SSEHandler,
	authConfig *config.AuthConfig,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                 http.NewServeMux(),
		availabilityHandler: availabilityHandler,
		appointmentHandler:  appointmentHandler,
		sseHandler:          sseHandler,
		authConfig:          authConfig,
		cacheMiddleware:     cacheMiddleware,
		metrics:             metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint, outside authentication
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	api := http.NewServeMux()

	// Availability endpoints
	api.HandleFunc("GET /api/doctors/{id}/availability", r.availabilityHandler.GetAvailability)
	api.HandleFunc("PUT /api/doctors/{id}/availability", r.availabilityHandler.UpdateAvailability)
	api.HandleFunc("GET /api/doctors/{id}/stats", r.appointmentHandler.GetDoctorStats)

	// Appointment endpoints
	api.HandleFunc("POST /api/appointments", r.appointmentHandler.BookAppointment)
	api.HandleFunc("GET /api/appointments", r.appointmentHandler.ListAppointments)
	api.HandleFunc("POST /api/appointments/{id}/cancel", r.appointmentHandler.CancelAppointment)
	api.HandleFunc("PATCH /api/appointments/{id}/status", r.appointmentHandler.UpdateStatus)
	api.HandleFunc("POST /api/appointments/check-duplicate", r.appointmentHandler.CheckDuplicate)

	// Live slot update streams; read-only, so they stay outside authentication
	// the same way the health check does
	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/stream/doctors/{id}", r.sseHandler.StreamDoctorUpdates)
	}

	// Everything else under /api requires a verified identity
	r.mux.Handle("/api/", middleware.IdentityMiddleware(r.authConfig)(api))

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so error responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}

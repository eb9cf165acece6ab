// Package api assembles the HTTP surface: the chi router, its middleware
// stack, and the handlers behind it.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/pawsuite/reserve/internal/api/middleware"
)

// Dependencies holds the middleware and handlers the router wires up.
type Dependencies struct {
	Tenant    *mw.Tenant
	RateLimit *mw.RateLimit

	Health http.HandlerFunc

	CreateReservation  http.HandlerFunc
	GetReservation     http.HandlerFunc
	ListReservations   http.HandlerFunc
	ModifyReservation  http.HandlerFunc
	CancelReservation  http.HandlerFunc
	CheckIn            http.HandlerFunc
	CheckOut           http.HandlerFunc
	ReservationHistory http.HandlerFunc

	ListResources  http.HandlerFunc
	CreateResource http.HandlerFunc
	Availability   http.HandlerFunc
	Import         http.HandlerFunc

	TenantStatus http.HandlerFunc
}

// NewRouter builds the router. Everything except health runs behind tenant
// resolution and per-tenant rate limiting; admin routes sit in their own
// subtree.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.Get("/api/v1/health", deps.Health)

	r.Group(func(r chi.Router) {
		r.Use(deps.Tenant.Resolve)
		r.Use(deps.RateLimit.Limit)

		r.Route("/api/v1/reservations", func(r chi.Router) {
			r.Post("/", deps.CreateReservation)
			r.Get("/", deps.ListReservations)
			r.Get("/{reservationID}", deps.GetReservation)
			r.Patch("/{reservationID}", deps.ModifyReservation)
			r.Post("/{reservationID}/cancel", deps.CancelReservation)
			r.Post("/{reservationID}/check-in", deps.CheckIn)
			r.Post("/{reservationID}/check-out", deps.CheckOut)
			r.Get("/{reservationID}/history", deps.ReservationHistory)
		})

		r.Get("/api/v1/resources", deps.ListResources)
		r.Post("/api/v1/resources", deps.CreateResource)
		r.Get("/api/v1/availability", deps.Availability)
		r.Post("/api/v1/import", deps.Import)

		r.Put("/api/v1/admin/tenants/{tenantID}/status", deps.TenantStatus)
	})

	return r
}

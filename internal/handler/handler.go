// Package handler exposes the HTTP API: plan catalog, order creation and
// verification, QR rendering, admin listing and the health endpoint.
package handler

import (
	"net/http"

	"github.com/ajayishaq/rromisim/internal/domain/order"
	"github.com/ajayishaq/rromisim/internal/domain/plan"
)

// Config holds non-dependency handler settings.
type Config struct {
	// AdminToken is the bearer token required by admin endpoints. When empty,
	// admin endpoints always respond 401.
	AdminToken string
}

// Handler serves the public and admin API, delegating business logic to the
// order service and reading catalog/order data from the repositories.
type Handler struct {
	cfg    Config
	plans  plan.Repository
	orders order.Repository
	svc    *order.Service
}

// New constructs a Handler with its domain dependencies.
func New(cfg Config, plans plan.Repository, orders order.Repository, svc *order.Service) *Handler {
	return &Handler{
		cfg:    cfg,
		plans:  plans,
		orders: orders,
		svc:    svc,
	}
}

// Register installs all API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /plans", h.listPlans)
	mux.HandleFunc("GET /plans/{id}", h.getPlan)
	mux.HandleFunc("POST /orders", h.createOrder)
	mux.HandleFunc("POST /orders/verify", h.verifyOrder)
	mux.HandleFunc("GET /orders/{id}/esim/qr", h.esimQR)
	mux.HandleFunc("GET /admin/orders", h.adminOrders)
	mux.HandleFunc("GET /health", h.healthCheck)
}

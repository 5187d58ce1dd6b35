package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hvac-ledger/internal/app"
	"hvac-ledger/internal/core"
	"hvac-ledger/internal/logger"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures NewHandler. Zero values disable the optional pieces:
// no Pinger means health is always ok, no Gatherer means no /metrics route.
type Options struct {
	Logger         *logger.Logger
	Pinger         Pinger
	Gatherer       prometheus.Gatherer
	MaxBodyBytes   int64
	AllowedOrigins string
}

// Handler holds the ApplicationService and the collaborators its routes need.
type Handler struct {
	svc    app.ApplicationService
	log    *logger.Logger
	pinger Pinger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	h := &Handler{svc: svc, log: opts.Logger, pinger: opts.Pinger}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(opts.Logger))
	r.Use(Recoverer(opts.Logger))
	r.Use(CORS(opts.AllowedOrigins))

	r.Get("/api/health", h.health)
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(opts.MaxBodyBytes))

		// ── Customers ─────────────────────────────────────────────────────────
		r.Get("/api/customers", h.listCustomers)
		r.Post("/api/customers", h.createCustomer)
		r.Get("/api/customers/{id}", h.getCustomer)
		r.Put("/api/customers/{id}", h.updateCustomer)
		r.Delete("/api/customers/{id}", h.deleteCustomer)
		r.Get("/api/customers/{id}/invoices", h.customerInvoices)

		// ── Inventory ─────────────────────────────────────────────────────────
		r.Get("/api/items", h.listItems)
		r.Post("/api/items", h.createItem)
		r.Get("/api/items/{id}", h.getItem)
		r.Put("/api/items/{id}", h.updateItem)
		r.Delete("/api/items/{id}", h.deleteItem)
		r.Post("/api/items/{id}/adjust", h.adjustItem)
		r.Get("/api/items/{id}/adjustments", h.itemAdjustments)

		// ── Appointments ──────────────────────────────────────────────────────
		r.Get("/api/appointments", h.listAppointments)
		r.Post("/api/appointments", h.createAppointment)
		r.Get("/api/appointments/{id}", h.getAppointment)
		r.Put("/api/appointments/{id}/schedule", h.rescheduleAppointment)
		r.Post("/api/appointments/{id}/transition", h.transitionAppointment)

		// ── Invoices ──────────────────────────────────────────────────────────
		r.Get("/api/invoices", h.listInvoices)
		r.Post("/api/invoices", h.createInvoice)
		r.Get("/api/invoices/{id}", h.getInvoice)
		r.Put("/api/invoices/{id}", h.updateInvoice)
		r.Post("/api/invoices/{id}/transition", h.transitionInvoice)

		// ── Usage & reports ───────────────────────────────────────────────────
		r.Get("/api/usage", h.listUsage)
		r.Post("/api/usage", h.recordUsage)
		r.Get("/api/reports/inventory-value", h.inventoryValue)
		r.Get("/api/reports/workload", h.workload)
	})

	return r
}

// health reports ok when the store answers a ping.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			h.log.Warn(r.Context(), "health check failed", err)
			writeJSONStatus(w, http.StatusServiceUnavailable, response{Status: "unavailable"})
			return
		}
	}
	writeJSON(w, response{Status: "ok"})
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors, including
// fields the request type does not declare.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// pathID extracts the {id} URL parameter.
func pathID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, core.Validationf("id must be a positive integer, got %q", raw)
	}
	return id, nil
}

func queryInt(r *http.Request, key string) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return nil, core.Validationf("%s must be a positive integer, got %q", key, raw)
	}
	return &v, nil
}

func queryBool(r *http.Request, key string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, core.Validationf("%s must be true or false, got %q", key, raw)
	}
	return v, nil
}

// queryDate parses a YYYY-MM-DD parameter as a UTC calendar day.
func queryDate(r *http.Request, key string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, core.Validationf("%s must be YYYY-MM-DD, got %q", key, raw)
	}
	return &d, nil
}

package web

import (
	"net/http"

	"hvac-ledger/internal/app"
	"hvac-ledger/internal/core"
)

// listUsage handles GET /api/usage?item_id=&appointment_id=&invoice_id=.
func (h *Handler) listUsage(w http.ResponseWriter, r *http.Request) {
	var f core.UsageFilter
	var err error
	if f.ItemID, err = queryInt(r, "item_id"); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if f.AppointmentID, err = queryInt(r, "appointment_id"); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if f.InvoiceID, err = queryInt(r, "invoice_id"); err != nil {
		writeServiceError(w, r, err)
		return
	}
	recs, err := h.svc.ListUsage(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, recs)
}

// recordUsage handles POST /api/usage. Insufficient stock is a 409 and
// leaves both the item and the usage log untouched.
func (h *Handler) recordUsage(w http.ResponseWriter, r *http.Request) {
	var req app.UsageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := h.svc.RecordUsage(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, rec)
}

func (h *Handler) inventoryValue(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.InventoryValue(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, v)
}

// workload handles GET /api/reports/workload?technician=&date=.
func (h *Handler) workload(w http.ResponseWriter, r *http.Request) {
	date, err := queryDate(r, "date")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	result, err := h.svc.TechnicianWorkload(r.Context(), r.URL.Query().Get("technician"), date)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

package web

import (
	"net/http"

	"hvac-ledger/internal/app"
)

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	customerID, err := queryInt(r, "customer_id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	invs, err := h.svc.ListInvoices(r.Context(), app.InvoiceQuery{
		CustomerID: customerID,
		Status:     r.URL.Query().Get("status"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, invs)
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req app.InvoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sum, err := h.svc.CreateInvoice(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, sum)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	sum, err := h.svc.GetInvoice(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sum)
}

// updateInvoice handles PUT /api/invoices/{id}; only drafts are editable.
func (h *Handler) updateInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req app.DraftInvoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sum, err := h.svc.UpdateDraftInvoice(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sum)
}

func (h *Handler) transitionInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req app.TransitionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tr, err := h.svc.TransitionInvoice(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, tr)
}

package web

import (
	"net/http"

	"hvac-ledger/internal/app"
)

// listAppointments handles
// GET /api/appointments?technician=&date=&customer_id=&status=.
func (h *Handler) listAppointments(w http.ResponseWriter, r *http.Request) {
	customerID, err := queryInt(r, "customer_id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	date, err := queryDate(r, "date")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	q := app.AppointmentQuery{
		CustomerID: customerID,
		Technician: r.URL.Query().Get("technician"),
		Status:     r.URL.Query().Get("status"),
		Date:       date,
	}
	appts, err := h.svc.ListAppointments(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, appts)
}

func (h *Handler) createAppointment(w http.ResponseWriter, r *http.Request) {
	var req app.AppointmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := h.svc.CreateAppointment(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, a)
}

func (h *Handler) getAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	a, err := h.svc.GetAppointment(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, a)
}

func (h *Handler) rescheduleAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req app.RescheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := h.svc.RescheduleAppointment(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, a)
}

// transitionAppointment handles POST /api/appointments/{id}/transition with
// body {"from": ..., "to": ...}. A stale "from" is a 409.
func (h *Handler) transitionAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req app.TransitionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tr, err := h.svc.TransitionAppointment(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, tr)
}

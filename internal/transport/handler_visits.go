package transport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pitabwire/msaada/internal/workflow"
	"github.com/pitabwire/msaada/model"
)

type createVisitBody struct {
	RequestID string `json:"request_id"`
	OfficerID string `json:"officer_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Priority  string `json:"priority"`
}

// CreateVisit handles POST /api/visits.
func (h *Handler) CreateVisit(w http.ResponseWriter, r *http.Request) {
	var body createVisitBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, model.NewBadRequestError("Request body is not valid JSON"))
		return
	}

	visit, err := h.visits.Create(r.Context(), workflow.VisitInput{
		RequestID: body.RequestID,
		OfficerID: body.OfficerID,
		Date:      body.Date,
		Time:      body.Time,
		Priority:  body.Priority,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordFieldVisitEvent("scheduled")
	}
	WriteJSON(w, http.StatusCreated, visit)
}

// ListVisits handles GET /api/visits?officer_id=. Listing is officer-scoped:
// the visits screen shows an officer their own queue.
func (h *Handler) ListVisits(w http.ResponseWriter, r *http.Request) {
	officerID := r.URL.Query().Get("officer_id")
	if officerID == "" {
		rctx := model.MustRequestContext(r.Context())
		officerID = rctx.SubjectID
	}

	visits, err := h.visits.ListForOfficer(r.Context(), officerID)
	if err != nil {
		WriteError(w, err)
		return
	}
	if visits == nil {
		visits = []model.FieldVisit{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"data": visits, "count": len(visits)})
}

// GetVisit handles GET /api/visits/{id}.
func (h *Handler) GetVisit(w http.ResponseWriter, r *http.Request) {
	visit, err := h.visits.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, visit)
}

type rescheduleVisitBody struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// RescheduleVisit handles POST /api/visits/{id}/reschedule.
func (h *Handler) RescheduleVisit(w http.ResponseWriter, r *http.Request) {
	var body rescheduleVisitBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, model.NewBadRequestError("Request body is not valid JSON"))
		return
	}

	visit, err := h.visits.Reschedule(r.Context(), chi.URLParam(r, "id"), body.Date, body.Time)
	if err != nil {
		WriteError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordFieldVisitEvent("rescheduled")
	}
	WriteJSON(w, http.StatusOK, visit)
}

// StartVisit handles POST /api/visits/{id}/start.
func (h *Handler) StartVisit(w http.ResponseWriter, r *http.Request) {
	visit, err := h.visits.Start(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordFieldVisitEvent("started")
	}
	WriteJSON(w, http.StatusOK, visit)
}

// SubmitVisitReport handles POST /api/visits/{id}/report. A submitted report
// is what satisfies the verification gate on the review chain.
func (h *Handler) SubmitVisitReport(w http.ResponseWriter, r *http.Request) {
	visit, err := h.visits.SubmitReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordFieldVisitEvent("completed")
		h.metrics.RecordVisitReport()
	}
	WriteJSON(w, http.StatusOK, visit)
}

// CancelVisit handles POST /api/visits/{id}/cancel.
func (h *Handler) CancelVisit(w http.ResponseWriter, r *http.Request) {
	visit, err := h.visits.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordFieldVisitEvent("cancelled")
	}
	WriteJSON(w, http.StatusOK, visit)
}

package transport

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pitabwire/msaada/internal/capability"
	"github.com/pitabwire/msaada/internal/observability"
	"github.com/pitabwire/msaada/internal/role"
	"github.com/pitabwire/msaada/internal/routes"
	"github.com/pitabwire/msaada/internal/workflow"
	"github.com/pitabwire/msaada/model"
	"go.uber.org/zap"
)

// Handler bundles the request handlers with their dependencies.
type Handler struct {
	engine  *workflow.Engine
	visits  *workflow.VisitWorkflow
	catalog *role.Catalog
	eval    *capability.Evaluator
	policy  *routes.Policy
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewHandler creates the handler set. metrics and logger may be nil.
func NewHandler(
	engine *workflow.Engine,
	visits *workflow.VisitWorkflow,
	catalog *role.Catalog,
	eval *capability.Evaluator,
	policy *routes.Policy,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		engine:  engine,
		visits:  visits,
		catalog: catalog,
		eval:    eval,
		policy:  policy,
		metrics: metrics,
		logger:  logger,
	}
}

type createRequestBody struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Region      string `json:"region"`
}

// CreateRequest handles POST /api/requests.
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var body createRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, model.NewBadRequestError("Request body is not valid JSON"))
		return
	}

	rctx := model.MustRequestContext(r.Context())
	req, err := h.engine.Create(r.Context(), rctx, workflow.CreateInput{
		Type:        body.Type,
		Title:       body.Title,
		Description: body.Description,
		Region:      body.Region,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordRequestCreated(req.Region)
	}
	WriteJSON(w, http.StatusCreated, req)
}

// ListRequests handles GET /api/requests.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := workflow.RequestFilters{
		Status: model.Status(q.Get("status")),
		Region: q.Get("region"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filters.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filters.Offset = n
		}
	}

	result, err := h.engine.List(r.Context(), filters)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"data": result, "count": len(result)})
}

// GetRequest handles GET /api/requests/{id}.
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.engine.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, req)
}

type transitionBody struct {
	To      string `json:"to"`
	Comment string `json:"comment"`
}

// TransitionRequest handles POST /api/requests/{id}/transition.
func (h *Handler) TransitionRequest(w http.ResponseWriter, r *http.Request) {
	var body transitionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, model.NewBadRequestError("Request body is not valid JSON"))
		return
	}
	if body.To == "" {
		WriteValidationError(w, []model.FieldError{
			{Field: "to", Code: "required", Message: "a target status is required"},
		})
		return
	}

	rctx := model.MustRequestContext(r.Context())
	id := chi.URLParam(r, "id")
	to := model.Status(body.To)

	before, err := h.engine.Get(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	req, err := h.engine.Transition(r.Context(), rctx, id, to, body.Comment)
	if err != nil {
		if h.metrics != nil {
			if code := model.DenialCode(err); code != "" && code != model.ErrNotFound && code != model.ErrConflict {
				h.metrics.RecordTransitionDenial(string(before.Status), string(to), code)
			}
		}
		WriteError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordTransition(string(before.Status), string(req.Status), string(rctx.Role))
		if req.Status == model.StatusCompleted || req.Status == model.StatusRejected {
			h.metrics.RecordRequestCompleted(string(req.Status))
		}
	}
	WriteJSON(w, http.StatusOK, req)
}

// RequestHistory handles GET /api/requests/{id}/history.
func (h *Handler) RequestHistory(w http.ResponseWriter, r *http.Request) {
	events, err := h.engine.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"data": events, "count": len(events)})
}

// AvailableTransitions handles GET /api/requests/{id}/transitions. It
// returns the edges the acting role could traverse right now, so the UI can
// render only actionable buttons.
func (h *Handler) AvailableTransitions(w http.ResponseWriter, r *http.Request) {
	rctx := model.MustRequestContext(r.Context())
	edges, err := h.engine.AvailableTransitions(r.Context(), rctx, chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	if edges == nil {
		edges = []model.WorkflowTransition{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"data": edges})
}

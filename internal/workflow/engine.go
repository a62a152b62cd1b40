package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pitabwire/msaada/model"
)

// Engine coordinates request lifecycle changes. Reading a request, passing
// it through the guard, and persisting the new status happen as one logical
// unit here; the store's version check serializes concurrent attempts.
type Engine struct {
	graph  *Graph
	guard  *Guard
	store  RequestStore
	visits FieldVisitStore
	logger *zap.Logger
}

// NewEngine creates an engine over the given graph and stores. logger may be
// nil.
func NewEngine(graph *Graph, store RequestStore, visits FieldVisitStore, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		graph:  graph,
		guard:  NewGuard(graph),
		store:  store,
		visits: visits,
		logger: logger,
	}
}

// Guard exposes the engine's transition guard for read-only policy queries
// (e.g. computing available actions for the UI).
func (e *Engine) Guard() *Guard {
	return e.guard
}

// CreateInput is the caller-supplied portion of a new request.
type CreateInput struct {
	Type        string
	Title       string
	Description string
	Region      string
}

// Create opens a new request in the submitted status on behalf of the acting
// beneficiary and stamps its ticket number. Ticket numbers are immutable
// once assigned.
func (e *Engine) Create(ctx context.Context, rctx *model.RequestContext, input CreateInput) (model.Request, error) {
	if strings.TrimSpace(input.Title) == "" {
		return model.Request{}, model.NewValidationError([]model.FieldError{
			{Field: "title", Code: "required", Message: "title must not be empty"},
		})
	}

	now := time.Now().UTC()
	req := model.Request{
		ID:           uuid.New().String(),
		TicketNumber: newTicketNumber(now),
		Type:         input.Type,
		Title:        input.Title,
		Description:  input.Description,
		Status:       model.StatusSubmitted,
		Region:       input.Region,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := e.store.CreateRequest(ctx, req); err != nil {
		return model.Request{}, err
	}

	e.logger.Info("request created",
		zap.String("request_id", req.ID),
		zap.String("ticket_number", req.TicketNumber),
		zap.String("region", req.Region),
		zap.String("subject_id", rctx.SubjectID),
	)
	return req, nil
}

// Transition moves a request to the target status if the guard allows it.
// Denials are terminal for this attempt; the engine never retries with
// different parameters. On success the transition is recorded in the audit
// trail with the actor and any comment.
func (e *Engine) Transition(ctx context.Context, rctx *model.RequestContext, requestID string, to model.Status, comment string) (model.Request, error) {
	req, err := e.store.GetRequest(ctx, requestID)
	if err != nil {
		return model.Request{}, err
	}

	visit := e.linkedVisit(ctx, req.ID)

	if err := e.guard.Attempt(req, to, rctx.Role, comment, visit); err != nil {
		if model.DenialCode(err) == model.ErrInvalidTransition {
			// An edge that doesn't exist means misconfiguration or a buggy
			// caller, not a user mistake.
			e.logger.Error("invalid transition attempted",
				zap.String("request_id", req.ID),
				zap.String("from", string(req.Status)),
				zap.String("to", string(to)),
				zap.String("actor_role", string(rctx.Role)),
			)
		}
		return model.Request{}, err
	}

	from := req.Status
	req.Status = to
	req.UpdatedAt = time.Now().UTC()

	if err := e.store.UpdateRequest(ctx, req); err != nil {
		return model.Request{}, err
	}

	event := model.TransitionEvent{
		ID:        uuid.New().String(),
		RequestID: req.ID,
		From:      from,
		To:        to,
		ActorID:   rctx.SubjectID,
		ActorRole: rctx.Role,
		Comment:   comment,
		Timestamp: req.UpdatedAt,
	}
	if err := e.store.AppendEvent(ctx, event); err != nil {
		return model.Request{}, err
	}

	e.logger.Info("request transitioned",
		zap.String("request_id", req.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor_id", rctx.SubjectID),
		zap.String("actor_role", string(rctx.Role)),
	)
	return req, nil
}

// AvailableTransitions returns the edges leaving the request's current
// status that the acting role could traverse right now. Used by the UI to
// decide which affordances to show.
func (e *Engine) AvailableTransitions(ctx context.Context, rctx *model.RequestContext, requestID string) ([]model.WorkflowTransition, error) {
	req, err := e.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	visit := e.linkedVisit(ctx, req.ID)

	var out []model.WorkflowTransition
	for _, edge := range e.graph.EdgesFrom(req.Status) {
		// Probe with a placeholder comment so mandatory-comment edges still
		// show up as available.
		if err := e.guard.Attempt(req, edge.To, rctx.Role, "-", visit); err == nil {
			out = append(out, edge)
		}
	}
	return out, nil
}

// Get returns a request by ID.
func (e *Engine) Get(ctx context.Context, id string) (model.Request, error) {
	return e.store.GetRequest(ctx, id)
}

// List returns requests matching the filters.
func (e *Engine) List(ctx context.Context, filters RequestFilters) ([]model.Request, error) {
	return e.store.ListRequests(ctx, filters)
}

// History returns a request's transition audit trail, oldest first.
func (e *Engine) History(ctx context.Context, requestID string) ([]model.TransitionEvent, error) {
	if _, err := e.store.GetRequest(ctx, requestID); err != nil {
		return nil, err
	}
	return e.store.Events(ctx, requestID)
}

// linkedVisit fetches the field visit backing a request, or nil when none is
// linked. Store errors other than NOT_FOUND degrade to nil as well: the
// guard then reports the verification as incomplete, which is the safe
// answer.
func (e *Engine) linkedVisit(ctx context.Context, requestID string) *model.FieldVisit {
	visit, err := e.visits.VisitForRequest(ctx, requestID)
	if err != nil {
		return nil
	}
	return &visit
}

// newTicketNumber generates a ticket number of the form REQ-2026-1A2B3C4D.
func newTicketNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("REQ-%d-%s", now.Year(), suffix)
}

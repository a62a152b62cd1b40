package workflow

import (
	"context"

	"github.com/pitabwire/msaada/model"
)

// RequestStore persists requests and their transition audit trail.
type RequestStore interface {
	// CreateRequest persists a new request. Returns CONFLICT if the ID or
	// ticket number already exists.
	CreateRequest(ctx context.Context, req model.Request) error

	// GetRequest retrieves a request by ID. Returns NOT_FOUND if absent.
	GetRequest(ctx context.Context, id string) (model.Request, error)

	// UpdateRequest persists an updated request with optimistic locking on
	// Version. Returns CONFLICT if the stored version has moved on —
	// concurrent transition attempts on the same request serialize here.
	UpdateRequest(ctx context.Context, req model.Request) error

	// ListRequests returns requests matching the filters, newest first.
	ListRequests(ctx context.Context, filters RequestFilters) ([]model.Request, error)

	// AppendEvent adds a transition event to a request's audit trail.
	AppendEvent(ctx context.Context, event model.TransitionEvent) error

	// Events retrieves a request's transition events, oldest first.
	Events(ctx context.Context, requestID string) ([]model.TransitionEvent, error)
}

// RequestFilters are optional filters for listing requests.
type RequestFilters struct {
	Status model.Status
	Region string
	Limit  int
	Offset int
}

// FieldVisitStore persists field visits.
type FieldVisitStore interface {
	// CreateVisit persists a new field visit.
	CreateVisit(ctx context.Context, visit model.FieldVisit) error

	// GetVisit retrieves a visit by ID. Returns NOT_FOUND if absent.
	GetVisit(ctx context.Context, id string) (model.FieldVisit, error)

	// UpdateVisit persists an updated visit.
	UpdateVisit(ctx context.Context, visit model.FieldVisit) error

	// VisitForRequest returns the visit linked to the given request, or
	// NOT_FOUND when the request has none.
	VisitForRequest(ctx context.Context, requestID string) (model.FieldVisit, error)

	// ListVisits returns visits assigned to an officer, soonest first. An
	// empty officer ID returns all visits.
	ListVisits(ctx context.Context, officerID string) ([]model.FieldVisit, error)
}

// Pinger is implemented by stores that can verify connectivity, for
// readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

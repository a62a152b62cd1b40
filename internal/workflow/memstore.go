package workflow

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pitabwire/msaada/model"
)

// MemoryStore is an in-memory RequestStore and FieldVisitStore for tests and
// development.
type MemoryStore struct {
	mu       sync.RWMutex
	requests map[string]model.Request
	tickets  map[string]bool
	events   map[string][]model.TransitionEvent
	visits   map[string]model.FieldVisit
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		requests: make(map[string]model.Request),
		tickets:  make(map[string]bool),
		events:   make(map[string][]model.TransitionEvent),
		visits:   make(map[string]model.FieldVisit),
	}
}

// --- RequestStore ---

// CreateRequest persists a new request.
func (s *MemoryStore) CreateRequest(_ context.Context, req model.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[req.ID]; exists {
		return model.NewConflictError(fmt.Sprintf("request %q already exists", req.ID))
	}
	if s.tickets[req.TicketNumber] {
		return model.NewConflictError(fmt.Sprintf("ticket number %q already assigned", req.TicketNumber))
	}

	s.requests[req.ID] = req
	s.tickets[req.TicketNumber] = true
	return nil
}

// GetRequest retrieves a request by ID.
func (s *MemoryStore) GetRequest(_ context.Context, id string) (model.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, exists := s.requests[id]
	if !exists {
		return model.Request{}, model.NewNotFoundError(fmt.Sprintf("request %q not found", id))
	}
	return req, nil
}

// UpdateRequest persists an updated request with optimistic locking.
func (s *MemoryStore) UpdateRequest(_ context.Context, req model.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.requests[req.ID]
	if !exists {
		return model.NewNotFoundError(fmt.Sprintf("request %q not found", req.ID))
	}
	if existing.Version != req.Version {
		return model.NewConflictError(
			fmt.Sprintf("request %q version conflict (expected %d, have %d)", req.ID, req.Version, existing.Version),
		)
	}
	// Ticket numbers are immutable once assigned.
	req.TicketNumber = existing.TicketNumber

	req.Version++
	req.UpdatedAt = time.Now().UTC()
	s.requests[req.ID] = req
	return nil
}

// ListRequests returns requests matching the filters, newest first.
func (s *MemoryStore) ListRequests(_ context.Context, filters RequestFilters) ([]model.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Request
	for _, req := range s.requests {
		if filters.Status != "" && req.Status != filters.Status {
			continue
		}
		if filters.Region != "" && req.Region != filters.Region {
			continue
		}
		result = append(result, req)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filters.Offset > 0 {
		if filters.Offset >= len(result) {
			return []model.Request{}, nil
		}
		result = result[filters.Offset:]
	}
	if filters.Limit > 0 && filters.Limit < len(result) {
		result = result[:filters.Limit]
	}
	return result, nil
}

// AppendEvent adds a transition event to the audit trail.
func (s *MemoryStore) AppendEvent(_ context.Context, event model.TransitionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events[event.RequestID] = append(s.events[event.RequestID], event)
	return nil
}

// Events retrieves a request's transition events, oldest first.
func (s *MemoryStore) Events(_ context.Context, requestID string) ([]model.TransitionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.events[requestID]
	result := make([]model.TransitionEvent, len(events))
	copy(result, events)
	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

// --- FieldVisitStore ---

// CreateVisit persists a new field visit.
func (s *MemoryStore) CreateVisit(_ context.Context, visit model.FieldVisit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.visits[visit.ID]; exists {
		return model.NewConflictError(fmt.Sprintf("visit %q already exists", visit.ID))
	}
	s.visits[visit.ID] = visit
	return nil
}

// GetVisit retrieves a visit by ID.
func (s *MemoryStore) GetVisit(_ context.Context, id string) (model.FieldVisit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	visit, exists := s.visits[id]
	if !exists {
		return model.FieldVisit{}, model.NewNotFoundError(fmt.Sprintf("visit %q not found", id))
	}
	return visit, nil
}

// UpdateVisit persists an updated visit.
func (s *MemoryStore) UpdateVisit(_ context.Context, visit model.FieldVisit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.visits[visit.ID]; !exists {
		return model.NewNotFoundError(fmt.Sprintf("visit %q not found", visit.ID))
	}
	visit.UpdatedAt = time.Now().UTC()
	s.visits[visit.ID] = visit
	return nil
}

// VisitForRequest returns the visit linked to a request. When several visits
// reference the same request, the most recently created wins.
func (s *MemoryStore) VisitForRequest(_ context.Context, requestID string) (model.FieldVisit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *model.FieldVisit
	for _, visit := range s.visits {
		if visit.RequestID != requestID {
			continue
		}
		v := visit
		if found == nil || v.CreatedAt.After(found.CreatedAt) {
			found = &v
		}
	}
	if found == nil {
		return model.FieldVisit{}, model.NewNotFoundError(
			fmt.Sprintf("no visit linked to request %q", requestID),
		)
	}
	return *found, nil
}

// ListVisits returns visits for an officer, soonest first.
func (s *MemoryStore) ListVisits(_ context.Context, officerID string) ([]model.FieldVisit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.FieldVisit
	for _, visit := range s.visits {
		if officerID != "" && visit.OfficerID != officerID {
			continue
		}
		result = append(result, visit)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ScheduledAt.Before(result[j].ScheduledAt)
	})
	return result, nil
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(_ context.Context) error { return nil }

// Len returns the number of stored requests. For testing.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.requests)
}

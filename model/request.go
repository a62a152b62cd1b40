package model

import "time"

// Status is a request workflow status key.
type Status string

// Request workflow statuses, in canonical progress order.
const (
	StatusSubmitted     Status = "submitted"
	StatusAssigned      Status = "assigned"
	StatusUnderReview   Status = "under_review"
	StatusManagerReview Status = "manager_review"
	StatusForwarded     Status = "forwarded"
	StatusCompleted     Status = "completed"
	StatusRejected      Status = "rejected"
)

// WorkflowStatus is the reference-data row describing one status.
type WorkflowStatus struct {
	Key              Status `json:"key"`
	Order            int    `json:"order"`
	IsFinal          bool   `json:"is_final"`
	ApproverRole     Role   `json:"approver_role,omitempty"`
	RequiresApproval bool   `json:"requires_approval"`
}

// WorkflowTransition is one allowed edge between two statuses. AllowedRoles
// is always non-empty; actors outside it are denied unless they hold
// override authority.
type WorkflowTransition struct {
	From                 Status `json:"from"`
	To                   Status `json:"to"`
	AllowedRoles         []Role `json:"allowed_roles"`
	RequiresComment      bool   `json:"requires_comment"`
	RequiresApproval     bool   `json:"requires_approval"`
	RequiresVerification bool   `json:"requires_verification"`
}

// Allows reports whether the given canonical role is in the edge's allowed
// set. Override authority is deliberately not consulted here; that decision
// belongs to the transition guard.
func (t WorkflowTransition) Allows(role Role) bool {
	for _, r := range t.AllowedRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Request is an assistance request moving through the approval chain. Status
// is mutated only through the workflow engine; direct writes bypass the
// transition guard and are a correctness violation.
type Request struct {
	ID               string    `json:"id"`
	TicketNumber     string    `json:"ticket_number"`
	Type             string    `json:"type"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Status           Status    `json:"status"`
	Region           string    `json:"region"`
	FieldOfficerID   string    `json:"field_officer_id,omitempty"`
	ProgramManagerID string    `json:"program_manager_id,omitempty"`
	Version          int       `json:"version"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TransitionEvent records one guard-approved status change in a request's
// audit trail.
type TransitionEvent struct {
	ID        string    `json:"id"`
	RequestID string    `json:"request_id"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	ActorID   string    `json:"actor_id"`
	ActorRole Role      `json:"actor_role"`
	Comment   string    `json:"comment,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// VisitStatus is a field visit status key.
type VisitStatus string

// Field visit statuses.
const (
	VisitScheduled  VisitStatus = "scheduled"
	VisitInProgress VisitStatus = "in-progress"
	VisitCompleted  VisitStatus = "completed"
	VisitCancelled  VisitStatus = "cancelled"
)

// Terminal reports whether the visit status accepts no further mutation.
func (s VisitStatus) Terminal() bool {
	return s == VisitCompleted || s == VisitCancelled
}

// FieldVisit is a verification visit logically owned by the request it
// verifies. Its completed report is the precondition for the request's
// under_review → manager_review edge.
type FieldVisit struct {
	ID              string      `json:"id"`
	RequestID       string      `json:"request_id,omitempty"`
	OfficerID       string      `json:"officer_id"`
	ScheduledAt     time.Time   `json:"scheduled_at"`
	Status          VisitStatus `json:"status"`
	Priority        string      `json:"priority,omitempty"`
	ReportSubmitted bool        `json:"report_submitted"`
	ReportID        string      `json:"report_id,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

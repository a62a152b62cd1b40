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

// Layouts for the split date and time fields the UI submits.
const (
	visitDateLayout = "2006-01-02"
	visitTimeLayout = "15:04"
)

// ParseVisitTime combines a date string and a clock string into a UTC
// instant. Invalid input is rejected before any state is touched.
func ParseVisitTime(date, clock string) (time.Time, error) {
	combined := strings.TrimSpace(date) + " " + strings.TrimSpace(clock)
	t, err := time.ParseInLocation(visitDateLayout+" "+visitTimeLayout, combined, time.UTC)
	if err != nil {
		return time.Time{}, model.NewValidationError([]model.FieldError{
			{Field: "scheduled_at", Code: "invalid", Message: fmt.Sprintf("invalid visit date/time %q", combined)},
		})
	}
	return t, nil
}

// VisitWorkflow is the secondary state machine for field verification
// visits: scheduled → in-progress → completed/cancelled, with reschedule as
// a self-loop while the visit is not terminal. Completing a visit through
// SubmitReport is what unlocks the request's under_review → manager_review
// edge.
type VisitWorkflow struct {
	store  FieldVisitStore
	logger *zap.Logger
}

// NewVisitWorkflow creates a visit workflow over the given store. logger may
// be nil.
func NewVisitWorkflow(store FieldVisitStore, logger *zap.Logger) *VisitWorkflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VisitWorkflow{store: store, logger: logger}
}

// VisitInput is the caller-supplied portion of a new field visit.
type VisitInput struct {
	RequestID string
	OfficerID string
	Date      string
	Time      string
	Priority  string
}

// Create schedules a new field visit. Date validation happens before any
// write.
func (w *VisitWorkflow) Create(ctx context.Context, input VisitInput) (model.FieldVisit, error) {
	scheduledAt, err := ParseVisitTime(input.Date, input.Time)
	if err != nil {
		return model.FieldVisit{}, err
	}
	if input.OfficerID == "" {
		return model.FieldVisit{}, model.NewValidationError([]model.FieldError{
			{Field: "officer_id", Code: "required", Message: "an assigned officer is required"},
		})
	}

	now := time.Now().UTC()
	visit := model.FieldVisit{
		ID:          uuid.New().String(),
		RequestID:   input.RequestID,
		OfficerID:   input.OfficerID,
		ScheduledAt: scheduledAt,
		Status:      model.VisitScheduled,
		Priority:    input.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := w.store.CreateVisit(ctx, visit); err != nil {
		return model.FieldVisit{}, err
	}

	w.logger.Info("field visit scheduled",
		zap.String("visit_id", visit.ID),
		zap.String("request_id", visit.RequestID),
		zap.String("officer_id", visit.OfficerID),
		zap.Time("scheduled_at", visit.ScheduledAt),
	)
	return visit, nil
}

// Reschedule moves a visit to a new date and time. Rescheduling a completed
// or cancelled visit is rejected.
func (w *VisitWorkflow) Reschedule(ctx context.Context, visitID, date, clock string) (model.FieldVisit, error) {
	scheduledAt, err := ParseVisitTime(date, clock)
	if err != nil {
		return model.FieldVisit{}, err
	}

	visit, err := w.store.GetVisit(ctx, visitID)
	if err != nil {
		return model.FieldVisit{}, err
	}
	if visit.Status.Terminal() {
		return model.FieldVisit{}, model.NewConflictError(
			fmt.Sprintf("visit %s is %s and cannot be rescheduled", visitID, visit.Status),
		)
	}

	visit.ScheduledAt = scheduledAt
	visit.Status = model.VisitScheduled
	visit.UpdatedAt = time.Now().UTC()
	if err := w.store.UpdateVisit(ctx, visit); err != nil {
		return model.FieldVisit{}, err
	}
	return visit, nil
}

// Start marks a scheduled visit as in progress.
func (w *VisitWorkflow) Start(ctx context.Context, visitID string) (model.FieldVisit, error) {
	visit, err := w.store.GetVisit(ctx, visitID)
	if err != nil {
		return model.FieldVisit{}, err
	}
	if visit.Status != model.VisitScheduled {
		return model.FieldVisit{}, model.NewConflictError(
			fmt.Sprintf("visit %s is %s, only scheduled visits can be started", visitID, visit.Status),
		)
	}

	visit.Status = model.VisitInProgress
	visit.UpdatedAt = time.Now().UTC()
	if err := w.store.UpdateVisit(ctx, visit); err != nil {
		return model.FieldVisit{}, err
	}
	return visit, nil
}

// SubmitReport completes a visit and records that its verification report
// was filed. The report document itself lives in external storage; the
// engine only stamps the report ID and flips the flag the transition guard
// inspects.
func (w *VisitWorkflow) SubmitReport(ctx context.Context, visitID string) (model.FieldVisit, error) {
	visit, err := w.store.GetVisit(ctx, visitID)
	if err != nil {
		return model.FieldVisit{}, err
	}
	if visit.Status.Terminal() {
		return model.FieldVisit{}, model.NewConflictError(
			fmt.Sprintf("visit %s is %s, report cannot be submitted", visitID, visit.Status),
		)
	}

	visit.Status = model.VisitCompleted
	visit.ReportSubmitted = true
	visit.ReportID = uuid.New().String()
	visit.UpdatedAt = time.Now().UTC()
	if err := w.store.UpdateVisit(ctx, visit); err != nil {
		return model.FieldVisit{}, err
	}

	w.logger.Info("field visit report submitted",
		zap.String("visit_id", visit.ID),
		zap.String("request_id", visit.RequestID),
		zap.String("report_id", visit.ReportID),
	)
	return visit, nil
}

// Cancel cancels a visit that has not yet completed.
func (w *VisitWorkflow) Cancel(ctx context.Context, visitID string) (model.FieldVisit, error) {
	visit, err := w.store.GetVisit(ctx, visitID)
	if err != nil {
		return model.FieldVisit{}, err
	}
	if visit.Status.Terminal() {
		return model.FieldVisit{}, model.NewConflictError(
			fmt.Sprintf("visit %s is already %s", visitID, visit.Status),
		)
	}

	visit.Status = model.VisitCancelled
	visit.UpdatedAt = time.Now().UTC()
	if err := w.store.UpdateVisit(ctx, visit); err != nil {
		return model.FieldVisit{}, err
	}
	return visit, nil
}

// Get returns a visit by ID.
func (w *VisitWorkflow) Get(ctx context.Context, visitID string) (model.FieldVisit, error) {
	return w.store.GetVisit(ctx, visitID)
}

// ListForOfficer returns the visits assigned to an officer.
func (w *VisitWorkflow) ListForOfficer(ctx context.Context, officerID string) ([]model.FieldVisit, error) {
	return w.store.ListVisits(ctx, officerID)
}

package workflow

import (
	"context"
	"testing"

	"github.com/pitabwire/msaada/model"
)

func newTestEngine() (*Engine, *VisitWorkflow, *MemoryStore) {
	store := NewMemoryStore()
	engine := NewEngine(NewGraph(), store, store, nil)
	visits := NewVisitWorkflow(store, nil)
	return engine, visits, store
}

func actorCtx(roleKey string) *model.RequestContext {
	return &model.RequestContext{
		SubjectID: "subject-" + roleKey,
		Role:      model.NormalizeRole(roleKey),
	}
}

func TestEngine_Create(t *testing.T) {
	engine, _, _ := newTestEngine()
	ctx := context.Background()

	req, err := engine.Create(ctx, actorCtx("user"), CreateInput{
		Type:   "medical",
		Title:  "Clinic fees support",
		Region: "north",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if req.Status != model.StatusSubmitted {
		t.Errorf("new request status = %q, want submitted", req.Status)
	}
	if req.TicketNumber == "" {
		t.Error("ticket number should be stamped on creation")
	}

	got, err := engine.Get(ctx, req.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.TicketNumber != req.TicketNumber {
		t.Error("persisted request lost its ticket number")
	}
}

func TestEngine_Create_RequiresTitle(t *testing.T) {
	engine, _, _ := newTestEngine()

	_, err := engine.Create(context.Background(), actorCtx("user"), CreateInput{Type: "food"})
	if model.DenialCode(err) != model.ErrValidationError {
		t.Errorf("code = %q, want VALIDATION_ERROR", model.DenialCode(err))
	}
}

// Scenario: request in assigned, actor field_officer, target under_review,
// no field visit linked — allowed, status becomes under_review.
func TestEngine_Transition_FieldOfficerStartsReview(t *testing.T) {
	engine, _, _ := newTestEngine()
	ctx := context.Background()

	req, _ := engine.Create(ctx, actorCtx("user"), CreateInput{Title: "Shelter repair"})
	if _, err := engine.Transition(ctx, actorCtx("head_of_programs"), req.ID, model.StatusAssigned, ""); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	got, err := engine.Transition(ctx, actorCtx("field_officer"), req.ID, model.StatusUnderReview, "")
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if got.Status != model.StatusUnderReview {
		t.Errorf("status = %q, want under_review", got.Status)
	}
}

// Scenario: request in under_review with an unsubmitted visit report is
// blocked; submitting the report unlocks the same transition.
func TestEngine_Transition_VerificationGate(t *testing.T) {
	engine, visits, _ := newTestEngine()
	ctx := context.Background()

	req, _ := engine.Create(ctx, actorCtx("user"), CreateInput{Title: "Water point"})
	engine.Transition(ctx, actorCtx("head_of_programs"), req.ID, model.StatusAssigned, "")
	engine.Transition(ctx, actorCtx("field_officer"), req.ID, model.StatusUnderReview, "")

	visit, err := visits.Create(ctx, VisitInput{
		RequestID: req.ID,
		OfficerID: "officer-7",
		Date:      "2026-09-10",
		Time:      "09:30",
	})
	if err != nil {
		t.Fatalf("visit Create() error = %v", err)
	}

	_, err = engine.Transition(ctx, actorCtx("programme_manager"), req.ID, model.StatusManagerReview, "")
	if model.DenialCode(err) != model.ErrVerificationIncomplete {
		t.Fatalf("code = %q, want VERIFICATION_INCOMPLETE", model.DenialCode(err))
	}

	if _, err := visits.SubmitReport(ctx, visit.ID); err != nil {
		t.Fatalf("SubmitReport() error = %v", err)
	}

	got, err := engine.Transition(ctx, actorCtx("programme_manager"), req.ID, model.StatusManagerReview, "")
	if err != nil {
		t.Fatalf("post-report transition error = %v", err)
	}
	if got.Status != model.StatusManagerReview {
		t.Errorf("status = %q, want manager_review", got.Status)
	}
}

func TestEngine_Transition_FullChainToCompletion(t *testing.T) {
	engine, visits, _ := newTestEngine()
	ctx := context.Background()

	req, _ := engine.Create(ctx, actorCtx("user"), CreateInput{Title: "School supplies"})

	steps := []struct {
		role string
		to   model.Status
	}{
		{"head_of_programs", model.StatusAssigned},
		{"field_officer", model.StatusUnderReview},
	}
	for _, s := range steps {
		if _, err := engine.Transition(ctx, actorCtx(s.role), req.ID, s.to, ""); err != nil {
			t.Fatalf("%s → %s failed: %v", s.role, s.to, err)
		}
	}

	visit, _ := visits.Create(ctx, VisitInput{
		RequestID: req.ID, OfficerID: "officer-1", Date: "2026-09-12", Time: "14:00",
	})
	visits.SubmitReport(ctx, visit.ID)

	rest := []struct {
		role string
		to   model.Status
	}{
		{"head_of_programs", model.StatusManagerReview},
		{"ceo", model.StatusForwarded},
		{"patron", model.StatusCompleted},
	}
	for _, s := range rest {
		if _, err := engine.Transition(ctx, actorCtx(s.role), req.ID, s.to, ""); err != nil {
			t.Fatalf("%s → %s failed: %v", s.role, s.to, err)
		}
	}

	history, err := engine.History(ctx, req.ID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 5 {
		t.Fatalf("history has %d events, want 5", len(history))
	}
	if history[len(history)-1].To != model.StatusCompleted {
		t.Errorf("last event To = %q, want completed", history[len(history)-1].To)
	}
	if history[len(history)-1].ActorRole != model.RolePatron {
		t.Errorf("last event role = %q, want patron", history[len(history)-1].ActorRole)
	}
}

func TestEngine_Transition_DeniedLeavesStatusUntouched(t *testing.T) {
	engine, _, _ := newTestEngine()
	ctx := context.Background()

	req, _ := engine.Create(ctx, actorCtx("user"), CreateInput{Title: "Food parcel"})

	_, err := engine.Transition(ctx, actorCtx("field_officer"), req.ID, model.StatusAssigned, "")
	if model.DenialCode(err) != model.ErrUnauthorized {
		t.Fatalf("code = %q, want UNAUTHORIZED", model.DenialCode(err))
	}

	got, _ := engine.Get(ctx, req.ID)
	if got.Status != model.StatusSubmitted {
		t.Errorf("denied transition mutated status to %q", got.Status)
	}
	if history, _ := engine.History(ctx, req.ID); len(history) != 0 {
		t.Errorf("denied transition appended %d events", len(history))
	}
}

func TestEngine_Transition_FinalStatusIsTerminal(t *testing.T) {
	engine, _, store := newTestEngine()
	ctx := context.Background()

	req, _ := engine.Create(ctx, actorCtx("user"), CreateInput{Title: "Transport"})
	engine.Transition(ctx, actorCtx("head_of_programs"), req.ID, model.StatusAssigned, "")
	engine.Transition(ctx, actorCtx("head_of_programs"), req.ID, model.StatusRejected, "not eligible")

	_, err := engine.Transition(ctx, actorCtx("admin"), req.ID, model.StatusAssigned, "")
	if model.DenialCode(err) != model.ErrInvalidTransition {
		t.Errorf("code = %q, want INVALID_TRANSITION out of rejected", model.DenialCode(err))
	}

	got, _ := store.GetRequest(ctx, req.ID)
	if got.Status != model.StatusRejected {
		t.Errorf("status = %q, want rejected", got.Status)
	}
}

func TestEngine_AvailableTransitions(t *testing.T) {
	engine, _, _ := newTestEngine()
	ctx := context.Background()

	req, _ := engine.Create(ctx, actorCtx("user"), CreateInput{Title: "Bore hole"})
	engine.Transition(ctx, actorCtx("head_of_programs"), req.ID, model.StatusAssigned, "")

	// The field officer can only start the review from assigned.
	edges, err := engine.AvailableTransitions(ctx, actorCtx("field_officer"), req.ID)
	if err != nil {
		t.Fatalf("AvailableTransitions() error = %v", err)
	}
	if len(edges) != 1 || edges[0].To != model.StatusUnderReview {
		t.Errorf("field_officer edges = %+v, want only under_review", edges)
	}

	// Head of programs can reject (the mandatory comment does not hide the
	// affordance).
	edges, _ = engine.AvailableTransitions(ctx, actorCtx("head_of_programs"), req.ID)
	foundReject := false
	for _, e := range edges {
		if e.To == model.StatusRejected {
			foundReject = true
		}
	}
	if !foundReject {
		t.Error("head_of_programs should see the reject affordance")
	}

	// A regular user has nothing.
	edges, _ = engine.AvailableTransitions(ctx, actorCtx("user"), req.ID)
	if len(edges) != 0 {
		t.Errorf("user edges = %+v, want none", edges)
	}
}

func TestEngine_History_UnknownRequest(t *testing.T) {
	engine, _, _ := newTestEngine()
	_, err := engine.History(context.Background(), "missing")
	if model.DenialCode(err) != model.ErrNotFound {
		t.Errorf("code = %q, want NOT_FOUND", model.DenialCode(err))
	}
}

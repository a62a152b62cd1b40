package model

import (
	"errors"
	"testing"
)

func TestErrorEnvelope_Error(t *testing.T) {
	e := NewUnauthorizedError("role field_officer may not forward")
	want := "UNAUTHORIZED: role field_officer may not forward"
	if e.Error() != want {
		t.Errorf("Error() = %q, want %q", e.Error(), want)
	}
}

func TestDenialCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"invalid transition", NewInvalidTransitionError("x"), ErrInvalidTransition},
		{"unauthorized", NewUnauthorizedError("x"), ErrUnauthorized},
		{"comment required", NewCommentRequiredError("x"), ErrCommentRequired},
		{"verification incomplete", NewVerificationIncompleteError("x"), ErrVerificationIncomplete},
		{"plain error", errors.New("boom"), ErrInternalError},
	}
	for _, tt := range tests {
		if got := DenialCode(tt.err); got != tt.want {
			t.Errorf("%s: DenialCode() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestRequestContext_Validate(t *testing.T) {
	rc := &RequestContext{SubjectID: "u-1", Role: RoleFieldOfficer}
	if err := rc.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}

	rc = &RequestContext{}
	if err := rc.Validate(); err == nil {
		t.Error("Validate() on empty context should fail")
	}
}

func TestVisitStatus_Terminal(t *testing.T) {
	if !VisitCompleted.Terminal() || !VisitCancelled.Terminal() {
		t.Error("completed and cancelled are terminal")
	}
	if VisitScheduled.Terminal() || VisitInProgress.Terminal() {
		t.Error("scheduled and in-progress are not terminal")
	}
}

package workflow

import (
	"testing"

	"github.com/pitabwire/msaada/model"
)

func TestNewGraph_CompiledTablesAreValid(t *testing.T) {
	g := NewGraph()
	if g == nil {
		t.Fatal("NewGraph() returned nil")
	}
}

func TestGraph_Edge(t *testing.T) {
	g := NewGraph()

	edge, ok := g.Edge(model.StatusSubmitted, model.StatusAssigned)
	if !ok {
		t.Fatal("submitted → assigned should exist")
	}
	if !edge.Allows(model.RoleHeadOfPrograms) {
		t.Error("submitted → assigned should allow head_of_programs")
	}

	if _, ok := g.Edge(model.StatusSubmitted, model.StatusCompleted); ok {
		t.Error("submitted → completed should not exist")
	}
}

func TestGraph_FinalStatusesHaveNoOutboundEdges(t *testing.T) {
	g := NewGraph()

	for _, status := range []model.Status{model.StatusCompleted, model.StatusRejected} {
		if edges := g.EdgesFrom(status); len(edges) != 0 {
			t.Errorf("final status %q has %d outbound edges", status, len(edges))
		}
	}
}

func TestGraph_NonFinalStatusesHaveOutboundEdges(t *testing.T) {
	g := NewGraph()

	nonFinal := []model.Status{
		model.StatusSubmitted, model.StatusAssigned, model.StatusUnderReview,
		model.StatusManagerReview, model.StatusForwarded,
	}
	for _, status := range nonFinal {
		if len(g.EdgesFrom(status)) == 0 {
			t.Errorf("non-final status %q has no outbound edges", status)
		}
	}
}

func TestGraph_RejectedUnreachableFromSubmitted(t *testing.T) {
	g := NewGraph()

	if _, ok := g.Edge(model.StatusSubmitted, model.StatusRejected); ok {
		t.Error("rejected must not be reachable directly from submitted")
	}

	// Rejection is reachable from each intermediate review stage.
	for _, from := range []model.Status{
		model.StatusAssigned, model.StatusUnderReview, model.StatusManagerReview,
	} {
		if _, ok := g.Edge(from, model.StatusRejected); !ok {
			t.Errorf("%q → rejected should exist", from)
		}
	}
}

func TestGraph_VerificationBoundToReviewEdge(t *testing.T) {
	g := NewGraph()

	edge, ok := g.Edge(model.StatusUnderReview, model.StatusManagerReview)
	if !ok {
		t.Fatal("under_review → manager_review should exist")
	}
	if !edge.RequiresVerification {
		t.Error("under_review → manager_review must require field visit verification")
	}

	// No other edge carries the verification precondition.
	for _, s := range []model.Status{
		model.StatusSubmitted, model.StatusAssigned,
		model.StatusManagerReview, model.StatusForwarded,
	} {
		for _, e := range g.EdgesFrom(s) {
			if e.RequiresVerification {
				t.Errorf("edge %s → %s unexpectedly requires verification", e.From, e.To)
			}
		}
	}
}

func TestGraph_RejectionEdgesRequireComment(t *testing.T) {
	g := NewGraph()

	for _, s := range []model.Status{
		model.StatusAssigned, model.StatusUnderReview, model.StatusManagerReview,
	} {
		edge, _ := g.Edge(s, model.StatusRejected)
		if !edge.RequiresComment {
			t.Errorf("%q → rejected should require a comment", s)
		}
	}
}

func TestNewGraphFromRows_RejectsInvalidGraphs(t *testing.T) {
	base := []model.WorkflowStatus{
		{Key: "a", Order: 0},
		{Key: "b", Order: 1, IsFinal: true},
		{Key: "c", Order: 2, IsFinal: true},
	}
	roles := []model.Role{model.RoleAdmin}

	tests := []struct {
		name        string
		statuses    []model.WorkflowStatus
		transitions []model.WorkflowTransition
	}{
		{
			name:     "edge out of final status",
			statuses: base,
			transitions: []model.WorkflowTransition{
				{From: "a", To: "b", AllowedRoles: roles},
				{From: "b", To: "c", AllowedRoles: roles},
			},
		},
		{
			name:        "non-final status with no outbound edge",
			statuses:    base,
			transitions: nil,
		},
		{
			name:     "empty role set",
			statuses: base,
			transitions: []model.WorkflowTransition{
				{From: "a", To: "b"},
			},
		},
		{
			name:     "edge to unknown status",
			statuses: base,
			transitions: []model.WorkflowTransition{
				{From: "a", To: "zzz", AllowedRoles: roles},
			},
		},
		{
			name: "one final status only",
			statuses: []model.WorkflowStatus{
				{Key: "a", Order: 0},
				{Key: "b", Order: 1, IsFinal: true},
			},
			transitions: []model.WorkflowTransition{
				{From: "a", To: "b", AllowedRoles: roles},
			},
		},
		{
			name: "cycle that never reaches a final status",
			statuses: []model.WorkflowStatus{
				{Key: "a", Order: 0},
				{Key: "x", Order: 1},
				{Key: "y", Order: 2},
				{Key: "b", Order: 3, IsFinal: true},
				{Key: "c", Order: 4, IsFinal: true},
			},
			transitions: []model.WorkflowTransition{
				{From: "a", To: "b", AllowedRoles: roles},
				{From: "x", To: "y", AllowedRoles: roles},
				{From: "y", To: "x", AllowedRoles: roles},
			},
		},
	}
	for _, tt := range tests {
		if _, err := NewGraphFromRows(tt.statuses, tt.transitions); err == nil {
			t.Errorf("%s: NewGraphFromRows() should fail", tt.name)
		}
	}
}

func TestNewGraphFromRows_AcceptsProductionShape(t *testing.T) {
	g, err := NewGraphFromRows(statusTable, transitionTable)
	if err != nil {
		t.Fatalf("NewGraphFromRows() error = %v", err)
	}
	if _, ok := g.Status(model.StatusForwarded); !ok {
		t.Error("forwarded status missing from row-built graph")
	}
}

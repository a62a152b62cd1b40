// Package workflow implements the request approval engine: the status graph,
// the transition guard that every status mutation passes through, the
// field-visit subworkflow, and the stores backing them.
package workflow

import (
	"fmt"

	"github.com/pitabwire/msaada/model"
)

// statusTable is the compiled-in status reference data, in canonical
// progress order.
var statusTable = []model.WorkflowStatus{
	{Key: model.StatusSubmitted, Order: 0},
	{Key: model.StatusAssigned, Order: 1, ApproverRole: model.RoleHeadOfPrograms},
	{Key: model.StatusUnderReview, Order: 2, ApproverRole: model.RoleHeadOfPrograms},
	{Key: model.StatusManagerReview, Order: 3, ApproverRole: model.RoleDirector, RequiresApproval: true},
	{Key: model.StatusForwarded, Order: 4, ApproverRole: model.RolePatron, RequiresApproval: true},
	{Key: model.StatusCompleted, Order: 5, IsFinal: true},
	{Key: model.StatusRejected, Order: 6, IsFinal: true},
}

// transitionTable is the compiled-in edge set. It is a fixed, small,
// hand-authored table, not a workflow DSL. Rejection always demands a
// justification comment; rejection from submitted does not exist.
var transitionTable = []model.WorkflowTransition{
	{
		From:         model.StatusSubmitted,
		To:           model.StatusAssigned,
		AllowedRoles: []model.Role{model.RoleHeadOfPrograms},
	},
	{
		From:         model.StatusAssigned,
		To:           model.StatusUnderReview,
		AllowedRoles: []model.Role{model.RoleFieldOfficer, model.RoleProjectOfficer},
	},
	{
		From:                 model.StatusUnderReview,
		To:                   model.StatusManagerReview,
		AllowedRoles:         []model.Role{model.RoleHeadOfPrograms},
		RequiresApproval:     true,
		RequiresVerification: true,
	},
	{
		From:             model.StatusManagerReview,
		To:               model.StatusForwarded,
		AllowedRoles:     []model.Role{model.RoleDirector, model.RoleCEO, model.RolePatron},
		RequiresApproval: true,
	},
	{
		From:             model.StatusForwarded,
		To:               model.StatusCompleted,
		AllowedRoles:     []model.Role{model.RolePatron},
		RequiresApproval: true,
	},
	{
		From:            model.StatusAssigned,
		To:              model.StatusRejected,
		AllowedRoles:    []model.Role{model.RoleHeadOfPrograms},
		RequiresComment: true,
	},
	{
		From:            model.StatusUnderReview,
		To:              model.StatusRejected,
		AllowedRoles:    []model.Role{model.RoleHeadOfPrograms},
		RequiresComment: true,
	},
	{
		From:            model.StatusManagerReview,
		To:              model.StatusRejected,
		AllowedRoles:    []model.Role{model.RoleDirector, model.RoleCEO, model.RolePatron},
		RequiresComment: true,
	},
}

// Graph is the directed graph of request statuses and allowed edges. It is
// immutable after construction and safe for concurrent reads.
type Graph struct {
	statuses map[model.Status]model.WorkflowStatus
	edges    map[model.Status][]model.WorkflowTransition
}

// NewGraph builds the graph from the compiled-in tables. The compiled tables
// are known-good; construction cannot fail.
func NewGraph() *Graph {
	g, err := NewGraphFromRows(statusTable, transitionTable)
	if err != nil {
		panic("workflow: compiled-in graph invalid: " + err.Error())
	}
	return g
}

// NewGraphFromRows builds a graph from persisted status and transition rows
// fetched at startup. The rows must satisfy the same invariants as the
// compiled tables; violations fail construction.
func NewGraphFromRows(statuses []model.WorkflowStatus, transitions []model.WorkflowTransition) (*Graph, error) {
	g := &Graph{
		statuses: make(map[model.Status]model.WorkflowStatus, len(statuses)),
		edges:    make(map[model.Status][]model.WorkflowTransition),
	}
	for _, s := range statuses {
		g.statuses[s.Key] = s
	}
	for _, t := range transitions {
		g.edges[t.From] = append(g.edges[t.From], t)
	}
	if err := g.validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Status returns the reference row for a status key.
func (g *Graph) Status(key model.Status) (model.WorkflowStatus, bool) {
	s, ok := g.statuses[key]
	return s, ok
}

// EdgesFrom returns the transitions leaving the given status. Final statuses
// have none.
func (g *Graph) EdgesFrom(from model.Status) []model.WorkflowTransition {
	return g.edges[from]
}

// Edge returns the transition between two statuses, if it exists.
func (g *Graph) Edge(from, to model.Status) (model.WorkflowTransition, bool) {
	for _, t := range g.edges[from] {
		if t.To == to {
			return t, true
		}
	}
	return model.WorkflowTransition{}, false
}

// validate checks the structural invariants of the graph:
// exactly two final statuses, no edge out of a final status, at least one
// edge out of every non-final status, non-empty role sets, edges between
// known statuses only, and every status able to reach a final status.
func (g *Graph) validate() error {
	finals := 0
	for _, s := range g.statuses {
		if s.IsFinal {
			finals++
			if len(g.edges[s.Key]) > 0 {
				return fmt.Errorf("final status %q has outbound transitions", s.Key)
			}
		} else if len(g.edges[s.Key]) == 0 {
			return fmt.Errorf("non-final status %q has no outbound transitions", s.Key)
		}
	}
	if finals != 2 {
		return fmt.Errorf("graph must have exactly 2 final statuses, has %d", finals)
	}

	for from, edges := range g.edges {
		if _, ok := g.statuses[from]; !ok {
			return fmt.Errorf("transition from unknown status %q", from)
		}
		for _, t := range edges {
			if _, ok := g.statuses[t.To]; !ok {
				return fmt.Errorf("transition %s → %s targets unknown status", t.From, t.To)
			}
			if len(t.AllowedRoles) == 0 {
				return fmt.Errorf("transition %s → %s has no allowed roles", t.From, t.To)
			}
		}
	}

	for key := range g.statuses {
		if !g.reachesFinal(key, make(map[model.Status]bool)) {
			return fmt.Errorf("status %q cannot reach a final status", key)
		}
	}
	return nil
}

func (g *Graph) reachesFinal(from model.Status, seen map[model.Status]bool) bool {
	if g.statuses[from].IsFinal {
		return true
	}
	if seen[from] {
		return false
	}
	seen[from] = true
	for _, t := range g.edges[from] {
		if g.reachesFinal(t.To, seen) {
			return true
		}
	}
	return false
}

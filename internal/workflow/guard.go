package workflow

import (
	"fmt"
	"strings"

	"github.com/pitabwire/msaada/internal/capability"
	"github.com/pitabwire/msaada/model"
)

// Guard is the single choke point for request status changes. Every mutation
// of Request.Status must be approved by Attempt first; the guard itself never
// persists anything.
type Guard struct {
	graph *Graph
}

// NewGuard creates a guard over the given graph.
func NewGuard(graph *Graph) *Guard {
	return &Guard{graph: graph}
}

// Attempt decides whether the acting role may move the request to the target
// status. A nil return means allowed; otherwise the returned envelope
// carries one of the denial codes. visit is the field visit linked to the
// request, or nil when none exists.
//
// The answer is point-in-time: the caller must persist under an optimistic
// concurrency check on the stored status, since the guard takes no locks.
func (g *Guard) Attempt(req model.Request, to model.Status, actorRole model.Role, comment string, visit *model.FieldVisit) error {
	edge, ok := g.graph.Edge(req.Status, to)
	if !ok {
		return model.NewInvalidTransitionError(
			fmt.Sprintf("no transition from %q to %q", req.Status, to),
		)
	}

	override := capability.HasOverrideAuthority(actorRole)

	if !override && !edge.Allows(actorRole) {
		return model.NewUnauthorizedError(
			fmt.Sprintf("role %q may not move request %s from %q to %q",
				actorRole, req.TicketNumber, req.Status, to),
		)
	}

	// A mandatory comment binds override actors too.
	if edge.RequiresComment && strings.TrimSpace(comment) == "" {
		return model.NewCommentRequiredError(
			fmt.Sprintf("a comment is required to move request %s to %q", req.TicketNumber, to),
		)
	}

	if !override && edge.RequiresVerification {
		if visit == nil || !visit.ReportSubmitted {
			return model.NewVerificationIncompleteError(
				fmt.Sprintf("request %s has no submitted field visit report", req.TicketNumber),
			)
		}
	}

	return nil
}

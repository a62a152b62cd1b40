// Package capability derives boolean capability profiles from roles and
// caches them per subject. All predicates operate on canonical roles; the
// admin override is decided exactly once, in HasOverrideAuthority.
package capability

import (
	"github.com/pitabwire/msaada/internal/role"
	"github.com/pitabwire/msaada/model"
)

// Evaluator maps roles to capability sets using the role catalog. It is a
// pure lookup layer with no side effects.
type Evaluator struct {
	catalog *role.Catalog
}

// NewEvaluator creates an evaluator backed by the given role catalog.
func NewEvaluator(catalog *role.Catalog) *Evaluator {
	return &Evaluator{catalog: catalog}
}

// HasOverrideAuthority reports whether the role bypasses every authorization
// gate. Admin and director are override roles; director additionally keeps
// its ordinary place in the approval chain.
//
// This is the single place the override rule lives. The transition guard and
// the route policy consult it first and never re-derive it.
func HasOverrideAuthority(r model.Role) bool {
	return r == model.RoleAdmin || r == model.RoleDirector
}

// For returns the capability set for a raw role key. An actor with override
// authority receives every capability regardless of the catalogued profile.
// Unknown keys degrade to the empty set — deny by default.
func (e *Evaluator) For(key string) model.CapabilitySet {
	info := e.catalog.Resolve(key)
	if HasOverrideAuthority(info.Key) {
		return model.AllCapabilities
	}
	return info.Capabilities
}

// Canonical returns the canonical role for a raw key, through the catalog.
func (e *Evaluator) Canonical(key string) model.Role {
	return e.catalog.Resolve(key).Key
}

// Predicates. Each one asks about the canonical role behind a raw key.
// IsAdmin is a superset override: any predicate below answers true for an
// admin-equivalent actor.

// IsAdmin reports whether the key resolves to an override role.
func (e *Evaluator) IsAdmin(key string) bool {
	return HasOverrideAuthority(e.Canonical(key))
}

// IsFieldOfficer reports whether the actor is a field officer or admin.
func (e *Evaluator) IsFieldOfficer(key string) bool {
	return e.is(key, model.RoleFieldOfficer)
}

// IsProjectOfficer reports whether the actor is a project officer or admin.
func (e *Evaluator) IsProjectOfficer(key string) bool {
	return e.is(key, model.RoleProjectOfficer)
}

// IsAssistantProjectOfficer reports whether the actor is an assistant
// project officer or admin.
func (e *Evaluator) IsAssistantProjectOfficer(key string) bool {
	return e.is(key, model.RoleAssistantProjectOfficer)
}

// IsHeadOfPrograms reports whether the actor is head of programs or admin.
func (e *Evaluator) IsHeadOfPrograms(key string) bool {
	return e.is(key, model.RoleHeadOfPrograms)
}

// IsDirector reports whether the actor is a director or admin.
func (e *Evaluator) IsDirector(key string) bool {
	return e.is(key, model.RoleDirector)
}

// IsCEO reports whether the actor is the CEO or admin.
func (e *Evaluator) IsCEO(key string) bool {
	return e.is(key, model.RoleCEO)
}

// IsPatron reports whether the actor is the patron or admin.
func (e *Evaluator) IsPatron(key string) bool {
	return e.is(key, model.RolePatron)
}

// IsRegularUser reports whether the actor holds no elevated role at all.
// This is the failure posture for unknown keys: they satisfy no elevated
// predicate and land here.
func (e *Evaluator) IsRegularUser(key string) bool {
	return e.Canonical(key) == model.RoleUser
}

func (e *Evaluator) is(key string, want model.Role) bool {
	canonical := e.Canonical(key)
	if HasOverrideAuthority(canonical) {
		return true
	}
	return canonical == want
}

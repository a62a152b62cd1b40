package model

// CapabilitySet is the boolean capability profile derived from a role. The
// set is closed and hand-authored; there is no wildcard matching — the admin
// override is decided once, upstream, by the capability evaluator.
type CapabilitySet struct {
	CanApprove        bool `json:"can_approve" yaml:"can_approve"`
	CanAssign         bool `json:"can_assign" yaml:"can_assign"`
	CanCreateReports  bool `json:"can_create_reports" yaml:"can_create_reports"`
	CanManageUsers    bool `json:"can_manage_users" yaml:"can_manage_users"`
	CanViewAnalytics  bool `json:"can_view_analytics" yaml:"can_view_analytics"`
	CanManageSettings bool `json:"can_manage_settings" yaml:"can_manage_settings"`
}

// AllCapabilities is the profile granted to admin-equivalent actors.
var AllCapabilities = CapabilitySet{
	CanApprove:        true,
	CanAssign:         true,
	CanCreateReports:  true,
	CanManageUsers:    true,
	CanViewAnalytics:  true,
	CanManageSettings: true,
}

// Union returns the capability set granting everything either set grants.
func (cs CapabilitySet) Union(other CapabilitySet) CapabilitySet {
	return CapabilitySet{
		CanApprove:        cs.CanApprove || other.CanApprove,
		CanAssign:         cs.CanAssign || other.CanAssign,
		CanCreateReports:  cs.CanCreateReports || other.CanCreateReports,
		CanManageUsers:    cs.CanManageUsers || other.CanManageUsers,
		CanViewAnalytics:  cs.CanViewAnalytics || other.CanViewAnalytics,
		CanManageSettings: cs.CanManageSettings || other.CanManageSettings,
	}
}

// IsZero reports whether the set grants nothing.
func (cs CapabilitySet) IsZero() bool {
	return cs == CapabilitySet{}
}

// CapabilityResolver resolves the capability set for a request context,
// typically with caching in front of the evaluator.
type CapabilityResolver interface {
	// Resolve returns the capability set for the acting subject.
	Resolve(rctx *RequestContext) (CapabilitySet, error)

	// Invalidate clears any cached capabilities for the given subject.
	Invalidate(subjectID string)
}

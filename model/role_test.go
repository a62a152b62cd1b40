package model

import "testing"

func TestNormalizeRole_Aliases(t *testing.T) {
	tests := []struct {
		key  string
		want Role
	}{
		{"admin", RoleAdmin},
		{"management", RoleAdmin},
		{"director", RoleDirector},
		{"project_officer", RoleProjectOfficer},
		{"regional_project_officer", RoleProjectOfficer},
		{"head_of_programs", RoleHeadOfPrograms},
		{"programme_manager", RoleHeadOfPrograms},
		{"hop", RoleHeadOfPrograms},
		{"field_officer", RoleFieldOfficer},
		{"assistant_project_officer", RoleAssistantProjectOfficer},
		{"ceo", RoleCEO},
		{"patron", RolePatron},
		{"user", RoleUser},
	}
	for _, tt := range tests {
		if got := NormalizeRole(tt.key); got != tt.want {
			t.Errorf("NormalizeRole(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestNormalizeRole_CaseInsensitive(t *testing.T) {
	if got := NormalizeRole("Programme_Manager"); got != RoleHeadOfPrograms {
		t.Errorf("NormalizeRole(Programme_Manager) = %q, want head_of_programs", got)
	}
	if got := NormalizeRole("  ADMIN  "); got != RoleAdmin {
		t.Errorf("NormalizeRole(  ADMIN  ) = %q, want admin", got)
	}
}

func TestNormalizeRole_UnknownDegradesToUser(t *testing.T) {
	for _, key := range []string{"", "intern", "super_admin", "head-of-programs"} {
		if got := NormalizeRole(key); got != RoleUser {
			t.Errorf("NormalizeRole(%q) = %q, want user", key, got)
		}
	}
}

func TestCapabilitySet_Union(t *testing.T) {
	a := CapabilitySet{CanApprove: true}
	b := CapabilitySet{CanAssign: true, CanViewAnalytics: true}
	u := a.Union(b)

	if !u.CanApprove || !u.CanAssign || !u.CanViewAnalytics {
		t.Errorf("Union missing granted flags: %+v", u)
	}
	if u.CanManageUsers || u.CanManageSettings || u.CanCreateReports {
		t.Errorf("Union granted unexpected flags: %+v", u)
	}
}

func TestCapabilitySet_IsZero(t *testing.T) {
	if !(CapabilitySet{}).IsZero() {
		t.Error("empty set should be zero")
	}
	if (CapabilitySet{CanApprove: true}).IsZero() {
		t.Error("non-empty set should not be zero")
	}
}

func TestTransition_Allows(t *testing.T) {
	tr := WorkflowTransition{
		From:         StatusManagerReview,
		To:           StatusForwarded,
		AllowedRoles: []Role{RoleDirector, RoleCEO, RolePatron},
	}
	if !tr.Allows(RoleCEO) {
		t.Error("ceo should be allowed")
	}
	if tr.Allows(RoleFieldOfficer) {
		t.Error("field_officer should not be allowed")
	}
}

package capability

import (
	"testing"
	"time"

	"github.com/pitabwire/msaada/internal/role"
	"github.com/pitabwire/msaada/model"
)

func newEvaluator() *Evaluator {
	return NewEvaluator(role.NewCatalog())
}

// --- Evaluator tests ---

func TestEvaluator_For_KnownRoles(t *testing.T) {
	e := newEvaluator()

	caps := e.For("head_of_programs")
	if !caps.CanApprove || !caps.CanAssign {
		t.Errorf("head_of_programs caps = %+v, want approve+assign", caps)
	}
	if caps.CanManageUsers {
		t.Error("head_of_programs should not manage users")
	}

	caps = e.For("field_officer")
	if !caps.CanCreateReports {
		t.Error("field_officer should create reports")
	}
	if caps.CanApprove {
		t.Error("field_officer should not approve")
	}
}

func TestEvaluator_For_OverrideGrantsEverything(t *testing.T) {
	e := newEvaluator()

	for _, key := range []string{"admin", "management", "director"} {
		if e.For(key) != model.AllCapabilities {
			t.Errorf("For(%q) should grant all capabilities", key)
		}
	}
}

func TestEvaluator_For_UnknownDeniesByDefault(t *testing.T) {
	e := newEvaluator()

	for _, key := range []string{"", "mystery_role"} {
		if !e.For(key).IsZero() {
			t.Errorf("For(%q) granted capabilities, want none", key)
		}
		if !e.IsRegularUser(key) {
			t.Errorf("IsRegularUser(%q) = false, want true", key)
		}
	}
}

func TestEvaluator_AliasIdempotence(t *testing.T) {
	e := newEvaluator()

	// All spellings of head-of-programs yield identical capability sets.
	want := e.For("head_of_programs")
	for _, key := range []string{"programme_manager", "hop"} {
		if got := e.For(key); got != want {
			t.Errorf("For(%q) = %+v, want %+v", key, got, want)
		}
	}
}

func TestEvaluator_Predicates(t *testing.T) {
	e := newEvaluator()

	tests := []struct {
		key  string
		pred func(string) bool
		want bool
	}{
		{"field_officer", e.IsFieldOfficer, true},
		{"project_officer", e.IsProjectOfficer, true},
		{"regional_project_officer", e.IsProjectOfficer, true},
		{"assistant_project_officer", e.IsAssistantProjectOfficer, true},
		{"programme_manager", e.IsHeadOfPrograms, true},
		{"director", e.IsDirector, true},
		{"ceo", e.IsCEO, true},
		{"patron", e.IsPatron, true},
		{"field_officer", e.IsPatron, false},
		{"patron", e.IsFieldOfficer, false},
		{"user", e.IsFieldOfficer, false},
	}
	for i, tt := range tests {
		if got := tt.pred(tt.key); got != tt.want {
			t.Errorf("case %d: predicate(%q) = %v, want %v", i, tt.key, got, tt.want)
		}
	}
}

func TestEvaluator_AdminSatisfiesEveryPredicate(t *testing.T) {
	e := newEvaluator()

	preds := []func(string) bool{
		e.IsAdmin, e.IsFieldOfficer, e.IsProjectOfficer,
		e.IsAssistantProjectOfficer, e.IsHeadOfPrograms,
		e.IsDirector, e.IsCEO, e.IsPatron,
	}
	for i, pred := range preds {
		if !pred("admin") {
			t.Errorf("predicate %d should answer true for admin", i)
		}
	}
	if e.IsRegularUser("admin") {
		t.Error("admin is not a regular user")
	}
}

func TestHasOverrideAuthority(t *testing.T) {
	if !HasOverrideAuthority(model.RoleAdmin) || !HasOverrideAuthority(model.RoleDirector) {
		t.Error("admin and director carry override authority")
	}
	if HasOverrideAuthority(model.RolePatron) || HasOverrideAuthority(model.RoleUser) {
		t.Error("patron and user do not carry override authority")
	}
}

// --- Resolver tests ---

func testRctx(roleKey string) *model.RequestContext {
	return &model.RequestContext{
		SubjectID: "user-1",
		Role:      model.NormalizeRole(roleKey),
	}
}

func TestResolver_ResolveAndCache(t *testing.T) {
	hits, misses := 0, 0
	r := NewResolver(newEvaluator(), 5*time.Minute).
		WithCacheObserver(func() { hits++ }, func() { misses++ })

	rctx := testRctx("head_of_programs")

	caps, err := r.Resolve(rctx)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !caps.CanApprove {
		t.Error("head_of_programs should resolve CanApprove")
	}
	if misses != 1 || hits != 0 {
		t.Fatalf("after first resolve: hits=%d misses=%d", hits, misses)
	}

	if _, err := r.Resolve(rctx); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if hits != 1 {
		t.Fatalf("second resolve should hit cache, hits=%d", hits)
	}
}

func TestResolver_Invalidate(t *testing.T) {
	misses := 0
	r := NewResolver(newEvaluator(), 5*time.Minute).
		WithCacheObserver(nil, func() { misses++ })
	rctx := testRctx("patron")

	r.Resolve(rctx)
	r.Invalidate("user-1")
	r.Resolve(rctx)

	if misses != 2 {
		t.Errorf("misses = %d after invalidate, want 2", misses)
	}
}

func TestResolver_TTLExpiry(t *testing.T) {
	misses := 0
	r := NewResolver(newEvaluator(), time.Millisecond).
		WithCacheObserver(nil, func() { misses++ })
	rctx := testRctx("ceo")

	r.Resolve(rctx)
	time.Sleep(5 * time.Millisecond)
	r.Resolve(rctx)

	if misses != 2 {
		t.Errorf("misses = %d after TTL expiry, want 2", misses)
	}
}

package role

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pitabwire/msaada/model"
)

func TestCatalog_Resolve_Builtin(t *testing.T) {
	c := NewCatalog()

	info := c.Resolve("head_of_programs")
	if info.Key != model.RoleHeadOfPrograms {
		t.Fatalf("Resolve(head_of_programs).Key = %q", info.Key)
	}
	if !info.Capabilities.CanApprove {
		t.Error("head_of_programs should carry CanApprove")
	}
	if info.Level <= c.Resolve("field_officer").Level {
		t.Error("head_of_programs should outrank field_officer")
	}
}

func TestCatalog_Resolve_IsTotal(t *testing.T) {
	c := NewCatalog()

	// Unknown, empty, and garbage keys all resolve to the user role.
	for _, key := range []string{"", "no_such_role", "   "} {
		info := c.Resolve(key)
		if info.Key != model.RoleUser {
			t.Errorf("Resolve(%q).Key = %q, want user", key, info.Key)
		}
		if !info.Capabilities.IsZero() {
			t.Errorf("Resolve(%q) granted capabilities %+v", key, info.Capabilities)
		}
	}
}

func TestCatalog_Resolve_AliasAndCase(t *testing.T) {
	c := NewCatalog()

	hop := c.Resolve("head_of_programs")
	for _, key := range []string{"programme_manager", "HOP", "Head_Of_Programs"} {
		if got := c.Resolve(key); got.Key != hop.Key {
			t.Errorf("Resolve(%q).Key = %q, want %q", key, got.Key, hop.Key)
		}
	}

	if got := c.Resolve("management"); got.Key != model.RoleAdmin {
		t.Errorf("Resolve(management).Key = %q, want admin", got.Key)
	}
}

func TestCatalog_LoadFile_MergesRoles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roles.yaml")
	content := `roles:
  - key: field_officer
    display_name: Regional Field Officer
    level: 10
    capabilities:
      can_create_reports: true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	c := NewCatalog()
	if err := c.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	info := c.Resolve("field_officer")
	if info.DisplayName != "Regional Field Officer" {
		t.Errorf("DisplayName = %q, want override from file", info.DisplayName)
	}

	// Built-ins not mentioned in the file survive untouched.
	if c.Resolve("patron").Key != model.RolePatron {
		t.Error("patron should still be catalogued")
	}
}

func TestCatalog_LoadFile_MissingFile(t *testing.T) {
	c := NewCatalog()
	if err := c.LoadFile("testdata/nonexistent.yaml"); err == nil {
		t.Fatal("expected error for missing catalog file")
	}
}

func TestCatalog_All(t *testing.T) {
	c := NewCatalog()
	all := c.All()
	if len(all) != 9 {
		t.Errorf("All() returned %d roles, want 9 built-ins", len(all))
	}
}

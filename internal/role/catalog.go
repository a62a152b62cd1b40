// Package role holds the static registry of roles: canonical identifiers,
// display metadata, hierarchy levels, and the capability profile each role
// carries. Roles are immutable reference data loaded once at startup.
package role

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/pitabwire/msaada/model"
)

// builtins are the roles that are always present, regardless of what the
// catalog file adds. Levels order the approval chain; higher means more
// authority.
var builtins = []model.RoleInfo{
	{
		Key:         model.RoleUser,
		DisplayName: "Beneficiary",
		Level:       0,
		Responsibilities: []string{
			"Submit assistance requests",
			"Track own request progress",
		},
	},
	{
		Key:          model.RoleFieldOfficer,
		DisplayName:  "Field Officer",
		Level:        10,
		Capabilities: model.CapabilitySet{CanCreateReports: true},
		Responsibilities: []string{
			"Conduct field verification visits",
			"Submit visit reports",
			"Move assigned requests into review",
		},
	},
	{
		Key:          model.RoleAssistantProjectOfficer,
		DisplayName:  "Assistant Project Officer",
		Level:        20,
		Capabilities: model.CapabilitySet{CanAssign: true, CanCreateReports: true},
		Responsibilities: []string{
			"Support request intake and triage",
			"Schedule field visits",
		},
	},
	{
		Key:          model.RoleProjectOfficer,
		DisplayName:  "Project Officer",
		Level:        25,
		Capabilities: model.CapabilitySet{CanAssign: true, CanCreateReports: true},
		Responsibilities: []string{
			"Coordinate regional request handling",
			"Schedule and oversee field visits",
			"Move assigned requests into review",
		},
	},
	{
		Key:          model.RoleHeadOfPrograms,
		DisplayName:  "Head of Programs",
		Level:        40,
		Capabilities: model.CapabilitySet{CanApprove: true, CanAssign: true, CanViewAnalytics: true},
		Responsibilities: []string{
			"Assign incoming requests to officers",
			"Review verified requests",
			"Escalate to management review",
		},
	},
	{
		Key:          model.RoleDirector,
		DisplayName:  "Director",
		Level:        60,
		Capabilities: model.CapabilitySet{CanApprove: true, CanManageUsers: true, CanViewAnalytics: true},
		Responsibilities: []string{
			"Approve requests at management review",
			"Oversee programme staffing",
		},
	},
	{
		Key:          model.RoleCEO,
		DisplayName:  "Chief Executive Officer",
		Level:        70,
		Capabilities: model.CapabilitySet{CanApprove: true, CanViewAnalytics: true, CanManageSettings: true},
		Responsibilities: []string{
			"Approve requests at management review",
			"Set organisational policy",
		},
	},
	{
		Key:          model.RolePatron,
		DisplayName:  "Patron",
		Level:        80,
		Capabilities: model.CapabilitySet{CanApprove: true, CanViewAnalytics: true},
		Responsibilities: []string{
			"Give final sign-off on forwarded requests",
		},
	},
	{
		Key:          model.RoleAdmin,
		DisplayName:  "Administrator",
		Level:        100,
		Capabilities: model.AllCapabilities,
		Responsibilities: []string{
			"Administer users, roles, and settings",
			"Bypass approval gates when required",
		},
	},
}

// Catalog resolves role keys to RoleInfo. Resolve is total: unknown or
// missing keys fall back to the user role rather than failing.
type Catalog struct {
	mu    sync.RWMutex
	roles map[model.Role]model.RoleInfo
}

// NewCatalog creates a catalog containing the built-in roles.
func NewCatalog() *Catalog {
	c := &Catalog{roles: make(map[model.Role]model.RoleInfo, len(builtins))}
	for _, info := range builtins {
		c.roles[info.Key] = info
	}
	return c
}

type catalogFile struct {
	Roles []model.RoleInfo `yaml:"roles"`
}

// LoadFile merges additional role definitions from a YAML file. File entries
// may extend the catalog or override display metadata of built-in roles, but
// a built-in role can never be removed.
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("role: reading catalog file %s: %w", path, err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("role: parsing catalog file %s: %w", path, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, info := range f.Roles {
		key := model.Role(string(info.Key))
		if key == "" {
			continue
		}
		info.Key = key
		c.roles[key] = info
	}
	return nil
}

// Resolve returns the RoleInfo for the given raw role key. The key is
// normalized (case folding, alias resolution) before lookup; anything that
// does not land on a catalogued role resolves to the user role.
func (c *Catalog) Resolve(key string) model.RoleInfo {
	canonical := model.NormalizeRole(key)

	c.mu.RLock()
	defer c.mu.RUnlock()
	if info, ok := c.roles[canonical]; ok {
		return info
	}
	return c.roles[model.RoleUser]
}

// All returns every catalogued role, for admin tooling and UI listings.
func (c *Catalog) All() []model.RoleInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.RoleInfo, 0, len(c.roles))
	for _, info := range c.roles {
		out = append(out, info)
	}
	return out
}

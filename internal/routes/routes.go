// Package routes decides which application pages a role may reach and
// builds the filtered navigation tree the UI renders.
package routes

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/pitabwire/msaada/model"
)

// DashboardRoute is the landing page and the constant redirect target when
// access to a protected route is denied.
const DashboardRoute = "dashboard"

// Route describes one navigable page. An empty Roles list means the route is
// open to every authenticated user.
type Route struct {
	Key   string       `yaml:"key" json:"key"`
	Path  string       `yaml:"path" json:"path"`
	Label string       `yaml:"label" json:"label"`
	Icon  string       `yaml:"icon,omitempty" json:"icon,omitempty"`
	Order int          `yaml:"order" json:"order"`
	Roles []model.Role `yaml:"roles,omitempty" json:"roles,omitempty"`
}

// allows reports whether the canonical role is in the route's role list.
func (r Route) allows(role model.Role) bool {
	if len(r.Roles) == 0 {
		return true
	}
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// builtinRoutes is the compiled route table. A YAML file can override or
// extend it but never remove an entry.
var builtinRoutes = []Route{
	{
		Key:   DashboardRoute,
		Path:  "/",
		Label: "Dashboard",
		Icon:  "home",
		Order: 0,
	},
	{
		Key:   "requests",
		Path:  "/requests",
		Label: "Assistance Requests",
		Icon:  "inbox",
		Order: 10,
	},
	{
		Key:   "request-assignment",
		Path:  "/requests/assign",
		Label: "Assign Requests",
		Icon:  "clipboard",
		Order: 20,
		Roles: []model.Role{model.RoleHeadOfPrograms},
	},
	{
		Key:   "field-visits",
		Path:  "/field-visits",
		Label: "Field Visits",
		Icon:  "map-pin",
		Order: 30,
		Roles: []model.Role{
			model.RoleFieldOfficer,
			model.RoleAssistantProjectOfficer,
			model.RoleProjectOfficer,
			model.RoleHeadOfPrograms,
		},
	},
	{
		Key:   "approvals",
		Path:  "/approvals",
		Label: "Approvals",
		Icon:  "check-circle",
		Order: 40,
		Roles: []model.Role{
			model.RoleHeadOfPrograms,
			model.RoleDirector,
			model.RoleCEO,
			model.RolePatron,
		},
	},
	{
		Key:   "analytics",
		Path:  "/analytics",
		Label: "Analytics",
		Icon:  "bar-chart",
		Order: 50,
		Roles: []model.Role{
			model.RoleHeadOfPrograms,
			model.RoleDirector,
			model.RoleCEO,
			model.RolePatron,
		},
	},
	{
		Key:   "user-management",
		Path:  "/users",
		Label: "User Management",
		Icon:  "users",
		Order: 60,
		Roles: []model.Role{model.RoleDirector},
	},
	{
		Key:   "settings",
		Path:  "/settings",
		Label: "Settings",
		Icon:  "settings",
		Order: 70,
		Roles: []model.Role{model.RoleCEO},
	},
	{
		Key:   "role-administration",
		Path:  "/admin/roles",
		Label: "Role Administration",
		Icon:  "shield",
		Order: 80,
		Roles: []model.Role{model.RoleAdmin},
	},
}

// routeFile is the YAML shape of an external route table.
type routeFile struct {
	Routes []Route `yaml:"routes"`
}

// Table is an ordered, keyed route table.
type Table struct {
	routes map[string]Route
	order  []string
}

// NewTable builds the compiled built-in route table.
func NewTable() *Table {
	t := &Table{routes: make(map[string]Route)}
	for _, r := range builtinRoutes {
		t.put(r)
	}
	return t
}

// LoadFile merges routes from a YAML file into the table. Entries with a key
// matching a built-in route replace its metadata and role list; new keys are
// appended.
func (t *Table) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var file routeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	for _, r := range file.Routes {
		if r.Key == "" {
			return fmt.Errorf("%s: route with empty key", path)
		}
		for i, role := range r.Roles {
			r.Roles[i] = model.NormalizeRole(string(role))
		}
		t.put(r)
	}
	return nil
}

func (t *Table) put(r Route) {
	if _, exists := t.routes[r.Key]; !exists {
		t.order = append(t.order, r.Key)
	}
	t.routes[r.Key] = r
}

// Get returns a route by key.
func (t *Table) Get(key string) (Route, bool) {
	r, ok := t.routes[key]
	return r, ok
}

// All returns every route ordered by the Order field, then by key.
func (t *Table) All() []Route {
	out := make([]Route, 0, len(t.order))
	for _, key := range t.order {
		out = append(out, t.routes[key])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Key < out[j].Key
	})
	return out
}

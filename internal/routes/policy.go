package routes

import (
	"go.uber.org/zap"

	"github.com/pitabwire/msaada/internal/capability"
	"github.com/pitabwire/msaada/model"
)

// TestingOverridePolicy grants blanket route access during automated UI
// testing. It is injected at construction; production wiring always passes
// nil, so the bypass cannot exist in a deployed binary.
type TestingOverridePolicy interface {
	AllowAll() bool
}

// Policy answers route-access questions from the route table. Override
// authority is consulted before the per-route role list, so admin-equivalent
// roles reach every page.
type Policy struct {
	table    *Table
	override TestingOverridePolicy
	logger   *zap.Logger
}

// NewPolicy creates a route access policy. override and logger may be nil.
func NewPolicy(table *Table, override TestingOverridePolicy, logger *zap.Logger) *Policy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Policy{table: table, override: override, logger: logger}
}

// IsRouteAllowed reports whether the canonical role may reach the route.
// Unknown route keys are denied.
func (p *Policy) IsRouteAllowed(routeKey string, role model.Role) bool {
	if p.override != nil && p.override.AllowAll() {
		return true
	}

	route, ok := p.table.Get(routeKey)
	if !ok {
		p.logger.Warn("unknown route requested", zap.String("route", routeKey))
		return false
	}

	if capability.HasOverrideAuthority(role) {
		return true
	}
	return route.allows(role)
}

// RedirectTargetOnDenial returns the route a denied navigation lands on.
func (p *Policy) RedirectTargetOnDenial() string {
	return DashboardRoute
}

// NavigationItem is one entry of the filtered navigation tree.
type NavigationItem struct {
	Key   string `json:"key"`
	Path  string `json:"path"`
	Label string `json:"label"`
	Icon  string `json:"icon,omitempty"`
}

// Navigation returns the routes the role may reach, sorted by display order.
func (p *Policy) Navigation(role model.Role) []NavigationItem {
	var items []NavigationItem
	for _, route := range p.table.All() {
		if !p.IsRouteAllowed(route.Key, role) {
			continue
		}
		items = append(items, NavigationItem{
			Key:   route.Key,
			Path:  route.Path,
			Label: route.Label,
			Icon:  route.Icon,
		})
	}
	return items
}

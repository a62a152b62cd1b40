package model

import "strings"

// Role is a canonical role identifier. All authorization logic operates on
// canonical roles only; historical key spellings are folded into these by
// Normalize at the catalog boundary.
type Role string

// Canonical roles. The approval chain runs field officer → project officer /
// assistant project officer → head of programs → director → CEO → patron.
// Admin sits outside the chain and bypasses every gate.
const (
	RoleUser                    Role = "user"
	RoleFieldOfficer            Role = "field_officer"
	RoleProjectOfficer          Role = "project_officer"
	RoleAssistantProjectOfficer Role = "assistant_project_officer"
	RoleHeadOfPrograms          Role = "head_of_programs"
	RoleDirector                Role = "director"
	RoleCEO                     Role = "ceo"
	RolePatron                  Role = "patron"
	RoleAdmin                   Role = "admin"
)

// roleAliases maps legacy and alternate role key spellings onto canonical
// roles. Renamed-but-not-migrated role rows must not silently lose privilege.
var roleAliases = map[string]Role{
	"management":               RoleAdmin,
	"regional_project_officer": RoleProjectOfficer,
	"programme_manager":        RoleHeadOfPrograms,
	"hop":                      RoleHeadOfPrograms,
}

// canonicalRoles is the set of keys that are already canonical.
var canonicalRoles = map[Role]bool{
	RoleUser:                    true,
	RoleFieldOfficer:            true,
	RoleProjectOfficer:          true,
	RoleAssistantProjectOfficer: true,
	RoleHeadOfPrograms:          true,
	RoleDirector:                true,
	RoleCEO:                     true,
	RolePatron:                  true,
	RoleAdmin:                   true,
}

// NormalizeRole folds a raw role key onto its canonical Role. Comparison is
// case-insensitive. Empty and unrecognized keys degrade to RoleUser so that
// an unknown role can never satisfy an elevated check.
func NormalizeRole(key string) Role {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" {
		return RoleUser
	}
	if alias, ok := roleAliases[k]; ok {
		return alias
	}
	if canonicalRoles[Role(k)] {
		return Role(k)
	}
	return RoleUser
}

// RoleInfo is the display and authority metadata for a role. It is immutable
// reference data used for both authorization and UI copy.
type RoleInfo struct {
	Key              Role     `json:"key" yaml:"key"`
	DisplayName      string   `json:"display_name" yaml:"display_name"`
	Level            int      `json:"level" yaml:"level"`
	Capabilities     CapabilitySet `json:"capabilities" yaml:"capabilities"`
	Responsibilities []string `json:"responsibilities" yaml:"responsibilities"`
}

// Package rolenorm maps the role name strings attached to a user account onto a
// small typed vocabulary. Historically every page of the UI re-implemented this
// normalization with ad hoc prefix matching; it now lives in exactly one place
// and is used by the API and middleware alike.
package rolenorm

import "strings"

// Role is a normalized role identifier
type Role string

const (
	Admin           Role = "admin"
	Superuser       Role = "superuser"
	Manager         Role = "manager"
	QualityEngineer Role = "quality_engineer"
	Auditor         Role = "auditor"
	Viewer          Role = "viewer"
)

// synonyms maps exact lowercase inputs to their canonical role
var synonyms = map[string]Role{
	"admin":            Admin,
	"administrator":    Admin,
	"superuser":        Superuser,
	"super user":       Superuser,
	"super_user":       Superuser,
	"manager":          Manager,
	"quality engineer": QualityEngineer,
	"quality_engineer": QualityEngineer,
	"qe":               QualityEngineer,
	"auditor":          Auditor,
	"viewer":           Viewer,
}

// Set is an unordered set of normalized roles
type Set map[Role]struct{}

// Has reports membership of r in the set
func (s Set) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// HasAny reports whether any of the given roles is present
func (s Set) HasAny(roles ...Role) bool {
	for _, r := range roles {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// Normalize maps a single role string to its canonical Role. Unknown values
// starting with "manager" (e.g. "manager - production") normalize to Manager;
// anything else unknown maps to Viewer.
func Normalize(raw string) Role {
	name := strings.ToLower(strings.TrimSpace(raw))
	if r, ok := synonyms[name]; ok {
		return r
	}
	if strings.HasPrefix(name, "manager") {
		return Manager
	}
	return Viewer
}

// NormalizeAll builds a Set from a list of role strings, falling back to the
// single role string when the list is empty. Duplicates collapse.
func NormalizeAll(roles []string, fallback string) Set {
	set := make(Set)
	if len(roles) == 0 {
		if fallback != "" {
			set[Normalize(fallback)] = struct{}{}
		}
		return set
	}
	for _, r := range roles {
		if strings.TrimSpace(r) == "" {
			continue
		}
		set[Normalize(r)] = struct{}{}
	}
	return set
}

// IsPrivileged reports whether the set carries a role allowed to manage
// groups, tags and auditor tokens
func (s Set) IsPrivileged() bool {
	return s.HasAny(Admin, Superuser, Manager)
}

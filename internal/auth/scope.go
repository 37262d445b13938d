package auth

import "sort"

// Scope is the set of vestiging ids a non-super-admin identity may act upon.
type Scope map[string]struct{}

// NewScope builds a scope from assigned vestiging ids.
func NewScope(vestigingIDs []string) Scope {
	s := make(Scope, len(vestigingIDs))
	for _, id := range vestigingIDs {
		if id == "" {
			continue
		}
		s[id] = struct{}{}
	}
	return s
}

// IDs returns the member vestiging ids in sorted order.
func (s Scope) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Allowed reports whether the role may touch the given vestiging. Super admins
// pass unconditionally. Every other role needs the target in its assigned set;
// an empty set denies everything rather than falling through to an accidental
// match-all.
func Allowed(role Role, scope Scope, vestigingID string) bool {
	if role == RoleSuperAdmin {
		return true
	}
	if len(scope) == 0 {
		return false
	}
	_, ok := scope[vestigingID]
	return ok
}

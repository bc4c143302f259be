package auth

import (
	"sort"
	"strings"
)

// AdminList is the static allow-list of administrator emails. Membership is
// the only source of the admin capability; nothing about it is persisted.
type AdminList map[string]struct{}

// NewAdminList normalizes each entry. Empty entries are ignored.
func NewAdminList(emails []string) AdminList {
	l := AdminList{}
	for _, e := range emails {
		if e = NormalizeEmail(e); e != "" {
			l[e] = struct{}{}
		}
	}
	return l
}

// ParseAdminList splits a comma-separated list into an AdminList.
func ParseAdminList(raw string) AdminList {
	return NewAdminList(strings.Split(raw, ","))
}

// IsAdmin reports whether email, once normalized, is on the list.
func (l AdminList) IsAdmin(email string) bool {
	if len(l) == 0 {
		return false
	}
	_, ok := l[NormalizeEmail(email)]
	return ok
}

// Emails returns the list members in sorted order.
func (l AdminList) Emails() []string {
	out := make([]string, 0, len(l))
	for e := range l {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// NormalizeEmail is the canonical form of an identity key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

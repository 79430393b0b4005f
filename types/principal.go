// Package types provides common types used across Bazaar.
package types

import "strings"

// Principal is an opaque identity capable of holding and receiving credits.
// The engine never inspects its contents beyond emptiness; callers typically
// use account ids, wallet addresses, or auth subject claims.
type Principal string

// Nobody is the null principal. It never owns content and cannot receive funds.
const Nobody Principal = ""

// ParsePrincipal trims surrounding whitespace and returns the principal.
// The boolean is false for the null principal.
func ParsePrincipal(s string) (Principal, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Nobody, false
	}
	return Principal(trimmed), true
}

// IsZero reports whether the principal is the null principal.
func (p Principal) IsZero() bool { return p == Nobody }

// String returns the raw identity string.
func (p Principal) String() string { return string(p) }

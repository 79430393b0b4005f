package creator

import (
	"strings"

	"github.com/xraph/bazaar/types"
)

// Creator is a registered content publisher. One record exists per principal;
// records are created once and never deleted. Counters only grow, and are
// mutated exclusively by the settlement path.
type Creator struct {
	types.Entity
	Principal     types.Principal `json:"principal"`
	Handle        string          `json:"handle"`
	ContentCount  int64           `json:"content_count"`
	TotalEarnings types.Credits   `json:"total_earnings"`
	Verified      bool            `json:"verified"`
}

// SanitizeHandle trims surrounding whitespace from a display handle.
// The empty handle is invalid; uniqueness across principals is deliberately
// not enforced — two creators may share a display handle.
func SanitizeHandle(handle string) (string, bool) {
	trimmed := strings.TrimSpace(handle)
	if trimmed == "" {
		return "", false
	}
	return trimmed, true
}

// Clone returns a copy of the creator safe to hand to callers.
func (c *Creator) Clone() *Creator {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

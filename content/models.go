package content

import (
	"github.com/xraph/bazaar/types"
)

// Content is a published catalog item. Ids are dense sequential integers
// starting at 1, allocated by the store at creation; 0 is reserved for
// "does not exist". Creator, price and the content reference are immutable
// after creation; the earnings counters are mutated only through purchase
// settlement.
type Content struct {
	types.Entity
	ID            int64           `json:"id"`
	Creator       types.Principal `json:"creator"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	ContentRef    string          `json:"content_ref"`
	Price         types.Credits   `json:"price"`
	TotalEarnings types.Credits   `json:"total_earnings"`
	PurchaseCount int64           `json:"purchase_count"`
	Active        bool            `json:"active"`
}

// Clone returns a copy of the content record safe to hand to callers.
func (c *Content) Clone() *Content {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

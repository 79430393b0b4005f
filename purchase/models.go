package purchase

import (
	"time"

	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/types"
)

// Record is one perpetual access grant, keyed by (buyer, content id).
// A record is created exactly once per pair on first successful settlement
// and never removed or duplicated afterwards.
type Record struct {
	Buyer       types.Principal `json:"buyer"`
	ContentID   int64           `json:"content_id"`
	ReceiptID   id.ReceiptID    `json:"receipt_id"`
	PurchasedAt time.Time       `json:"purchased_at"`
}

// Receipt is the settlement result returned to the buyer. Its ID doubles as
// the idempotency reference handed to the payment collaborator, so a
// collaborator that retries internally can deduplicate transfers.
type Receipt struct {
	ID           id.ReceiptID    `json:"id"`
	ContentID    int64           `json:"content_id"`
	Buyer        types.Principal `json:"buyer"`
	Creator      types.Principal `json:"creator"`
	Price        types.Credits   `json:"price"`
	PlatformFee  types.Credits   `json:"platform_fee"`
	CreatorShare types.Credits   `json:"creator_share"`
	SettledAt    time.Time       `json:"settled_at"`
}

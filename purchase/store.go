package purchase

import (
	"context"

	"github.com/xraph/bazaar/types"
)

// Store is the purchase ledger persistence surface.
//
// Settle and Unsettle are internal mutators invoked only by the settlement
// engine; external callers go through the read operations.
type Store interface {
	Has(ctx context.Context, buyer types.Principal, contentID int64) (bool, error)
	Get(ctx context.Context, buyer types.Principal, contentID int64) (*Record, error)

	// ListByBuyer returns the buyer's access grants in purchase order.
	ListByBuyer(ctx context.Context, buyer types.Principal, opts ListOpts) ([]*Record, error)

	// Settle atomically inserts the record and applies every ledger-side
	// mutation of a purchase: content purchase count and earnings, creator
	// earnings, and the platform fee accrual. The conditional insert on
	// (buyer, content id) is the linearization point — when two settlements
	// race, exactly one succeeds and the rest fail with ErrAlreadyPurchased.
	Settle(ctx context.Context, rec *Record, creatorShare, platformFee types.Credits) error

	// Unsettle reverses everything Settle did for rec. It is the compensation
	// step used when the external fund transfer fails after the ledger
	// mutation committed.
	Unsettle(ctx context.Context, rec *Record, creatorShare, platformFee types.Credits) error
}

// ListOpts controls pagination for purchase listings.
type ListOpts struct {
	Limit  int
	Offset int
}

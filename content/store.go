package content

import (
	"context"

	"github.com/xraph/bazaar/types"
)

// Store is the content catalog persistence surface.
type Store interface {
	// Create allocates the next dense content id, persists the record with
	// that id, and increments the owning creator's content count, all as one
	// atomic step. The allocated id is written back into c.ID.
	Create(ctx context.Context, c *Content) error

	Get(ctx context.Context, contentID int64) (*Content, error)

	// ListByCreator returns the creator's content in id (insertion) order.
	ListByCreator(ctx context.Context, principal types.Principal, opts ListOpts) ([]*Content, error)
}

// ListOpts controls pagination for catalog listings.
type ListOpts struct {
	Limit  int
	Offset int
}

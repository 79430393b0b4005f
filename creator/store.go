package creator

import (
	"context"

	"github.com/xraph/bazaar/types"
)

// Store is the creator registry persistence surface.
type Store interface {
	Create(ctx context.Context, c *Creator) error
	Get(ctx context.Context, principal types.Principal) (*Creator, error)
	SetVerified(ctx context.Context, principal types.Principal, verified bool) error
}

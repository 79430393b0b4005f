package platform

import (
	"context"

	"github.com/xraph/bazaar/types"
)

// Store is the platform account persistence surface.
type Store interface {
	State(ctx context.Context) (*State, error)

	// InitOwner sets the owner principal only if no owner is set yet.
	// Used for first-run bootstrap; a no-op when an owner already exists.
	InitOwner(ctx context.Context, owner types.Principal) error

	// TransferOwnership moves ownership from current to next. It is a
	// compare-and-set: the update applies only while current is still the
	// owner, and ErrUnauthorized is returned otherwise.
	TransferOwnership(ctx context.Context, current, next types.Principal) error

	// SweepFees atomically zeroes the fee balance and returns the amount
	// swept. Concurrent accruals that land after the sweep stay in the
	// accumulator for the next withdrawal.
	SweepFees(ctx context.Context) (types.Credits, error)

	// AccrueFees adds amount to the fee balance. Used by settlement and to
	// restore a swept balance when the withdrawal transfer fails.
	AccrueFees(ctx context.Context, amount types.Credits) error
}

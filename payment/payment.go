// Package payment defines the fund-transfer collaborator interface.
//
// The engine never holds buyer funds; it instructs an external payment
// system to move credits to a principal as part of settlement. The reference
// string is the settlement receipt (or withdrawal) TypeID, stable across
// retries of the same request, so collaborators that retry internally can
// deduplicate transfers.
package payment

import (
	"context"

	"github.com/xraph/bazaar/types"
)

// Transferer moves credits to a principal. A nil error means the funds moved;
// any error means they did not, and the engine rolls the settlement back.
// Implementations must treat the (reference, to, amount) triple as idempotent:
// replaying a completed transfer with the same reference must not move funds
// twice.
type Transferer interface {
	Transfer(ctx context.Context, to types.Principal, amount types.Credits, reference string) error
}

// TransfererFunc is an adapter to use a plain function as a Transferer.
type TransfererFunc func(ctx context.Context, to types.Principal, amount types.Credits, reference string) error

// Transfer implements Transferer.
func (f TransfererFunc) Transfer(ctx context.Context, to types.Principal, amount types.Credits, reference string) error {
	return f(ctx, to, amount, reference)
}

// Discard returns a Transferer that accepts every transfer without moving
// funds. Intended for tests and local development alongside the memory store.
func Discard() Transferer {
	return TransfererFunc(func(context.Context, types.Principal, types.Credits, string) error {
		return nil
	})
}

package bazaar

import (
	"context"
	"fmt"

	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/types"
)

// Owner returns the current platform owner principal.
func (b *Bazaar) Owner(ctx context.Context) (types.Principal, error) {
	state, err := b.store.PlatformState(ctx)
	if err != nil {
		return types.Nobody, err
	}
	return state.Owner, nil
}

// PlatformBalance returns the accumulated, not-yet-withdrawn platform fees.
func (b *Bazaar) PlatformBalance(ctx context.Context) (types.Credits, error) {
	state, err := b.store.PlatformState(ctx)
	if err != nil {
		return 0, err
	}
	return state.FeeBalance, nil
}

// VerifyCreator marks a creator as verified. Only the platform owner may
// verify.
func (b *Bazaar) VerifyCreator(ctx context.Context, caller, principal types.Principal) error {
	if err := b.requireOwner(ctx, caller); err != nil {
		return err
	}
	if principal.IsZero() {
		return ValidationError{Field: "principal", Message: "must not be empty"}
	}

	if err := b.store.SetCreatorVerified(ctx, principal, true); err != nil {
		return err
	}

	b.logger.Info("creator verified", "principal", principal, "by", caller)
	b.plugins.EmitCreatorVerified(ctx, principal.String())
	return nil
}

// WithdrawPlatformFees sweeps the accumulated fee balance and transfers it to
// the platform owner. Only the owner may withdraw. A zero balance is not an
// error; the call returns 0 without touching the payment collaborator.
//
// The sweep happens first so fees accruing during the transfer stay queued
// for the next withdrawal. If the transfer fails the swept amount is accrued
// back and ErrTransferFailed is returned.
func (b *Bazaar) WithdrawPlatformFees(ctx context.Context, caller types.Principal) (types.Credits, error) {
	if err := b.requireOwner(ctx, caller); err != nil {
		return 0, err
	}
	if b.payments == nil {
		return 0, ErrPaymentsNotConfigured
	}

	amount, err := b.store.SweepFees(ctx)
	if err != nil {
		return 0, err
	}
	if amount.IsZero() {
		return 0, nil
	}

	wid := id.NewWithdrawalID()
	if err := b.payments.Transfer(ctx, caller, amount, wid.String()); err != nil {
		if aerr := b.store.AccrueFees(ctx, amount); aerr != nil {
			b.logger.Error("fee balance restore failed",
				"amount", amount,
				"withdrawal_id", wid,
				"error", aerr,
			)
		}
		return 0, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	b.logger.Info("platform fees withdrawn",
		"withdrawal_id", wid,
		"owner", caller,
		"amount", amount,
	)
	b.plugins.EmitFeesWithdrawn(ctx, caller.String(), amount.Int64())
	return amount, nil
}

// TransferOwnership hands the platform over to next. Only the current owner
// may transfer; the store's compare-and-set rejects stale callers.
func (b *Bazaar) TransferOwnership(ctx context.Context, caller, next types.Principal) error {
	if caller.IsZero() {
		return ErrUnauthorized
	}
	if next.IsZero() {
		return ValidationError{Field: "next", Message: "must not be empty"}
	}

	if err := b.store.TransferOwnership(ctx, caller, next); err != nil {
		return err
	}

	b.logger.Info("platform ownership transferred", "from", caller, "to", next)
	b.plugins.EmitOwnershipTransferred(ctx, caller.String(), next.String())
	return nil
}

func (b *Bazaar) requireOwner(ctx context.Context, caller types.Principal) error {
	if caller.IsZero() {
		return ErrUnauthorized
	}
	state, err := b.store.PlatformState(ctx)
	if err != nil {
		return err
	}
	if state.Owner.IsZero() || state.Owner != caller {
		return ErrUnauthorized
	}
	return nil
}

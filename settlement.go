package bazaar

import (
	"context"
	"fmt"

	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/purchase"
	"github.com/xraph/bazaar/types"
)

// Purchase settles a content purchase for buyer. The paid amount must equal
// the listed price exactly; no change is given and no partial payments are
// accepted.
//
// Settlement commits the ledger mutation first (the conditional access-grant
// insert is the linearization point, so two racing buyers of the same content
// resolve to exactly one grant) and then instructs the payment collaborator
// to move the creator share. If the transfer fails the ledger mutation is
// reversed and the call reports ErrTransferFailed; the buyer keeps nothing
// and may retry.
func (b *Bazaar) Purchase(ctx context.Context, buyer types.Principal, contentID int64, paid types.Credits) (*purchase.Receipt, error) {
	if buyer.IsZero() {
		return nil, ValidationError{Field: "buyer", Message: "must not be empty"}
	}
	if contentID <= 0 {
		return nil, ValidationError{Field: "content_id", Message: "must be positive"}
	}
	if b.payments == nil {
		return nil, ErrPaymentsNotConfigured
	}

	c, err := b.store.GetContent(ctx, contentID)
	if err != nil {
		return nil, err
	}

	// Precondition order is part of the contract: inactive listings reject
	// before the payment amount is inspected, and payment mismatches reject
	// before ownership checks.
	if !c.Active {
		return nil, ErrContentInactive
	}
	if paid != c.Price {
		return nil, fmt.Errorf("%w: paid %d, price %d", ErrIncorrectPayment, paid.Int64(), c.Price.Int64())
	}
	if has, err := b.store.HasPurchase(ctx, buyer, contentID); err != nil {
		return nil, err
	} else if has {
		return nil, ErrAlreadyPurchased
	}
	if buyer == c.Creator {
		return nil, ErrSelfPurchase
	}

	fee, share := paid.Split(b.feePercent)

	rec := &purchase.Record{
		Buyer:       buyer,
		ContentID:   contentID,
		ReceiptID:   id.NewReceiptID(),
		PurchasedAt: b.now(),
	}

	if err := b.store.Settle(ctx, rec, share, fee); err != nil {
		return nil, err
	}

	// The receipt id doubles as the transfer idempotency reference.
	if err := b.payments.Transfer(ctx, c.Creator, share, rec.ReceiptID.String()); err != nil {
		if uerr := b.store.Unsettle(ctx, rec, share, fee); uerr != nil {
			// The grant row is already gone or the store is unreachable;
			// either way the failure needs an operator's eyes.
			b.logger.Error("settlement rollback failed",
				"buyer", buyer,
				"content_id", contentID,
				"receipt_id", rec.ReceiptID,
				"error", uerr,
			)
		}
		b.plugins.EmitSettlementRolledBack(ctx, buyer.String(), contentID, err)
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	receipt := &purchase.Receipt{
		ID:           rec.ReceiptID,
		ContentID:    contentID,
		Buyer:        buyer,
		Creator:      c.Creator,
		Price:        paid,
		PlatformFee:  fee,
		CreatorShare: share,
		SettledAt:    rec.PurchasedAt,
	}

	b.logger.Info("content purchased",
		"receipt_id", receipt.ID,
		"content_id", contentID,
		"buyer", buyer,
		"creator", c.Creator,
		"price", paid,
		"platform_fee", fee,
		"creator_share", share,
	)
	b.plugins.EmitContentPurchased(ctx, receipt)
	return receipt, nil
}

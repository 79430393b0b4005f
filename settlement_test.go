package bazaar_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	bazaar "github.com/xraph/bazaar"
	"github.com/xraph/bazaar/content"
	"github.com/xraph/bazaar/purchase"
	"github.com/xraph/bazaar/store"
	"github.com/xraph/bazaar/store/memory"
	"github.com/xraph/bazaar/types"
)

// inactiveContentStore wraps a store and reports every listing as inactive.
// No public operation deactivates content yet, so this is the only way to
// exercise the inactive-listing purchase path.
type inactiveContentStore struct {
	store.Store
}

func (s *inactiveContentStore) GetContent(ctx context.Context, contentID int64) (*content.Content, error) {
	c, err := s.Store.GetContent(ctx, contentID)
	if err != nil {
		return nil, err
	}
	c.Active = false
	return c, nil
}

func TestPurchase(t *testing.T) {
	ctx := context.Background()

	t.Run("SettlesExactPayment", func(t *testing.T) {
		b, pay := newBazaar(t)
		mustRegister(t, b, "alice", "alice")
		c := mustPublish(t, b, "alice", "Track", 1000)

		rcpt, err := b.Purchase(ctx, "bob", c.ID, 1000)
		if err != nil {
			t.Fatal(err)
		}
		if rcpt.Price != 1000 || rcpt.PlatformFee != 50 || rcpt.CreatorShare != 950 {
			t.Fatalf("split = %d fee / %d share of %d, want 50/950",
				rcpt.PlatformFee.Int64(), rcpt.CreatorShare.Int64(), rcpt.Price.Int64())
		}
		if rcpt.Buyer != "bob" || rcpt.Creator != "alice" || rcpt.ContentID != c.ID {
			t.Fatalf("receipt parties wrong: %+v", rcpt)
		}
		if !strings.HasPrefix(rcpt.ID.String(), "rcpt_") {
			t.Fatalf("receipt id = %q, want rcpt_ prefix", rcpt.ID)
		}

		// The creator share moved through the collaborator with the receipt
		// id as the idempotency reference.
		calls := pay.callsTo("alice")
		if len(calls) != 1 {
			t.Fatalf("transfers to creator = %d, want 1", len(calls))
		}
		if calls[0].Amount != 950 || calls[0].Reference != rcpt.ID.String() {
			t.Fatalf("transfer = %+v", calls[0])
		}

		// The fee accrued to the platform.
		bal, err := b.PlatformBalance(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if bal != 50 {
			t.Fatalf("platform balance = %d, want 50", bal.Int64())
		}

		// The grant is queryable.
		has, err := b.HasPurchased(ctx, "bob", c.ID)
		if err != nil || !has {
			t.Fatalf("has = %v, %v, want true", has, err)
		}
		rec, err := b.GetPurchase(ctx, "bob", c.ID)
		if err != nil {
			t.Fatal(err)
		}
		if rec.ReceiptID != rcpt.ID {
			t.Fatalf("record receipt id = %v, want %v", rec.ReceiptID, rcpt.ID)
		}
	})

	t.Run("FeeRoundsDown", func(t *testing.T) {
		b, _ := newBazaar(t)
		mustRegister(t, b, "alice", "alice")
		c := mustPublish(t, b, "alice", "Odd", 999)

		rcpt, err := b.Purchase(ctx, "bob", c.ID, 999)
		if err != nil {
			t.Fatal(err)
		}
		// floor(999 * 5 / 100) = 49; the remainder goes to the creator.
		if rcpt.PlatformFee != 49 || rcpt.CreatorShare != 950 {
			t.Fatalf("split = %d/%d, want 49/950", rcpt.PlatformFee.Int64(), rcpt.CreatorShare.Int64())
		}
	})

	t.Run("ZeroFeePercent", func(t *testing.T) {
		b, pay := newBazaar(t, bazaar.WithFeePercent(0))
		mustRegister(t, b, "alice", "alice")
		c := mustPublish(t, b, "alice", "Free-fee", 1000)

		rcpt, err := b.Purchase(ctx, "bob", c.ID, 1000)
		if err != nil {
			t.Fatal(err)
		}
		if rcpt.PlatformFee != 0 || rcpt.CreatorShare != 1000 {
			t.Fatalf("split = %d/%d, want 0/1000", rcpt.PlatformFee.Int64(), rcpt.CreatorShare.Int64())
		}
		if calls := pay.callsTo("alice"); len(calls) != 1 || calls[0].Amount != 1000 {
			t.Fatalf("transfer calls = %+v", calls)
		}
	})

	t.Run("RejectsOverAndUnderPayment", func(t *testing.T) {
		b, _ := newBazaar(t)
		mustRegister(t, b, "alice", "alice")
		c := mustPublish(t, b, "alice", "Track", 1000)

		for _, paid := range []types.Credits{999, 1001, 0} {
			if _, err := b.Purchase(ctx, "bob", c.ID, paid); !errors.Is(err, bazaar.ErrIncorrectPayment) {
				t.Fatalf("paid %d: err = %v, want ErrIncorrectPayment", paid.Int64(), err)
			}
		}

		// Nothing settled.
		if has, _ := b.HasPurchased(ctx, "bob", c.ID); has {
			t.Fatal("rejected payment must not grant access")
		}
	})

	t.Run("RejectsRepurchase", func(t *testing.T) {
		b, _ := newBazaar(t)
		mustRegister(t, b, "alice", "alice")
		c := mustPublish(t, b, "alice", "Track", 1000)

		if _, err := b.Purchase(ctx, "bob", c.ID, 1000); err != nil {
			t.Fatal(err)
		}
		if _, err := b.Purchase(ctx, "bob", c.ID, 1000); !errors.Is(err, bazaar.ErrAlreadyPurchased) {
			t.Fatalf("err = %v, want ErrAlreadyPurchased", err)
		}

		// Counters unchanged by the rejected attempt.
		got, err := b.GetContent(ctx, c.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.PurchaseCount != 1 {
			t.Fatalf("purchase count = %d, want 1", got.PurchaseCount)
		}
	})

	t.Run("RejectsSelfPurchase", func(t *testing.T) {
		b, _ := newBazaar(t)
		mustRegister(t, b, "alice", "alice")
		c := mustPublish(t, b, "alice", "Track", 1000)

		if _, err := b.Purchase(ctx, "alice", c.ID, 1000); !errors.Is(err, bazaar.ErrSelfPurchase) {
			t.Fatalf("err = %v, want ErrSelfPurchase", err)
		}
	})

	t.Run("RejectsInactiveContent", func(t *testing.T) {
		pay := &fakeTransferer{}
		b := bazaar.New(&inactiveContentStore{Store: memory.New()},
			bazaar.WithLogger(quietLogger()),
			bazaar.WithPayments(pay),
		)
		if err := b.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer b.Stop()

		mustRegister(t, b, "alice", "alice")
		c := mustPublish(t, b, "alice", "Track", 1000)

		if _, err := b.Purchase(ctx, "bob", c.ID, 1000); !errors.Is(err, bazaar.ErrContentInactive) {
			t.Fatalf("err = %v, want ErrContentInactive", err)
		}
		// The inactive listing rejects before the payment amount is inspected.
		if _, err := b.Purchase(ctx, "bob", c.ID, 1); !errors.Is(err, bazaar.ErrContentInactive) {
			t.Fatalf("underpaid: err = %v, want ErrContentInactive", err)
		}
		if calls := pay.callsTo("alice"); len(calls) != 0 {
			t.Fatalf("transfers = %d, want 0", len(calls))
		}
	})

	t.Run("PaymentCheckedBeforeOwnership", func(t *testing.T) {
		b, _ := newBazaar(t)
		mustRegister(t, b, "alice", "alice")
		c := mustPublish(t, b, "alice", "Track", 1000)

		// A creator underpaying for their own listing sees the payment error,
		// not the self-purchase error.
		if _, err := b.Purchase(ctx, "alice", c.ID, 1); !errors.Is(err, bazaar.ErrIncorrectPayment) {
			t.Fatalf("err = %v, want ErrIncorrectPayment", err)
		}

		// Likewise an existing owner underpaying sees the payment error
		// before the duplicate-grant error.
		if _, err := b.Purchase(ctx, "bob", c.ID, 1000); err != nil {
			t.Fatal(err)
		}
		if _, err := b.Purchase(ctx, "bob", c.ID, 1); !errors.Is(err, bazaar.ErrIncorrectPayment) {
			t.Fatalf("err = %v, want ErrIncorrectPayment", err)
		}
	})

	t.Run("UnknownContent", func(t *testing.T) {
		b, _ := newBazaar(t)
		if _, err := b.Purchase(ctx, "bob", 42, 1000); !bazaar.IsNotFound(err) {
			t.Fatalf("err = %v, want not-found", err)
		}
	})

	t.Run("Validation", func(t *testing.T) {
		b, _ := newBazaar(t)
		if _, err := b.Purchase(ctx, "", 1, 100); !bazaar.IsValidation(err) {
			t.Fatalf("empty buyer: err = %v, want validation error", err)
		}
		if _, err := b.Purchase(ctx, "bob", 0, 100); !bazaar.IsValidation(err) {
			t.Fatalf("zero content id: err = %v, want validation error", err)
		}
	})

	t.Run("PaymentsNotConfigured", func(t *testing.T) {
		b := bazaar.New(memory.New(), bazaar.WithLogger(quietLogger()))
		if err := b.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer b.Stop()

		if _, err := b.Purchase(ctx, "bob", 1, 100); !errors.Is(err, bazaar.ErrPaymentsNotConfigured) {
			t.Fatalf("err = %v, want ErrPaymentsNotConfigured", err)
		}
	})
}

func TestPurchaseRollback(t *testing.T) {
	ctx := context.Background()

	b, pay := newBazaar(t)
	mustRegister(t, b, "alice", "alice")
	c := mustPublish(t, b, "alice", "Track", 1000)

	pay.setFail(errors.New("provider unreachable"))

	_, err := b.Purchase(ctx, "bob", c.ID, 1000)
	if !errors.Is(err, bazaar.ErrTransferFailed) {
		t.Fatalf("err = %v, want ErrTransferFailed", err)
	}
	if !bazaar.IsRetryable(err) {
		t.Fatal("transfer failure must be retryable")
	}

	// The buyer keeps nothing and every balance is back where it started.
	if has, _ := b.HasPurchased(ctx, "bob", c.ID); has {
		t.Fatal("rolled-back purchase must not grant access")
	}
	if bal, _ := b.PlatformBalance(ctx); !bal.IsZero() {
		t.Fatalf("platform balance = %d, want 0", bal.Int64())
	}
	cr, err := b.GetCreator(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if !cr.TotalEarnings.IsZero() {
		t.Fatalf("creator earnings = %d, want 0", cr.TotalEarnings.Int64())
	}
	got, err := b.GetContent(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.PurchaseCount != 0 || !got.TotalEarnings.IsZero() {
		t.Fatalf("content counters not reversed: %+v", got)
	}

	// The retry succeeds once the collaborator recovers.
	pay.setFail(nil)
	rcpt, err := b.Purchase(ctx, "bob", c.ID, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if rcpt.CreatorShare != 950 {
		t.Fatalf("retry share = %d, want 950", rcpt.CreatorShare.Int64())
	}
}

func TestPurchaseConcurrent(t *testing.T) {
	ctx := context.Background()

	b, pay := newBazaar(t)
	mustRegister(t, b, "alice", "alice")
	c := mustPublish(t, b, "alice", "Track", 1000)

	const attempts = 16
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = b.Purchase(ctx, "bob", c.ID, 1000)
		}(i)
	}
	wg.Wait()

	var successes int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, bazaar.ErrAlreadyPurchased):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("successes = %d, want exactly 1", successes)
	}

	// Exactly one settlement's worth of effects.
	got, err := b.GetContent(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.PurchaseCount != 1 || got.TotalEarnings != 950 {
		t.Fatalf("content counters = %d purchases, %d earned; want 1, 950",
			got.PurchaseCount, got.TotalEarnings.Int64())
	}
	if bal, _ := b.PlatformBalance(ctx); bal != 50 {
		t.Fatalf("platform balance = %d, want 50", bal.Int64())
	}
	if calls := pay.callsTo("alice"); len(calls) != 1 {
		t.Fatalf("creator transfers = %d, want 1", len(calls))
	}
}

// Every credit paid in is accounted for: platform fees plus creator earnings
// equal the sum of settled prices.
func TestAccountingClosure(t *testing.T) {
	ctx := context.Background()

	b, _ := newBazaar(t)
	mustRegister(t, b, "alice", "alice")
	mustRegister(t, b, "carol", "carol")

	prices := []types.Credits{1000, 999, 7, 123456, 1}
	contents := make([]int64, len(prices))
	for i, p := range prices {
		owner := types.Principal("alice")
		if i%2 == 1 {
			owner = "carol"
		}
		contents[i] = mustPublish(t, b, owner, "Item", p).ID
	}

	var total types.Credits
	for i, p := range prices {
		if _, err := b.Purchase(ctx, "bob", contents[i], p); err != nil {
			t.Fatal(err)
		}
		total = total.Add(p)
	}

	bal, err := b.PlatformBalance(ctx)
	if err != nil {
		t.Fatal(err)
	}
	alice, err := b.GetCreator(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	carol, err := b.GetCreator(ctx, "carol")
	if err != nil {
		t.Fatal(err)
	}

	sum := bal.Add(alice.TotalEarnings).Add(carol.TotalEarnings)
	if sum != total {
		t.Fatalf("fees %d + earnings %d + %d = %d, want %d paid in",
			bal.Int64(), alice.TotalEarnings.Int64(), carol.TotalEarnings.Int64(),
			sum.Int64(), total.Int64())
	}
}

func TestListPurchasesByBuyer(t *testing.T) {
	ctx := context.Background()

	b, _ := newBazaar(t)
	mustRegister(t, b, "alice", "alice")

	ids := make([]int64, 4)
	for i := range ids {
		ids[i] = mustPublish(t, b, "alice", "Item", 100).ID
	}
	for _, cid := range ids {
		if _, err := b.Purchase(ctx, "bob", cid, 100); err != nil {
			t.Fatal(err)
		}
	}
	// Another buyer's grants must not leak into bob's listing.
	if _, err := b.Purchase(ctx, "carol", ids[0], 100); err != nil {
		t.Fatal(err)
	}

	recs, err := b.ListPurchasesByBuyer(ctx, "bob", purchase.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != len(ids) {
		t.Fatalf("len = %d, want %d", len(recs), len(ids))
	}
	for i, rec := range recs {
		if rec.ContentID != ids[i] {
			t.Fatalf("grants out of purchase order: %v", recs)
		}
		if rec.Buyer != "bob" {
			t.Fatalf("foreign grant in listing: %+v", rec)
		}
	}

	page, err := b.ListPurchasesByBuyer(ctx, "bob", purchase.ListOpts{Offset: 2, Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].ContentID != ids[2] {
		t.Fatalf("page = %+v, want single grant for content %d", page, ids[2])
	}
}

package bazaar_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	bazaar "github.com/xraph/bazaar"
	"github.com/xraph/bazaar/store/memory"
)

func TestVerifyCreator(t *testing.T) {
	ctx := context.Background()

	t.Run("OwnerVerifies", func(t *testing.T) {
		b, _ := newBazaar(t)
		mustRegister(t, b, "alice", "alice")

		if err := b.VerifyCreator(ctx, testOwner, "alice"); err != nil {
			t.Fatal(err)
		}
		c, err := b.GetCreator(ctx, "alice")
		if err != nil {
			t.Fatal(err)
		}
		if !c.Verified {
			t.Fatal("creator not marked verified")
		}
	})

	t.Run("NonOwnerRejected", func(t *testing.T) {
		b, _ := newBazaar(t)
		mustRegister(t, b, "alice", "alice")

		if err := b.VerifyCreator(ctx, "mallory", "alice"); !errors.Is(err, bazaar.ErrUnauthorized) {
			t.Fatalf("err = %v, want ErrUnauthorized", err)
		}
		if err := b.VerifyCreator(ctx, "", "alice"); !errors.Is(err, bazaar.ErrUnauthorized) {
			t.Fatalf("empty caller: err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("UnknownCreator", func(t *testing.T) {
		b, _ := newBazaar(t)
		if err := b.VerifyCreator(ctx, testOwner, "ghost"); !bazaar.IsNotFound(err) {
			t.Fatalf("err = %v, want not-found", err)
		}
	})
}

func TestWithdrawPlatformFees(t *testing.T) {
	ctx := context.Background()

	// settleFees runs one purchase so the platform accrues a 50-credit fee.
	settleFees := func(t *testing.T, b *bazaar.Bazaar) {
		t.Helper()
		mustRegister(t, b, "alice", "alice")
		c := mustPublish(t, b, "alice", "Track", 1000)
		if _, err := b.Purchase(ctx, "bob", c.ID, 1000); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("SweepsBalance", func(t *testing.T) {
		b, pay := newBazaar(t)
		settleFees(t, b)

		amount, err := b.WithdrawPlatformFees(ctx, testOwner)
		if err != nil {
			t.Fatal(err)
		}
		if amount != 50 {
			t.Fatalf("withdrawn = %d, want 50", amount.Int64())
		}

		calls := pay.callsTo(testOwner)
		if len(calls) != 1 || calls[0].Amount != 50 {
			t.Fatalf("owner transfers = %+v", calls)
		}
		if !strings.HasPrefix(calls[0].Reference, "wdl_") {
			t.Fatalf("withdrawal reference = %q, want wdl_ prefix", calls[0].Reference)
		}

		if bal, _ := b.PlatformBalance(ctx); !bal.IsZero() {
			t.Fatalf("balance after sweep = %d, want 0", bal.Int64())
		}
	})

	t.Run("ZeroBalanceNoOp", func(t *testing.T) {
		b, pay := newBazaar(t)

		amount, err := b.WithdrawPlatformFees(ctx, testOwner)
		if err != nil {
			t.Fatal(err)
		}
		if !amount.IsZero() {
			t.Fatalf("withdrawn = %d, want 0", amount.Int64())
		}
		if calls := pay.callsTo(testOwner); len(calls) != 0 {
			t.Fatalf("zero withdrawal must not touch the collaborator: %+v", calls)
		}
	})

	t.Run("NonOwnerRejected", func(t *testing.T) {
		b, _ := newBazaar(t)
		settleFees(t, b)

		if _, err := b.WithdrawPlatformFees(ctx, "mallory"); !errors.Is(err, bazaar.ErrUnauthorized) {
			t.Fatalf("err = %v, want ErrUnauthorized", err)
		}
		if bal, _ := b.PlatformBalance(ctx); bal != 50 {
			t.Fatalf("balance = %d, want untouched 50", bal.Int64())
		}
	})

	t.Run("TransferFailureRestoresBalance", func(t *testing.T) {
		b, pay := newBazaar(t)
		settleFees(t, b)

		pay.setFail(errors.New("provider unreachable"))
		_, err := b.WithdrawPlatformFees(ctx, testOwner)
		if !errors.Is(err, bazaar.ErrTransferFailed) {
			t.Fatalf("err = %v, want ErrTransferFailed", err)
		}

		// The swept amount is queued again for the next attempt.
		if bal, _ := b.PlatformBalance(ctx); bal != 50 {
			t.Fatalf("balance = %d, want restored 50", bal.Int64())
		}

		pay.setFail(nil)
		amount, err := b.WithdrawPlatformFees(ctx, testOwner)
		if err != nil {
			t.Fatal(err)
		}
		if amount != 50 {
			t.Fatalf("retry withdrawn = %d, want 50", amount.Int64())
		}
	})
}

func TestTransferOwnership(t *testing.T) {
	ctx := context.Background()

	t.Run("OwnerHandsOver", func(t *testing.T) {
		b, _ := newBazaar(t)

		if err := b.TransferOwnership(ctx, testOwner, "successor"); err != nil {
			t.Fatal(err)
		}
		owner, err := b.Owner(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if owner != "successor" {
			t.Fatalf("owner = %q, want successor", owner)
		}

		// The previous owner lost all privileges.
		if _, err := b.WithdrawPlatformFees(ctx, testOwner); !errors.Is(err, bazaar.ErrUnauthorized) {
			t.Fatalf("stale owner err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("NonOwnerRejected", func(t *testing.T) {
		b, _ := newBazaar(t)
		if err := b.TransferOwnership(ctx, "mallory", "mallory"); !errors.Is(err, bazaar.ErrUnauthorized) {
			t.Fatalf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("Validation", func(t *testing.T) {
		b, _ := newBazaar(t)
		if err := b.TransferOwnership(ctx, "", "next"); !errors.Is(err, bazaar.ErrUnauthorized) {
			t.Fatalf("empty caller: err = %v, want ErrUnauthorized", err)
		}
		if err := b.TransferOwnership(ctx, testOwner, ""); !bazaar.IsValidation(err) {
			t.Fatalf("empty next: err = %v, want validation error", err)
		}
	})
}

func TestWithdrawWithoutPayments(t *testing.T) {
	ctx := context.Background()

	b := bazaar.New(memory.New(),
		bazaar.WithLogger(quietLogger()),
		bazaar.WithOwner(testOwner),
	)
	if err := b.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer b.Stop()

	if _, err := b.WithdrawPlatformFees(ctx, testOwner); !errors.Is(err, bazaar.ErrPaymentsNotConfigured) {
		t.Fatalf("err = %v, want ErrPaymentsNotConfigured", err)
	}
}

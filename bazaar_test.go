package bazaar_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	bazaar "github.com/xraph/bazaar"
	"github.com/xraph/bazaar/content"
	"github.com/xraph/bazaar/payment"
	"github.com/xraph/bazaar/store/memory"
	"github.com/xraph/bazaar/types"
)

// transferCall records one call to the fake payment collaborator.
type transferCall struct {
	To        types.Principal
	Amount    types.Credits
	Reference string
}

// fakeTransferer is an in-memory payment collaborator. Set fail to make every
// Transfer return that error.
type fakeTransferer struct {
	mu    sync.Mutex
	calls []transferCall
	fail  error
}

func (f *fakeTransferer) Transfer(_ context.Context, to types.Principal, amount types.Credits, reference string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.calls = append(f.calls, transferCall{To: to, Amount: amount, Reference: reference})
	return nil
}

func (f *fakeTransferer) setFail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = err
}

func (f *fakeTransferer) callsTo(to types.Principal) []transferCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]transferCall, 0, len(f.calls))
	for _, c := range f.calls {
		if c.To == to {
			out = append(out, c)
		}
	}
	return out
}

const testOwner = types.Principal("admin")

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newBazaar starts an engine on a fresh memory store with a working payment
// collaborator and testOwner installed as platform owner.
func newBazaar(t *testing.T, opts ...bazaar.Option) (*bazaar.Bazaar, *fakeTransferer) {
	t.Helper()

	pay := &fakeTransferer{}
	all := append([]bazaar.Option{
		bazaar.WithLogger(quietLogger()),
		bazaar.WithPayments(pay),
		bazaar.WithOwner(testOwner),
	}, opts...)

	b := bazaar.New(memory.New(), all...)
	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = b.Stop() })
	return b, pay
}

// mustRegister registers a creator or fails the test.
func mustRegister(t *testing.T, b *bazaar.Bazaar, principal types.Principal, handle string) {
	t.Helper()
	if _, err := b.RegisterCreator(context.Background(), principal, handle); err != nil {
		t.Fatalf("register %s: %v", principal, err)
	}
}

// mustPublish publishes a priced listing and returns it.
func mustPublish(t *testing.T, b *bazaar.Bazaar, principal types.Principal, title string, price types.Credits) *content.Content {
	t.Helper()
	c, err := b.PublishContent(context.Background(), principal, bazaar.PublishInput{
		Title:      title,
		ContentRef: "s3://bazaar-content/" + title,
		Price:      price,
	})
	if err != nil {
		t.Fatalf("publish %q: %v", title, err)
	}
	return c
}

func TestRegisterCreator(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		b, _ := newBazaar(t)

		c, err := b.RegisterCreator(ctx, "alice", "  Alice  ")
		if err != nil {
			t.Fatal(err)
		}
		if c.Principal != "alice" {
			t.Errorf("principal = %q, want alice", c.Principal)
		}
		if c.Handle != "Alice" {
			t.Errorf("handle = %q, want trimmed Alice", c.Handle)
		}
		if c.Verified {
			t.Error("new creator must start unverified")
		}
		if c.ContentCount != 0 || !c.TotalEarnings.IsZero() {
			t.Error("new creator must start with zero counters")
		}

		got, err := b.GetCreator(ctx, "alice")
		if err != nil {
			t.Fatal(err)
		}
		if got.Handle != "Alice" {
			t.Errorf("stored handle = %q", got.Handle)
		}
	})

	t.Run("DuplicateRejected", func(t *testing.T) {
		b, _ := newBazaar(t)
		mustRegister(t, b, "alice", "alice")

		_, err := b.RegisterCreator(ctx, "alice", "other-handle")
		if !errors.Is(err, bazaar.ErrAlreadyRegistered) {
			t.Fatalf("err = %v, want ErrAlreadyRegistered", err)
		}
	})

	t.Run("SharedHandleAllowed", func(t *testing.T) {
		b, _ := newBazaar(t)
		mustRegister(t, b, "alice", "studio")
		mustRegister(t, b, "bob", "studio")
	})

	t.Run("EmptyPrincipal", func(t *testing.T) {
		b, _ := newBazaar(t)
		if _, err := b.RegisterCreator(ctx, "", "alice"); !bazaar.IsValidation(err) {
			t.Fatalf("err = %v, want validation error", err)
		}
	})

	t.Run("EmptyHandle", func(t *testing.T) {
		b, _ := newBazaar(t)
		if _, err := b.RegisterCreator(ctx, "alice", "   "); !bazaar.IsValidation(err) {
			t.Fatalf("err = %v, want validation error", err)
		}
	})

	t.Run("UnknownCreatorNotFound", func(t *testing.T) {
		b, _ := newBazaar(t)
		if _, err := b.GetCreator(ctx, "ghost"); !bazaar.IsNotFound(err) {
			t.Fatalf("err = %v, want not-found", err)
		}
	})
}

func TestPublishContent(t *testing.T) {
	ctx := context.Background()

	t.Run("AssignsDenseIDs", func(t *testing.T) {
		b, _ := newBazaar(t)
		mustRegister(t, b, "alice", "alice")
		mustRegister(t, b, "bob", "bob")

		c1 := mustPublish(t, b, "alice", "First", 100)
		c2 := mustPublish(t, b, "bob", "Second", 200)
		c3 := mustPublish(t, b, "alice", "Third", 300)

		if c1.ID != 1 || c2.ID != 2 || c3.ID != 3 {
			t.Fatalf("ids = %d, %d, %d, want 1, 2, 3", c1.ID, c2.ID, c3.ID)
		}
		if !c1.Active {
			t.Error("listings must be born active")
		}
	})

	t.Run("BumpsCreatorContentCount", func(t *testing.T) {
		b, _ := newBazaar(t)
		mustRegister(t, b, "alice", "alice")
		mustPublish(t, b, "alice", "One", 100)
		mustPublish(t, b, "alice", "Two", 100)

		c, err := b.GetCreator(ctx, "alice")
		if err != nil {
			t.Fatal(err)
		}
		if c.ContentCount != 2 {
			t.Errorf("content count = %d, want 2", c.ContentCount)
		}
	})

	t.Run("UnregisteredCreator", func(t *testing.T) {
		b, _ := newBazaar(t)
		_, err := b.PublishContent(ctx, "ghost", bazaar.PublishInput{Title: "X", ContentRef: "ref", Price: 100})
		if !errors.Is(err, bazaar.ErrNotRegistered) {
			t.Fatalf("err = %v, want ErrNotRegistered", err)
		}
	})

	t.Run("Validation", func(t *testing.T) {
		b, _ := newBazaar(t)
		mustRegister(t, b, "alice", "alice")

		cases := []struct {
			name string
			in   bazaar.PublishInput
		}{
			{"EmptyTitle", bazaar.PublishInput{Title: "  ", ContentRef: "ref", Price: 100}},
			{"EmptyContentRef", bazaar.PublishInput{Title: "X", ContentRef: "  ", Price: 100}},
			{"ZeroPrice", bazaar.PublishInput{Title: "X", ContentRef: "ref", Price: 0}},
			{"NegativePrice", bazaar.PublishInput{Title: "X", ContentRef: "ref", Price: -5}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if _, err := b.PublishContent(ctx, "alice", tc.in); !bazaar.IsValidation(err) {
					t.Fatalf("err = %v, want validation error", err)
				}
			})
		}
	})

	t.Run("ListByCreator", func(t *testing.T) {
		b, _ := newBazaar(t)
		mustRegister(t, b, "alice", "alice")
		mustRegister(t, b, "bob", "bob")
		mustPublish(t, b, "alice", "A1", 100)
		mustPublish(t, b, "bob", "B1", 100)
		mustPublish(t, b, "alice", "A2", 100)
		mustPublish(t, b, "alice", "A3", 100)

		all, err := b.ListContentByCreator(ctx, "alice", content.ListOpts{})
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != 3 {
			t.Fatalf("len = %d, want 3", len(all))
		}
		for i := 1; i < len(all); i++ {
			if all[i-1].ID >= all[i].ID {
				t.Fatalf("listing out of publication order: %d before %d", all[i-1].ID, all[i].ID)
			}
		}

		page, err := b.ListContentByCreator(ctx, "alice", content.ListOpts{Offset: 1, Limit: 1})
		if err != nil {
			t.Fatal(err)
		}
		if len(page) != 1 || page[0].Title != "A2" {
			t.Fatalf("page = %+v, want single A2", page)
		}
	})

	t.Run("GetContentUnknown", func(t *testing.T) {
		b, _ := newBazaar(t)
		if _, err := b.GetContent(ctx, 42); !bazaar.IsNotFound(err) {
			t.Fatalf("err = %v, want not-found", err)
		}
	})
}

func TestEngineLifecycle(t *testing.T) {
	t.Run("OwnerInstalledOnce", func(t *testing.T) {
		ctx := context.Background()
		st := memory.New()

		b := bazaar.New(st, bazaar.WithLogger(quietLogger()), bazaar.WithOwner("first"))
		if err := b.Start(ctx); err != nil {
			t.Fatal(err)
		}

		// A second engine over the same store must not displace the owner.
		b2 := bazaar.New(st, bazaar.WithLogger(quietLogger()), bazaar.WithOwner("second"))
		if err := b2.Start(ctx); err != nil {
			t.Fatal(err)
		}

		owner, err := b2.Owner(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if owner != "first" {
			t.Fatalf("owner = %q, want first", owner)
		}
	})

	t.Run("StopClosesStore", func(t *testing.T) {
		st := memory.New()
		b := bazaar.New(st, bazaar.WithLogger(quietLogger()))
		if err := b.Start(context.Background()); err != nil {
			t.Fatal(err)
		}
		if err := b.Stop(); err != nil {
			t.Fatal(err)
		}
		if err := st.Ping(context.Background()); !errors.Is(err, bazaar.ErrStoreClosed) {
			t.Fatalf("ping after stop = %v, want ErrStoreClosed", err)
		}
	})

	t.Run("FeePercentDefault", func(t *testing.T) {
		b := bazaar.New(memory.New(), bazaar.WithLogger(quietLogger()))
		if b.FeePercent() != bazaar.DefaultFeePercent {
			t.Fatalf("fee percent = %d, want %d", b.FeePercent(), bazaar.DefaultFeePercent)
		}
	})

	t.Run("FeePercentOutOfRangeIgnored", func(t *testing.T) {
		b := bazaar.New(memory.New(),
			bazaar.WithLogger(quietLogger()),
			bazaar.WithFeePercent(101),
		)
		if b.FeePercent() != bazaar.DefaultFeePercent {
			t.Fatalf("fee percent = %d, want default", b.FeePercent())
		}
	})
}

// paymentsPlugin exposes a payment.Transferer through the plugin registry.
type paymentsPlugin struct {
	transferer payment.Transferer
}

func (p *paymentsPlugin) Name() string          { return "test-payments" }
func (p *paymentsPlugin) Provider() interface{} { return p.transferer }

// A payment collaborator supplied via a provider plugin is picked up at Start
// when none was configured directly.
func TestPaymentProviderResolution(t *testing.T) {
	ctx := context.Background()

	pay := &fakeTransferer{}
	b := bazaar.New(memory.New(),
		bazaar.WithLogger(quietLogger()),
		bazaar.WithOwner(testOwner),
		bazaar.WithPlugin(&paymentsPlugin{transferer: pay}),
	)
	if err := b.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer b.Stop()

	mustRegister(t, b, "alice", "alice")
	c := mustPublish(t, b, "alice", "Track", 1000)

	if _, err := b.Purchase(ctx, "bob", c.ID, 1000); err != nil {
		t.Fatal(err)
	}
	if calls := pay.callsTo("alice"); len(calls) != 1 {
		t.Fatalf("plugin-provided collaborator saw %d transfers, want 1", len(calls))
	}
}

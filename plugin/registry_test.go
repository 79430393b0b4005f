package plugin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
)

// hookPlugin implements a subset of lifecycle hooks and counts invocations.
type hookPlugin struct {
	name       string
	inits      atomic.Int64
	purchases  atomic.Int64
	rollbacks  atomic.Int64
	lastBuyer  string
	lastAmount int64
	fail       error
}

func (p *hookPlugin) Name() string { return p.name }

func (p *hookPlugin) OnInit(_ context.Context, _ interface{}) error {
	p.inits.Add(1)
	return p.fail
}

func (p *hookPlugin) OnContentPurchased(_ context.Context, _ interface{}) error {
	p.purchases.Add(1)
	return p.fail
}

func (p *hookPlugin) OnSettlementRolledBack(_ context.Context, buyer string, _ int64, _ error) error {
	p.rollbacks.Add(1)
	p.lastBuyer = buyer
	return nil
}

func (p *hookPlugin) OnFeesWithdrawn(_ context.Context, _ string, amount int64) error {
	p.lastAmount = amount
	return nil
}

// bareNamePlugin implements only Plugin.
type bareNamePlugin struct{ name string }

func (p *bareNamePlugin) Name() string { return p.name }

// providerPlugin exposes a payment provider.
type providerPlugin struct {
	name     string
	provider interface{}
}

func (p *providerPlugin) Name() string          { return p.name }
func (p *providerPlugin) Provider() interface{} { return p.provider }

func newTestRegistry() *Registry {
	return NewRegistry().WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegistryRegister(t *testing.T) {
	r := newTestRegistry()

	if err := r.Register(&hookPlugin{name: "hooks"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&bareNamePlugin{name: "bare"}); err != nil {
		t.Fatal(err)
	}

	if r.Count() != 2 {
		t.Fatalf("count = %d, want 2", r.Count())
	}
	if r.Get("hooks") == nil || r.Get("bare") == nil {
		t.Fatal("registered plugins must be retrievable by name")
	}
	if r.Get("missing") != nil {
		t.Fatal("unknown plugin lookup must return nil")
	}
	if len(r.List()) != 2 {
		t.Fatalf("list = %d plugins, want 2", len(r.List()))
	}
}

func TestRegistryDuplicateName(t *testing.T) {
	r := newTestRegistry()

	if err := r.Register(&hookPlugin{name: "dup"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&bareNamePlugin{name: "dup"}); err == nil {
		t.Fatal("duplicate name must be rejected")
	}
}

func TestRegistryDispatch(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	hooked := &hookPlugin{name: "hooks"}
	if err := r.Register(hooked); err != nil {
		t.Fatal(err)
	}
	// A plugin without the hook must simply be skipped.
	if err := r.Register(&bareNamePlugin{name: "bare"}); err != nil {
		t.Fatal(err)
	}

	r.EmitInit(ctx, nil)
	r.EmitContentPurchased(ctx, nil)
	r.EmitContentPurchased(ctx, nil)
	r.EmitSettlementRolledBack(ctx, "bob", 7, errors.New("transfer failed"))
	r.EmitFeesWithdrawn(ctx, "admin", 50)

	if got := hooked.inits.Load(); got != 1 {
		t.Errorf("inits = %d, want 1", got)
	}
	if got := hooked.purchases.Load(); got != 2 {
		t.Errorf("purchases = %d, want 2", got)
	}
	if got := hooked.rollbacks.Load(); got != 1 {
		t.Errorf("rollbacks = %d, want 1", got)
	}
	if hooked.lastBuyer != "bob" {
		t.Errorf("buyer = %q, want bob", hooked.lastBuyer)
	}
	if hooked.lastAmount != 50 {
		t.Errorf("amount = %d, want 50", hooked.lastAmount)
	}
}

func TestRegistryHookErrorsDoNotPropagate(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	failing := &hookPlugin{name: "failing", fail: errors.New("boom")}
	healthy := &hookPlugin{name: "healthy"}
	if err := r.Register(failing); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(healthy); err != nil {
		t.Fatal(err)
	}

	// A failing hook is logged and must not stop later plugins.
	r.EmitContentPurchased(ctx, nil)

	if got := healthy.purchases.Load(); got != 1 {
		t.Fatalf("healthy plugin purchases = %d, want 1", got)
	}
}

func TestRegistryPaymentProviders(t *testing.T) {
	r := newTestRegistry()

	marker := struct{ name string }{"provider"}
	if err := r.Register(&providerPlugin{name: "payments", provider: marker}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&hookPlugin{name: "hooks"}); err != nil {
		t.Fatal(err)
	}

	providers := r.GetPaymentProviders()
	if len(providers) != 1 {
		t.Fatalf("providers = %d, want 1", len(providers))
	}
	if providers[0].Name() != "payments" {
		t.Fatalf("provider name = %q", providers[0].Name())
	}
	if providers[0].Provider() != marker {
		t.Fatal("provider payload lost in registration")
	}
}

package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit                 []OnInit
	onShutdown             []OnShutdown
	onCreatorRegistered    []OnCreatorRegistered
	onCreatorVerified      []OnCreatorVerified
	onContentPublished     []OnContentPublished
	onContentPurchased     []OnContentPurchased
	onSettlementRolledBack []OnSettlementRolledBack
	onFeesWithdrawn        []OnFeesWithdrawn
	onOwnershipTransferred []OnOwnershipTransferred
	paymentProviders       []PaymentProviderPlugin
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnCreatorRegistered); ok {
		r.onCreatorRegistered = append(r.onCreatorRegistered, v)
	}
	if v, ok := p.(OnCreatorVerified); ok {
		r.onCreatorVerified = append(r.onCreatorVerified, v)
	}
	if v, ok := p.(OnContentPublished); ok {
		r.onContentPublished = append(r.onContentPublished, v)
	}
	if v, ok := p.(OnContentPurchased); ok {
		r.onContentPurchased = append(r.onContentPurchased, v)
	}
	if v, ok := p.(OnSettlementRolledBack); ok {
		r.onSettlementRolledBack = append(r.onSettlementRolledBack, v)
	}
	if v, ok := p.(OnFeesWithdrawn); ok {
		r.onFeesWithdrawn = append(r.onFeesWithdrawn, v)
	}
	if v, ok := p.(OnOwnershipTransferred); ok {
		r.onOwnershipTransferred = append(r.onOwnershipTransferred, v)
	}
	if v, ok := p.(PaymentProviderPlugin); ok {
		r.paymentProviders = append(r.paymentProviders, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	// List all interfaces to check
	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnCreatorRegistered)(nil)).Elem(), "OnCreatorRegistered")
	checkInterface(reflect.TypeOf((*OnCreatorVerified)(nil)).Elem(), "OnCreatorVerified")
	checkInterface(reflect.TypeOf((*OnContentPublished)(nil)).Elem(), "OnContentPublished")
	checkInterface(reflect.TypeOf((*OnContentPurchased)(nil)).Elem(), "OnContentPurchased")
	checkInterface(reflect.TypeOf((*OnSettlementRolledBack)(nil)).Elem(), "OnSettlementRolledBack")
	checkInterface(reflect.TypeOf((*OnFeesWithdrawn)(nil)).Elem(), "OnFeesWithdrawn")
	checkInterface(reflect.TypeOf((*OnOwnershipTransferred)(nil)).Elem(), "OnOwnershipTransferred")
	checkInterface(reflect.TypeOf((*PaymentProviderPlugin)(nil)).Elem(), "PaymentProvider")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, bazaar interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, bazaar)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCreatorRegistered emits a creator registered event.
func (r *Registry) EmitCreatorRegistered(ctx context.Context, creator interface{}) {
	r.mu.RLock()
	plugins := r.onCreatorRegistered
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCreatorRegistered(ctx, creator)
		}); err != nil {
			r.logger.Warn("plugin OnCreatorRegistered failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCreatorVerified emits a creator verified event.
func (r *Registry) EmitCreatorVerified(ctx context.Context, principal string) {
	r.mu.RLock()
	plugins := r.onCreatorVerified
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCreatorVerified(ctx, principal)
		}); err != nil {
			r.logger.Warn("plugin OnCreatorVerified failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitContentPublished emits a content published event.
func (r *Registry) EmitContentPublished(ctx context.Context, content interface{}) {
	r.mu.RLock()
	plugins := r.onContentPublished
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnContentPublished(ctx, content)
		}); err != nil {
			r.logger.Warn("plugin OnContentPublished failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitContentPurchased emits a content purchased event.
func (r *Registry) EmitContentPurchased(ctx context.Context, receipt interface{}) {
	r.mu.RLock()
	plugins := r.onContentPurchased
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnContentPurchased(ctx, receipt)
		}); err != nil {
			r.logger.Warn("plugin OnContentPurchased failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSettlementRolledBack emits a settlement rolled back event.
func (r *Registry) EmitSettlementRolledBack(ctx context.Context, buyer string, contentID int64, cause error) {
	r.mu.RLock()
	plugins := r.onSettlementRolledBack
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSettlementRolledBack(ctx, buyer, contentID, cause)
		}); err != nil {
			r.logger.Warn("plugin OnSettlementRolledBack failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitFeesWithdrawn emits a fees withdrawn event.
func (r *Registry) EmitFeesWithdrawn(ctx context.Context, owner string, amount int64) {
	r.mu.RLock()
	plugins := r.onFeesWithdrawn
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnFeesWithdrawn(ctx, owner, amount)
		}); err != nil {
			r.logger.Warn("plugin OnFeesWithdrawn failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitOwnershipTransferred emits an ownership transferred event.
func (r *Registry) EmitOwnershipTransferred(ctx context.Context, previous, next string) {
	r.mu.RLock()
	plugins := r.onOwnershipTransferred
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnOwnershipTransferred(ctx, previous, next)
		}); err != nil {
			r.logger.Warn("plugin OnOwnershipTransferred failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// GetPaymentProviders returns all registered payment provider plugins.
func (r *Registry) GetPaymentProviders() []PaymentProviderPlugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]PaymentProviderPlugin, len(r.paymentProviders))
	copy(result, r.paymentProviders)
	return result
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the settlement pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}

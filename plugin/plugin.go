// Package plugin provides an extensible plugin system for Bazaar.
// Plugins can hook into marketplace lifecycle events to extend
// functionality: indexing, analytics, audit trails, metrics, payment
// providers. Hooks fire after the corresponding state transition has
// committed; a hook error is logged and never rolled back into the ledger.
package plugin

import "context"

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, b interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Creator registry hooks
// ──────────────────────────────────────────────────

// OnCreatorRegistered is called when a new creator registers.
type OnCreatorRegistered interface {
	Plugin
	OnCreatorRegistered(ctx context.Context, creator interface{}) error
}

// OnCreatorVerified is called when the platform owner verifies a creator.
type OnCreatorVerified interface {
	Plugin
	OnCreatorVerified(ctx context.Context, principal string) error
}

// ──────────────────────────────────────────────────
// Content catalog hooks
// ──────────────────────────────────────────────────

// OnContentPublished is called when a creator publishes new content.
type OnContentPublished interface {
	Plugin
	OnContentPublished(ctx context.Context, content interface{}) error
}

// ──────────────────────────────────────────────────
// Settlement hooks
// ──────────────────────────────────────────────────

// OnContentPurchased is called after a purchase settles: the ledger
// mutation committed and the creator-share transfer completed.
type OnContentPurchased interface {
	Plugin
	OnContentPurchased(ctx context.Context, receipt interface{}) error
}

// OnSettlementRolledBack is called when a settlement was reversed because
// the fund transfer failed. No access was granted; the buyer may retry.
type OnSettlementRolledBack interface {
	Plugin
	OnSettlementRolledBack(ctx context.Context, buyer string, contentID int64, cause error) error
}

// ──────────────────────────────────────────────────
// Administration hooks
// ──────────────────────────────────────────────────

// OnFeesWithdrawn is called when accumulated platform fees are swept to
// the platform owner.
type OnFeesWithdrawn interface {
	Plugin
	OnFeesWithdrawn(ctx context.Context, owner string, amount int64) error
}

// OnOwnershipTransferred is called when platform ownership changes hands.
type OnOwnershipTransferred interface {
	Plugin
	OnOwnershipTransferred(ctx context.Context, previous, next string) error
}

// ──────────────────────────────────────────────────
// Payment provider hooks
// ──────────────────────────────────────────────────

// PaymentProviderPlugin provides a payment transferer implementation.
type PaymentProviderPlugin interface {
	Plugin
	Provider() interface{} // Returns payment.Transferer
}

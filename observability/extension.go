// Package observability provides a metrics extension for Bazaar that records
// lifecycle event counts and settlement amounts. It declares its own
// Counter/Histogram/MetricFactory interfaces so any metrics backend can be
// adapted without this package binding an SDK.
package observability

import (
	"context"

	"github.com/xraph/bazaar/plugin"
	"github.com/xraph/bazaar/purchase"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                 = (*MetricsExtension)(nil)
	_ plugin.OnInit                 = (*MetricsExtension)(nil)
	_ plugin.OnCreatorRegistered    = (*MetricsExtension)(nil)
	_ plugin.OnCreatorVerified      = (*MetricsExtension)(nil)
	_ plugin.OnContentPublished     = (*MetricsExtension)(nil)
	_ plugin.OnContentPurchased     = (*MetricsExtension)(nil)
	_ plugin.OnSettlementRolledBack = (*MetricsExtension)(nil)
	_ plugin.OnFeesWithdrawn        = (*MetricsExtension)(nil)
	_ plugin.OnOwnershipTransferred = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Bazaar plugin to automatically track marketplace metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Creator metrics
	CreatorRegistered Counter
	CreatorVerified   Counter

	// Content metrics
	ContentPublished Counter

	// Settlement metrics
	ContentPurchased     Counter
	SettlementRolledBack Counter
	PurchaseAmount       Histogram

	// Administration metrics
	FeesWithdrawn        Counter
	WithdrawalAmount     Histogram
	OwnershipTransferred Counter

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Creator metrics
		CreatorRegistered: factory.Counter("bazaar.creator.registered"),
		CreatorVerified:   factory.Counter("bazaar.creator.verified"),

		// Content metrics
		ContentPublished: factory.Counter("bazaar.content.published"),

		// Settlement metrics
		ContentPurchased:     factory.Counter("bazaar.purchase.settled"),
		SettlementRolledBack: factory.Counter("bazaar.purchase.rolled_back"),
		PurchaseAmount:       factory.Histogram("bazaar.purchase.amount"),

		// Administration metrics
		FeesWithdrawn:        factory.Counter("bazaar.fees.withdrawn"),
		WithdrawalAmount:     factory.Histogram("bazaar.fees.withdrawal_amount"),
		OwnershipTransferred: factory.Counter("bazaar.ownership.transferred"),

		// Error metrics
		StoreErrors:  factory.Counter("bazaar.store.errors"),
		PluginErrors: factory.Counter("bazaar.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Creator lifecycle hooks
// ──────────────────────────────────────────────────

// OnCreatorRegistered implements plugin.OnCreatorRegistered.
func (m *MetricsExtension) OnCreatorRegistered(_ context.Context, _ interface{}) error {
	m.CreatorRegistered.Inc()
	return nil
}

// OnCreatorVerified implements plugin.OnCreatorVerified.
func (m *MetricsExtension) OnCreatorVerified(_ context.Context, _ string) error {
	m.CreatorVerified.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Content lifecycle hooks
// ──────────────────────────────────────────────────

// OnContentPublished implements plugin.OnContentPublished.
func (m *MetricsExtension) OnContentPublished(_ context.Context, _ interface{}) error {
	m.ContentPublished.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Settlement lifecycle hooks
// ──────────────────────────────────────────────────

// OnContentPurchased implements plugin.OnContentPurchased.
func (m *MetricsExtension) OnContentPurchased(_ context.Context, receipt interface{}) error {
	m.ContentPurchased.Inc()
	if r, ok := receipt.(*purchase.Receipt); ok {
		m.PurchaseAmount.Observe(float64(r.Price.Int64()))
	}
	return nil
}

// OnSettlementRolledBack implements plugin.OnSettlementRolledBack.
func (m *MetricsExtension) OnSettlementRolledBack(_ context.Context, _ string, _ int64, _ error) error {
	m.SettlementRolledBack.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Administration lifecycle hooks
// ──────────────────────────────────────────────────

// OnFeesWithdrawn implements plugin.OnFeesWithdrawn.
func (m *MetricsExtension) OnFeesWithdrawn(_ context.Context, _ string, amount int64) error {
	m.FeesWithdrawn.Inc()
	m.WithdrawalAmount.Observe(float64(amount))
	return nil
}

// OnOwnershipTransferred implements plugin.OnOwnershipTransferred.
func (m *MetricsExtension) OnOwnershipTransferred(_ context.Context, _, _ string) error {
	m.OwnershipTransferred.Inc()
	return nil
}

package extension

import (
	"github.com/xraph/grove"

	bazaar "github.com/xraph/bazaar"
	"github.com/xraph/bazaar/payment"
	"github.com/xraph/bazaar/plugin"
	"github.com/xraph/bazaar/store"
	storemongo "github.com/xraph/bazaar/store/mongo"
	"github.com/xraph/bazaar/store/postgres"
	"github.com/xraph/bazaar/store/sqlite"
)

// Option configures the Bazaar Forge extension.
type Option func(*Extension)

// WithStore sets the store for the marketplace engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithPostgres backs the engine with a Postgres store built on the given grove.DB.
func WithPostgres(db *grove.DB) Option {
	return func(e *Extension) {
		e.store = postgres.New(db)
	}
}

// WithSQLite backs the engine with a SQLite store built on the given grove.DB.
func WithSQLite(db *grove.DB) Option {
	return func(e *Extension) {
		e.store = sqlite.New(db)
	}
}

// WithMongo backs the engine with a MongoDB store built on the given grove.DB.
func WithMongo(db *grove.DB) Option {
	return func(e *Extension) {
		e.store = storemongo.New(db)
	}
}

// WithBazaarOption passes a bazaar.Option through to the underlying engine.
func WithBazaarOption(opt bazaar.Option) Option {
	return func(e *Extension) {
		e.bazaarOpts = append(e.bazaarOpts, opt)
	}
}

// WithPlugin registers a marketplace plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.bazaarOpts = append(e.bazaarOpts, bazaar.WithPlugin(p))
	}
}

// WithPayments sets the payment collaborator for the engine.
func WithPayments(t payment.Transferer) Option {
	return func(e *Extension) {
		e.bazaarOpts = append(e.bazaarOpts, bazaar.WithPayments(t))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithFeePercent sets the platform fee retained from every purchase.
func WithFeePercent(percent int64) Option {
	return func(e *Extension) { e.config.FeePercent = percent }
}

// WithOwner sets the bootstrap platform owner principal.
func WithOwner(owner string) Option {
	return func(e *Extension) { e.config.Owner = owner }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

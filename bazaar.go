package bazaar

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/xraph/bazaar/content"
	"github.com/xraph/bazaar/creator"
	"github.com/xraph/bazaar/payment"
	"github.com/xraph/bazaar/plugin"
	"github.com/xraph/bazaar/purchase"
	"github.com/xraph/bazaar/store"
	"github.com/xraph/bazaar/types"
)

// DefaultFeePercent is the platform's cut of every sale, in whole percent.
const DefaultFeePercent = 5

// Bazaar is the main marketplace ledger engine.
type Bazaar struct {
	store    store.Store
	plugins  *plugin.Registry
	payments payment.Transferer
	logger   *slog.Logger

	// Configuration
	feePercent  int64
	owner       types.Principal
	skipMigrate bool
	nowFn       func() time.Time
}

// New creates a new Bazaar instance.
func New(s store.Store, opts ...Option) *Bazaar {
	b := &Bazaar{
		store:      s,
		plugins:    plugin.NewRegistry(),
		logger:     slog.Default(),
		feePercent: DefaultFeePercent,
		nowFn:      time.Now,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Option configures a Bazaar instance.
type Option func(*Bazaar)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bazaar) {
		b.logger = logger
		b.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(b *Bazaar) {
		_ = b.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPayments sets the fund-transfer collaborator. It takes precedence over
// any PaymentProviderPlugin discovered at Start.
func WithPayments(t payment.Transferer) Option {
	return func(b *Bazaar) {
		b.payments = t
	}
}

// WithFeePercent overrides the platform fee percentage. Values outside
// [0, 100] are ignored.
func WithFeePercent(percent int64) Option {
	return func(b *Bazaar) {
		if percent >= 0 && percent <= 100 {
			b.feePercent = percent
		}
	}
}

// WithOwner sets the bootstrap platform owner, installed at Start only if the
// store has no owner yet.
func WithOwner(owner types.Principal) Option {
	return func(b *Bazaar) {
		b.owner = owner
	}
}

// WithoutMigrate skips the store migration at Start. Use when migrations run
// out of band.
func WithoutMigrate() Option {
	return func(b *Bazaar) {
		b.skipMigrate = true
	}
}

// WithNowFunc overrides the clock. Intended for tests.
func WithNowFunc(fn func() time.Time) Option {
	return func(b *Bazaar) {
		if fn != nil {
			b.nowFn = fn
		}
	}
}

// Start prepares the engine: runs store migrations, installs the bootstrap
// owner, resolves a payment provider from plugins if none was configured,
// and initializes plugins.
func (b *Bazaar) Start(ctx context.Context) error {
	if !b.skipMigrate {
		if err := b.store.Migrate(ctx); err != nil {
			return err
		}
	}

	if !b.owner.IsZero() {
		if err := b.store.InitOwner(ctx, b.owner); err != nil {
			return err
		}
	}

	if b.payments == nil {
		for _, pp := range b.plugins.GetPaymentProviders() {
			if t, ok := pp.Provider().(payment.Transferer); ok {
				b.payments = t
				b.logger.Info("payment provider resolved from plugin", "plugin", pp.Name())
				break
			}
		}
	}

	// Initialize plugins
	b.plugins.EmitInit(ctx, b)

	b.logger.Info("bazaar started",
		"fee_percent", b.feePercent,
		"payments_configured", b.payments != nil,
	)

	return nil
}

// Stop shuts down the Bazaar.
func (b *Bazaar) Stop() error {
	ctx := context.Background()
	b.plugins.EmitShutdown(ctx)

	return b.store.Close()
}

// Plugins returns the plugin registry.
func (b *Bazaar) Plugins() *plugin.Registry {
	return b.plugins
}

// FeePercent returns the configured platform fee percentage.
func (b *Bazaar) FeePercent() int64 {
	return b.feePercent
}

func (b *Bazaar) now() time.Time {
	return b.nowFn().UTC()
}

// ──────────────────────────────────────────────────
// Creator Registry
// ──────────────────────────────────────────────────

// RegisterCreator registers a principal as a creator under the given handle.
// A principal registers at most once; ErrAlreadyRegistered is returned on
// repeat attempts regardless of handle.
func (b *Bazaar) RegisterCreator(ctx context.Context, principal types.Principal, handle string) (*creator.Creator, error) {
	if principal.IsZero() {
		return nil, ValidationError{Field: "principal", Message: "must not be empty"}
	}
	clean, ok := creator.SanitizeHandle(handle)
	if !ok {
		return nil, ValidationError{Field: "handle", Message: "must not be empty"}
	}

	c := &creator.Creator{
		Entity:    types.NewEntityAt(b.now()),
		Principal: principal,
		Handle:    clean,
	}

	if err := b.store.CreateCreator(ctx, c); err != nil {
		return nil, err
	}

	b.logger.Info("creator registered", "principal", principal, "handle", clean)
	b.plugins.EmitCreatorRegistered(ctx, c)
	return c, nil
}

// GetCreator retrieves a creator profile by principal.
func (b *Bazaar) GetCreator(ctx context.Context, principal types.Principal) (*creator.Creator, error) {
	if principal.IsZero() {
		return nil, ValidationError{Field: "principal", Message: "must not be empty"}
	}
	return b.store.GetCreator(ctx, principal)
}

// ──────────────────────────────────────────────────
// Content Catalog
// ──────────────────────────────────────────────────

// PublishInput carries the creator-supplied fields of a new content listing.
type PublishInput struct {
	Title       string
	Description string
	ContentRef  string
	Price       types.Credits
}

// PublishContent creates a new content listing for a registered creator.
// The store assigns the next dense content id; listings are born active.
func (b *Bazaar) PublishContent(ctx context.Context, principal types.Principal, in PublishInput) (*content.Content, error) {
	if principal.IsZero() {
		return nil, ValidationError{Field: "principal", Message: "must not be empty"}
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ValidationError{Field: "title", Message: "must not be empty"}
	}
	ref := strings.TrimSpace(in.ContentRef)
	if ref == "" {
		return nil, ValidationError{Field: "content_ref", Message: "must not be empty"}
	}
	if !in.Price.IsPositive() {
		return nil, ValidationError{Field: "price", Message: "must be positive"}
	}

	if _, err := b.store.GetCreator(ctx, principal); err != nil {
		if IsNotFound(err) {
			return nil, ErrNotRegistered
		}
		return nil, err
	}

	c := &content.Content{
		Entity:      types.NewEntityAt(b.now()),
		Creator:     principal,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		ContentRef:  ref,
		Price:       in.Price,
		Active:      true,
	}

	if err := b.store.CreateContent(ctx, c); err != nil {
		return nil, err
	}

	b.logger.Info("content published",
		"content_id", c.ID,
		"creator", principal,
		"price", c.Price,
	)
	b.plugins.EmitContentPublished(ctx, c)
	return c, nil
}

// GetContent retrieves a content listing by id.
func (b *Bazaar) GetContent(ctx context.Context, contentID int64) (*content.Content, error) {
	if contentID <= 0 {
		return nil, ErrContentNotFound
	}
	return b.store.GetContent(ctx, contentID)
}

// ListContentByCreator lists a creator's content in publication order.
func (b *Bazaar) ListContentByCreator(ctx context.Context, principal types.Principal, opts content.ListOpts) ([]*content.Content, error) {
	if principal.IsZero() {
		return nil, ValidationError{Field: "principal", Message: "must not be empty"}
	}
	return b.store.ListContentByCreator(ctx, principal, opts)
}

// ──────────────────────────────────────────────────
// Purchase Ledger (reads)
// ──────────────────────────────────────────────────

// HasPurchased reports whether buyer holds an access grant for the content.
func (b *Bazaar) HasPurchased(ctx context.Context, buyer types.Principal, contentID int64) (bool, error) {
	if buyer.IsZero() || contentID <= 0 {
		return false, ErrInvalidInput
	}
	return b.store.HasPurchase(ctx, buyer, contentID)
}

// GetPurchase retrieves a single access grant.
func (b *Bazaar) GetPurchase(ctx context.Context, buyer types.Principal, contentID int64) (*purchase.Record, error) {
	if buyer.IsZero() || contentID <= 0 {
		return nil, ErrInvalidInput
	}
	return b.store.GetPurchase(ctx, buyer, contentID)
}

// ListPurchasesByBuyer lists a buyer's access grants in purchase order.
func (b *Bazaar) ListPurchasesByBuyer(ctx context.Context, buyer types.Principal, opts purchase.ListOpts) ([]*purchase.Record, error) {
	if buyer.IsZero() {
		return nil, ValidationError{Field: "buyer", Message: "must not be empty"}
	}
	return b.store.ListPurchasesByBuyer(ctx, buyer, opts)
}

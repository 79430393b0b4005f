package store

import (
	"context"

	"github.com/xraph/bazaar/content"
	"github.com/xraph/bazaar/creator"
	"github.com/xraph/bazaar/platform"
	"github.com/xraph/bazaar/purchase"
	"github.com/xraph/bazaar/types"
)

// Store is the unified storage interface for all Bazaar entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
type Store interface {
	// Creator methods
	CreateCreator(ctx context.Context, c *creator.Creator) error
	GetCreator(ctx context.Context, principal types.Principal) (*creator.Creator, error)
	SetCreatorVerified(ctx context.Context, principal types.Principal, verified bool) error

	// Content methods
	CreateContent(ctx context.Context, c *content.Content) error
	GetContent(ctx context.Context, contentID int64) (*content.Content, error)
	ListContentByCreator(ctx context.Context, principal types.Principal, opts content.ListOpts) ([]*content.Content, error)

	// Purchase methods
	HasPurchase(ctx context.Context, buyer types.Principal, contentID int64) (bool, error)
	GetPurchase(ctx context.Context, buyer types.Principal, contentID int64) (*purchase.Record, error)
	ListPurchasesByBuyer(ctx context.Context, buyer types.Principal, opts purchase.ListOpts) ([]*purchase.Record, error)
	Settle(ctx context.Context, rec *purchase.Record, creatorShare, platformFee types.Credits) error
	Unsettle(ctx context.Context, rec *purchase.Record, creatorShare, platformFee types.Credits) error

	// Platform methods
	PlatformState(ctx context.Context) (*platform.State, error)
	InitOwner(ctx context.Context, owner types.Principal) error
	TransferOwnership(ctx context.Context, current, next types.Principal) error
	SweepFees(ctx context.Context) (types.Credits, error)
	AccrueFees(ctx context.Context, amount types.Credits) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

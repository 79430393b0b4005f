// Package bazaar provides an embeddable marketplace ledger for Go applications.
//
// Bazaar is designed as a library, not a service. Import it directly into your
// Go application and wire it to a store driver and a payment collaborator. It
// provides:
//
//   - A creator registry with one profile per principal
//   - A content catalog with dense, monotonically increasing content ids
//   - A purchase ledger granting perpetual, non-transferable access
//   - Atomic settlement that splits every sale between creator and platform
//   - Pluggable payment transfer with rollback on failure
//   - Platform administration (verification, fee withdrawal, ownership)
//
// # Quick Start
//
// Create a bazaar instance with your preferred store:
//
//	import (
//	    "github.com/xraph/bazaar"
//	    "github.com/xraph/bazaar/store/postgres"
//	)
//
//	// Initialize store over a grove database handle
//	store := postgres.New(groveDB)
//
//	// Create bazaar
//	b := bazaar.New(store,
//	    bazaar.WithOwner("platform-admin"),
//	    bazaar.WithPayments(transferer),
//	)
//
//	// Start the bazaar (migrates, installs owner, resolves plugins)
//	if err := b.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Stop()
//
// # Core Concepts
//
// Creators register once and publish priced content:
//
//	c, err := b.RegisterCreator(ctx, "alice", "alice-studio")
//	item, err := b.PublishContent(ctx, "alice", bazaar.PublishInput{
//	    Title:      "Field Recording Pack",
//	    ContentRef: "s3://bazaar-content/field-recordings.zip",
//	    Price:      bazaar.NewCredits(1000),
//	})
//
// Buyers purchase with the exact listed amount; settlement splits the payment
// between the platform fee and the creator share atomically:
//
//	receipt, err := b.Purchase(ctx, "bob", item.ID, item.Price)
//	// receipt.PlatformFee = 50, receipt.CreatorShare = 950 at the default 5%
//
// Access is perpetual and checked by pair:
//
//	ok, err := b.HasPurchased(ctx, "bob", item.ID)
//
// # Settlement Guarantees
//
// All amounts are integer credits; the platform fee is floor(price * percent
// / 100) and the creator share is the remainder, so fee + share always equals
// the price. The access-grant insert is the linearization point: concurrent
// purchases of the same content by the same buyer resolve to exactly one
// grant. If the creator-share transfer fails, every ledger mutation of that
// purchase is reversed and the call reports a retryable ErrTransferFailed.
//
// # TypeID
//
// Receipts and withdrawals use TypeID for globally unique, type-safe
// identifiers:
//
//	rcpt_01h2xcejqtf2nbrexx3vqjhp41  // Receipt ID
//	wdl_01h455vb4pex5vsknk084sn02q   // Withdrawal ID
//
// Content ids are deliberately not TypeIDs: the catalog assigns dense int64
// ids (1, 2, 3, ...) in publication order.
package bazaar

// Package mongo provides the MongoDB store driver, built on Grove ORM with
// direct access to the official driver for atomic counter operations.
//
// Duplicate-purchase detection rides on the unique compound index over
// (buyer, content_id): the insert that wins the race creates the grant and
// every loser surfaces a duplicate-key error. Counter mutations use $inc, so
// each is individually atomic; the engine compensates via Unsettle when a
// downstream step fails.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	bazaar "github.com/xraph/bazaar"
	"github.com/xraph/bazaar/content"
	"github.com/xraph/bazaar/creator"
	"github.com/xraph/bazaar/platform"
	"github.com/xraph/bazaar/purchase"
	bazaarstore "github.com/xraph/bazaar/store"
	"github.com/xraph/bazaar/types"
)

// Collection name constants.
const (
	colCreators  = "bazaar_creators"
	colContent   = "bazaar_content"
	colPurchases = "bazaar_purchases"
	colPlatform  = "bazaar_platform"
)

// compile-time interface check
var _ bazaarstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all bazaar collections and seeds the platform
// singleton document.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("bazaar/mongo: migrate %s indexes: %w", col, err)
		}
	}

	t := now()
	_, err := s.mdb.Collection(colPlatform).UpdateOne(ctx,
		bson.M{"_id": platformDocID},
		bson.M{"$setOnInsert": bson.M{
			"owner":           "",
			"fee_balance":     int64(0),
			"content_counter": int64(0),
			"created_at":      t,
			"updated_at":      t,
		}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("bazaar/mongo: seed platform document: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Creator Store ====================

func (s *Store) CreateCreator(ctx context.Context, c *creator.Creator) error {
	m := toCreatorModel(c)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bazaar.ErrAlreadyRegistered
		}
		return fmt.Errorf("bazaar/mongo: create creator: %w", err)
	}
	return nil
}

func (s *Store) GetCreator(ctx context.Context, principal types.Principal) (*creator.Creator, error) {
	var m creatorModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": principal.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, bazaar.ErrCreatorNotFound
		}
		return nil, fmt.Errorf("bazaar/mongo: get creator: %w", err)
	}
	return fromCreatorModel(&m), nil
}

func (s *Store) SetCreatorVerified(ctx context.Context, principal types.Principal, verified bool) error {
	res, err := s.mdb.NewUpdate((*creatorModel)(nil)).
		Filter(bson.M{"_id": principal.String()}).
		Set("verified", verified).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bazaar/mongo: set creator verified: %w", err)
	}
	if res.MatchedCount() == 0 {
		return bazaar.ErrCreatorNotFound
	}
	return nil
}

// ==================== Content Store ====================

func (s *Store) CreateContent(ctx context.Context, c *content.Content) error {
	t := now()

	res, err := s.mdb.NewUpdate((*creatorModel)(nil)).
		Filter(bson.M{"_id": c.Creator.String()}).
		SetUpdate(bson.M{
			"$inc": bson.M{"content_count": int64(1)},
			"$set": bson.M{"updated_at": t},
		}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bazaar/mongo: bump creator content count: %w", err)
	}
	if res.MatchedCount() == 0 {
		return bazaar.ErrCreatorNotFound
	}

	var pm platformModel
	err = s.mdb.Collection(colPlatform).FindOneAndUpdate(ctx,
		bson.M{"_id": platformDocID},
		bson.M{
			"$inc": bson.M{"content_counter": int64(1)},
			"$set": bson.M{"updated_at": t},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&pm)
	if err != nil {
		return fmt.Errorf("bazaar/mongo: allocate content id: %w", err)
	}
	c.ID = pm.ContentCounter

	m := toContentModel(c)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("bazaar/mongo: create content: %w", err)
	}
	return nil
}

func (s *Store) GetContent(ctx context.Context, contentID int64) (*content.Content, error) {
	var m contentModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": contentID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, bazaar.ErrContentNotFound
		}
		return nil, fmt.Errorf("bazaar/mongo: get content: %w", err)
	}
	return fromContentModel(&m), nil
}

func (s *Store) ListContentByCreator(ctx context.Context, principal types.Principal, opts content.ListOpts) ([]*content.Content, error) {
	var models []contentModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{"creator": principal.String()}).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("bazaar/mongo: list content: %w", err)
	}

	result := make([]*content.Content, len(models))
	for i := range models {
		result[i] = fromContentModel(&models[i])
	}
	return result, nil
}

// ==================== Purchase Store ====================

func (s *Store) HasPurchase(ctx context.Context, buyer types.Principal, contentID int64) (bool, error) {
	var m purchaseModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"buyer": buyer.String(), "content_id": contentID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return false, nil
		}
		return false, fmt.Errorf("bazaar/mongo: has purchase: %w", err)
	}
	return true, nil
}

func (s *Store) GetPurchase(ctx context.Context, buyer types.Principal, contentID int64) (*purchase.Record, error) {
	var m purchaseModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"buyer": buyer.String(), "content_id": contentID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, bazaar.ErrNotFound
		}
		return nil, fmt.Errorf("bazaar/mongo: get purchase: %w", err)
	}
	return fromPurchaseModel(&m)
}

func (s *Store) ListPurchasesByBuyer(ctx context.Context, buyer types.Principal, opts purchase.ListOpts) ([]*purchase.Record, error) {
	var models []purchaseModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{"buyer": buyer.String()}).
		Sort(bson.D{{Key: "purchased_at", Value: 1}, {Key: "content_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("bazaar/mongo: list purchases: %w", err)
	}

	result := make([]*purchase.Record, len(models))
	for i := range models {
		rec, err := fromPurchaseModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = rec
	}
	return result, nil
}

func (s *Store) Settle(ctx context.Context, rec *purchase.Record, creatorShare, platformFee types.Credits) error {
	m := toPurchaseModel(rec)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bazaar.ErrAlreadyPurchased
		}
		return fmt.Errorf("bazaar/mongo: settle insert: %w", err)
	}

	var cm contentModel
	err := s.mdb.NewFind(&cm).
		Filter(bson.M{"_id": rec.ContentID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return bazaar.ErrContentNotFound
		}
		return fmt.Errorf("bazaar/mongo: settle content lookup: %w", err)
	}

	t := now()
	if _, err := s.mdb.NewUpdate((*contentModel)(nil)).
		Filter(bson.M{"_id": rec.ContentID}).
		SetUpdate(bson.M{
			"$inc": bson.M{
				"purchase_count": int64(1),
				"total_earnings": creatorShare.Int64(),
			},
			"$set": bson.M{"updated_at": t},
		}).
		Exec(ctx); err != nil {
		return fmt.Errorf("bazaar/mongo: settle content counters: %w", err)
	}
	if _, err := s.mdb.NewUpdate((*creatorModel)(nil)).
		Filter(bson.M{"_id": cm.Creator}).
		SetUpdate(bson.M{
			"$inc": bson.M{"total_earnings": creatorShare.Int64()},
			"$set": bson.M{"updated_at": t},
		}).
		Exec(ctx); err != nil {
		return fmt.Errorf("bazaar/mongo: settle creator earnings: %w", err)
	}
	return s.AccrueFees(ctx, platformFee)
}

func (s *Store) Unsettle(ctx context.Context, rec *purchase.Record, creatorShare, platformFee types.Credits) error {
	res, err := s.mdb.NewDelete((*purchaseModel)(nil)).
		Filter(bson.M{"buyer": rec.Buyer.String(), "content_id": rec.ContentID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bazaar/mongo: unsettle delete: %w", err)
	}
	if res.DeletedCount() == 0 {
		return bazaar.ErrNotFound
	}

	var cm contentModel
	err = s.mdb.NewFind(&cm).
		Filter(bson.M{"_id": rec.ContentID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return bazaar.ErrContentNotFound
		}
		return fmt.Errorf("bazaar/mongo: unsettle content lookup: %w", err)
	}

	t := now()
	if _, err := s.mdb.NewUpdate((*contentModel)(nil)).
		Filter(bson.M{"_id": rec.ContentID}).
		SetUpdate(bson.M{
			"$inc": bson.M{
				"purchase_count": int64(-1),
				"total_earnings": -creatorShare.Int64(),
			},
			"$set": bson.M{"updated_at": t},
		}).
		Exec(ctx); err != nil {
		return fmt.Errorf("bazaar/mongo: unsettle content counters: %w", err)
	}
	if _, err := s.mdb.NewUpdate((*creatorModel)(nil)).
		Filter(bson.M{"_id": cm.Creator}).
		SetUpdate(bson.M{
			"$inc": bson.M{"total_earnings": -creatorShare.Int64()},
			"$set": bson.M{"updated_at": t},
		}).
		Exec(ctx); err != nil {
		return fmt.Errorf("bazaar/mongo: unsettle creator earnings: %w", err)
	}
	return s.AccrueFees(ctx, types.Credits(-platformFee.Int64()))
}

// ==================== Platform Store ====================

func (s *Store) PlatformState(ctx context.Context) (*platform.State, error) {
	var m platformModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": platformDocID}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bazaar/mongo: platform state: %w", err)
	}
	return fromPlatformModel(&m), nil
}

func (s *Store) InitOwner(ctx context.Context, owner types.Principal) error {
	_, err := s.mdb.NewUpdate((*platformModel)(nil)).
		Filter(bson.M{"_id": platformDocID, "owner": ""}).
		Set("owner", owner.String()).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bazaar/mongo: init owner: %w", err)
	}
	return nil
}

func (s *Store) TransferOwnership(ctx context.Context, current, next types.Principal) error {
	res, err := s.mdb.NewUpdate((*platformModel)(nil)).
		Filter(bson.M{"_id": platformDocID, "owner": current.String()}).
		Set("owner", next.String()).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bazaar/mongo: transfer ownership: %w", err)
	}
	if res.MatchedCount() == 0 {
		return bazaar.ErrUnauthorized
	}
	return nil
}

func (s *Store) SweepFees(ctx context.Context) (types.Credits, error) {
	// ReturnDocument(Before) hands back the pre-sweep balance in the same
	// atomic step that zeroes it.
	var m platformModel
	err := s.mdb.Collection(colPlatform).FindOneAndUpdate(ctx,
		bson.M{"_id": platformDocID},
		bson.M{"$set": bson.M{"fee_balance": int64(0), "updated_at": now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&m)
	if err != nil {
		return 0, fmt.Errorf("bazaar/mongo: sweep fees: %w", err)
	}
	return types.Credits(m.FeeBalance), nil
}

func (s *Store) AccrueFees(ctx context.Context, amount types.Credits) error {
	_, err := s.mdb.NewUpdate((*platformModel)(nil)).
		Filter(bson.M{"_id": platformDocID}).
		SetUpdate(bson.M{
			"$inc": bson.M{"fee_balance": amount.Int64()},
			"$set": bson.M{"updated_at": now()},
		}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bazaar/mongo: accrue fees: %w", err)
	}
	return nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all bazaar collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colCreators: {
			{Keys: bson.D{{Key: "handle", Value: 1}}},
		},
		colContent: {
			{Keys: bson.D{{Key: "creator", Value: 1}, {Key: "_id", Value: 1}}},
		},
		colPurchases: {
			{
				Keys:    bson.D{{Key: "buyer", Value: 1}, {Key: "content_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "buyer", Value: 1}, {Key: "purchased_at", Value: 1}}},
			{Keys: bson.D{{Key: "content_id", Value: 1}}},
		},
		colPlatform: nil,
	}
}

// Package postgres provides the PostgreSQL store driver, built on Grove ORM.
//
// Multi-row settlement updates are not wrapped in a transaction; instead the
// conditional insert on the (buyer, content_id) primary key acts as the
// linearization point, and the engine compensates by calling Unsettle when a
// downstream step fails. Counter mutations are single-statement and therefore
// individually atomic.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	bazaar "github.com/xraph/bazaar"
	"github.com/xraph/bazaar/content"
	"github.com/xraph/bazaar/creator"
	"github.com/xraph/bazaar/platform"
	"github.com/xraph/bazaar/purchase"
	bazaarstore "github.com/xraph/bazaar/store"
	"github.com/xraph/bazaar/types"
)

// compile-time interface check
var _ bazaarstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("bazaar/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("bazaar/postgres: migration failed: %w", err)
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
	res, err := s.pg.NewInsert(m).
		OnConflict("(principal) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return bazaar.ErrAlreadyRegistered
	}
	return nil
}

func (s *Store) GetCreator(ctx context.Context, principal types.Principal) (*creator.Creator, error) {
	m := new(creatorModel)
	err := s.pg.NewSelect(m).
		Where("principal = $1", principal.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, bazaar.ErrCreatorNotFound
		}
		return nil, err
	}
	return fromCreatorModel(m), nil
}

func (s *Store) SetCreatorVerified(ctx context.Context, principal types.Principal, verified bool) error {
	res, err := s.pg.NewUpdate((*creatorModel)(nil)).
		Set("verified = $1", verified).
		Set("updated_at = $2", now()).
		Where("principal = $3", principal.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return bazaar.ErrCreatorNotFound
	}
	return nil
}

// ==================== Content Store ====================

func (s *Store) CreateContent(ctx context.Context, c *content.Content) error {
	t := now()

	// Bump the creator's listing count first so a missing creator fails
	// before the content counter moves.
	res, err := s.pg.NewUpdate((*creatorModel)(nil)).
		Set("content_count = content_count + 1").
		Set("updated_at = $1", t).
		Where("principal = $2", c.Creator.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return bazaar.ErrCreatorNotFound
	}

	var nextID int64
	err = s.pg.NewRaw(`
		UPDATE bazaar_platform SET content_counter = content_counter + 1, updated_at = $1
		WHERE id = 1 RETURNING content_counter
	`, t).Scan(ctx, &nextID)
	if err != nil {
		return err
	}
	c.ID = nextID

	m := toContentModel(c)
	_, err = s.pg.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetContent(ctx context.Context, contentID int64) (*content.Content, error) {
	m := new(contentModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", contentID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, bazaar.ErrContentNotFound
		}
		return nil, err
	}
	return fromContentModel(m), nil
}

func (s *Store) ListContentByCreator(ctx context.Context, principal types.Principal, opts content.ListOpts) ([]*content.Content, error) {
	var models []contentModel
	q := s.pg.NewSelect(&models).Where("creator = $1", principal.String())

	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*content.Content, len(models))
	for i := range models {
		result[i] = fromContentModel(&models[i])
	}
	return result, nil
}

// ==================== Purchase Store ====================

func (s *Store) HasPurchase(ctx context.Context, buyer types.Principal, contentID int64) (bool, error) {
	var exists bool
	err := s.pg.NewRaw(`
		SELECT EXISTS (SELECT 1 FROM bazaar_purchases WHERE buyer = $1 AND content_id = $2)
	`, buyer.String(), contentID).Scan(ctx, &exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (s *Store) GetPurchase(ctx context.Context, buyer types.Principal, contentID int64) (*purchase.Record, error) {
	m := new(purchaseModel)
	err := s.pg.NewSelect(m).
		Where("buyer = $1", buyer.String()).
		Where("content_id = $2", contentID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, bazaar.ErrNotFound
		}
		return nil, err
	}
	return fromPurchaseModel(m)
}

func (s *Store) ListPurchasesByBuyer(ctx context.Context, buyer types.Principal, opts purchase.ListOpts) ([]*purchase.Record, error) {
	var models []purchaseModel
	q := s.pg.NewSelect(&models).Where("buyer = $1", buyer.String())

	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("purchased_at ASC, content_id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	res, err := s.pg.NewInsert(m).
		OnConflict("(buyer, content_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return bazaar.ErrAlreadyPurchased
	}

	var creatorPrincipal string
	err = s.pg.NewRaw(`SELECT creator FROM bazaar_content WHERE id = $1`, rec.ContentID).
		Scan(ctx, &creatorPrincipal)
	if err != nil {
		if isNoRows(err) {
			return bazaar.ErrContentNotFound
		}
		return err
	}

	t := now()
	if _, err := s.pg.NewUpdate((*contentModel)(nil)).
		Set("purchase_count = purchase_count + 1").
		Set("total_earnings = total_earnings + $1", creatorShare.Int64()).
		Set("updated_at = $2", t).
		Where("id = $3", rec.ContentID).
		Exec(ctx); err != nil {
		return err
	}
	if _, err := s.pg.NewUpdate((*creatorModel)(nil)).
		Set("total_earnings = total_earnings + $1", creatorShare.Int64()).
		Set("updated_at = $2", t).
		Where("principal = $3", creatorPrincipal).
		Exec(ctx); err != nil {
		return err
	}
	if err := s.AccrueFees(ctx, platformFee); err != nil {
		return err
	}
	return nil
}

func (s *Store) Unsettle(ctx context.Context, rec *purchase.Record, creatorShare, platformFee types.Credits) error {
	res, err := s.pg.NewDelete((*purchaseModel)(nil)).
		Where("buyer = $1", rec.Buyer.String()).
		Where("content_id = $2", rec.ContentID).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return bazaar.ErrNotFound
	}

	var creatorPrincipal string
	err = s.pg.NewRaw(`SELECT creator FROM bazaar_content WHERE id = $1`, rec.ContentID).
		Scan(ctx, &creatorPrincipal)
	if err != nil {
		if isNoRows(err) {
			return bazaar.ErrContentNotFound
		}
		return err
	}

	t := now()
	if _, err := s.pg.NewUpdate((*contentModel)(nil)).
		Set("purchase_count = purchase_count - 1").
		Set("total_earnings = total_earnings - $1", creatorShare.Int64()).
		Set("updated_at = $2", t).
		Where("id = $3", rec.ContentID).
		Exec(ctx); err != nil {
		return err
	}
	if _, err := s.pg.NewUpdate((*creatorModel)(nil)).
		Set("total_earnings = total_earnings - $1", creatorShare.Int64()).
		Set("updated_at = $2", t).
		Where("principal = $3", creatorPrincipal).
		Exec(ctx); err != nil {
		return err
	}
	if _, err := s.pg.NewUpdate((*platformModel)(nil)).
		Set("fee_balance = fee_balance - $1", platformFee.Int64()).
		Set("updated_at = $2", t).
		Where("id = 1").
		Exec(ctx); err != nil {
		return err
	}
	return nil
}

// ==================== Platform Store ====================

func (s *Store) PlatformState(ctx context.Context) (*platform.State, error) {
	m := new(platformModel)
	err := s.pg.NewSelect(m).
		Where("id = 1").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return fromPlatformModel(m), nil
}

func (s *Store) InitOwner(ctx context.Context, owner types.Principal) error {
	_, err := s.pg.NewUpdate((*platformModel)(nil)).
		Set("owner = $1", owner.String()).
		Set("updated_at = $2", now()).
		Where("id = 1").
		Where("owner = ''").
		Exec(ctx)
	return err
}

func (s *Store) TransferOwnership(ctx context.Context, current, next types.Principal) error {
	res, err := s.pg.NewUpdate((*platformModel)(nil)).
		Set("owner = $1", next.String()).
		Set("updated_at = $2", now()).
		Where("id = 1").
		Where("owner = $3", current.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return bazaar.ErrUnauthorized
	}
	return nil
}

func (s *Store) SweepFees(ctx context.Context) (types.Credits, error) {
	// RETURNING reports the post-update row, so the pre-sweep balance comes
	// from a locked subquery.
	var swept int64
	err := s.pg.NewRaw(`
		UPDATE bazaar_platform p SET fee_balance = 0, updated_at = $1
		FROM (SELECT fee_balance FROM bazaar_platform WHERE id = 1 FOR UPDATE) old
		WHERE p.id = 1
		RETURNING old.fee_balance
	`, now()).Scan(ctx, &swept)
	if err != nil {
		return 0, err
	}
	return types.Credits(swept), nil
}

func (s *Store) AccrueFees(ctx context.Context, amount types.Credits) error {
	_, err := s.pg.NewUpdate((*platformModel)(nil)).
		Set("fee_balance = fee_balance + $1", amount.Int64()).
		Set("updated_at = $2", now()).
		Where("id = 1").
		Exec(ctx)
	return err
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

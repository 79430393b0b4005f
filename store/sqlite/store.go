// Package sqlite provides the SQLite store driver, built on Grove ORM.
//
// SQLite serializes writers, so the single-statement conditional writes used
// for settlement are atomic without explicit locking. The engine compensates
// by calling Unsettle when a downstream step fails.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
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

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("bazaar/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("bazaar/sqlite: migration failed: %w", err)
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
	res, err := s.sdb.NewInsert(m).
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
	err := s.sdb.NewSelect(m).
		Where("principal = ?", principal.String()).
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
	res, err := s.sdb.NewUpdate((*creatorModel)(nil)).
		Set("verified = ?", verified).
		Set("updated_at = ?", now()).
		Where("principal = ?", principal.String()).
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

	res, err := s.sdb.NewUpdate((*creatorModel)(nil)).
		Set("content_count = content_count + 1").
		Set("updated_at = ?", t).
		Where("principal = ?", c.Creator.String()).
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
	err = s.sdb.NewRaw(`
		UPDATE bazaar_platform SET content_counter = content_counter + 1, updated_at = ?
		WHERE id = 1 RETURNING content_counter
	`, t).Scan(ctx, &nextID)
	if err != nil {
		return err
	}
	c.ID = nextID

	m := toContentModel(c)
	_, err = s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetContent(ctx context.Context, contentID int64) (*content.Content, error) {
	m := new(contentModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", contentID).
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
	q := s.sdb.NewSelect(&models).Where("creator = ?", principal.String())

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
	err := s.sdb.NewRaw(`
		SELECT EXISTS (SELECT 1 FROM bazaar_purchases WHERE buyer = ? AND content_id = ?)
	`, buyer.String(), contentID).Scan(ctx, &exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (s *Store) GetPurchase(ctx context.Context, buyer types.Principal, contentID int64) (*purchase.Record, error) {
	m := new(purchaseModel)
	err := s.sdb.NewSelect(m).
		Where("buyer = ?", buyer.String()).
		Where("content_id = ?", contentID).
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
	q := s.sdb.NewSelect(&models).Where("buyer = ?", buyer.String())

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
	res, err := s.sdb.NewInsert(m).
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
	err = s.sdb.NewRaw(`SELECT creator FROM bazaar_content WHERE id = ?`, rec.ContentID).
		Scan(ctx, &creatorPrincipal)
	if err != nil {
		if isNoRows(err) {
			return bazaar.ErrContentNotFound
		}
		return err
	}

	t := now()
	if _, err := s.sdb.NewUpdate((*contentModel)(nil)).
		Set("purchase_count = purchase_count + 1").
		Set("total_earnings = total_earnings + ?", creatorShare.Int64()).
		Set("updated_at = ?", t).
		Where("id = ?", rec.ContentID).
		Exec(ctx); err != nil {
		return err
	}
	if _, err := s.sdb.NewUpdate((*creatorModel)(nil)).
		Set("total_earnings = total_earnings + ?", creatorShare.Int64()).
		Set("updated_at = ?", t).
		Where("principal = ?", creatorPrincipal).
		Exec(ctx); err != nil {
		return err
	}
	return s.AccrueFees(ctx, platformFee)
}

func (s *Store) Unsettle(ctx context.Context, rec *purchase.Record, creatorShare, platformFee types.Credits) error {
	res, err := s.sdb.NewDelete((*purchaseModel)(nil)).
		Where("buyer = ?", rec.Buyer.String()).
		Where("content_id = ?", rec.ContentID).
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
	err = s.sdb.NewRaw(`SELECT creator FROM bazaar_content WHERE id = ?`, rec.ContentID).
		Scan(ctx, &creatorPrincipal)
	if err != nil {
		if isNoRows(err) {
			return bazaar.ErrContentNotFound
		}
		return err
	}

	t := now()
	if _, err := s.sdb.NewUpdate((*contentModel)(nil)).
		Set("purchase_count = purchase_count - 1").
		Set("total_earnings = total_earnings - ?", creatorShare.Int64()).
		Set("updated_at = ?", t).
		Where("id = ?", rec.ContentID).
		Exec(ctx); err != nil {
		return err
	}
	if _, err := s.sdb.NewUpdate((*creatorModel)(nil)).
		Set("total_earnings = total_earnings - ?", creatorShare.Int64()).
		Set("updated_at = ?", t).
		Where("principal = ?", creatorPrincipal).
		Exec(ctx); err != nil {
		return err
	}
	if _, err := s.sdb.NewUpdate((*platformModel)(nil)).
		Set("fee_balance = fee_balance - ?", platformFee.Int64()).
		Set("updated_at = ?", t).
		Where("id = 1").
		Exec(ctx); err != nil {
		return err
	}
	return nil
}

// ==================== Platform Store ====================

func (s *Store) PlatformState(ctx context.Context) (*platform.State, error) {
	m := new(platformModel)
	err := s.sdb.NewSelect(m).
		Where("id = 1").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return fromPlatformModel(m), nil
}

func (s *Store) InitOwner(ctx context.Context, owner types.Principal) error {
	_, err := s.sdb.NewUpdate((*platformModel)(nil)).
		Set("owner = ?", owner.String()).
		Set("updated_at = ?", now()).
		Where("id = 1").
		Where("owner = ''").
		Exec(ctx)
	return err
}

func (s *Store) TransferOwnership(ctx context.Context, current, next types.Principal) error {
	res, err := s.sdb.NewUpdate((*platformModel)(nil)).
		Set("owner = ?", next.String()).
		Set("updated_at = ?", now()).
		Where("id = 1").
		Where("owner = ?", current.String()).
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
	// SQLite serializes writers, so read-then-decrement cannot lose a
	// concurrent accrual: the decrement subtracts exactly the amount read
	// and anything accrued in between stays in the balance.
	var balance int64
	err := s.sdb.NewRaw(`SELECT fee_balance FROM bazaar_platform WHERE id = 1`).
		Scan(ctx, &balance)
	if err != nil {
		return 0, err
	}
	if balance == 0 {
		return 0, nil
	}

	_, err = s.sdb.NewUpdate((*platformModel)(nil)).
		Set("fee_balance = fee_balance - ?", balance).
		Set("updated_at = ?", now()).
		Where("id = 1").
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return types.Credits(balance), nil
}

func (s *Store) AccrueFees(ctx context.Context, amount types.Credits) error {
	_, err := s.sdb.NewUpdate((*platformModel)(nil)).
		Set("fee_balance = fee_balance + ?", amount.Int64()).
		Set("updated_at = ?", now()).
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

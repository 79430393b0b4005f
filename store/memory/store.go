// Package memory provides an in-memory store driver. All mutations happen
// under a single mutex, so multi-row settlement updates are atomic. Intended
// for tests, examples, and local development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xraph/bazaar"
	"github.com/xraph/bazaar/content"
	"github.com/xraph/bazaar/creator"
	"github.com/xraph/bazaar/platform"
	"github.com/xraph/bazaar/purchase"
	"github.com/xraph/bazaar/store"
	"github.com/xraph/bazaar/types"
)

type purchaseKey struct {
	buyer     types.Principal
	contentID int64
}

type Store struct {
	mu sync.RWMutex

	// Creator storage
	creators map[types.Principal]*creator.Creator

	// Content storage
	contents map[int64]*content.Content

	// Purchase storage; order preserves global settlement order for listings
	purchases map[purchaseKey]*purchase.Record
	order     []purchaseKey

	// Platform account (single row)
	platform *platform.State

	closed bool
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		creators:  make(map[types.Principal]*creator.Creator),
		contents:  make(map[int64]*content.Content),
		purchases: make(map[purchaseKey]*purchase.Record),
		platform:  &platform.State{Entity: types.NewEntity()},
	}
}

// Creator Store implementation
func (s *Store) CreateCreator(_ context.Context, c *creator.Creator) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.creators[c.Principal]; exists {
		return bazaar.ErrAlreadyRegistered
	}
	s.creators[c.Principal] = c.Clone()
	return nil
}

func (s *Store) GetCreator(_ context.Context, principal types.Principal) (*creator.Creator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.creators[principal]; ok {
		return c.Clone(), nil
	}
	return nil, bazaar.ErrCreatorNotFound
}

func (s *Store) SetCreatorVerified(_ context.Context, principal types.Principal, verified bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.creators[principal]
	if !ok {
		return bazaar.ErrCreatorNotFound
	}
	c.Verified = verified
	c.Touch()
	return nil
}

// Content Store implementation
func (s *Store) CreateContent(_ context.Context, c *content.Content) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, ok := s.creators[c.Creator]
	if !ok {
		return bazaar.ErrCreatorNotFound
	}

	s.platform.ContentCounter++
	c.ID = s.platform.ContentCounter
	s.contents[c.ID] = c.Clone()

	owner.ContentCount++
	owner.Touch()
	return nil
}

func (s *Store) GetContent(_ context.Context, contentID int64) (*content.Content, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.contents[contentID]; ok {
		return c.Clone(), nil
	}
	return nil, bazaar.ErrContentNotFound
}

func (s *Store) ListContentByCreator(_ context.Context, principal types.Principal, opts content.ListOpts) ([]*content.Content, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*content.Content, 0)
	for _, c := range s.contents {
		if c.Creator == principal {
			result = append(result, c.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	return paginate(result, opts.Offset, opts.Limit), nil
}

// Purchase Store implementation
func (s *Store) HasPurchase(_ context.Context, buyer types.Principal, contentID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.purchases[purchaseKey{buyer, contentID}]
	return ok, nil
}

func (s *Store) GetPurchase(_ context.Context, buyer types.Principal, contentID int64) (*purchase.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if rec, ok := s.purchases[purchaseKey{buyer, contentID}]; ok {
		clone := *rec
		return &clone, nil
	}
	return nil, bazaar.ErrNotFound
}

func (s *Store) ListPurchasesByBuyer(_ context.Context, buyer types.Principal, opts purchase.ListOpts) ([]*purchase.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*purchase.Record, 0)
	for _, key := range s.order {
		if key.buyer != buyer {
			continue
		}
		if rec, ok := s.purchases[key]; ok {
			clone := *rec
			result = append(result, &clone)
		}
	}

	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) Settle(_ context.Context, rec *purchase.Record, creatorShare, platformFee types.Credits) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := purchaseKey{rec.Buyer, rec.ContentID}
	if _, exists := s.purchases[key]; exists {
		return bazaar.ErrAlreadyPurchased
	}

	c, ok := s.contents[rec.ContentID]
	if !ok {
		return bazaar.ErrContentNotFound
	}
	owner, ok := s.creators[c.Creator]
	if !ok {
		return bazaar.ErrCreatorNotFound
	}

	clone := *rec
	s.purchases[key] = &clone
	s.order = append(s.order, key)

	c.PurchaseCount++
	c.TotalEarnings = c.TotalEarnings.Add(creatorShare)
	c.Touch()
	owner.TotalEarnings = owner.TotalEarnings.Add(creatorShare)
	owner.Touch()
	s.platform.FeeBalance = s.platform.FeeBalance.Add(platformFee)
	return nil
}

func (s *Store) Unsettle(_ context.Context, rec *purchase.Record, creatorShare, platformFee types.Credits) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := purchaseKey{rec.Buyer, rec.ContentID}
	if _, exists := s.purchases[key]; !exists {
		return bazaar.ErrNotFound
	}
	delete(s.purchases, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	if c, ok := s.contents[rec.ContentID]; ok {
		c.PurchaseCount--
		c.TotalEarnings = c.TotalEarnings.Subtract(creatorShare)
		c.Touch()
		if owner, ok := s.creators[c.Creator]; ok {
			owner.TotalEarnings = owner.TotalEarnings.Subtract(creatorShare)
			owner.Touch()
		}
	}
	s.platform.FeeBalance = s.platform.FeeBalance.Subtract(platformFee)
	return nil
}

// Platform Store implementation
func (s *Store) PlatformState(_ context.Context) (*platform.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.platform.Clone(), nil
}

func (s *Store) InitOwner(_ context.Context, owner types.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.platform.Owner.IsZero() {
		s.platform.Owner = owner
		s.platform.Touch()
	}
	return nil
}

func (s *Store) TransferOwnership(_ context.Context, current, next types.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.platform.Owner != current {
		return bazaar.ErrUnauthorized
	}
	s.platform.Owner = next
	s.platform.Touch()
	return nil
}

func (s *Store) SweepFees(_ context.Context) (types.Credits, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	swept := s.platform.FeeBalance
	s.platform.FeeBalance = 0
	s.platform.Touch()
	return swept, nil
}

func (s *Store) AccrueFees(_ context.Context, amount types.Credits) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.platform.FeeBalance = s.platform.FeeBalance.Add(amount)
	s.platform.Touch()
	return nil
}

// Store management
func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return fmt.Errorf("memory: %w", bazaar.ErrStoreClosed)
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// Helper functions
func paginate[T any](items []T, offset, limit int) []T {
	start := offset
	if start < 0 {
		start = 0
	}
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit == 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

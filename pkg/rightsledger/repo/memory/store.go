// Package memory provides an in-memory rightsledger.Store: a single
// key→record table guarded by one mutex, which is the ledger's
// serialization point. Operations run under RunAtomic execute one at a
// time; concurrent same-key writers observe last-committed-wins.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/slydr-labs/rights-ledger/pkg/rightsledger"
	"github.com/slydr-labs/rights-ledger/pkg/rightsledger/recordkey"
)

// Store implements rightsledger.Store using an in-memory record table.
type Store struct {
	mu      sync.RWMutex
	records map[recordkey.Key]any

	session
}

// New creates a new in-memory store
func New() *Store {
	s := &Store{
		records: make(map[recordkey.Key]any),
	}
	s.session = session{table: locked{s}}
	return s
}

// RunAtomic serializes the whole operation under the write lock. Writes are
// buffered in an overlay and applied only if fn succeeds, so a failing
// operation leaves every record untouched.
func (s *Store) RunAtomic(ctx context.Context, fn func(tx rightsledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	overlay := &overlay{base: s.records, writes: make(map[recordkey.Key]any)}
	if err := fn(session{table: overlay}); err != nil {
		return err
	}
	for key, record := range overlay.writes {
		s.records[key] = record
	}
	return nil
}

// table is the minimal record-table contract the typed accessors build on.
type table interface {
	lookup(key recordkey.Key) (any, bool)
	store(key recordkey.Key, record any)
}

// locked accesses the base table taking the store's locks per call.
type locked struct {
	s *Store
}

func (l locked) lookup(key recordkey.Key) (any, bool) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()

	record, ok := l.s.records[key]
	return record, ok
}

func (l locked) store(key recordkey.Key, record any) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	l.s.records[key] = record
}

// overlay buffers writes on top of the base table. Reads see the
// operation's own writes first, then the committed state.
type overlay struct {
	base   map[recordkey.Key]any
	writes map[recordkey.Key]any
}

func (o *overlay) lookup(key recordkey.Key) (any, bool) {
	if record, ok := o.writes[key]; ok {
		return record, true
	}
	record, ok := o.base[key]
	return record, ok
}

func (o *overlay) store(key recordkey.Key, record any) {
	o.writes[key] = record
}

// session exposes the typed Store interface over a table. Records are
// copied in and out so callers can never mutate stored state directly.
type session struct {
	table table
}

func (s session) GetPlatform(ctx context.Context) (*rightsledger.Platform, error) {
	record, ok := s.table.lookup(recordkey.Platform())
	if !ok {
		return nil, rightsledger.ErrPlatformNotFound
	}
	platform := record.(rightsledger.Platform)
	return &platform, nil
}

func (s session) PutPlatform(ctx context.Context, platform *rightsledger.Platform) error {
	s.table.store(recordkey.Platform(), *platform)
	return nil
}

func (s session) GetContent(ctx context.Context, contentID string) (*rightsledger.Content, error) {
	record, ok := s.table.lookup(recordkey.Content(contentID))
	if !ok {
		return nil, rightsledger.ErrContentNotFound
	}
	content := record.(rightsledger.Content)
	return &content, nil
}

func (s session) PutContent(ctx context.Context, content *rightsledger.Content) error {
	s.table.store(recordkey.Content(content.ID), *content)
	return nil
}

func (s session) GetPurchase(ctx context.Context, buyer uuid.UUID, contentID string) (*rightsledger.Purchase, error) {
	record, ok := s.table.lookup(recordkey.Purchase(buyer, recordkey.Content(contentID)))
	if !ok {
		return nil, rightsledger.ErrPurchaseNotFound
	}
	purchase := record.(rightsledger.Purchase)
	return &purchase, nil
}

func (s session) PutPurchase(ctx context.Context, purchase *rightsledger.Purchase) error {
	key := recordkey.Purchase(purchase.Buyer, recordkey.Content(purchase.ContentID))
	s.table.store(key, *purchase)
	return nil
}

func (s session) GetRental(ctx context.Context, renter uuid.UUID, contentID string) (*rightsledger.Purchase, error) {
	record, ok := s.table.lookup(recordkey.Rental(renter, recordkey.Content(contentID)))
	if !ok {
		return nil, rightsledger.ErrRentalNotFound
	}
	rental := record.(rightsledger.Purchase)
	return &rental, nil
}

func (s session) PutRental(ctx context.Context, rental *rightsledger.Purchase) error {
	key := recordkey.Rental(rental.Buyer, recordkey.Content(rental.ContentID))
	s.table.store(key, *rental)
	return nil
}

func (s session) GetSubscription(ctx context.Context, subscriber uuid.UUID) (*rightsledger.Subscription, error) {
	record, ok := s.table.lookup(recordkey.Subscription(subscriber))
	if !ok {
		return nil, rightsledger.ErrSubscriptionNotFound
	}
	subscription := record.(rightsledger.Subscription)
	return &subscription, nil
}

func (s session) PutSubscription(ctx context.Context, subscription *rightsledger.Subscription) error {
	s.table.store(recordkey.Subscription(subscription.Subscriber), *subscription)
	return nil
}

// RunAtomic on a session is a nested transaction: the surrounding one
// already provides atomicity, so fn runs against the same view.
func (s session) RunAtomic(ctx context.Context, fn func(tx rightsledger.Store) error) error {
	return fn(s)
}

package rightsledger

import (
	"context"

	"github.com/google/uuid"
)

// Store is the keyed record table backing the ledger. Every record lives at
// the canonical key derived by the recordkey package; lookups of absent
// keys return the matching not-found sentinel, and writes are
// last-writer-wins within a single atomic step.
type Store interface {
	GetPlatform(ctx context.Context) (*Platform, error)
	PutPlatform(ctx context.Context, platform *Platform) error

	GetContent(ctx context.Context, contentID string) (*Content, error)
	PutContent(ctx context.Context, content *Content) error

	GetPurchase(ctx context.Context, buyer uuid.UUID, contentID string) (*Purchase, error)
	PutPurchase(ctx context.Context, purchase *Purchase) error

	GetRental(ctx context.Context, renter uuid.UUID, contentID string) (*Purchase, error)
	PutRental(ctx context.Context, rental *Purchase) error

	GetSubscription(ctx context.Context, subscriber uuid.UUID) (*Subscription, error)
	PutSubscription(ctx context.Context, subscription *Subscription) error

	// RunAtomic executes fn against a transactional view of the store.
	// Either every write fn performs is committed, or none is. Whole
	// operations are serialized against each other: concurrent writers of
	// the same key observe last-committed-wins, and a backend may reject
	// the loser for retry against fresh state.
	RunAtomic(ctx context.Context, fn func(tx Store) error) error
}

// EventSink receives a notification for every committed ledger operation.
// Sink failures are logged by callers but never roll back a committed
// operation.
type EventSink interface {
	PlatformInitialized(ctx context.Context, platform *Platform) error
	PlatformFeeUpdated(ctx context.Context, platform *Platform) error
	ContentCreated(ctx context.Context, content *Content) error
	ContentUpdated(ctx context.Context, content *Content) error
	ContentPurchased(ctx context.Context, purchase *Purchase, settlement Settlement) error
	ContentRented(ctx context.Context, rental *Purchase, settlement Settlement) error
	ContentResold(ctx context.Context, seller uuid.UUID, purchase *Purchase, settlement Settlement) error
	SubscriptionCreated(ctx context.Context, subscription *Subscription, settlement Settlement) error
}

// PaymentGateway moves funds between principals. Account-balance mechanics
// live outside the ledger; the ledger only hands the gateway an exact
// settlement and aborts the whole operation if the gateway refuses it.
// Apply must be all-or-nothing: either every leg transfers or none does.
type PaymentGateway interface {
	Apply(ctx context.Context, settlement Settlement) error
}

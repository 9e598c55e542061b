package rightsledger

import (
	"context"

	"github.com/google/uuid"
)

// Service is the rights-ledger core: platform registry, content registry,
// purchase/rental/subscription rights, and settlement. Every state-changing
// operation is a single atomic step; validation always precedes mutation.
type Service interface {
	// Platform registry
	InitializePlatform(ctx context.Context, req InitializePlatformRequest) (*Platform, error)
	GetPlatform(ctx context.Context) (*Platform, error)
	UpdatePlatformFee(ctx context.Context, req UpdatePlatformFeeRequest) (*Platform, error)

	// Content registry
	CreateContent(ctx context.Context, req CreateContentRequest) (*Content, error)
	UpdateContent(ctx context.Context, req UpdateContentRequest) (*Content, error)
	GetContent(ctx context.Context, contentID string) (*Content, error)

	// Rights operations
	PurchaseContent(ctx context.Context, req PurchaseContentRequest) (*PurchaseResult, error)
	RentContent(ctx context.Context, req RentContentRequest) (*PurchaseResult, error)
	ResellContent(ctx context.Context, req ResellContentRequest) (*PurchaseResult, error)
	Subscribe(ctx context.Context, req SubscribeRequest) (*SubscribeResult, error)

	// Rights reads. The validity checks are pure: they never mutate state,
	// and absence of a record yields false rather than an error.
	GetPurchase(ctx context.Context, buyer uuid.UUID, contentID string) (*Purchase, error)
	GetRental(ctx context.Context, renter uuid.UUID, contentID string) (*Purchase, error)
	GetSubscription(ctx context.Context, subscriber uuid.UUID) (*Subscription, error)
	IsSubscriptionValid(ctx context.Context, subscriber uuid.UUID, requiredTier int64) (bool, error)
	IsRentalValid(ctx context.Context, renter uuid.UUID, contentID string) (bool, error)
	HasActiveAccess(ctx context.Context, principal uuid.UUID, contentID string) (bool, error)
}

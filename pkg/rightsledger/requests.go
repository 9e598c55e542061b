package rightsledger

import (
	"time"

	"github.com/google/uuid"
)

// Request/Response DTOs

// InitializePlatformRequest contains parameters for creating the platform
// singleton.
type InitializePlatformRequest struct {
	Authority      uuid.UUID
	FeeBasisPoints int64
}

// UpdatePlatformFeeRequest changes the platform fee. Only the stored
// authority may call.
type UpdatePlatformFeeRequest struct {
	Authority      uuid.UUID
	FeeBasisPoints int64
}

// CreateContentRequest contains parameters for registering new content.
// Price and RentalPrice are integer minor units.
type CreateContentRequest struct {
	Creator                  uuid.UUID
	ID                       string
	StorageRef               string
	Price                    int64
	RoyaltyPercent           int64
	RentalEnabled            bool
	RentalPrice              int64
	RentalDuration           time.Duration
	RequiredSubscriptionTier int64
}

// UpdateContentRequest contains parameters for updating content terms. Nil
// fields are left unchanged; set fields are revalidated with the creation
// rules.
type UpdateContentRequest struct {
	Creator                  uuid.UUID
	ID                       string
	Price                    *int64
	Active                   *bool
	RentalEnabled            *bool
	RentalPrice              *int64
	RentalDuration           *time.Duration
	RequiredSubscriptionTier *int64
}

// PurchaseContentRequest contains parameters for a full purchase.
type PurchaseContentRequest struct {
	Buyer     uuid.UUID
	ContentID string
}

// RentContentRequest contains parameters for a rental.
type RentContentRequest struct {
	Renter    uuid.UUID
	ContentID string
}

// ResellContentRequest contains parameters for a resale from seller to
// buyer at the given price.
type ResellContentRequest struct {
	Seller    uuid.UUID
	Buyer     uuid.UUID
	ContentID string
	Price     int64
}

// SubscribeRequest contains parameters for creating or renewing a
// subscription.
type SubscribeRequest struct {
	Subscriber uuid.UUID
	Tier       int64
}

// PurchaseResult is the outcome of a purchase, rental, or resale: the
// written rights record plus the settlement that was applied.
type PurchaseResult struct {
	Purchase   *Purchase  `json:"purchase"`
	Settlement Settlement `json:"settlement"`
}

// SubscribeResult is the outcome of a subscribe call.
type SubscribeResult struct {
	Subscription *Subscription `json:"subscription"`
	Settlement   Settlement    `json:"settlement"`
}

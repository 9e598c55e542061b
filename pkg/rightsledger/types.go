package rightsledger

import (
	"time"

	"github.com/google/uuid"
)

// PurchaseKind distinguishes a full purchase from a time-bounded rental.
type PurchaseKind string

// Purchase kind constants (typed).
const (
	KindFullPurchase PurchaseKind = "full_purchase"
	KindRental       PurchaseKind = "rental"
)

// Subscription tier bounds. Tier 0 on a content means no subscription is
// required to access it.
const (
	MinSubscriptionTier = 1
	MaxSubscriptionTier = 3
)

// Basis-point scale for the platform fee (10000 = 100%).
const FeeBasisPointsMax = 10000

// Platform is the singleton operator record: who runs the marketplace,
// what cut it takes, and aggregate counters.
type Platform struct {
	Authority         uuid.UUID `json:"authority"`
	FeeBasisPoints    int64     `json:"fee_basis_points"`
	TotalContentCount int64     `json:"total_content_count"`
	TotalSalesVolume  int64     `json:"total_sales_volume"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Content holds the commercial terms for one item. The storage reference is
// an opaque handle owned by an external content-storage service; the ledger
// never interprets it.
//
// All monetary fields are integer minor units.
type Content struct {
	ID                       string        `json:"id"`
	Creator                  uuid.UUID     `json:"creator"`
	StorageRef               string        `json:"storage_ref"`
	Price                    int64         `json:"price"`
	RoyaltyPercent           int64         `json:"royalty_percent"`
	SalesCount               int64         `json:"sales_count"`
	Active                   bool          `json:"active"`
	CreatedAt                time.Time     `json:"created_at"`
	UpdatedAt                time.Time     `json:"updated_at"`
	RentalEnabled            bool          `json:"rental_enabled"`
	RentalPrice              int64         `json:"rental_price,omitempty"`
	RentalDuration           time.Duration `json:"rental_duration,omitempty"`
	RequiredSubscriptionTier int64         `json:"required_subscription_tier,omitempty"`
}

// Purchase proves what a principal may access and, when ResaleRights is
// set, resell. Rentals are purchase-shaped records with KindRental and a
// mandatory expiration; their validity is computed at read time, never by a
// background sweep.
type Purchase struct {
	Buyer        uuid.UUID    `json:"buyer"`
	ContentID    string       `json:"content_id"`
	Price        int64        `json:"price"`
	Timestamp    time.Time    `json:"timestamp"`
	ResaleRights bool         `json:"resale_rights"`
	Kind         PurchaseKind `json:"kind"`
	Expiration   *time.Time   `json:"expiration,omitempty"`
}

// Expired reports whether the record carries an expiration that has passed.
// Records without an expiration never expire.
func (p *Purchase) Expired(now time.Time) bool {
	return p.Expiration != nil && !now.Before(*p.Expiration)
}

// Subscription is a subscriber's current tier. It is upserted on every
// subscribe call and expires lazily: validity is evaluated against the
// stored expiration at read time.
type Subscription struct {
	Subscriber     uuid.UUID `json:"subscriber"`
	Tier           int64     `json:"tier"`
	StartTime      time.Time `json:"start_time"`
	ExpirationTime time.Time `json:"expiration_time"`
	Active         bool      `json:"active"`
}

// Valid reports whether the subscription satisfies requiredTier at the
// given instant.
func (s *Subscription) Valid(now time.Time, requiredTier int64) bool {
	if s == nil || !s.Active {
		return false
	}
	if !now.Before(s.ExpirationTime) {
		return false
	}
	return s.Tier >= requiredTier
}

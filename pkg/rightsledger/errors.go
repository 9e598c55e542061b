package rightsledger

import (
	"errors"
	"fmt"

	"github.com/slydr-labs/rights-ledger/pkg/rightsledger/recordkey"
)

// Error taxonomy. Every failure mode a caller can observe maps to exactly
// one of these sentinels; they are surfaced verbatim and never recovered
// internally.
var (
	// ErrInvalidRoyaltyPercentage indicates a royalty outside 0..100.
	ErrInvalidRoyaltyPercentage = errors.New("royalty percentage must be between 0 and 100")

	// ErrInsufficientFunds indicates the payment gateway rejected a transfer.
	ErrInsufficientFunds = errors.New("insufficient funds to complete the transaction")

	// ErrNotAuthorized indicates the caller is not permitted to perform the action.
	ErrNotAuthorized = errors.New("not authorized to perform this action")

	// ErrContentNotActive indicates the content does not accept new transactions.
	ErrContentNotActive = errors.New("content is not active")

	// ErrNoResaleRights indicates the seller holds no resale-rights-bearing purchase.
	ErrNoResaleRights = errors.New("no resale rights for this content")

	// ErrInvalidContentID indicates an empty content id.
	ErrInvalidContentID = errors.New("content id cannot be empty")

	// ErrInvalidStorageRef indicates an empty storage reference.
	ErrInvalidStorageRef = errors.New("storage reference cannot be empty")

	// ErrInvalidPrice indicates a non-positive price.
	ErrInvalidPrice = errors.New("price must be greater than 0")

	// ErrInvalidFeeAmount indicates a platform fee outside 1..10000 basis points.
	ErrInvalidFeeAmount = errors.New("platform fee must be between 1 and 10000 basis points")

	// ErrRentalNotEnabled indicates the content is not offered for rental.
	ErrRentalNotEnabled = errors.New("rental is not enabled for this content")

	// ErrInvalidRentalPrice indicates a non-positive rental price.
	ErrInvalidRentalPrice = errors.New("rental price must be greater than 0")

	// ErrInvalidRentalDuration indicates a non-positive rental duration.
	ErrInvalidRentalDuration = errors.New("rental duration must be greater than 0")

	// ErrPurchaseExpired indicates the seller's rental-backed rights have expired.
	ErrPurchaseExpired = errors.New("purchase has expired")

	// ErrInvalidSubscriptionTier indicates a tier outside 1..3.
	ErrInvalidSubscriptionTier = errors.New("invalid subscription tier")

	// ErrPlatformExists indicates the platform singleton was already initialized.
	ErrPlatformExists = errors.New("platform already initialized")

	// ErrPlatformNotFound indicates the platform singleton does not exist yet.
	ErrPlatformNotFound = errors.New("platform not initialized")

	// ErrContentExists indicates a content record already uses the id.
	ErrContentExists = errors.New("content already exists")

	// ErrContentNotFound indicates no content record for the id.
	ErrContentNotFound = errors.New("content not found")

	// ErrPurchaseNotFound indicates no purchase record for the (buyer, content) pair.
	ErrPurchaseNotFound = errors.New("purchase not found")

	// ErrRentalNotFound indicates no rental record for the (renter, content) pair.
	ErrRentalNotFound = errors.New("rental not found")

	// ErrSubscriptionNotFound indicates no subscription record for the subscriber.
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// errorCodes maps sentinel errors to the wire-level code names surfaced to
// callers.
var errorCodes = []struct {
	err  error
	code string
}{
	{ErrInvalidRoyaltyPercentage, "InvalidRoyaltyPercentage"},
	{ErrInsufficientFunds, "InsufficientFunds"},
	{ErrNotAuthorized, "NotAuthorized"},
	{ErrContentNotActive, "ContentNotActive"},
	{ErrNoResaleRights, "NoResaleRights"},
	{ErrInvalidContentID, "InvalidContentId"},
	{ErrInvalidStorageRef, "InvalidStorageRef"},
	{ErrInvalidPrice, "InvalidPrice"},
	{ErrInvalidFeeAmount, "InvalidFeeAmount"},
	{ErrRentalNotEnabled, "RentalNotEnabled"},
	{ErrInvalidRentalPrice, "InvalidRentalPrice"},
	{ErrInvalidRentalDuration, "InvalidRentalDuration"},
	{ErrPurchaseExpired, "PurchaseExpired"},
	{ErrInvalidSubscriptionTier, "InvalidSubscriptionTier"},
	{ErrPlatformExists, "PlatformExists"},
	{ErrPlatformNotFound, "PlatformNotFound"},
	{ErrContentExists, "ContentExists"},
	{ErrContentNotFound, "ContentNotFound"},
	{ErrPurchaseNotFound, "PurchaseNotFound"},
	{ErrRentalNotFound, "RentalNotFound"},
	{ErrSubscriptionNotFound, "SubscriptionNotFound"},
}

// ErrorCode returns the wire-level code name for an error, unwrapping as
// needed. Unknown errors report "Internal".
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "Internal"
}

// LedgerError wraps a failure of a ledger operation with the operation name
// and the record key involved.
type LedgerError struct {
	Op  string
	Key recordkey.Key
	Err error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger operation %s failed for %s: %v", e.Op, e.Key, e.Err)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}

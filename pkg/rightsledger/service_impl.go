package rightsledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/slydr-labs/rights-ledger/pkg/rightsledger/recordkey"
)

// DefaultSubscriptionPeriod is the validity window granted by a subscribe
// call when no period is configured.
const DefaultSubscriptionPeriod = 30 * 24 * time.Hour

// DefaultTierPrices is the per-tier subscription price, in minor units,
// used when no pricing is configured.
var DefaultTierPrices = map[int64]int64{
	1: 100,
	2: 200,
	3: 500,
}

// service implements the Service interface
type service struct {
	store    Store
	events   EventSink
	payments PaymentGateway
	now      func() time.Time

	subscriptionPeriod time.Duration
	tierPrices         map[int64]int64

	// revokeSellerRights controls whether a successful resale clears the
	// seller's own resale rights. Off by default: the seller's record is
	// retained untouched.
	revokeSellerRights bool
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithStore sets the record store for the service.
func WithStore(store Store) Option {
	return func(s *service) {
		s.store = store
	}
}

// WithEventSink sets the event sink for the service.
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.events = sink
	}
}

// WithPaymentGateway sets the payment gateway for the service.
func WithPaymentGateway(gateway PaymentGateway) Option {
	return func(s *service) {
		s.payments = gateway
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// WithSubscriptionPeriod sets the validity window granted by a subscribe
// call.
func WithSubscriptionPeriod(period time.Duration) Option {
	return func(s *service) {
		s.subscriptionPeriod = period
	}
}

// WithTierPrices sets the per-tier subscription price in minor units. The
// map must cover every tier from 1 to 3.
func WithTierPrices(prices map[int64]int64) Option {
	return func(s *service) {
		s.tierPrices = prices
	}
}

// WithRevokeSellerRightsOnResale makes a successful resale clear the
// seller's own resale rights instead of retaining them.
func WithRevokeSellerRightsOnResale(revoke bool) Option {
	return func(s *service) {
		s.revokeSellerRights = revoke
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		events:             NewNoopEventSink(),
		payments:           NewNoopPaymentGateway(),
		now:                time.Now,
		subscriptionPeriod: DefaultSubscriptionPeriod,
		tierPrices:         DefaultTierPrices,
	}

	for _, option := range options {
		option(s)
	}

	if s.store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if s.subscriptionPeriod <= 0 {
		return nil, fmt.Errorf("subscription period must be positive")
	}
	for tier := int64(MinSubscriptionTier); tier <= MaxSubscriptionTier; tier++ {
		if price, ok := s.tierPrices[tier]; !ok || price <= 0 {
			return nil, fmt.Errorf("tier %d requires a positive price", tier)
		}
	}

	return s, nil
}

// Platform registry

func (s *service) InitializePlatform(ctx context.Context, req InitializePlatformRequest) (*Platform, error) {
	if req.FeeBasisPoints <= 0 || req.FeeBasisPoints > FeeBasisPointsMax {
		return nil, ErrInvalidFeeAmount
	}

	now := s.now().UTC()
	platform := &Platform{
		Authority:      req.Authority,
		FeeBasisPoints: req.FeeBasisPoints,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.store.RunAtomic(ctx, func(tx Store) error {
		_, err := tx.GetPlatform(ctx)
		if err == nil {
			return ErrPlatformExists
		}
		if !errors.Is(err, ErrPlatformNotFound) {
			return err
		}
		return tx.PutPlatform(ctx, platform)
	})
	if err != nil {
		return nil, &LedgerError{Op: "initialize_platform", Key: recordkey.Platform(), Err: err}
	}

	// Sink failures never roll back a committed operation.
	_ = s.events.PlatformInitialized(ctx, platform)

	return platform, nil
}

func (s *service) GetPlatform(ctx context.Context) (*Platform, error) {
	return s.store.GetPlatform(ctx)
}

func (s *service) UpdatePlatformFee(ctx context.Context, req UpdatePlatformFeeRequest) (*Platform, error) {
	if req.FeeBasisPoints <= 0 || req.FeeBasisPoints > FeeBasisPointsMax {
		return nil, ErrInvalidFeeAmount
	}

	var platform *Platform
	err := s.store.RunAtomic(ctx, func(tx Store) error {
		var err error
		platform, err = tx.GetPlatform(ctx)
		if err != nil {
			return err
		}
		if platform.Authority != req.Authority {
			return ErrNotAuthorized
		}
		platform.FeeBasisPoints = req.FeeBasisPoints
		platform.UpdatedAt = s.now().UTC()
		return tx.PutPlatform(ctx, platform)
	})
	if err != nil {
		return nil, &LedgerError{Op: "update_platform_fee", Key: recordkey.Platform(), Err: err}
	}

	_ = s.events.PlatformFeeUpdated(ctx, platform)

	return platform, nil
}

// Content registry

func (s *service) CreateContent(ctx context.Context, req CreateContentRequest) (*Content, error) {
	if err := validateContentTerms(req); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	content := &Content{
		ID:                       req.ID,
		Creator:                  req.Creator,
		StorageRef:               req.StorageRef,
		Price:                    req.Price,
		RoyaltyPercent:           req.RoyaltyPercent,
		Active:                   true,
		CreatedAt:                now,
		UpdatedAt:                now,
		RentalEnabled:            req.RentalEnabled,
		RentalPrice:              req.RentalPrice,
		RentalDuration:           req.RentalDuration,
		RequiredSubscriptionTier: req.RequiredSubscriptionTier,
	}

	err := s.store.RunAtomic(ctx, func(tx Store) error {
		platform, err := tx.GetPlatform(ctx)
		if err != nil {
			return err
		}
		if _, err := tx.GetContent(ctx, req.ID); err == nil {
			return ErrContentExists
		} else if !errors.Is(err, ErrContentNotFound) {
			return err
		}
		if err := tx.PutContent(ctx, content); err != nil {
			return err
		}
		platform.TotalContentCount++
		platform.UpdatedAt = now
		return tx.PutPlatform(ctx, platform)
	})
	if err != nil {
		return nil, &LedgerError{Op: "create_content", Key: recordkey.Content(req.ID), Err: err}
	}

	_ = s.events.ContentCreated(ctx, content)

	return content, nil
}

func (s *service) UpdateContent(ctx context.Context, req UpdateContentRequest) (*Content, error) {
	if req.ID == "" {
		return nil, ErrInvalidContentID
	}

	var content *Content
	err := s.store.RunAtomic(ctx, func(tx Store) error {
		var err error
		content, err = tx.GetContent(ctx, req.ID)
		if err != nil {
			return err
		}
		if content.Creator != req.Creator {
			return ErrNotAuthorized
		}

		// Only update fields that are provided; each provided field is
		// revalidated with the creation rules.
		if req.Price != nil {
			if *req.Price <= 0 {
				return ErrInvalidPrice
			}
			content.Price = *req.Price
		}
		if req.Active != nil {
			content.Active = *req.Active
		}
		if req.RentalEnabled != nil {
			content.RentalEnabled = *req.RentalEnabled
		}
		if req.RentalPrice != nil {
			if *req.RentalPrice <= 0 {
				return ErrInvalidRentalPrice
			}
			content.RentalPrice = *req.RentalPrice
		}
		if req.RentalDuration != nil {
			if *req.RentalDuration <= 0 {
				return ErrInvalidRentalDuration
			}
			content.RentalDuration = *req.RentalDuration
		}
		if req.RequiredSubscriptionTier != nil {
			if *req.RequiredSubscriptionTier < 0 || *req.RequiredSubscriptionTier > MaxSubscriptionTier {
				return ErrInvalidSubscriptionTier
			}
			content.RequiredSubscriptionTier = *req.RequiredSubscriptionTier
		}

		// Enabling rental still requires positive terms, whether they were
		// set in this call or stored earlier.
		if content.RentalEnabled {
			if content.RentalPrice <= 0 {
				return ErrInvalidRentalPrice
			}
			if content.RentalDuration <= 0 {
				return ErrInvalidRentalDuration
			}
		}

		content.UpdatedAt = s.now().UTC()
		return tx.PutContent(ctx, content)
	})
	if err != nil {
		return nil, &LedgerError{Op: "update_content", Key: recordkey.Content(req.ID), Err: err}
	}

	_ = s.events.ContentUpdated(ctx, content)

	return content, nil
}

func (s *service) GetContent(ctx context.Context, contentID string) (*Content, error) {
	return s.store.GetContent(ctx, contentID)
}

// Rights operations

func (s *service) PurchaseContent(ctx context.Context, req PurchaseContentRequest) (*PurchaseResult, error) {
	now := s.now().UTC()

	var result *PurchaseResult
	err := s.store.RunAtomic(ctx, func(tx Store) error {
		content, err := tx.GetContent(ctx, req.ContentID)
		if err != nil {
			return err
		}
		if !content.Active {
			return ErrContentNotActive
		}
		platform, err := tx.GetPlatform(ctx)
		if err != nil {
			return err
		}

		settlement := saleSettlement(req.Buyer, content, platform, content.Price)
		if err := s.payments.Apply(ctx, settlement); err != nil {
			return err
		}

		purchase := &Purchase{
			Buyer:        req.Buyer,
			ContentID:    content.ID,
			Price:        content.Price,
			Timestamp:    now,
			ResaleRights: true,
			Kind:         KindFullPurchase,
		}
		if err := tx.PutPurchase(ctx, purchase); err != nil {
			return err
		}

		content.SalesCount++
		content.UpdatedAt = now
		if err := tx.PutContent(ctx, content); err != nil {
			return err
		}

		platform.TotalSalesVolume += content.Price
		platform.UpdatedAt = now
		if err := tx.PutPlatform(ctx, platform); err != nil {
			return err
		}

		result = &PurchaseResult{Purchase: purchase, Settlement: settlement}
		return nil
	})
	if err != nil {
		return nil, &LedgerError{Op: "purchase_content", Key: recordkey.Content(req.ContentID), Err: err}
	}

	_ = s.events.ContentPurchased(ctx, result.Purchase, result.Settlement)

	return result, nil
}

func (s *service) RentContent(ctx context.Context, req RentContentRequest) (*PurchaseResult, error) {
	now := s.now().UTC()

	var result *PurchaseResult
	err := s.store.RunAtomic(ctx, func(tx Store) error {
		content, err := tx.GetContent(ctx, req.ContentID)
		if err != nil {
			return err
		}
		if !content.Active {
			return ErrContentNotActive
		}
		if !content.RentalEnabled {
			return ErrRentalNotEnabled
		}
		platform, err := tx.GetPlatform(ctx)
		if err != nil {
			return err
		}

		settlement := saleSettlement(req.Renter, content, platform, content.RentalPrice)
		if err := s.payments.Apply(ctx, settlement); err != nil {
			return err
		}

		expiration := now.Add(content.RentalDuration)
		rental := &Purchase{
			Buyer:      req.Renter,
			ContentID:  content.ID,
			Price:      content.RentalPrice,
			Timestamp:  now,
			Kind:       KindRental,
			Expiration: &expiration,
		}
		if err := tx.PutRental(ctx, rental); err != nil {
			return err
		}

		platform.TotalSalesVolume += content.RentalPrice
		platform.UpdatedAt = now
		if err := tx.PutPlatform(ctx, platform); err != nil {
			return err
		}

		result = &PurchaseResult{Purchase: rental, Settlement: settlement}
		return nil
	})
	if err != nil {
		return nil, &LedgerError{Op: "rent_content", Key: recordkey.Content(req.ContentID), Err: err}
	}

	_ = s.events.ContentRented(ctx, result.Purchase, result.Settlement)

	return result, nil
}

func (s *service) ResellContent(ctx context.Context, req ResellContentRequest) (*PurchaseResult, error) {
	if req.Price <= 0 {
		return nil, ErrInvalidPrice
	}
	if req.Seller == req.Buyer {
		return nil, ErrNotAuthorized
	}

	now := s.now().UTC()

	var result *PurchaseResult
	err := s.store.RunAtomic(ctx, func(tx Store) error {
		content, err := tx.GetContent(ctx, req.ContentID)
		if err != nil {
			return err
		}
		if !content.Active {
			return ErrContentNotActive
		}
		platform, err := tx.GetPlatform(ctx)
		if err != nil {
			return err
		}

		sellerPurchase, err := tx.GetPurchase(ctx, req.Seller, req.ContentID)
		if errors.Is(err, ErrPurchaseNotFound) {
			return ErrNoResaleRights
		}
		if err != nil {
			return err
		}
		if !sellerPurchase.ResaleRights {
			return ErrNoResaleRights
		}
		if sellerPurchase.Expired(now) {
			return ErrPurchaseExpired
		}

		settlement := resaleSettlement(req.Buyer, req.Seller, content, platform, req.Price)
		if err := s.payments.Apply(ctx, settlement); err != nil {
			return err
		}

		// Resale rights propagate transitively: the new owner always
		// receives a full, unexpiring purchase regardless of the shape of
		// the seller's record.
		buyerPurchase := &Purchase{
			Buyer:        req.Buyer,
			ContentID:    content.ID,
			Price:        req.Price,
			Timestamp:    now,
			ResaleRights: true,
			Kind:         KindFullPurchase,
		}
		if err := tx.PutPurchase(ctx, buyerPurchase); err != nil {
			return err
		}

		if s.revokeSellerRights {
			sellerPurchase.ResaleRights = false
			if err := tx.PutPurchase(ctx, sellerPurchase); err != nil {
				return err
			}
		}

		content.SalesCount++
		content.UpdatedAt = now
		if err := tx.PutContent(ctx, content); err != nil {
			return err
		}

		platform.TotalSalesVolume += req.Price
		platform.UpdatedAt = now
		if err := tx.PutPlatform(ctx, platform); err != nil {
			return err
		}

		result = &PurchaseResult{Purchase: buyerPurchase, Settlement: settlement}
		return nil
	})
	if err != nil {
		return nil, &LedgerError{Op: "resell_content", Key: recordkey.Content(req.ContentID), Err: err}
	}

	_ = s.events.ContentResold(ctx, req.Seller, result.Purchase, result.Settlement)

	return result, nil
}

func (s *service) Subscribe(ctx context.Context, req SubscribeRequest) (*SubscribeResult, error) {
	if req.Tier < MinSubscriptionTier || req.Tier > MaxSubscriptionTier {
		return nil, ErrInvalidSubscriptionTier
	}
	price, ok := s.tierPrices[req.Tier]
	if !ok {
		return nil, ErrInvalidSubscriptionTier
	}

	now := s.now().UTC()

	var result *SubscribeResult
	err := s.store.RunAtomic(ctx, func(tx Store) error {
		platform, err := tx.GetPlatform(ctx)
		if err != nil {
			return err
		}

		settlement := subscriptionSettlement(req.Subscriber, platform, price)
		if err := s.payments.Apply(ctx, settlement); err != nil {
			return err
		}

		subscription := &Subscription{
			Subscriber:     req.Subscriber,
			Tier:           req.Tier,
			StartTime:      now,
			ExpirationTime: now.Add(s.subscriptionPeriod),
			Active:         true,
		}
		if err := tx.PutSubscription(ctx, subscription); err != nil {
			return err
		}

		result = &SubscribeResult{Subscription: subscription, Settlement: settlement}
		return nil
	})
	if err != nil {
		return nil, &LedgerError{Op: "subscribe", Key: recordkey.Subscription(req.Subscriber), Err: err}
	}

	_ = s.events.SubscriptionCreated(ctx, result.Subscription, result.Settlement)

	return result, nil
}

// Rights reads

func (s *service) GetPurchase(ctx context.Context, buyer uuid.UUID, contentID string) (*Purchase, error) {
	return s.store.GetPurchase(ctx, buyer, contentID)
}

func (s *service) GetRental(ctx context.Context, renter uuid.UUID, contentID string) (*Purchase, error) {
	return s.store.GetRental(ctx, renter, contentID)
}

func (s *service) GetSubscription(ctx context.Context, subscriber uuid.UUID) (*Subscription, error) {
	return s.store.GetSubscription(ctx, subscriber)
}

func (s *service) IsSubscriptionValid(ctx context.Context, subscriber uuid.UUID, requiredTier int64) (bool, error) {
	subscription, err := s.store.GetSubscription(ctx, subscriber)
	if errors.Is(err, ErrSubscriptionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return subscription.Valid(s.now().UTC(), requiredTier), nil
}

func (s *service) IsRentalValid(ctx context.Context, renter uuid.UUID, contentID string) (bool, error) {
	rental, err := s.store.GetRental(ctx, renter, contentID)
	if errors.Is(err, ErrRentalNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !rental.Expired(s.now().UTC()), nil
}

// HasActiveAccess reports whether the principal currently holds any right
// to the content: an unexpired purchase, an unexpired rental, or a valid
// subscription of at least the content's required tier. Deactivating a
// content never revokes rights that were already granted.
func (s *service) HasActiveAccess(ctx context.Context, principal uuid.UUID, contentID string) (bool, error) {
	content, err := s.store.GetContent(ctx, contentID)
	if err != nil {
		return false, err
	}

	now := s.now().UTC()

	purchase, err := s.store.GetPurchase(ctx, principal, contentID)
	if err == nil && !purchase.Expired(now) {
		return true, nil
	}
	if err != nil && !errors.Is(err, ErrPurchaseNotFound) {
		return false, err
	}

	rental, err := s.store.GetRental(ctx, principal, contentID)
	if err == nil && !rental.Expired(now) {
		return true, nil
	}
	if err != nil && !errors.Is(err, ErrRentalNotFound) {
		return false, err
	}

	if content.RequiredSubscriptionTier >= MinSubscriptionTier {
		return s.IsSubscriptionValid(ctx, principal, content.RequiredSubscriptionTier)
	}

	return false, nil
}

// validateContentTerms applies the creation rules. The whole request is
// rejected before any state is touched.
func validateContentTerms(req CreateContentRequest) error {
	if req.ID == "" {
		return ErrInvalidContentID
	}
	if req.StorageRef == "" {
		return ErrInvalidStorageRef
	}
	if req.Price <= 0 {
		return ErrInvalidPrice
	}
	if req.RoyaltyPercent < 0 || req.RoyaltyPercent > 100 {
		return ErrInvalidRoyaltyPercentage
	}
	if req.RentalEnabled {
		if req.RentalPrice <= 0 {
			return ErrInvalidRentalPrice
		}
		if req.RentalDuration <= 0 {
			return ErrInvalidRentalDuration
		}
	}
	if req.RequiredSubscriptionTier < 0 || req.RequiredSubscriptionTier > MaxSubscriptionTier {
		return ErrInvalidSubscriptionTier
	}
	return nil
}

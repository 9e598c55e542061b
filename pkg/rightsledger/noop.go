package rightsledger

import (
	"context"

	"github.com/google/uuid"
)

// NoopEventSink is a no-operation implementation of EventSink.
// Useful for production when you don't need event handling or for testing.
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

func (n *NoopEventSink) PlatformInitialized(ctx context.Context, platform *Platform) error {
	return nil
}

func (n *NoopEventSink) PlatformFeeUpdated(ctx context.Context, platform *Platform) error {
	return nil
}

func (n *NoopEventSink) ContentCreated(ctx context.Context, content *Content) error {
	return nil
}

func (n *NoopEventSink) ContentUpdated(ctx context.Context, content *Content) error {
	return nil
}

func (n *NoopEventSink) ContentPurchased(ctx context.Context, purchase *Purchase, settlement Settlement) error {
	return nil
}

func (n *NoopEventSink) ContentRented(ctx context.Context, rental *Purchase, settlement Settlement) error {
	return nil
}

func (n *NoopEventSink) ContentResold(ctx context.Context, seller uuid.UUID, purchase *Purchase, settlement Settlement) error {
	return nil
}

func (n *NoopEventSink) SubscriptionCreated(ctx context.Context, subscription *Subscription, settlement Settlement) error {
	return nil
}

// NoopPaymentGateway accepts every settlement without moving funds. It is
// the default gateway: balance bookkeeping belongs to an external
// collaborator.
type NoopPaymentGateway struct{}

// NewNoopPaymentGateway creates a new no-operation payment gateway
func NewNoopPaymentGateway() PaymentGateway {
	return &NoopPaymentGateway{}
}

func (n *NoopPaymentGateway) Apply(ctx context.Context, settlement Settlement) error {
	return nil
}

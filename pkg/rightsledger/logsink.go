package rightsledger

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// LogEventSink writes one structured log line per committed ledger
// operation.
type LogEventSink struct {
	logger *slog.Logger
}

// NewLogEventSink creates an event sink backed by the given logger. A nil
// logger uses slog's default.
func NewLogEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEventSink{logger: logger}
}

func (l *LogEventSink) PlatformInitialized(ctx context.Context, platform *Platform) error {
	l.logger.InfoContext(ctx, "platform initialized",
		"authority", platform.Authority,
		"fee_basis_points", platform.FeeBasisPoints)
	return nil
}

func (l *LogEventSink) PlatformFeeUpdated(ctx context.Context, platform *Platform) error {
	l.logger.InfoContext(ctx, "platform fee updated",
		"fee_basis_points", platform.FeeBasisPoints)
	return nil
}

func (l *LogEventSink) ContentCreated(ctx context.Context, content *Content) error {
	l.logger.InfoContext(ctx, "content created",
		"content_id", content.ID,
		"creator", content.Creator,
		"price", content.Price,
		"royalty_percent", content.RoyaltyPercent,
		"rental_enabled", content.RentalEnabled)
	return nil
}

func (l *LogEventSink) ContentUpdated(ctx context.Context, content *Content) error {
	l.logger.InfoContext(ctx, "content updated",
		"content_id", content.ID,
		"price", content.Price,
		"active", content.Active)
	return nil
}

func (l *LogEventSink) ContentPurchased(ctx context.Context, purchase *Purchase, settlement Settlement) error {
	l.logger.InfoContext(ctx, "content purchased",
		"content_id", purchase.ContentID,
		"buyer", purchase.Buyer,
		"price", purchase.Price)
	return nil
}

func (l *LogEventSink) ContentRented(ctx context.Context, rental *Purchase, settlement Settlement) error {
	l.logger.InfoContext(ctx, "content rented",
		"content_id", rental.ContentID,
		"renter", rental.Buyer,
		"price", rental.Price,
		"expiration", rental.Expiration)
	return nil
}

func (l *LogEventSink) ContentResold(ctx context.Context, seller uuid.UUID, purchase *Purchase, settlement Settlement) error {
	l.logger.InfoContext(ctx, "content resold",
		"content_id", purchase.ContentID,
		"seller", seller,
		"buyer", purchase.Buyer,
		"price", purchase.Price)
	return nil
}

func (l *LogEventSink) SubscriptionCreated(ctx context.Context, subscription *Subscription, settlement Settlement) error {
	l.logger.InfoContext(ctx, "subscription created",
		"subscriber", subscription.Subscriber,
		"tier", subscription.Tier,
		"expiration", subscription.ExpirationTime)
	return nil
}

// Package recordkey derives the canonical storage key for every ledger
// entity. A key is computed purely from the entity's type tag and its
// identifying fields, so each logical record has exactly one address and
// records of different kinds can never collide.
package recordkey

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Key is a canonical record address.
type Key string

// Entity type tags. The tag is always the first path segment of a key,
// which is what guarantees collision-freedom across entity kinds.
const (
	TagPlatform     = "platform"
	TagContent      = "content"
	TagPurchase     = "purchase"
	TagRental       = "rental"
	TagSubscription = "subscription"
)

// Platform returns the fixed singleton key for the platform record.
func Platform() Key {
	return Key(TagPlatform)
}

// Content returns the key for a content record.
func Content(contentID string) Key {
	return Key(fmt.Sprintf("%s:%s", TagContent, contentID))
}

// Purchase returns the key for a buyer's purchase record of a content.
// The full content key (not the bare id) is embedded, so purchase keys
// chain off content keys.
func Purchase(buyer uuid.UUID, contentKey Key) Key {
	return Key(fmt.Sprintf("%s:%s:%s", TagPurchase, buyer, contentKey))
}

// Rental returns the key for a renter's rental record of a content.
func Rental(renter uuid.UUID, contentKey Key) Key {
	return Key(fmt.Sprintf("%s:%s:%s", TagRental, renter, contentKey))
}

// Subscription returns the key for a subscriber's subscription record.
func Subscription(subscriber uuid.UUID) Key {
	return Key(fmt.Sprintf("%s:%s", TagSubscription, subscriber))
}

// Tag reports the entity type tag of a key.
func (k Key) Tag() string {
	s := string(k)
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i]
	}
	return s
}

func (k Key) String() string {
	return string(k)
}

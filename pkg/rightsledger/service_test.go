package rightsledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slydr-labs/rights-ledger/pkg/rightsledger"
	"github.com/slydr-labs/rights-ledger/pkg/rightsledger/repo/memory"
)

// recordingGateway captures every settlement the service applies.
type recordingGateway struct {
	mu          sync.Mutex
	settlements []rightsledger.Settlement
}

func (g *recordingGateway) Apply(ctx context.Context, settlement rightsledger.Settlement) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.settlements = append(g.settlements, settlement)
	return nil
}

func (g *recordingGateway) applied() []rightsledger.Settlement {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]rightsledger.Settlement(nil), g.settlements...)
}

// failingGateway refuses every settlement.
type failingGateway struct{}

func (failingGateway) Apply(ctx context.Context, settlement rightsledger.Settlement) error {
	return rightsledger.ErrInsufficientFunds
}

// testClock is a manually advanced time source.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	svc       rightsledger.Service
	store     *memory.Store
	gateway   *recordingGateway
	clock     *testClock
	authority uuid.UUID
	creator   uuid.UUID
}

func newFixture(t *testing.T, opts ...rightsledger.Option) *fixture {
	t.Helper()

	f := &fixture{
		store:     memory.New(),
		gateway:   &recordingGateway{},
		clock:     newTestClock(),
		authority: uuid.New(),
		creator:   uuid.New(),
	}

	options := []rightsledger.Option{
		rightsledger.WithStore(f.store),
		rightsledger.WithPaymentGateway(f.gateway),
		rightsledger.WithClock(f.clock.Now),
	}
	options = append(options, opts...)

	svc, err := rightsledger.New(options...)
	require.NoError(t, err)
	f.svc = svc
	return f
}

// initPlatform initializes the platform with a 5% fee (500 basis points).
func (f *fixture) initPlatform(t *testing.T) {
	t.Helper()
	_, err := f.svc.InitializePlatform(context.Background(), rightsledger.InitializePlatformRequest{
		Authority:      f.authority,
		FeeBasisPoints: 500,
	})
	require.NoError(t, err)
}

func (f *fixture) createContent(t *testing.T, mutate ...func(*rightsledger.CreateContentRequest)) *rightsledger.Content {
	t.Helper()
	req := rightsledger.CreateContentRequest{
		Creator:        f.creator,
		ID:             "vid-1",
		StorageRef:     "ar://tx-abc123",
		Price:          100,
		RoyaltyPercent: 20,
	}
	for _, m := range mutate {
		m(&req)
	}
	content, err := f.svc.CreateContent(context.Background(), req)
	require.NoError(t, err)
	return content
}

func TestServiceCreation(t *testing.T) {
	tests := []struct {
		name        string
		options     []rightsledger.Option
		expectError bool
	}{
		{
			name:        "no options should fail",
			options:     []rightsledger.Option{},
			expectError: true,
		},
		{
			name: "with store should succeed",
			options: []rightsledger.Option{
				rightsledger.WithStore(memory.New()),
			},
			expectError: false,
		},
		{
			name: "incomplete tier prices should fail",
			options: []rightsledger.Option{
				rightsledger.WithStore(memory.New()),
				rightsledger.WithTierPrices(map[int64]int64{1: 100}),
			},
			expectError: true,
		},
		{
			name: "non-positive subscription period should fail",
			options: []rightsledger.Option{
				rightsledger.WithStore(memory.New()),
				rightsledger.WithSubscriptionPeriod(0),
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := rightsledger.New(tt.options...)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestInitializePlatform(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newFixture(t)
		platform, err := f.svc.InitializePlatform(ctx, rightsledger.InitializePlatformRequest{
			Authority:      f.authority,
			FeeBasisPoints: 250,
		})
		require.NoError(t, err)
		assert.Equal(t, f.authority, platform.Authority)
		assert.Equal(t, int64(250), platform.FeeBasisPoints)
		assert.Zero(t, platform.TotalContentCount)
		assert.Zero(t, platform.TotalSalesVolume)

		got, err := f.svc.GetPlatform(ctx)
		require.NoError(t, err)
		assert.Equal(t, platform, got)
	})

	t.Run("zero fee rejected", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.InitializePlatform(ctx, rightsledger.InitializePlatformRequest{
			Authority: f.authority,
		})
		assert.ErrorIs(t, err, rightsledger.ErrInvalidFeeAmount)
	})

	t.Run("fee above 10000 rejected", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.InitializePlatform(ctx, rightsledger.InitializePlatformRequest{
			Authority:      f.authority,
			FeeBasisPoints: 10001,
		})
		assert.ErrorIs(t, err, rightsledger.ErrInvalidFeeAmount)
	})

	t.Run("second initialization rejected", func(t *testing.T) {
		f := newFixture(t)
		f.initPlatform(t)
		_, err := f.svc.InitializePlatform(ctx, rightsledger.InitializePlatformRequest{
			Authority:      uuid.New(),
			FeeBasisPoints: 100,
		})
		assert.ErrorIs(t, err, rightsledger.ErrPlatformExists)
	})
}

func TestUpdatePlatformFee(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.initPlatform(t)

	t.Run("authority may change the fee", func(t *testing.T) {
		platform, err := f.svc.UpdatePlatformFee(ctx, rightsledger.UpdatePlatformFeeRequest{
			Authority:      f.authority,
			FeeBasisPoints: 1000,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1000), platform.FeeBasisPoints)
	})

	t.Run("anyone else is rejected", func(t *testing.T) {
		_, err := f.svc.UpdatePlatformFee(ctx, rightsledger.UpdatePlatformFeeRequest{
			Authority:      uuid.New(),
			FeeBasisPoints: 1,
		})
		assert.ErrorIs(t, err, rightsledger.ErrNotAuthorized)
	})

	t.Run("bounds still apply", func(t *testing.T) {
		_, err := f.svc.UpdatePlatformFee(ctx, rightsledger.UpdatePlatformFeeRequest{
			Authority:      f.authority,
			FeeBasisPoints: 0,
		})
		assert.ErrorIs(t, err, rightsledger.ErrInvalidFeeAmount)
	})
}

func TestCreateContentValidation(t *testing.T) {
	ctx := context.Background()

	valid := rightsledger.CreateContentRequest{
		ID:             "vid-1",
		StorageRef:     "ar://tx",
		Price:          100,
		RoyaltyPercent: 20,
	}

	tests := []struct {
		name    string
		mutate  func(*rightsledger.CreateContentRequest)
		wantErr error
	}{
		{"empty id", func(r *rightsledger.CreateContentRequest) { r.ID = "" }, rightsledger.ErrInvalidContentID},
		{"empty storage ref", func(r *rightsledger.CreateContentRequest) { r.StorageRef = "" }, rightsledger.ErrInvalidStorageRef},
		{"zero price", func(r *rightsledger.CreateContentRequest) { r.Price = 0 }, rightsledger.ErrInvalidPrice},
		{"negative price", func(r *rightsledger.CreateContentRequest) { r.Price = -1 }, rightsledger.ErrInvalidPrice},
		{"royalty above 100", func(r *rightsledger.CreateContentRequest) { r.RoyaltyPercent = 101 }, rightsledger.ErrInvalidRoyaltyPercentage},
		{"negative royalty", func(r *rightsledger.CreateContentRequest) { r.RoyaltyPercent = -1 }, rightsledger.ErrInvalidRoyaltyPercentage},
		{"rental enabled without price", func(r *rightsledger.CreateContentRequest) {
			r.RentalEnabled = true
			r.RentalDuration = time.Hour
		}, rightsledger.ErrInvalidRentalPrice},
		{"rental enabled without duration", func(r *rightsledger.CreateContentRequest) {
			r.RentalEnabled = true
			r.RentalPrice = 10
		}, rightsledger.ErrInvalidRentalDuration},
		{"tier above 3", func(r *rightsledger.CreateContentRequest) { r.RequiredSubscriptionTier = 4 }, rightsledger.ErrInvalidSubscriptionTier},
		{"boundary royalty 0", func(r *rightsledger.CreateContentRequest) { r.RoyaltyPercent = 0 }, nil},
		{"boundary royalty 100", func(r *rightsledger.CreateContentRequest) { r.RoyaltyPercent = 100 }, nil},
		{"rental fully specified", func(r *rightsledger.CreateContentRequest) {
			r.RentalEnabled = true
			r.RentalPrice = 10
			r.RentalDuration = time.Hour
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.initPlatform(t)

			req := valid
			req.Creator = f.creator
			tt.mutate(&req)

			_, err := f.svc.CreateContent(ctx, req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)

				// A failed creation leaves no partial record behind.
				_, getErr := f.svc.GetContent(ctx, req.ID)
				if req.ID != "" {
					assert.ErrorIs(t, getErr, rightsledger.ErrContentNotFound)
				}
				platform, pErr := f.svc.GetPlatform(ctx)
				require.NoError(t, pErr)
				assert.Zero(t, platform.TotalContentCount)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateContentRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.initPlatform(t)

	created := f.createContent(t, func(r *rightsledger.CreateContentRequest) {
		r.RentalEnabled = true
		r.RentalPrice = 25
		r.RentalDuration = 48 * time.Hour
		r.RequiredSubscriptionTier = 2
	})

	got, err := f.svc.GetContent(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Equal(t, f.creator, got.Creator)
	assert.Equal(t, "ar://tx-abc123", got.StorageRef)
	assert.Equal(t, int64(100), got.Price)
	assert.Equal(t, int64(20), got.RoyaltyPercent)
	assert.True(t, got.Active)
	assert.Zero(t, got.SalesCount)
	assert.True(t, got.RentalEnabled)
	assert.Equal(t, int64(25), got.RentalPrice)
	assert.Equal(t, 48*time.Hour, got.RentalDuration)
	assert.Equal(t, int64(2), got.RequiredSubscriptionTier)

	platform, err := f.svc.GetPlatform(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), platform.TotalContentCount)
}

func TestCreateContentRequiresPlatform(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateContent(context.Background(), rightsledger.CreateContentRequest{
		Creator:        f.creator,
		ID:             "vid-1",
		StorageRef:     "ar://tx",
		Price:          100,
		RoyaltyPercent: 10,
	})
	assert.ErrorIs(t, err, rightsledger.ErrPlatformNotFound)
}

func TestCreateContentDuplicateID(t *testing.T) {
	f := newFixture(t)
	f.initPlatform(t)
	f.createContent(t)

	_, err := f.svc.CreateContent(context.Background(), rightsledger.CreateContentRequest{
		Creator:        f.creator,
		ID:             "vid-1",
		StorageRef:     "ar://other",
		Price:          50,
		RoyaltyPercent: 5,
	})
	assert.ErrorIs(t, err, rightsledger.ErrContentExists)
}

func TestUpdateContent(t *testing.T) {
	ctx := context.Background()

	int64p := func(v int64) *int64 { return &v }
	boolp := func(v bool) *bool { return &v }
	durp := func(v time.Duration) *time.Duration { return &v }

	t.Run("only the creator may update", func(t *testing.T) {
		f := newFixture(t)
		f.initPlatform(t)
		f.createContent(t)

		_, err := f.svc.UpdateContent(ctx, rightsledger.UpdateContentRequest{
			Creator: uuid.New(),
			ID:      "vid-1",
			Price:   int64p(200),
		})
		assert.ErrorIs(t, err, rightsledger.ErrNotAuthorized)
	})

	t.Run("unset fields stay unchanged", func(t *testing.T) {
		f := newFixture(t)
		f.initPlatform(t)
		before := f.createContent(t)

		after, err := f.svc.UpdateContent(ctx, rightsledger.UpdateContentRequest{
			Creator: f.creator,
			ID:      "vid-1",
			Price:   int64p(250),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(250), after.Price)
		assert.Equal(t, before.StorageRef, after.StorageRef)
		assert.Equal(t, before.RoyaltyPercent, after.RoyaltyPercent)
		assert.Equal(t, before.Active, after.Active)
		assert.Equal(t, before.RentalEnabled, after.RentalEnabled)
	})

	t.Run("set fields are revalidated", func(t *testing.T) {
		f := newFixture(t)
		f.initPlatform(t)
		f.createContent(t)

		_, err := f.svc.UpdateContent(ctx, rightsledger.UpdateContentRequest{
			Creator: f.creator,
			ID:      "vid-1",
			Price:   int64p(0),
		})
		assert.ErrorIs(t, err, rightsledger.ErrInvalidPrice)
	})

	t.Run("enabling rental requires stored or supplied terms", func(t *testing.T) {
		f := newFixture(t)
		f.initPlatform(t)
		f.createContent(t)

		_, err := f.svc.UpdateContent(ctx, rightsledger.UpdateContentRequest{
			Creator:       f.creator,
			ID:            "vid-1",
			RentalEnabled: boolp(true),
		})
		assert.ErrorIs(t, err, rightsledger.ErrInvalidRentalPrice)

		content, err := f.svc.UpdateContent(ctx, rightsledger.UpdateContentRequest{
			Creator:        f.creator,
			ID:             "vid-1",
			RentalEnabled:  boolp(true),
			RentalPrice:    int64p(10),
			RentalDuration: durp(time.Hour),
		})
		require.NoError(t, err)
		assert.True(t, content.RentalEnabled)
	})

	t.Run("deactivation", func(t *testing.T) {
		f := newFixture(t)
		f.initPlatform(t)
		f.createContent(t)

		content, err := f.svc.UpdateContent(ctx, rightsledger.UpdateContentRequest{
			Creator: f.creator,
			ID:      "vid-1",
			Active:  boolp(false),
		})
		require.NoError(t, err)
		assert.False(t, content.Active)
	})
}

func TestPurchaseContent(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newFixture(t)
		f.initPlatform(t)
		f.createContent(t)
		buyer := uuid.New()

		result, err := f.svc.PurchaseContent(ctx, rightsledger.PurchaseContentRequest{
			Buyer:     buyer,
			ContentID: "vid-1",
		})
		require.NoError(t, err)

		purchase := result.Purchase
		assert.Equal(t, buyer, purchase.Buyer)
		assert.Equal(t, "vid-1", purchase.ContentID)
		assert.Equal(t, int64(100), purchase.Price)
		assert.True(t, purchase.ResaleRights)
		assert.Equal(t, rightsledger.KindFullPurchase, purchase.Kind)
		assert.Nil(t, purchase.Expiration)

		// 5% platform fee on 100: creator 95, platform 5.
		require.Len(t, result.Settlement.Legs, 2)
		assert.Equal(t, int64(95), result.Settlement.Legs[0].Amount)
		assert.Equal(t, f.creator, result.Settlement.Legs[0].To)
		assert.Equal(t, int64(5), result.Settlement.Legs[1].Amount)
		assert.Equal(t, f.authority, result.Settlement.Legs[1].To)
		assert.True(t, result.Settlement.SumsExactly())

		content, err := f.svc.GetContent(ctx, "vid-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), content.SalesCount)

		platform, err := f.svc.GetPlatform(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(100), platform.TotalSalesVolume)

		require.Len(t, f.gateway.applied(), 1)
	})

	t.Run("inactive content rejected with no side effects", func(t *testing.T) {
		f := newFixture(t)
		f.initPlatform(t)
		f.createContent(t)
		inactive := false
		_, err := f.svc.UpdateContent(ctx, rightsledger.UpdateContentRequest{
			Creator: f.creator,
			ID:      "vid-1",
			Active:  &inactive,
		})
		require.NoError(t, err)

		buyer := uuid.New()
		_, err = f.svc.PurchaseContent(ctx, rightsledger.PurchaseContentRequest{
			Buyer:     buyer,
			ContentID: "vid-1",
		})
		assert.ErrorIs(t, err, rightsledger.ErrContentNotActive)

		content, err := f.svc.GetContent(ctx, "vid-1")
		require.NoError(t, err)
		assert.Zero(t, content.SalesCount)

		platform, err := f.svc.GetPlatform(ctx)
		require.NoError(t, err)
		assert.Zero(t, platform.TotalSalesVolume)

		assert.Empty(t, f.gateway.applied())

		_, err = f.svc.GetPurchase(ctx, buyer, "vid-1")
		assert.ErrorIs(t, err, rightsledger.ErrPurchaseNotFound)
	})

	t.Run("unknown content", func(t *testing.T) {
		f := newFixture(t)
		f.initPlatform(t)
		_, err := f.svc.PurchaseContent(ctx, rightsledger.PurchaseContentRequest{
			Buyer:     uuid.New(),
			ContentID: "missing",
		})
		assert.ErrorIs(t, err, rightsledger.ErrContentNotFound)
	})

	t.Run("repurchase overwrites the record", func(t *testing.T) {
		f := newFixture(t)
		f.initPlatform(t)
		f.createContent(t)
		buyer := uuid.New()

		_, err := f.svc.PurchaseContent(ctx, rightsledger.PurchaseContentRequest{Buyer: buyer, ContentID: "vid-1"})
		require.NoError(t, err)
		_, err = f.svc.PurchaseContent(ctx, rightsledger.PurchaseContentRequest{Buyer: buyer, ContentID: "vid-1"})
		require.NoError(t, err)

		content, err := f.svc.GetContent(ctx, "vid-1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), content.SalesCount)
	})
}

func TestRentContent(t *testing.T) {
	ctx := context.Background()

	withRental := func(r *rightsledger.CreateContentRequest) {
		r.RentalEnabled = true
		r.RentalPrice = 40
		r.RentalDuration = 72 * time.Hour
	}

	t.Run("rental disabled rejected", func(t *testing.T) {
		f := newFixture(t)
		f.initPlatform(t)
		f.createContent(t)

		_, err := f.svc.RentContent(ctx, rightsledger.RentContentRequest{
			Renter:    uuid.New(),
			ContentID: "vid-1",
		})
		assert.ErrorIs(t, err, rightsledger.ErrRentalNotEnabled)
	})

	t.Run("inactive content rejected", func(t *testing.T) {
		f := newFixture(t)
		f.initPlatform(t)
		f.createContent(t, withRental)
		inactive := false
		_, err := f.svc.UpdateContent(ctx, rightsledger.UpdateContentRequest{
			Creator: f.creator, ID: "vid-1", Active: &inactive,
		})
		require.NoError(t, err)

		_, err = f.svc.RentContent(ctx, rightsledger.RentContentRequest{
			Renter: uuid.New(), ContentID: "vid-1",
		})
		assert.ErrorIs(t, err, rightsledger.ErrContentNotActive)
	})

	t.Run("success", func(t *testing.T) {
		f := newFixture(t)
		f.initPlatform(t)
		f.createContent(t, withRental)
		renter := uuid.New()

		result, err := f.svc.RentContent(ctx, rightsledger.RentContentRequest{
			Renter:    renter,
			ContentID: "vid-1",
		})
		require.NoError(t, err)

		rental := result.Purchase
		assert.Equal(t, rightsledger.KindRental, rental.Kind)
		assert.False(t, rental.ResaleRights)
		assert.Equal(t, int64(40), rental.Price)
		require.NotNil(t, rental.Expiration)
		assert.Equal(t, f.clock.Now().Add(72*time.Hour), *rental.Expiration)

		// Same split arithmetic as a sale, on the rental price: 38 + 2.
		require.Len(t, result.Settlement.Legs, 2)
		assert.Equal(t, int64(38), result.Settlement.Legs[0].Amount)
		assert.Equal(t, int64(2), result.Settlement.Legs[1].Amount)

		content, err := f.svc.GetContent(ctx, "vid-1")
		require.NoError(t, err)
		assert.Zero(t, content.SalesCount)

		platform, err := f.svc.GetPlatform(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(40), platform.TotalSalesVolume)
	})

	t.Run("validity expires lazily", func(t *testing.T) {
		f := newFixture(t)
		f.initPlatform(t)
		f.createContent(t, withRental)
		renter := uuid.New()

		_, err := f.svc.RentContent(ctx, rightsledger.RentContentRequest{
			Renter: renter, ContentID: "vid-1",
		})
		require.NoError(t, err)

		valid, err := f.svc.IsRentalValid(ctx, renter, "vid-1")
		require.NoError(t, err)
		assert.True(t, valid)

		f.clock.Advance(72*time.Hour - time.Second)
		valid, err = f.svc.IsRentalValid(ctx, renter, "vid-1")
		require.NoError(t, err)
		assert.True(t, valid)

		f.clock.Advance(time.Second)
		valid, err = f.svc.IsRentalValid(ctx, renter, "vid-1")
		require.NoError(t, err)
		assert.False(t, valid)

		// Expiry is computed at read time; the record itself survives.
		rental, err := f.svc.GetRental(ctx, renter, "vid-1")
		require.NoError(t, err)
		assert.NotNil(t, rental.Expiration)
	})
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()

	t.Run("tier bounds", func(t *testing.T) {
		f := newFixture(t)
		f.initPlatform(t)

		for _, tier := range []int64{0, 4, -1} {
			_, err := f.svc.Subscribe(ctx, rightsledger.SubscribeRequest{
				Subscriber: uuid.New(),
				Tier:       tier,
			})
			assert.ErrorIs(t, err, rightsledger.ErrInvalidSubscriptionTier, "tier %d", tier)
		}

		for _, tier := range []int64{1, 2, 3} {
			_, err := f.svc.Subscribe(ctx, rightsledger.SubscribeRequest{
				Subscriber: uuid.New(),
				Tier:       tier,
			})
			assert.NoError(t, err, "tier %d", tier)
		}
	})

	t.Run("tier price goes to the platform", func(t *testing.T) {
		f := newFixture(t)
		f.initPlatform(t)
		subscriber := uuid.New()

		result, err := f.svc.Subscribe(ctx, rightsledger.SubscribeRequest{
			Subscriber: subscriber,
			Tier:       3,
		})
		require.NoError(t, err)
		require.Len(t, result.Settlement.Legs, 1)
		assert.Equal(t, int64(500), result.Settlement.Legs[0].Amount)
		assert.Equal(t, f.authority, result.Settlement.Legs[0].To)
		assert.Equal(t, rightsledger.ReasonSubscriptionFee, result.Settlement.Legs[0].Reason)
	})

	t.Run("upsert renews the record", func(t *testing.T) {
		f := newFixture(t, rightsledger.WithSubscriptionPeriod(10*24*time.Hour))
		f.initPlatform(t)
		subscriber := uuid.New()

		_, err := f.svc.Subscribe(ctx, rightsledger.SubscribeRequest{Subscriber: subscriber, Tier: 1})
		require.NoError(t, err)

		f.clock.Advance(6 * 24 * time.Hour)
		result, err := f.svc.Subscribe(ctx, rightsledger.SubscribeRequest{Subscriber: subscriber, Tier: 2})
		require.NoError(t, err)

		sub := result.Subscription
		assert.Equal(t, int64(2), sub.Tier)
		assert.Equal(t, f.clock.Now(), sub.StartTime)
		assert.Equal(t, f.clock.Now().Add(10*24*time.Hour), sub.ExpirationTime)

		got, err := f.svc.GetSubscription(ctx, subscriber)
		require.NoError(t, err)
		assert.Equal(t, sub, got)
	})

	t.Run("requires platform", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Subscribe(ctx, rightsledger.SubscribeRequest{Subscriber: uuid.New(), Tier: 1})
		assert.ErrorIs(t, err, rightsledger.ErrPlatformNotFound)
	})
}

func TestIsSubscriptionValid(t *testing.T) {
	ctx := context.Background()
	period := 30 * 24 * time.Hour

	t.Run("no record", func(t *testing.T) {
		f := newFixture(t)
		valid, err := f.svc.IsSubscriptionValid(ctx, uuid.New(), 1)
		require.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("expiry boundary", func(t *testing.T) {
		f := newFixture(t, rightsledger.WithSubscriptionPeriod(period))
		f.initPlatform(t)
		subscriber := uuid.New()

		_, err := f.svc.Subscribe(ctx, rightsledger.SubscribeRequest{Subscriber: subscriber, Tier: 2})
		require.NoError(t, err)

		valid, err := f.svc.IsSubscriptionValid(ctx, subscriber, 2)
		require.NoError(t, err)
		assert.True(t, valid, "valid at start")

		f.clock.Advance(period - time.Second)
		valid, err = f.svc.IsSubscriptionValid(ctx, subscriber, 2)
		require.NoError(t, err)
		assert.True(t, valid, "valid just before expiry")

		f.clock.Advance(time.Second)
		valid, err = f.svc.IsSubscriptionValid(ctx, subscriber, 2)
		require.NoError(t, err)
		assert.False(t, valid, "invalid at expiry")
	})

	t.Run("tier comparison", func(t *testing.T) {
		f := newFixture(t)
		f.initPlatform(t)
		subscriber := uuid.New()

		_, err := f.svc.Subscribe(ctx, rightsledger.SubscribeRequest{Subscriber: subscriber, Tier: 2})
		require.NoError(t, err)

		for required, want := range map[int64]bool{1: true, 2: true, 3: false} {
			valid, err := f.svc.IsSubscriptionValid(ctx, subscriber, required)
			require.NoError(t, err)
			assert.Equal(t, want, valid, "required tier %d", required)
		}
	})
}

func TestResellContent(t *testing.T) {
	ctx := context.Background()

	// buyAndResell sets up platform + content, has seller purchase, then
	// resells to buyer at the given price.
	setup := func(t *testing.T, opts ...rightsledger.Option) (*fixture, uuid.UUID) {
		f := newFixture(t, opts...)
		f.initPlatform(t)
		f.createContent(t)
		seller := uuid.New()
		_, err := f.svc.PurchaseContent(ctx, rightsledger.PurchaseContentRequest{
			Buyer: seller, ContentID: "vid-1",
		})
		require.NoError(t, err)
		return f, seller
	}

	t.Run("requires positive price", func(t *testing.T) {
		f, seller := setup(t)
		_, err := f.svc.ResellContent(ctx, rightsledger.ResellContentRequest{
			Seller: seller, Buyer: uuid.New(), ContentID: "vid-1", Price: 0,
		})
		assert.ErrorIs(t, err, rightsledger.ErrInvalidPrice)
	})

	t.Run("self-dealing rejected", func(t *testing.T) {
		f, seller := setup(t)
		_, err := f.svc.ResellContent(ctx, rightsledger.ResellContentRequest{
			Seller: seller, Buyer: seller, ContentID: "vid-1", Price: 100,
		})
		assert.ErrorIs(t, err, rightsledger.ErrNotAuthorized)
	})

	t.Run("no purchase record", func(t *testing.T) {
		f, _ := setup(t)
		_, err := f.svc.ResellContent(ctx, rightsledger.ResellContentRequest{
			Seller: uuid.New(), Buyer: uuid.New(), ContentID: "vid-1", Price: 100,
		})
		assert.ErrorIs(t, err, rightsledger.ErrNoResaleRights)
	})

	t.Run("a rental grants no resale rights", func(t *testing.T) {
		f := newFixture(t)
		f.initPlatform(t)
		f.createContent(t, func(r *rightsledger.CreateContentRequest) {
			r.RentalEnabled = true
			r.RentalPrice = 10
			r.RentalDuration = time.Hour
		})
		renter := uuid.New()
		_, err := f.svc.RentContent(ctx, rightsledger.RentContentRequest{Renter: renter, ContentID: "vid-1"})
		require.NoError(t, err)

		_, err = f.svc.ResellContent(ctx, rightsledger.ResellContentRequest{
			Seller: renter, Buyer: uuid.New(), ContentID: "vid-1", Price: 100,
		})
		assert.ErrorIs(t, err, rightsledger.ErrNoResaleRights)
	})

	t.Run("expired time-bounded rights rejected", func(t *testing.T) {
		f, seller := setup(t)

		// Seed a time-bounded purchase directly; the normal flows never
		// write one, but the ledger must still honor the expiration.
		expiration := f.clock.Now().Add(-time.Hour)
		require.NoError(t, f.store.PutPurchase(ctx, &rightsledger.Purchase{
			Buyer:        seller,
			ContentID:    "vid-1",
			Price:        100,
			Timestamp:    f.clock.Now().Add(-2 * time.Hour),
			ResaleRights: true,
			Kind:         rightsledger.KindRental,
			Expiration:   &expiration,
		}))

		_, err := f.svc.ResellContent(ctx, rightsledger.ResellContentRequest{
			Seller: seller, Buyer: uuid.New(), ContentID: "vid-1", Price: 100,
		})
		assert.ErrorIs(t, err, rightsledger.ErrPurchaseExpired)
	})

	t.Run("inactive content rejected", func(t *testing.T) {
		f, seller := setup(t)
		inactive := false
		_, err := f.svc.UpdateContent(ctx, rightsledger.UpdateContentRequest{
			Creator: f.creator, ID: "vid-1", Active: &inactive,
		})
		require.NoError(t, err)

		_, err = f.svc.ResellContent(ctx, rightsledger.ResellContentRequest{
			Seller: seller, Buyer: uuid.New(), ContentID: "vid-1", Price: 100,
		})
		assert.ErrorIs(t, err, rightsledger.ErrContentNotActive)
	})

	t.Run("success with exact three-way split", func(t *testing.T) {
		f, seller := setup(t)
		buyer := uuid.New()

		result, err := f.svc.ResellContent(ctx, rightsledger.ResellContentRequest{
			Seller: seller, Buyer: buyer, ContentID: "vid-1", Price: 100,
		})
		require.NoError(t, err)

		// royalty 20% = 20, fee 500bps = 5, seller 75.
		require.Len(t, result.Settlement.Legs, 3)
		assert.Equal(t, int64(20), result.Settlement.Legs[0].Amount)
		assert.Equal(t, f.creator, result.Settlement.Legs[0].To, "royalty goes to the original creator")
		assert.Equal(t, int64(5), result.Settlement.Legs[1].Amount)
		assert.Equal(t, f.authority, result.Settlement.Legs[1].To)
		assert.Equal(t, int64(75), result.Settlement.Legs[2].Amount)
		assert.Equal(t, seller, result.Settlement.Legs[2].To)
		assert.True(t, result.Settlement.SumsExactly())

		purchase := result.Purchase
		assert.Equal(t, buyer, purchase.Buyer)
		assert.True(t, purchase.ResaleRights)
		assert.Equal(t, rightsledger.KindFullPurchase, purchase.Kind)
		assert.Nil(t, purchase.Expiration)

		content, err := f.svc.GetContent(ctx, "vid-1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), content.SalesCount)

		platform, err := f.svc.GetPlatform(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(200), platform.TotalSalesVolume)
	})

	t.Run("rights propagate down a resale chain", func(t *testing.T) {
		f, seller := setup(t)
		second := uuid.New()
		third := uuid.New()

		_, err := f.svc.ResellContent(ctx, rightsledger.ResellContentRequest{
			Seller: seller, Buyer: second, ContentID: "vid-1", Price: 100,
		})
		require.NoError(t, err)

		result, err := f.svc.ResellContent(ctx, rightsledger.ResellContentRequest{
			Seller: second, Buyer: third, ContentID: "vid-1", Price: 200,
		})
		require.NoError(t, err)

		// Two hops later the royalty still flows to the original creator.
		assert.Equal(t, f.creator, result.Settlement.Legs[0].To)
		assert.Equal(t, int64(40), result.Settlement.Legs[0].Amount)
		assert.True(t, result.Purchase.ResaleRights)
	})

	t.Run("seller retains rights by default", func(t *testing.T) {
		f, seller := setup(t)
		_, err := f.svc.ResellContent(ctx, rightsledger.ResellContentRequest{
			Seller: seller, Buyer: uuid.New(), ContentID: "vid-1", Price: 100,
		})
		require.NoError(t, err)

		sellerPurchase, err := f.svc.GetPurchase(ctx, seller, "vid-1")
		require.NoError(t, err)
		assert.True(t, sellerPurchase.ResaleRights)

		// A second resale by the same seller still works.
		_, err = f.svc.ResellContent(ctx, rightsledger.ResellContentRequest{
			Seller: seller, Buyer: uuid.New(), ContentID: "vid-1", Price: 50,
		})
		assert.NoError(t, err)
	})

	t.Run("revoke policy clears the seller's rights", func(t *testing.T) {
		f, seller := setup(t, rightsledger.WithRevokeSellerRightsOnResale(true))
		_, err := f.svc.ResellContent(ctx, rightsledger.ResellContentRequest{
			Seller: seller, Buyer: uuid.New(), ContentID: "vid-1", Price: 100,
		})
		require.NoError(t, err)

		sellerPurchase, err := f.svc.GetPurchase(ctx, seller, "vid-1")
		require.NoError(t, err)
		assert.False(t, sellerPurchase.ResaleRights)

		_, err = f.svc.ResellContent(ctx, rightsledger.ResellContentRequest{
			Seller: seller, Buyer: uuid.New(), ContentID: "vid-1", Price: 50,
		})
		assert.ErrorIs(t, err, rightsledger.ErrNoResaleRights)
	})
}

func TestGatewayFailureLeavesNoTrace(t *testing.T) {
	ctx := context.Background()

	f := &fixture{
		store:     memory.New(),
		gateway:   &recordingGateway{},
		clock:     newTestClock(),
		authority: uuid.New(),
		creator:   uuid.New(),
	}
	svc, err := rightsledger.New(
		rightsledger.WithStore(f.store),
		rightsledger.WithPaymentGateway(failingGateway{}),
		rightsledger.WithClock(f.clock.Now),
	)
	require.NoError(t, err)
	f.svc = svc

	f.initPlatform(t)
	f.createContent(t, func(r *rightsledger.CreateContentRequest) {
		r.RentalEnabled = true
		r.RentalPrice = 10
		r.RentalDuration = time.Hour
	})

	buyer := uuid.New()

	_, err = f.svc.PurchaseContent(ctx, rightsledger.PurchaseContentRequest{Buyer: buyer, ContentID: "vid-1"})
	assert.ErrorIs(t, err, rightsledger.ErrInsufficientFunds)

	_, err = f.svc.RentContent(ctx, rightsledger.RentContentRequest{Renter: buyer, ContentID: "vid-1"})
	assert.ErrorIs(t, err, rightsledger.ErrInsufficientFunds)

	_, err = f.svc.Subscribe(ctx, rightsledger.SubscribeRequest{Subscriber: buyer, Tier: 1})
	assert.ErrorIs(t, err, rightsledger.ErrInsufficientFunds)

	// No record was written and no counter moved.
	_, err = f.svc.GetPurchase(ctx, buyer, "vid-1")
	assert.ErrorIs(t, err, rightsledger.ErrPurchaseNotFound)
	_, err = f.svc.GetRental(ctx, buyer, "vid-1")
	assert.ErrorIs(t, err, rightsledger.ErrRentalNotFound)
	_, err = f.svc.GetSubscription(ctx, buyer)
	assert.ErrorIs(t, err, rightsledger.ErrSubscriptionNotFound)

	content, err := f.svc.GetContent(ctx, "vid-1")
	require.NoError(t, err)
	assert.Zero(t, content.SalesCount)

	platform, err := f.svc.GetPlatform(ctx)
	require.NoError(t, err)
	assert.Zero(t, platform.TotalSalesVolume)
}

func TestHasActiveAccess(t *testing.T) {
	ctx := context.Background()

	t.Run("purchase grants access", func(t *testing.T) {
		f := newFixture(t)
		f.initPlatform(t)
		f.createContent(t)
		buyer := uuid.New()

		has, err := f.svc.HasActiveAccess(ctx, buyer, "vid-1")
		require.NoError(t, err)
		assert.False(t, has)

		_, err = f.svc.PurchaseContent(ctx, rightsledger.PurchaseContentRequest{Buyer: buyer, ContentID: "vid-1"})
		require.NoError(t, err)

		has, err = f.svc.HasActiveAccess(ctx, buyer, "vid-1")
		require.NoError(t, err)
		assert.True(t, has)
	})

	t.Run("deactivation does not revoke granted rights", func(t *testing.T) {
		f := newFixture(t)
		f.initPlatform(t)
		f.createContent(t)
		buyer := uuid.New()

		_, err := f.svc.PurchaseContent(ctx, rightsledger.PurchaseContentRequest{Buyer: buyer, ContentID: "vid-1"})
		require.NoError(t, err)

		inactive := false
		_, err = f.svc.UpdateContent(ctx, rightsledger.UpdateContentRequest{
			Creator: f.creator, ID: "vid-1", Active: &inactive,
		})
		require.NoError(t, err)

		has, err := f.svc.HasActiveAccess(ctx, buyer, "vid-1")
		require.NoError(t, err)
		assert.True(t, has)
	})

	t.Run("rental grants access until expiry", func(t *testing.T) {
		f := newFixture(t)
		f.initPlatform(t)
		f.createContent(t, func(r *rightsledger.CreateContentRequest) {
			r.RentalEnabled = true
			r.RentalPrice = 10
			r.RentalDuration = time.Hour
		})
		renter := uuid.New()

		_, err := f.svc.RentContent(ctx, rightsledger.RentContentRequest{Renter: renter, ContentID: "vid-1"})
		require.NoError(t, err)

		has, err := f.svc.HasActiveAccess(ctx, renter, "vid-1")
		require.NoError(t, err)
		assert.True(t, has)

		f.clock.Advance(2 * time.Hour)
		has, err = f.svc.HasActiveAccess(ctx, renter, "vid-1")
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("subscription gates tiered content", func(t *testing.T) {
		f := newFixture(t)
		f.initPlatform(t)
		f.createContent(t, func(r *rightsledger.CreateContentRequest) {
			r.RequiredSubscriptionTier = 2
		})
		subscriber := uuid.New()

		_, err := f.svc.Subscribe(ctx, rightsledger.SubscribeRequest{Subscriber: subscriber, Tier: 1})
		require.NoError(t, err)
		has, err := f.svc.HasActiveAccess(ctx, subscriber, "vid-1")
		require.NoError(t, err)
		assert.False(t, has, "tier 1 does not satisfy tier 2 content")

		_, err = f.svc.Subscribe(ctx, rightsledger.SubscribeRequest{Subscriber: subscriber, Tier: 2})
		require.NoError(t, err)
		has, err = f.svc.HasActiveAccess(ctx, subscriber, "vid-1")
		require.NoError(t, err)
		assert.True(t, has)
	})
}

func TestConcurrentPurchasesLoseNoUpdates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.initPlatform(t)
	f.createContent(t)

	const buyers = 24
	var wg sync.WaitGroup
	wg.Add(buyers)
	for i := 0; i < buyers; i++ {
		go func() {
			defer wg.Done()
			_, err := f.svc.PurchaseContent(ctx, rightsledger.PurchaseContentRequest{
				Buyer:     uuid.New(),
				ContentID: "vid-1",
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	content, err := f.svc.GetContent(ctx, "vid-1")
	require.NoError(t, err)
	assert.Equal(t, int64(buyers), content.SalesCount)

	platform, err := f.svc.GetPlatform(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(buyers*100), platform.TotalSalesVolume)
}

package rightsledger

import "github.com/google/uuid"

// SettlementReason labels one leg of a settlement.
type SettlementReason string

// Settlement leg reasons (typed).
const (
	ReasonCreatorShare    SettlementReason = "creator_share"
	ReasonPlatformFee     SettlementReason = "platform_fee"
	ReasonRoyalty         SettlementReason = "royalty"
	ReasonSellerShare     SettlementReason = "seller_share"
	ReasonSubscriptionFee SettlementReason = "subscription_fee"
)

// SettlementLeg is one payment within a settlement.
type SettlementLeg struct {
	From   uuid.UUID        `json:"from"`
	To     uuid.UUID        `json:"to"`
	Amount int64            `json:"amount"`
	Reason SettlementReason `json:"reason"`
}

// Settlement is the complete split of one transaction amount. The legs
// always sum exactly to Total; no remainder is ever dropped.
type Settlement struct {
	Total int64           `json:"total"`
	Legs  []SettlementLeg `json:"legs"`
}

// SumsExactly reports whether the legs sum to Total.
func (s Settlement) SumsExactly() bool {
	var sum int64
	for _, leg := range s.Legs {
		sum += leg.Amount
	}
	return sum == s.Total
}

// SplitSale divides a sale or rental amount between the platform and the
// creator. Integer floor division; the creator absorbs the remainder.
func SplitSale(amount, feeBasisPoints int64) (platformFee, creatorShare int64) {
	platformFee = amount * feeBasisPoints / FeeBasisPointsMax
	creatorShare = amount - platformFee
	return platformFee, creatorShare
}

// SplitResale divides a resale amount three ways: royalty to the original
// creator, fee to the platform, remainder to the seller. Integer floor
// division; the seller absorbs both remainders, so the parts always sum
// exactly to amount.
func SplitResale(amount, royaltyPercent, feeBasisPoints int64) (royalty, platformFee, sellerShare int64) {
	royalty = amount * royaltyPercent / 100
	platformFee = amount * feeBasisPoints / FeeBasisPointsMax
	sellerShare = amount - royalty - platformFee
	return royalty, platformFee, sellerShare
}

// saleSettlement builds the two-leg settlement for a purchase or rental.
func saleSettlement(payer uuid.UUID, content *Content, platform *Platform, amount int64) Settlement {
	platformFee, creatorShare := SplitSale(amount, platform.FeeBasisPoints)
	return Settlement{
		Total: amount,
		Legs: []SettlementLeg{
			{From: payer, To: content.Creator, Amount: creatorShare, Reason: ReasonCreatorShare},
			{From: payer, To: platform.Authority, Amount: platformFee, Reason: ReasonPlatformFee},
		},
	}
}

// resaleSettlement builds the three-leg settlement for a resale. The
// royalty always goes to the content's original creator, no matter how many
// resale hops preceded this one.
func resaleSettlement(buyer, seller uuid.UUID, content *Content, platform *Platform, amount int64) Settlement {
	royalty, platformFee, sellerShare := SplitResale(amount, content.RoyaltyPercent, platform.FeeBasisPoints)
	return Settlement{
		Total: amount,
		Legs: []SettlementLeg{
			{From: buyer, To: content.Creator, Amount: royalty, Reason: ReasonRoyalty},
			{From: buyer, To: platform.Authority, Amount: platformFee, Reason: ReasonPlatformFee},
			{From: buyer, To: seller, Amount: sellerShare, Reason: ReasonSellerShare},
		},
	}
}

// subscriptionSettlement builds the single-leg settlement for a
// subscription payment; the whole amount goes to the platform.
func subscriptionSettlement(subscriber uuid.UUID, platform *Platform, amount int64) Settlement {
	return Settlement{
		Total: amount,
		Legs: []SettlementLeg{
			{From: subscriber, To: platform.Authority, Amount: amount, Reason: ReasonSubscriptionFee},
		},
	}
}

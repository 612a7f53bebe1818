package domain

import "context"

// MarketplaceClient is the transport to the freight marketplace.
// Every method returns a *TransportError (and nothing else) when the call itself fails.
// Application errors on reads degrade to an empty result.
type MarketplaceClient interface {
	FetchListings(ctx context.Context, token string) ([]Listing, error)
	FetchOffers(ctx context.Context, token, listingID string) ([]CompetingOffer, error)
	Renew(ctx context.Context, token, listingID string) (RenewOutcome, error)
}

// Notifier delivers cycle payloads to the operator. Delivery is best effort.
type Notifier interface {
	NotifyRenewal(ctx context.Context, operator Operator, results []RenewalResult) error
	NotifyNewOffers(ctx context.Context, operator Operator, notification OfferNotification) error
}

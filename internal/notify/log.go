package notify

import (
	"context"

	"github.com/aristath/freightwatch/internal/domain"
	"github.com/rs/zerolog"
)

// Log writes notifications to the structured log. Used when no bot token is configured.
type Log struct {
	log zerolog.Logger
}

// NewLog creates a log-only notifier
func NewLog(log zerolog.Logger) *Log {
	return &Log{log: log.With().Str("component", "notifier").Logger()}
}

func (l *Log) NotifyRenewal(_ context.Context, operator domain.Operator, results []domain.RenewalResult) error {
	renewed := 0
	for _, r := range results {
		if r.Success {
			renewed++
		}
		l.log.Info().
			Str("operator", operator.Key).
			Str("listing_id", r.ListingID).
			Str("route", r.OriginCity+" → "+r.DestinationCity).
			Bool("success", r.Success).
			Str("reason", r.Reason).
			Msg("Listing renewal")
	}

	l.log.Info().
		Str("operator", operator.Key).
		Int("listings", len(results)).
		Int("renewed", renewed).
		Msg("Renewal report")
	return nil
}

func (l *Log) NotifyNewOffers(_ context.Context, operator domain.Operator, n domain.OfferNotification) error {
	for _, offer := range n.NewOffers {
		l.log.Info().
			Str("operator", operator.Key).
			Str("listing_id", n.Listing.ID).
			Str("route", n.Listing.Route()).
			Str("offer_id", offer.ID).
			Str("firm", offer.FirmName).
			Float64("price", offer.Price).
			Str("tax", offer.Tax.String()).
			Bool("best", offer.ID == n.BestOfferID).
			Msg("New counter offer")
	}
	return nil
}

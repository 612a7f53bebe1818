package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aristath/freightwatch/internal/domain"
	"github.com/aristath/freightwatch/internal/events"
	"github.com/aristath/freightwatch/internal/pricing"
	"github.com/aristath/freightwatch/internal/state"
	"github.com/aristath/freightwatch/internal/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const watchModule = "offer_watch"

// ResponseWatchJob detects new competing offers on one operator's listings.
// The first complete cycle only seeds the known offers; later cycles notify about the difference.
type ResponseWatchJob struct {
	operator  domain.Operator
	partition *state.Partition
	client    domain.MarketplaceClient
	notifier  domain.Notifier
	events    EventEmitter
	inFlight  sync.Mutex
	now       func() time.Time
	log       zerolog.Logger
}

// NewResponseWatchJob creates an offer watch job for one operator
func NewResponseWatchJob(
	operator domain.Operator,
	partition *state.Partition,
	client domain.MarketplaceClient,
	notifier domain.Notifier,
	emitter EventEmitter,
	log zerolog.Logger,
) *ResponseWatchJob {
	return &ResponseWatchJob{
		operator:  operator,
		partition: partition,
		client:    client,
		notifier:  notifier,
		events:    emitter,
		now:       time.Now,
		log:       log.With().Str("job", "offer_watch").Str("operator", operator.Key).Logger(),
	}
}

// Name returns the job name for scheduling and logging
func (j *ResponseWatchJob) Name() string {
	return "offer_watch:" + j.operator.Key
}

// Run executes one watch cycle. Failures are contained in the cycle and never returned.
func (j *ResponseWatchJob) Run(ctx context.Context) error {
	if !j.inFlight.TryLock() {
		j.log.Info().Msg("Offer watch still running, tick skipped")
		return nil
	}
	defer j.inFlight.Unlock()
	defer utils.OperationTimer("offer_watch", j.log)()

	cycleID := uuid.NewString()
	log := j.log.With().Str("cycle_id", cycleID).Logger()

	listings, err := j.client.FetchListings(ctx, j.operator.Token)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to fetch listings, offer watch aborted")
		j.events.Emit(watchModule, j.operator.Key, &events.OfferWatchAbortedData{
			CycleID: cycleID,
			Error:   err.Error(),
		})
		return nil
	}
	listings = domain.FilterOwned(listings, j.operator.ContactID)

	if j.partition.IsBootstrapped() {
		j.detect(ctx, cycleID, listings, log)
	} else {
		j.bootstrap(ctx, cycleID, listings, log)
	}
	return nil
}

// bootstrap records every current offer without notifying.
// The phase only advances when every offer fetch succeeded, otherwise the next tick retries.
func (j *ResponseWatchJob) bootstrap(ctx context.Context, cycleID string, listings []domain.Listing, log zerolog.Logger) {
	complete := true
	seeded := 0

	for _, listing := range listings {
		if listing.OfferCount == 0 {
			continue
		}
		offers, err := j.client.FetchOffers(ctx, j.operator.Token, listing.ID)
		if err != nil {
			log.Warn().Err(err).Str("listing_id", listing.ID).Msg("Failed to fetch offers during bootstrap")
			complete = false
			continue
		}
		for _, offer := range offers {
			if j.partition.AddKnownOfferID(listing.ID, offer.ID) {
				seeded++
			}
		}
	}

	if !complete {
		log.Warn().Int("seeded", seeded).Msg("Bootstrap incomplete, retrying next tick")
		return
	}

	if j.partition.MarkBootstrapped() {
		j.events.Emit(watchModule, j.operator.Key, &events.OffersBootstrappedData{
			CycleID:  cycleID,
			Listings: len(listings),
			Offers:   seeded,
		})
		log.Info().
			Int("listings", len(listings)).
			Int("offers", seeded).
			Msg("Known offers bootstrapped")
	}
}

func (j *ResponseWatchJob) detect(ctx context.Context, cycleID string, listings []domain.Listing, log zerolog.Logger) {
	for _, listing := range listings {
		if listing.OfferCount == 0 {
			continue
		}
		offers, err := j.client.FetchOffers(ctx, j.operator.Token, listing.ID)
		if err != nil {
			log.Warn().Err(err).Str("listing_id", listing.ID).Msg("Failed to fetch offers, listing skipped")
			continue
		}

		known := j.partition.KnownOfferIDs(listing.ID)
		newIDs := make(map[string]struct{})
		var newOffers []domain.CompetingOffer
		for _, offer := range offers {
			if known.Has(offer.ID) {
				continue
			}
			if _, dup := newIDs[offer.ID]; dup {
				continue
			}
			newIDs[offer.ID] = struct{}{}
			newOffers = append(newOffers, offer)
		}
		if len(newOffers) == 0 {
			continue
		}

		for _, offer := range newOffers {
			j.partition.AddKnownOfferID(listing.ID, offer.ID)
		}

		ranked, bestID := pricing.Rank(offers, newIDs)
		notification := domain.OfferNotification{
			OperatorKey: j.operator.Key,
			Listing:     listing,
			Offers:      ranked,
			NewOffers:   newOffers,
			BestOfferID: bestID,
			DetectedAt:  j.now(),
		}

		if err := j.notifier.NotifyNewOffers(ctx, j.operator, notification); err != nil {
			log.Error().Err(err).Str("listing_id", listing.ID).Msg("Failed to deliver offer notification")
			j.events.EmitError(watchModule, j.operator.Key, fmt.Errorf("failed to deliver offer notification for %s: %w", listing.ID, err))
		}

		ids := make([]string, 0, len(newOffers))
		for _, offer := range newOffers {
			ids = append(ids, offer.ID)
		}
		j.events.Emit(watchModule, j.operator.Key, &events.NewOffersDetectedData{
			CycleID:     cycleID,
			ListingID:   listing.ID,
			NewOfferIDs: ids,
			BestOfferID: bestID,
		})

		log.Info().
			Str("listing_id", listing.ID).
			Int("new_offers", len(newOffers)).
			Int("offers", len(offers)).
			Msg("New offers detected")
	}
}

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aristath/freightwatch/internal/domain"
	"github.com/aristath/freightwatch/internal/events"
	"github.com/aristath/freightwatch/internal/state"
	"github.com/aristath/freightwatch/internal/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	renewalModule = "renewal"

	reasonNotEligible = "not yet eligible"
	reasonRateLimited = "too many requests"
	reasonRejected    = "renewal rejected"
)

// RenewalJob renews one operator's listings on every tick while auto-update is enabled
type RenewalJob struct {
	operator  domain.Operator
	partition *state.Partition
	client    domain.MarketplaceClient
	notifier  domain.Notifier
	events    EventEmitter
	inFlight  sync.Mutex
	log       zerolog.Logger
}

// NewRenewalJob creates a renewal job for one operator
func NewRenewalJob(
	operator domain.Operator,
	partition *state.Partition,
	client domain.MarketplaceClient,
	notifier domain.Notifier,
	emitter EventEmitter,
	log zerolog.Logger,
) *RenewalJob {
	return &RenewalJob{
		operator:  operator,
		partition: partition,
		client:    client,
		notifier:  notifier,
		events:    emitter,
		log:       log.With().Str("job", "renewal").Str("operator", operator.Key).Logger(),
	}
}

// Name returns the job name for scheduling and logging
func (j *RenewalJob) Name() string {
	return "renewal:" + j.operator.Key
}

// Run is the scheduled tick. It is a no-op while auto-update is disabled.
// Cycle failures are logged and recorded as events, never returned.
func (j *RenewalJob) Run(ctx context.Context) error {
	if !j.partition.IsAutoUpdateEnabled() {
		j.log.Debug().Msg("Auto-update disabled, skipping renewal")
		return nil
	}

	if _, err := j.runCycle(ctx, "schedule"); errors.Is(err, ErrCycleInProgress) {
		j.log.Info().Msg("Renewal cycle still running, tick skipped")
	}
	return nil
}

// RunCycle runs one renewal cycle regardless of the auto-update flag and returns its results.
// It fails with ErrCycleInProgress when a cycle is already running, or with the
// transport error that aborted the listing fetch.
func (j *RenewalJob) RunCycle(ctx context.Context) ([]domain.RenewalResult, error) {
	return j.runCycle(ctx, "manual")
}

// RenewOne renews a single listing outside of a cycle.
// Nothing is recorded and nothing is sent to the notifier.
func (j *RenewalJob) RenewOne(ctx context.Context, listingID string) (domain.RenewalResult, error) {
	if !j.inFlight.TryLock() {
		return domain.RenewalResult{}, ErrCycleInProgress
	}
	defer j.inFlight.Unlock()
	defer utils.OperationTimer("renew_listing", j.log)()

	result := domain.RenewalResult{ListingID: listingID}
	j.applyOutcome(ctx, &result)

	j.log.Info().
		Str("listing_id", listingID).
		Bool("success", result.Success).
		Str("reason", result.Reason).
		Msg("Single listing renewal")

	return result, nil
}

func (j *RenewalJob) runCycle(ctx context.Context, trigger string) ([]domain.RenewalResult, error) {
	if !j.inFlight.TryLock() {
		return nil, ErrCycleInProgress
	}
	defer j.inFlight.Unlock()
	defer utils.OperationTimer("renewal_cycle", j.log)()

	cycleID := uuid.NewString()
	log := j.log.With().Str("cycle_id", cycleID).Str("trigger", trigger).Logger()

	listings, err := j.client.FetchListings(ctx, j.operator.Token)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to fetch listings, renewal cycle aborted")
		j.events.Emit(renewalModule, j.operator.Key, &events.RenewalAbortedData{
			CycleID: cycleID,
			Error:   err.Error(),
		})
		return nil, fmt.Errorf("failed to fetch listings: %w", err)
	}

	listings = domain.FilterOwned(listings, j.operator.ContactID)

	results := make([]domain.RenewalResult, 0, len(listings))
	renewed := 0
	for _, listing := range listings {
		result := j.renewListing(ctx, listing)
		if result.Success {
			renewed++
		}
		results = append(results, result)
	}

	j.partition.RecordRenewalNow()

	if err := j.notifier.NotifyRenewal(ctx, j.operator, results); err != nil {
		log.Error().Err(err).Msg("Failed to deliver renewal report")
		j.events.EmitError(renewalModule, j.operator.Key, fmt.Errorf("failed to deliver renewal report: %w", err))
	}

	j.events.Emit(renewalModule, j.operator.Key, &events.RenewalCompletedData{
		CycleID:   cycleID,
		Listings:  len(results),
		Renewed:   renewed,
		Failed:    len(results) - renewed,
		Triggered: trigger,
	})

	log.Info().
		Int("listings", len(results)).
		Int("renewed", renewed).
		Msg("Renewal cycle completed")

	return results, nil
}

// renewListing builds the result for one listing. Eligibility is taken as given by the marketplace.
func (j *RenewalJob) renewListing(ctx context.Context, listing domain.Listing) domain.RenewalResult {
	result := domain.RenewalResult{
		ListingID:       listing.ID,
		ListingNumber:   listing.Number,
		OriginCity:      listing.OriginCity,
		DestinationCity: listing.DestinationCity,
		Weight:          listing.Weight,
	}

	if !listing.Renewable {
		result.Reason = listing.RenewRestriction
		if result.Reason == "" {
			result.Reason = reasonNotEligible
		}
		return result
	}

	j.applyOutcome(ctx, &result)
	return result
}

func (j *RenewalJob) applyOutcome(ctx context.Context, result *domain.RenewalResult) {
	outcome, err := j.client.Renew(ctx, j.operator.Token, result.ListingID)
	if err != nil {
		j.log.Warn().Err(err).Str("listing_id", result.ListingID).Msg("Renewal call failed")
		result.Reason = err.Error()
		return
	}

	switch outcome.Status {
	case domain.RenewSucceeded:
		result.Success = true
	case domain.RenewRateLimited:
		result.Reason = reasonRateLimited
	default:
		result.Reason = outcome.Reason
		if result.Reason == "" {
			result.Reason = reasonRejected
		}
	}
}

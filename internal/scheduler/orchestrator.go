package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/aristath/freightwatch/internal/domain"
	"github.com/aristath/freightwatch/internal/state"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Timing holds the job intervals
type Timing struct {
	RenewalInterval       time.Duration
	ResponsesInterval     time.Duration
	ResponsesInitialDelay time.Duration
}

// Orchestrator registers the per-operator jobs with the scheduler and keeps them
// addressable by operator key for the command surface.
type Orchestrator struct {
	mu             sync.RWMutex
	scheduler      *Scheduler
	store          *state.Store
	client         domain.MarketplaceClient
	notifier       domain.Notifier
	events         EventEmitter
	timing         Timing
	operators      map[string]domain.Operator
	order          []string
	renewals       map[string]*RenewalJob
	watches        map[string]*ResponseWatchJob
	renewalEntries map[string]cron.EntryID
	log            zerolog.Logger
}

// NewOrchestrator creates an orchestrator bound to a scheduler and a state store
func NewOrchestrator(
	sched *Scheduler,
	store *state.Store,
	client domain.MarketplaceClient,
	notifier domain.Notifier,
	emitter EventEmitter,
	timing Timing,
	log zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		scheduler:      sched,
		store:          store,
		client:         client,
		notifier:       notifier,
		events:         emitter,
		timing:         timing,
		operators:      make(map[string]domain.Operator),
		renewals:       make(map[string]*RenewalJob),
		watches:        make(map[string]*ResponseWatchJob),
		renewalEntries: make(map[string]cron.EntryID),
		log:            log.With().Str("component", "orchestrator").Logger(),
	}
}

// Register creates and schedules the renewal and offer watch jobs of every operator.
// The renewal job first runs one full interval after the scheduler starts; the offer
// watch runs the initial delay after the scheduler starts so the bootstrap happens early.
func (o *Orchestrator) Register(operators []domain.Operator) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, op := range operators {
		if _, exists := o.operators[op.Key]; exists {
			return fmt.Errorf("operator %q registered twice", op.Key)
		}
		partition, ok := o.store.Partition(op.Key)
		if !ok {
			return fmt.Errorf("no state partition for %q: %w", op.Key, domain.ErrUnknownOperator)
		}

		renewal := NewRenewalJob(op, partition, o.client, o.notifier, o.events, o.log)
		watch := NewResponseWatchJob(op, partition, o.client, o.notifier, o.events, o.log)

		o.renewalEntries[op.Key] = o.scheduler.AddSchedule(Every(o.timing.RenewalInterval), renewal)
		o.scheduler.AddSchedule(After(o.timing.ResponsesInitialDelay, o.timing.ResponsesInterval), watch)

		o.operators[op.Key] = op
		o.order = append(o.order, op.Key)
		o.renewals[op.Key] = renewal
		o.watches[op.Key] = watch

		o.log.Info().
			Str("operator", op.Key).
			Dur("renewal_interval", o.timing.RenewalInterval).
			Dur("responses_interval", o.timing.ResponsesInterval).
			Dur("offer_watch_delay", o.timing.ResponsesInitialDelay).
			Msg("Operator jobs registered")
	}
	return nil
}

// Operators returns the registered operators in registration order
func (o *Orchestrator) Operators() []domain.Operator {
	o.mu.RLock()
	defer o.mu.RUnlock()

	ops := make([]domain.Operator, 0, len(o.order))
	for _, key := range o.order {
		ops = append(ops, o.operators[key])
	}
	return ops
}

// Operator returns a registered operator
func (o *Orchestrator) Operator(key string) (domain.Operator, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	op, ok := o.operators[key]
	return op, ok
}

// RenewalJob returns the renewal job of an operator
func (o *Orchestrator) RenewalJob(key string) (*RenewalJob, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	job, ok := o.renewals[key]
	return job, ok
}

// ResponseWatchJob returns the offer watch job of an operator
func (o *Orchestrator) ResponseWatchJob(key string) (*ResponseWatchJob, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	job, ok := o.watches[key]
	return job, ok
}

// NextRenewal returns when the renewal tick of an operator fires next.
// The tick only acts while auto-update is enabled.
func (o *Orchestrator) NextRenewal(key string) (time.Time, bool) {
	o.mu.RLock()
	id, ok := o.renewalEntries[key]
	o.mu.RUnlock()
	if !ok {
		return time.Time{}, false
	}
	next := o.scheduler.NextRun(id)
	return next, !next.IsZero()
}

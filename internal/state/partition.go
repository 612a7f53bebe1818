package state

import (
	"sync"
	"time"
)

// IDSet is a set of offer ids
type IDSet map[string]struct{}

// Has reports membership
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Partition is the runtime state of a single operator.
//
// Field ownership: the renewal job writes lastRenewal, the response-watch job writes
// known and phase, the command surface writes autoUpdate. The mutex only makes each
// individual operation atomic; jobs of the same kind never overlap for one operator.
type Partition struct {
	mu sync.RWMutex

	key         string
	autoUpdate  bool
	lastRenewal time.Time
	known       map[string]IDSet
	phase       Phase

	now func() time.Time
}

// Snapshot is a read-only copy of a partition for status reporting
type Snapshot struct {
	OperatorKey     string     `json:"operator_key"`
	AutoUpdate      bool       `json:"auto_update"`
	LastRenewal     *time.Time `json:"last_renewal,omitempty"`
	Phase           string     `json:"phase"`
	TrackedListings int        `json:"tracked_listings"`
	KnownOfferCount int        `json:"known_offer_count"`
}

func newPartition(key string) *Partition {
	return &Partition{
		key:   key,
		known: make(map[string]IDSet),
		phase: Uninitialized,
		now:   time.Now,
	}
}

// Key returns the operator key this partition belongs to
func (p *Partition) Key() string {
	return p.key
}

// IsAutoUpdateEnabled reports whether scheduled renewals may act. Starts disabled.
func (p *Partition) IsAutoUpdateEnabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.autoUpdate
}

// SetAutoUpdate sets the auto-update flag
func (p *Partition) SetAutoUpdate(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.autoUpdate = enabled
}

// ToggleAutoUpdate flips the auto-update flag and returns the new value
func (p *Partition) ToggleAutoUpdate() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.autoUpdate = !p.autoUpdate
	return p.autoUpdate
}

// RecordRenewalNow stamps the end of a renewal cycle
func (p *Partition) RecordRenewalNow() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastRenewal = p.now()
}

// LastRenewalTime returns the last renewal stamp; ok is false before the first cycle
func (p *Partition) LastRenewalTime() (time.Time, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastRenewal, !p.lastRenewal.IsZero()
}

// KnownOfferIDs returns a copy of the offer ids seen for a listing (empty if unseen)
func (p *Partition) KnownOfferIDs(listingID string) IDSet {
	p.mu.RLock()
	defer p.mu.RUnlock()

	known := p.known[listingID]
	out := make(IDSet, len(known))
	for id := range known {
		out[id] = struct{}{}
	}
	return out
}

// AddKnownOfferID records an offer id for a listing.
// Returns false when the id was already known, in which case nothing changes.
func (p *Partition) AddKnownOfferID(listingID, offerID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, ok := p.known[listingID]
	if !ok {
		set = make(IDSet)
		p.known[listingID] = set
	}
	if _, exists := set[offerID]; exists {
		return false
	}
	set[offerID] = struct{}{}
	return true
}

// Phase returns the current response-watch phase
func (p *Partition) Phase() Phase {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.phase
}

// IsBootstrapped reports whether the bootstrap cycle has completed
func (p *Partition) IsBootstrapped() bool {
	return p.Phase() == Initialized
}

// MarkBootstrapped moves the partition to Initialized. Later calls are no-ops.
// Returns true only for the call that performed the transition.
func (p *Partition) MarkBootstrapped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.phase == Initialized {
		return false
	}
	p.phase = Initialized
	return true
}

// Snapshot returns a copy of the partition for status reporting
func (p *Partition) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snap := Snapshot{
		OperatorKey:     p.key,
		AutoUpdate:      p.autoUpdate,
		Phase:           p.phase.String(),
		TrackedListings: len(p.known),
	}
	if !p.lastRenewal.IsZero() {
		last := p.lastRenewal
		snap.LastRenewal = &last
	}
	for _, set := range p.known {
		snap.KnownOfferCount += len(set)
	}
	return snap
}

// Package state holds the volatile per-operator runtime state.
//
// The Store is built once at startup from the configured operator keys and is never
// resized afterwards, so partitions can be handed out without locking the store itself.
// Nothing here survives a restart: after one, every operator goes through one more
// silent bootstrap cycle.
package state

import (
	"sort"
	"time"
)

// Phase is the response-watch state machine of one operator.
// The only transition is Uninitialized -> Initialized, taken once by MarkBootstrapped.
type Phase int

const (
	// Uninitialized: the next response-watch cycle seeds known offers without notifying
	Uninitialized Phase = iota
	// Initialized: known offers are seeded, new ones are notified
	Initialized
)

// String returns the phase name
func (p Phase) String() string {
	if p == Initialized {
		return "initialized"
	}
	return "uninitialized"
}

// Store maps operator keys to their disjoint partitions.
type Store struct {
	partitions map[string]*Partition
	keys       []string
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the clock used by RecordRenewalNow in every partition
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		for _, p := range s.partitions {
			p.now = now
		}
	}
}

// NewStore creates one partition per operator key. Duplicate keys share a partition.
func NewStore(keys []string, opts ...Option) *Store {
	s := &Store{
		partitions: make(map[string]*Partition, len(keys)),
	}
	for _, key := range keys {
		if _, exists := s.partitions[key]; exists {
			continue
		}
		s.partitions[key] = newPartition(key)
		s.keys = append(s.keys, key)
	}
	sort.Strings(s.keys)

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Partition returns the state of one operator
func (s *Store) Partition(key string) (*Partition, bool) {
	p, ok := s.partitions[key]
	return p, ok
}

// Keys returns the configured operator keys in sorted order
func (s *Store) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Snapshots returns a point-in-time view of every partition, sorted by key
func (s *Store) Snapshots() []Snapshot {
	out := make([]Snapshot, 0, len(s.keys))
	for _, key := range s.keys {
		out = append(out, s.partitions[key].Snapshot())
	}
	return out
}

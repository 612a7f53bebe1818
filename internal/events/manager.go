// Package events records what the polling cycles did.
// Every event is logged and the most recent ones are kept in memory for the status API.
package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType represents different event types
type EventType string

const (
	RenewalCompleted   EventType = "RENEWAL_COMPLETED"
	RenewalAborted     EventType = "RENEWAL_ABORTED"
	OfferWatchAborted  EventType = "OFFER_WATCH_ABORTED"
	OffersBootstrapped EventType = "OFFERS_BOOTSTRAPPED"
	NewOffersDetected  EventType = "NEW_OFFERS_DETECTED"
	AutoUpdateChanged  EventType = "AUTO_UPDATE_CHANGED"
	ErrorOccurred      EventType = "ERROR_OCCURRED"
)

// DefaultHistorySize is the number of events kept in memory
const DefaultHistorySize = 200

// Event represents a system event
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Module    string      `json:"module"`
	Operator  string      `json:"operator,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// Manager handles event emission and logging
type Manager struct {
	mu      sync.RWMutex
	history []Event
	next    int
	full    bool
	log     zerolog.Logger
	now     func() time.Time
}

// NewManager creates a new event manager keeping up to size recent events
func NewManager(size int, log zerolog.Logger) *Manager {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &Manager{
		history: make([]Event, size),
		log:     log.With().Str("component", "events").Logger(),
		now:     time.Now,
	}
}

// Emit records a typed event for an operator
func (m *Manager) Emit(module, operator string, data EventData) {
	event := Event{
		Type:      data.EventType(),
		Timestamp: m.now(),
		Module:    module,
		Operator:  operator,
		Data:      data,
	}

	m.mu.Lock()
	m.history[m.next] = event
	m.next = (m.next + 1) % len(m.history)
	if m.next == 0 {
		m.full = true
	}
	m.mu.Unlock()

	eventJSON, _ := json.Marshal(event)
	m.log.Info().
		Str("event_type", string(event.Type)).
		Str("module", module).
		Str("operator", operator).
		RawJSON("event", eventJSON).
		Msg("Event emitted")
}

// EmitError emits an error event
func (m *Manager) EmitError(module, operator string, err error) {
	m.Emit(module, operator, &ErrorData{Error: err.Error()})
}

// Recent returns up to limit events, newest first. limit <= 0 returns all kept events.
func (m *Manager) Recent(limit int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := m.next
	if m.full {
		count = len(m.history)
	}
	if limit <= 0 || limit > count {
		limit = count
	}

	result := make([]Event, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (m.next - 1 - i + len(m.history)) % len(m.history)
		result = append(result, m.history[idx])
	}
	return result
}

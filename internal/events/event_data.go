package events

// EventData is the interface that all event data types must implement
type EventData interface {
	EventType() EventType
}

// RenewalCompletedData summarizes one renewal cycle
type RenewalCompletedData struct {
	CycleID   string `json:"cycle_id"`
	Listings  int    `json:"listings"`
	Renewed   int    `json:"renewed"`
	Failed    int    `json:"failed"`
	Triggered string `json:"triggered"`
}

func (d *RenewalCompletedData) EventType() EventType {
	return RenewalCompleted
}

// RenewalAbortedData is emitted when the listing fetch fails
type RenewalAbortedData struct {
	CycleID string `json:"cycle_id"`
	Error   string `json:"error"`
}

func (d *RenewalAbortedData) EventType() EventType {
	return RenewalAborted
}

// OfferWatchAbortedData is emitted when the listing fetch fails during a watch tick
type OfferWatchAbortedData struct {
	CycleID string `json:"cycle_id"`
	Error   string `json:"error"`
}

func (d *OfferWatchAbortedData) EventType() EventType {
	return OfferWatchAborted
}

// OffersBootstrappedData is emitted once per operator after the silent seeding cycle
type OffersBootstrappedData struct {
	CycleID  string `json:"cycle_id"`
	Listings int    `json:"listings"`
	Offers   int    `json:"offers"`
}

func (d *OffersBootstrappedData) EventType() EventType {
	return OffersBootstrapped
}

// NewOffersDetectedData is emitted per listing that received new offers
type NewOffersDetectedData struct {
	CycleID     string   `json:"cycle_id"`
	ListingID   string   `json:"listing_id"`
	NewOfferIDs []string `json:"new_offer_ids"`
	BestOfferID string   `json:"best_offer_id,omitempty"`
}

func (d *NewOffersDetectedData) EventType() EventType {
	return NewOffersDetected
}

// AutoUpdateChangedData is emitted when an operator's auto-update flag is changed via the API
type AutoUpdateChangedData struct {
	Enabled bool `json:"enabled"`
}

func (d *AutoUpdateChangedData) EventType() EventType {
	return AutoUpdateChanged
}

// ErrorData carries an error message
type ErrorData struct {
	Error string `json:"error"`
}

func (d *ErrorData) EventType() EventType {
	return ErrorOccurred
}

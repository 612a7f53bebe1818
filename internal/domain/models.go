package domain

import "time"

// Operator is an account on whose behalf listings are polled and renewed.
type Operator struct {
	Key       string // Stable identity key used to partition runtime state
	Name      string // Display name
	Token     string // Marketplace bearer token
	ContactID int64  // Home identity used to filter owned listings (0 = no filtering)
	ChatID    int64  // Telegram chat receiving notifications (0 = none)
}

// TaxCode describes whether an offer price already includes VAT.
type TaxCode int

const (
	// TaxExclusive is the default when the marketplace does not say otherwise
	TaxExclusive TaxCode = iota
	// TaxInclusive means the raw price is already gross
	TaxInclusive
)

// String returns a short label for logs and JSON payloads
func (t TaxCode) String() string {
	if t == TaxInclusive {
		return "inclusive"
	}
	return "exclusive"
}

// Listing is a freight cargo posting as fetched from the marketplace.
// It is an immutable snapshot, rebuilt on every fetch.
type Listing struct {
	ID               string   `json:"id"`
	Number           string   `json:"number"`
	OriginCity       string   `json:"origin_city"`
	DestinationCity  string   `json:"destination_city"`
	Weight           *float64 `json:"weight,omitempty"` // Tonnes, nil when the posting has none
	CargoName        string   `json:"cargo_name,omitempty"`
	Renewable        bool     `json:"renewable"`
	RenewRestriction string   `json:"renew_restriction,omitempty"`
	ContactID        int64    `json:"contact_id"`
	OfferCount       int      `json:"offer_count"`
}

// Route renders "origin → destination"
func (l Listing) Route() string {
	return l.OriginCity + " → " + l.DestinationCity
}

// FilterOwned keeps the listings owned by contactID; 0 keeps everything
func FilterOwned(listings []Listing, contactID int64) []Listing {
	if contactID == 0 {
		return listings
	}
	owned := make([]Listing, 0, len(listings))
	for _, l := range listings {
		if l.ContactID == contactID {
			owned = append(owned, l)
		}
	}
	return owned
}

// CompetingOffer is a counter-proposal submitted by a third party against a listing.
type CompetingOffer struct {
	ID           string   `json:"id"`
	ListingID    string   `json:"listing_id"`
	FirmName     string   `json:"firm_name"`
	FirmRating   *float64 `json:"firm_rating,omitempty"`
	ContactName  string   `json:"contact_name,omitempty"`
	ContactPhone string   `json:"contact_phone,omitempty"`
	Price        float64  `json:"price"` // Raw amount, 0 when not specified
	Tax          TaxCode  `json:"tax"`
	Note         string   `json:"note,omitempty"`
}

// NormalizedPrice is the comparable form of an offer price. Never stored.
type NormalizedPrice struct {
	Gross float64 `json:"gross"` // With VAT
	Net   float64 `json:"net"`   // Without VAT
}

// Key is the ranking key; offers compare on their gross price.
func (p NormalizedPrice) Key() float64 {
	return p.Gross
}

// Specified reports whether the offer carried a usable price.
func (p NormalizedPrice) Specified() bool {
	return p.Gross > 0
}

// RankedOffer is an offer annotated for presentation.
type RankedOffer struct {
	Offer  CompetingOffer  `json:"offer"`
	Price  NormalizedPrice `json:"price"`
	IsNew  bool            `json:"is_new"`
	IsBest bool            `json:"is_best"`
}

// RenewalResult is the outcome of one listing within a renewal cycle.
type RenewalResult struct {
	ListingID       string   `json:"listing_id"`
	ListingNumber   string   `json:"listing_number,omitempty"`
	OriginCity      string   `json:"origin_city"`
	DestinationCity string   `json:"destination_city"`
	Weight          *float64 `json:"weight,omitempty"`
	Success         bool     `json:"success"`
	Reason          string   `json:"reason,omitempty"`
}

// OfferNotification is emitted once per listing that received new offers in a cycle.
type OfferNotification struct {
	OperatorKey string           `json:"operator_key"`
	Listing     Listing          `json:"listing"`
	Offers      []RankedOffer    `json:"offers"`     // Every fetched offer, ranked
	NewOffers   []CompetingOffer `json:"new_offers"` // The diff against the known set
	BestOfferID string           `json:"best_offer_id,omitempty"`
	DetectedAt  time.Time        `json:"detected_at"`
}

// RenewStatus classifies the marketplace answer to a renewal request.
type RenewStatus int

const (
	RenewSucceeded RenewStatus = iota
	RenewRateLimited
	RenewRejected
)

// RenewOutcome is the application-level answer to a renewal request.
type RenewOutcome struct {
	Status RenewStatus
	Reason string // Server-provided reason or raw body, only for RenewRejected
}

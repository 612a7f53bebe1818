package testing

import (
	"github.com/aristath/freightwatch/internal/domain"
)

// OwnerContactID is the contact id owning the listings returned by NewListingFixtures
const OwnerContactID int64 = 4242

func float64Ptr(v float64) *float64 {
	return &v
}

// NewListingFixtures returns two owned listings and one posted by a colleague
func NewListingFixtures() []domain.Listing {
	return []domain.Listing{
		{
			ID:              "L1",
			Number:          "1001",
			OriginCity:      "Moscow",
			DestinationCity: "Kazan",
			Weight:          float64Ptr(20),
			CargoName:       "Pallets",
			Renewable:       true,
			ContactID:       OwnerContactID,
			OfferCount:      2,
		},
		{
			ID:               "L2",
			Number:           "1002",
			OriginCity:       "Tver",
			DestinationCity:  "Samara",
			Renewable:        false,
			RenewRestriction: "Renewal is available once per hour",
			ContactID:        OwnerContactID,
		},
		{
			ID:              "L3",
			Number:          "1003",
			OriginCity:      "Perm",
			DestinationCity: "Ufa",
			Weight:          float64Ptr(5.5),
			Renewable:       true,
			ContactID:       1,
			OfferCount:      1,
		},
	}
}

// NewOfferFixtures returns offers against listing L1: one VAT-inclusive, one exclusive
// and one without a price
func NewOfferFixtures() []domain.CompetingOffer {
	return []domain.CompetingOffer{
		{
			ID:           "O1",
			ListingID:    "L1",
			FirmName:     "Volga Trans",
			FirmRating:   float64Ptr(4.5),
			ContactName:  "Ivan",
			ContactPhone: "+7 (900) 123-45-67",
			Price:        120000,
			Tax:          domain.TaxInclusive,
		},
		{
			ID:        "O2",
			ListingID: "L1",
			FirmName:  "Sever Logistic",
			Price:     95000,
			Tax:       domain.TaxExclusive,
			Note:      "Ready tomorrow",
		},
		{
			ID:        "O3",
			ListingID: "L1",
			FirmName:  "Ural Cargo",
		},
	}
}

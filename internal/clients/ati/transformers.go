package ati

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aristath/freightwatch/internal/domain"
)

// Marketplace payloads are loosely shaped: optional blocks, numbers sent as strings,
// and the same concept under different keys. Everything below normalizes them into
// the fixed domain shapes.

// payAttributesInclusive is the PayAttributes value meaning "price includes VAT"
const payAttributesInclusive = 1

// transformListing converts a raw load object into a Listing
func transformListing(m map[string]interface{}, cities CityNamer) domain.Listing {
	loading := getMap(m, "Loading")
	unloading := getMap(m, "Unloading")
	cargo := getMap(m, "Cargo")
	firstCargo := firstMap(getSlice(loading, "LoadingCargos"))

	weight := getOptionalFloat(cargo, "Weight")
	if weight == nil {
		weight = getOptionalFloat(firstCargo, "Weight")
	}

	cargoName := firstNonEmpty(
		getString(cargo, "CargoTypeName"),
		getString(cargo, "Name"),
		getString(firstCargo, "Name"),
	)

	return domain.Listing{
		ID:               getString(m, "Id"),
		Number:           getString(m, "LoadNumber"),
		OriginCity:       cities.Name(getOptionalInt(loading, "CityId")),
		DestinationCity:  cities.Name(getOptionalInt(unloading, "CityId")),
		Weight:           weight,
		CargoName:        cargoName,
		Renewable:        getBool(m, "CanBeRenewed"),
		RenewRestriction: strings.TrimSpace(getString(m, "RenewRestriction")),
		ContactID:        getInt(m, "ContactId1"),
		OfferCount:       int(getInt(m, "OfferCount")),
	}
}

// transformOffer converts a raw response object into a CompetingOffer.
// ok is false when the offer carries no id and therefore cannot be tracked.
func transformOffer(m map[string]interface{}, listingID string) (domain.CompetingOffer, bool) {
	id := getString(m, "ResponseId")
	if id == "" {
		return domain.CompetingOffer{}, false
	}

	firm := getMap(m, "FirmInfo")
	contact := getMap(firm, "Contact")

	tax := domain.TaxExclusive
	if getInt(m, "PayAttributes") == payAttributesInclusive {
		tax = domain.TaxInclusive
	}

	return domain.CompetingOffer{
		ID:           id,
		ListingID:    listingID,
		FirmName:     firstNonEmpty(getString(firm, "FullFirmName"), getString(m, "FirmName")),
		FirmRating:   getOptionalFloat(firm, "TotalScore"),
		ContactName:  getString(contact, "Name"),
		ContactPhone: firstNonEmpty(getString(contact, "Telephone"), getString(contact, "Mobile")),
		Price:        getFloat64(m, "Price"),
		Tax:          tax,
		Note:         strings.TrimSpace(getString(m, "Note")),
	}, true
}

// transformCities converts dictionary entries into id -> name
func transformCities(items []map[string]interface{}) map[string]string {
	cities := make(map[string]string, len(items))
	for _, item := range items {
		id := getString(item, "CityId")
		name := firstNonEmpty(getString(item, "CityName"), getString(item, "ShortName"))
		if id != "" && name != "" {
			cities[id] = name
		}
	}
	return cities
}

// getString safely extracts a string value from a map
func getString(m map[string]interface{}, key string) string {
	val, exists := m[key]
	if !exists || val == nil {
		return ""
	}
	switch v := val.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool, map[string]interface{}, []interface{}:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// getOptionalFloat extracts a number; nil when absent, null or unparseable
func getOptionalFloat(m map[string]interface{}, key string) *float64 {
	val, exists := m[key]
	if !exists || val == nil {
		return nil
	}
	var f float64
	switch v := val.(type) {
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case float64:
		f = v
	case string:
		// Some numeric fields arrive as strings, sometimes with a decimal comma
		parsed, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v), ",", "."), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	return &f
}

// getFloat64 is getOptionalFloat with 0 for missing values
func getFloat64(m map[string]interface{}, key string) float64 {
	if f := getOptionalFloat(m, key); f != nil {
		return *f
	}
	return 0
}

// getOptionalInt extracts an integer id; nil when absent or unparseable
func getOptionalInt(m map[string]interface{}, key string) *int64 {
	f := getOptionalFloat(m, key)
	if f == nil {
		return nil
	}
	i := int64(*f)
	return &i
}

// getInt is getOptionalInt with 0 for missing values
func getInt(m map[string]interface{}, key string) int64 {
	if i := getOptionalInt(m, key); i != nil {
		return *i
	}
	return 0
}

// getBool accepts JSON booleans and their common string forms
func getBool(m map[string]interface{}, key string) bool {
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	case json.Number:
		return v.String() != "0"
	default:
		return false
	}
}

func getMap(m map[string]interface{}, key string) map[string]interface{} {
	if m == nil {
		return nil
	}
	sub, _ := m[key].(map[string]interface{})
	return sub
}

func getSlice(m map[string]interface{}, key string) []interface{} {
	if m == nil {
		return nil
	}
	list, _ := m[key].([]interface{})
	return list
}

func firstMap(list []interface{}) map[string]interface{} {
	if len(list) == 0 {
		return nil
	}
	m, _ := list[0].(map[string]interface{})
	return m
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

package ati

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetString(t *testing.T) {
	m := map[string]interface{}{
		"str":    "abc",
		"num":    json.Number("1234567"),
		"float":  float64(1234567),
		"bool":   true,
		"nested": map[string]interface{}{"a": 1},
		"nil":    nil,
	}

	assert.Equal(t, "abc", getString(m, "str"))
	assert.Equal(t, "1234567", getString(m, "num"))
	assert.Equal(t, "1234567", getString(m, "float"))
	assert.Equal(t, "", getString(m, "bool"))
	assert.Equal(t, "", getString(m, "nested"))
	assert.Equal(t, "", getString(m, "nil"))
	assert.Equal(t, "", getString(m, "missing"))
	assert.Equal(t, "", getString(nil, "missing"))
}

func TestGetOptionalFloat(t *testing.T) {
	m := map[string]interface{}{
		"num":    json.Number("2.5"),
		"str":    "3,75",
		"bad":    "n/a",
		"nil":    nil,
		"nested": map[string]interface{}{},
	}

	assert.Equal(t, 2.5, *getOptionalFloat(m, "num"))
	assert.Equal(t, 3.75, *getOptionalFloat(m, "str"))
	assert.Nil(t, getOptionalFloat(m, "bad"))
	assert.Nil(t, getOptionalFloat(m, "nil"))
	assert.Nil(t, getOptionalFloat(m, "nested"))
	assert.Nil(t, getOptionalFloat(m, "missing"))
}

func TestGetBool(t *testing.T) {
	m := map[string]interface{}{
		"t":   true,
		"s":   "true",
		"one": json.Number("1"),
		"no":  json.Number("0"),
	}

	assert.True(t, getBool(m, "t"))
	assert.True(t, getBool(m, "s"))
	assert.True(t, getBool(m, "one"))
	assert.False(t, getBool(m, "no"))
	assert.False(t, getBool(m, "missing"))
}

func TestTransformListing_CargoFallbacks(t *testing.T) {
	m := map[string]interface{}{
		"Id":    json.Number("99"),
		"Cargo": map[string]interface{}{"Name": "Steel"},
		"Loading": map[string]interface{}{
			"CityId":        json.Number("10"),
			"LoadingCargos": []interface{}{map[string]interface{}{"Weight": json.Number("12"), "Name": "ignored"}},
		},
	}

	listing := transformListing(m, rawCityNamer{})
	assert.Equal(t, "99", listing.ID)
	assert.Equal(t, "Steel", listing.CargoName)
	assert.Equal(t, 12.0, *listing.Weight)
	assert.Equal(t, "city #10", listing.OriginCity)
	assert.Equal(t, "—", listing.DestinationCity)
	assert.False(t, listing.Renewable)
}

func TestTransformOffer_MissingID(t *testing.T) {
	_, ok := transformOffer(map[string]interface{}{"Price": json.Number("100")}, "L1")
	assert.False(t, ok)
}

func TestTransformOffer_PhoneFallback(t *testing.T) {
	offer, ok := transformOffer(map[string]interface{}{
		"ResponseId": "r1",
		"FirmInfo": map[string]interface{}{
			"Contact": map[string]interface{}{"Telephone": "+7 (495) 000-00-00", "Mobile": "8916"},
		},
	}, "L1")

	assert.True(t, ok)
	assert.Equal(t, "+7 (495) 000-00-00", offer.ContactPhone)
	assert.Equal(t, 0.0, offer.Price)
}

// Package pricing turns raw offer prices into comparable gross/net amounts and ranks offers.
package pricing

import (
	"math"
	"strconv"
	"strings"

	"github.com/aristath/freightwatch/internal/domain"
	"github.com/shopspring/decimal"
)

// vatRate is the fixed VAT applied to every marketplace price (22%).
var (
	vatRate       = decimal.RequireFromString("0.22")
	vatMultiplier = decimal.NewFromInt(1).Add(vatRate)
)

// Normalize converts a raw price and its tax code into gross and net amounts.
// Derived amounts are rounded to whole units, half to even.
// A zero, negative or non-finite amount yields the zero price, which never ranks.
func Normalize(amount float64, tax domain.TaxCode) domain.NormalizedPrice {
	if !(amount > 0) || math.IsInf(amount, 0) {
		return domain.NormalizedPrice{}
	}

	price := decimal.NewFromFloat(amount)
	if tax == domain.TaxInclusive {
		return domain.NormalizedPrice{
			Gross: amount,
			Net:   price.Div(vatMultiplier).RoundBank(0).InexactFloat64(),
		}
	}

	return domain.NormalizedPrice{
		Gross: price.Mul(vatMultiplier).RoundBank(0).InexactFloat64(),
		Net:   amount,
	}
}

// NormalizeOffer is Normalize applied to an offer's own price and tax code.
func NormalizeOffer(offer domain.CompetingOffer) domain.NormalizedPrice {
	return Normalize(offer.Price, offer.Tax)
}

// FormatRUB renders a whole amount with space-separated thousands, e.g. 1220000 -> "1 220 000".
func FormatRUB(amount float64) string {
	n := int64(math.Round(amount))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}

	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(d)
	}
	return sign + b.String()
}

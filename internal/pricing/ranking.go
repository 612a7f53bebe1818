package pricing

import (
	"sort"

	"github.com/aristath/freightwatch/internal/domain"
)

// Rank normalizes every offer and orders them for presentation.
//
// Priced offers come first, ascending by gross price; equal prices keep fetch order.
// Offers without a price follow in fetch order and can never be best.
// The second return value is the id of the best offer, or "" when nothing is priced.
// newIDs marks which offers are annotated as new; it may be nil.
func Rank(offers []domain.CompetingOffer, newIDs map[string]struct{}) ([]domain.RankedOffer, string) {
	priced := make([]domain.RankedOffer, 0, len(offers))
	unpriced := make([]domain.RankedOffer, 0)

	for _, offer := range offers {
		_, isNew := newIDs[offer.ID]
		ranked := domain.RankedOffer{
			Offer: offer,
			Price: NormalizeOffer(offer),
			IsNew: isNew,
		}
		if ranked.Price.Specified() {
			priced = append(priced, ranked)
		} else {
			unpriced = append(unpriced, ranked)
		}
	}

	sort.SliceStable(priced, func(i, j int) bool {
		return priced[i].Price.Key() < priced[j].Price.Key()
	})

	bestID := ""
	if len(priced) > 0 {
		priced[0].IsBest = true
		bestID = priced[0].Offer.ID
	}

	return append(priced, unpriced...), bestID
}

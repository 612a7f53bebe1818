package notify

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/freightwatch/internal/domain"
	"github.com/aristath/freightwatch/internal/pricing"
)

const (
	placeholder     = "—"
	timestampLayout = "02 Jan, 15:04"
	offerTop        = " ┌─────────────────"
	offerBottom     = " └─────────────────"
)

// RenderRenewal renders the report of one renewal cycle as Telegram HTML
func RenderRenewal(operator domain.Operator, results []domain.RenewalResult, at time.Time) string {
	lines := []string{
		fmt.Sprintf("🔄 Listing renewal for <b>%s</b>:", e(displayName(operator))),
		"",
	}

	if len(results) == 0 {
		lines = append(lines, "No active listings", "")
	}

	for _, r := range results {
		head := fmt.Sprintf("%s → %s, %s", e(orDash(r.OriginCity)), e(orDash(r.DestinationCity)), e(formatWeight(r.Weight)))
		if r.ListingNumber != "" {
			head += " (#" + e(r.ListingNumber) + ")"
		}

		if r.Success {
			lines = append(lines, "♻️ "+head+": renewed")
		} else {
			reason := r.Reason
			if reason == "" {
				reason = "unknown"
			}
			lines = append(lines, "⏳ "+head, "  "+e(reason))
		}
		lines = append(lines, "")
	}

	lines = append(lines, "🕐 "+at.Format(timestampLayout))
	return strings.Join(lines, "\n")
}

// RenderNewOffers renders a new-offer notification as Telegram HTML.
// Offers are listed in ranked order with best and new badges.
func RenderNewOffers(n domain.OfferNotification) string {
	listing := n.Listing
	lines := []string{
		"🔔 New counter offer!",
		fmt.Sprintf("📦 <b>%s → %s</b>, %s", e(orDash(listing.OriginCity)), e(orDash(listing.DestinationCity)), e(formatWeight(listing.Weight))),
	}
	if listing.CargoName != "" {
		lines = append(lines, "🚚 "+e(listing.CargoName))
	}
	lines = append(lines, "")

	for _, ranked := range n.Offers {
		lines = append(lines, renderOffer(ranked))
	}

	lines = append(lines, "", "🕐 "+n.DetectedAt.Format(timestampLayout))
	return strings.Join(lines, "\n")
}

func renderOffer(r domain.RankedOffer) string {
	badge := ""
	if r.IsBest {
		badge += "🔥 "
	}
	if r.IsNew {
		badge += "🆕 "
	}

	offer := r.Offer
	return strings.Join([]string{
		offerTop,
		fmt.Sprintf(" %s%s ⭐%s", badge, e(orDash(offer.FirmName)), e(formatRating(offer.FirmRating))),
		fmt.Sprintf(" 👤 %s 📞 %s", e(orDash(offer.ContactName)), e(NormalizePhone(orDash(offer.ContactPhone)))),
		" 💰 " + e(formatPrice(r.Price)),
		" 💬 " + e(orDash(offer.Note)),
		offerBottom,
	}, "\n")
}

// NormalizePhone rewrites Russian numbers as +7XXXXXXXXXX so Telegram makes them clickable.
// Anything unrecognized is returned unchanged.
func NormalizePhone(phone string) string {
	if phone == "" || phone == placeholder {
		return phone
	}

	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return phone
	}

	if len(digits) == 11 && digits[0] == '8' {
		digits = "7" + digits[1:]
	}
	if len(digits) == 10 {
		digits = "7" + digits
	}
	if len(digits) == 11 && digits[0] == '7' {
		return "+" + digits
	}
	return phone
}

func formatPrice(p domain.NormalizedPrice) string {
	if !p.Specified() {
		return "price not specified"
	}
	return fmt.Sprintf("%s ₽ incl. VAT / %s ₽ excl. VAT", pricing.FormatRUB(p.Gross), pricing.FormatRUB(p.Net))
}

func formatWeight(w *float64) string {
	if w == nil {
		return placeholder
	}
	return strconv.FormatFloat(*w, 'f', -1, 64) + " t"
}

func formatRating(r *float64) string {
	if r == nil {
		return placeholder
	}
	s := strconv.FormatFloat(*r, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func displayName(op domain.Operator) string {
	if op.Name != "" {
		return op.Name
	}
	return op.Key
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

// e escapes text for Telegram's HTML parse mode
func e(s string) string {
	return html.EscapeString(s)
}

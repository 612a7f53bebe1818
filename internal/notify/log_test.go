package notify

import (
	"bytes"
	"context"
	"testing"

	"github.com/aristath/freightwatch/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_Notifications(t *testing.T) {
	var buf bytes.Buffer
	n := NewLog(zerolog.New(&buf))
	op := domain.Operator{Key: "igor"}

	require.NoError(t, n.NotifyRenewal(context.Background(), op, []domain.RenewalResult{
		{ListingID: "L1", Success: true},
		{ListingID: "L2", Reason: "too many requests"},
	}))
	assert.Contains(t, buf.String(), `"renewed":1`)
	assert.Contains(t, buf.String(), "too many requests")

	buf.Reset()
	require.NoError(t, n.NotifyNewOffers(context.Background(), op, domain.OfferNotification{
		Listing:     domain.Listing{ID: "L1"},
		NewOffers:   []domain.CompetingOffer{{ID: "a", FirmName: "Trans", Price: 100}},
		BestOfferID: "a",
	}))
	assert.Contains(t, buf.String(), `"offer_id":"a"`)
	assert.Contains(t, buf.String(), `"best":true`)
}

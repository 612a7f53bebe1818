package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aristath/freightwatch/internal/domain"
	testutil "github.com/aristath/freightwatch/internal/testing"
)

func TestRenewalJob_RunCycle_ListingFixtures(t *testing.T) {
	op := domain.Operator{Key: "alexander", Token: "tok-a", ContactID: testutil.OwnerContactID}
	f := newRenewalFixture(t, op)

	f.client.On("FetchListings", mock.Anything, "tok-a").Return(testutil.NewListingFixtures(), nil)
	f.client.On("Renew", mock.Anything, "tok-a", "L1").
		Return(domain.RenewOutcome{Status: domain.RenewSucceeded}, nil)
	f.notifier.On("NotifyRenewal", mock.Anything, op, mock.Anything).Return(nil)

	results, err := f.job.RunCycle(context.Background())
	require.NoError(t, err)

	// L3 belongs to another contact
	require.Len(t, results, 2)
	assert.Equal(t, "L1", results[0].ListingID)
	assert.True(t, results[0].Success)
	assert.Equal(t, "L2", results[1].ListingID)
	assert.False(t, results[1].Success)
	assert.Equal(t, "Renewal is available once per hour", results[1].Reason)

	f.client.AssertNotCalled(t, "Renew", mock.Anything, "tok-a", "L2")
	f.client.AssertNotCalled(t, "Renew", mock.Anything, "tok-a", "L3")
}

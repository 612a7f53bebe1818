package scheduler

import (
	"context"

	"github.com/aristath/freightwatch/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockMarketplaceClient is a mock implementation of domain.MarketplaceClient
type MockMarketplaceClient struct {
	mock.Mock
}

func (m *MockMarketplaceClient) FetchListings(ctx context.Context, token string) ([]domain.Listing, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Listing), args.Error(1)
}

func (m *MockMarketplaceClient) FetchOffers(ctx context.Context, token, listingID string) ([]domain.CompetingOffer, error) {
	args := m.Called(ctx, token, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CompetingOffer), args.Error(1)
}

func (m *MockMarketplaceClient) Renew(ctx context.Context, token, listingID string) (domain.RenewOutcome, error) {
	args := m.Called(ctx, token, listingID)
	return args.Get(0).(domain.RenewOutcome), args.Error(1)
}

// MockNotifier is a mock implementation of domain.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyRenewal(ctx context.Context, operator domain.Operator, results []domain.RenewalResult) error {
	args := m.Called(ctx, operator, results)
	return args.Error(0)
}

func (m *MockNotifier) NotifyNewOffers(ctx context.Context, operator domain.Operator, notification domain.OfferNotification) error {
	args := m.Called(ctx, operator, notification)
	return args.Error(0)
}

func transportErr(op string) error {
	return &domain.TransportError{Op: op, Err: context.DeadlineExceeded}
}

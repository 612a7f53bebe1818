package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/aristath/freightwatch/internal/domain"
	"github.com/aristath/freightwatch/internal/events"
	"github.com/aristath/freightwatch/internal/state"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestOrchestrator(t *testing.T, keys []string, client *MockMarketplaceClient, timing Timing) (*Orchestrator, *Scheduler, *state.Store) {
	t.Helper()
	sched := New(zerolog.Nop())
	store := state.NewStore(keys)
	orch := NewOrchestrator(sched, store, client, new(MockNotifier), events.NewManager(10, zerolog.Nop()), timing, zerolog.Nop())
	return orch, sched, store
}

func TestOrchestrator_Register(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, []string{"alexander", "igor"}, new(MockMarketplaceClient), Timing{
		RenewalInterval:       time.Hour,
		ResponsesInterval:     3 * time.Minute,
		ResponsesInitialDelay: 30 * time.Second,
	})

	ops := []domain.Operator{{Key: "alexander", Token: "a"}, {Key: "igor", Token: "i"}}
	require.NoError(t, orch.Register(ops))

	assert.Equal(t, ops, orch.Operators())

	renewal, ok := orch.RenewalJob("igor")
	require.True(t, ok)
	assert.Equal(t, "renewal:igor", renewal.Name())

	watch, ok := orch.ResponseWatchJob("alexander")
	require.True(t, ok)
	assert.Equal(t, "offer_watch:alexander", watch.Name())

	_, ok = orch.RenewalJob("unknown")
	assert.False(t, ok)

	op, ok := orch.Operator("igor")
	require.True(t, ok)
	assert.Equal(t, "i", op.Token)
}

func TestOrchestrator_Register_Errors(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, []string{"igor"}, new(MockMarketplaceClient), Timing{
		RenewalInterval:   time.Hour,
		ResponsesInterval: time.Minute,
	})

	err := orch.Register([]domain.Operator{{Key: "nobody"}})
	assert.ErrorIs(t, err, domain.ErrUnknownOperator)

	require.NoError(t, orch.Register([]domain.Operator{{Key: "igor"}}))
	assert.Error(t, orch.Register([]domain.Operator{{Key: "igor"}}))
}

func TestOrchestrator_NextRenewal(t *testing.T) {
	orch, sched, _ := newTestOrchestrator(t, []string{"igor"}, new(MockMarketplaceClient), Timing{
		RenewalInterval:       time.Hour,
		ResponsesInterval:     time.Hour,
		ResponsesInitialDelay: time.Hour,
	})
	require.NoError(t, orch.Register([]domain.Operator{{Key: "igor"}}))

	_, ok := orch.NextRenewal("igor")
	assert.False(t, ok, "not scheduled before start")

	sched.Start()
	defer sched.Stop()

	next, ok := orch.NextRenewal("igor")
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Hour), next, 5*time.Second)

	_, ok = orch.NextRenewal("unknown")
	assert.False(t, ok)
}

func TestOrchestrator_InitialDelayCountsFromStart(t *testing.T) {
	client := new(MockMarketplaceClient)
	client.On("FetchListings", mock.Anything, "tok").Return([]domain.Listing{}, nil)

	orch, sched, store := newTestOrchestrator(t, []string{"igor"}, client, Timing{
		RenewalInterval:       time.Hour,
		ResponsesInterval:     time.Hour,
		ResponsesInitialDelay: 200 * time.Millisecond,
	})
	require.NoError(t, orch.Register([]domain.Operator{{Key: "igor", Token: "tok"}}))

	// Slow startup between registration and start
	time.Sleep(400 * time.Millisecond)

	sched.Start()
	defer sched.Stop()

	partition, _ := store.Partition("igor")
	assert.Eventually(t, partition.IsBootstrapped, 1500*time.Millisecond, 10*time.Millisecond)
}

// A blocked operator must not delay another operator's tick.
func TestOrchestrator_OperatorsAreIsolated(t *testing.T) {
	client := new(MockMarketplaceClient)
	release := make(chan struct{})

	client.On("FetchListings", mock.Anything, "slow").
		Run(func(args mock.Arguments) { <-release }).
		Return([]domain.Listing{}, nil)
	client.On("FetchListings", mock.Anything, "fast").Return([]domain.Listing{}, nil)

	orch, sched, store := newTestOrchestrator(t, []string{"slow", "fast"}, client, Timing{
		RenewalInterval:       time.Hour,
		ResponsesInterval:     time.Hour,
		ResponsesInitialDelay: 50 * time.Millisecond,
	})
	require.NoError(t, orch.Register([]domain.Operator{
		{Key: "slow", Token: "slow"},
		{Key: "fast", Token: "fast"},
	}))

	sched.Start()
	defer func() {
		close(release)
		sched.Stop()
	}()

	fast, _ := store.Partition("fast")
	assert.Eventually(t, fast.IsBootstrapped, 3*time.Second, 10*time.Millisecond)

	slow, _ := store.Partition("slow")
	assert.False(t, slow.IsBootstrapped())
}

func TestOrchestrator_ManualTriggerIgnoresAutoUpdate(t *testing.T) {
	client := new(MockMarketplaceClient)
	client.On("FetchListings", mock.Anything, "tok").Return([]domain.Listing{}, nil)

	sched := New(zerolog.Nop())
	store := state.NewStore([]string{"igor"})
	notifier := new(MockNotifier)
	notifier.On("NotifyRenewal", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	orch := NewOrchestrator(sched, store, client, notifier, events.NewManager(10, zerolog.Nop()), Timing{
		RenewalInterval:   time.Hour,
		ResponsesInterval: time.Hour,
	}, zerolog.Nop())
	require.NoError(t, orch.Register([]domain.Operator{{Key: "igor", Token: "tok"}}))

	job, _ := orch.RenewalJob("igor")
	_, err := job.RunCycle(context.Background())
	require.NoError(t, err)

	partition, _ := store.Partition("igor")
	assert.False(t, partition.IsAutoUpdateEnabled())
	_, renewed := partition.LastRenewalTime()
	assert.True(t, renewed)
}

package state

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore_OnePartitionPerKey(t *testing.T) {
	s := NewStore([]string{"igor", "alexander", "igor"})

	assert.Equal(t, []string{"alexander", "igor"}, s.Keys())

	a, ok := s.Partition("alexander")
	require.True(t, ok)
	i, ok := s.Partition("igor")
	require.True(t, ok)
	assert.NotSame(t, a, i)

	_, ok = s.Partition("nobody")
	assert.False(t, ok)
}

func TestPartition_Defaults(t *testing.T) {
	p, _ := NewStore([]string{"a"}).Partition("a")

	assert.Equal(t, "a", p.Key())
	assert.False(t, p.IsAutoUpdateEnabled())
	assert.False(t, p.IsBootstrapped())
	assert.Equal(t, Uninitialized, p.Phase())
	_, ok := p.LastRenewalTime()
	assert.False(t, ok)
	assert.Empty(t, p.KnownOfferIDs("L1"))
}

func TestPartition_AutoUpdate(t *testing.T) {
	p, _ := NewStore([]string{"a"}).Partition("a")

	assert.True(t, p.ToggleAutoUpdate())
	assert.True(t, p.IsAutoUpdateEnabled())
	assert.False(t, p.ToggleAutoUpdate())

	p.SetAutoUpdate(true)
	assert.True(t, p.IsAutoUpdateEnabled())
	p.SetAutoUpdate(false)
	assert.False(t, p.IsAutoUpdateEnabled())
}

func TestPartition_RecordRenewalNow(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewStore([]string{"a"}, WithClock(func() time.Time { return fixed }))
	p, _ := s.Partition("a")

	p.RecordRenewalNow()

	last, ok := p.LastRenewalTime()
	require.True(t, ok)
	assert.Equal(t, fixed, last)
}

func TestPartition_KnownOfferIDsAreASet(t *testing.T) {
	p, _ := NewStore([]string{"a"}).Partition("a")

	assert.True(t, p.AddKnownOfferID("L1", "o1"))
	assert.True(t, p.AddKnownOfferID("L1", "o2"))
	assert.False(t, p.AddKnownOfferID("L1", "o1"))
	assert.True(t, p.AddKnownOfferID("L2", "o1"))

	known := p.KnownOfferIDs("L1")
	assert.Len(t, known, 2)
	assert.True(t, known.Has("o1"))
	assert.True(t, known.Has("o2"))
	assert.Len(t, p.KnownOfferIDs("L2"), 1)
}

func TestPartition_KnownOfferIDsReturnsCopy(t *testing.T) {
	p, _ := NewStore([]string{"a"}).Partition("a")
	p.AddKnownOfferID("L1", "o1")

	known := p.KnownOfferIDs("L1")
	known["intruder"] = struct{}{}

	assert.False(t, p.KnownOfferIDs("L1").Has("intruder"))
}

func TestPartition_MarkBootstrappedOnce(t *testing.T) {
	p, _ := NewStore([]string{"a"}).Partition("a")

	assert.True(t, p.MarkBootstrapped())
	assert.False(t, p.MarkBootstrapped())
	assert.True(t, p.IsBootstrapped())
	assert.Equal(t, Initialized, p.Phase())
}

func TestPartitions_AreDisjoint(t *testing.T) {
	s := NewStore([]string{"a", "b"})
	a, _ := s.Partition("a")
	b, _ := s.Partition("b")

	a.SetAutoUpdate(true)
	a.AddKnownOfferID("L1", "o1")
	a.MarkBootstrapped()
	a.RecordRenewalNow()

	assert.False(t, b.IsAutoUpdateEnabled())
	assert.Empty(t, b.KnownOfferIDs("L1"))
	assert.False(t, b.IsBootstrapped())
	_, ok := b.LastRenewalTime()
	assert.False(t, ok)
}

func TestPartition_ConcurrentOperators(t *testing.T) {
	s := NewStore([]string{"a", "b"})

	var wg sync.WaitGroup
	for _, key := range s.Keys() {
		p, _ := s.Partition(key)
		wg.Add(1)
		go func(p *Partition) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				p.AddKnownOfferID("L1", string(rune('a'+i%26)))
				p.ToggleAutoUpdate()
			}
		}(p)
	}
	wg.Wait()

	for _, key := range s.Keys() {
		p, _ := s.Partition(key)
		assert.Len(t, p.KnownOfferIDs("L1"), 26)
	}
}

func TestSnapshots(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewStore([]string{"b", "a"}, WithClock(func() time.Time { return fixed }))
	a, _ := s.Partition("a")
	a.SetAutoUpdate(true)
	a.RecordRenewalNow()
	a.AddKnownOfferID("L1", "o1")
	a.AddKnownOfferID("L2", "o2")
	a.AddKnownOfferID("L2", "o3")
	a.MarkBootstrapped()

	snaps := s.Snapshots()
	require.Len(t, snaps, 2)

	assert.Equal(t, "a", snaps[0].OperatorKey)
	assert.True(t, snaps[0].AutoUpdate)
	require.NotNil(t, snaps[0].LastRenewal)
	assert.Equal(t, fixed, *snaps[0].LastRenewal)
	assert.Equal(t, "initialized", snaps[0].Phase)
	assert.Equal(t, 2, snaps[0].TrackedListings)
	assert.Equal(t, 3, snaps[0].KnownOfferCount)

	assert.Equal(t, "b", snaps[1].OperatorKey)
	assert.Nil(t, snaps[1].LastRenewal)
	assert.Equal(t, "uninitialized", snaps[1].Phase)
}

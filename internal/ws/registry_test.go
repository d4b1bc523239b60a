package ws

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAddAndRemoveAreIdempotent(t *testing.T) {
	registry := NewRegistry()
	s := &fakeSession{id: "a"}

	assert.True(t, registry.Add(s))
	assert.False(t, registry.Add(s))
	require.Equal(t, 1, registry.Len())
	assert.True(t, registry.contains(s))

	assert.True(t, registry.Remove(s))
	assert.False(t, registry.Remove(s))
	require.Equal(t, 0, registry.Len())
	assert.False(t, registry.contains(s))
}

func TestRegistrySnapshotIsDetached(t *testing.T) {
	registry := NewRegistry()
	a, b := &fakeSession{id: "a"}, &fakeSession{id: "b"}
	registry.Add(a)
	registry.Add(b)

	snapshot := registry.Snapshot()
	registry.Remove(a)
	registry.Add(&fakeSession{id: "c"})

	assert.Len(t, snapshot, 2)
	assert.ElementsMatch(t, []Session{a, b}, snapshot)
	assert.Equal(t, 2, registry.Len())
}

func TestRegistryConcurrentMutationDuringSnapshot(t *testing.T) {
	registry := NewRegistry()
	stable := &fakeSession{id: "stable"}
	registry.Add(stable)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s := &fakeSession{id: fmt.Sprintf("%d-%d", i, j)}
				registry.Add(s)
				registry.Remove(s)
			}
		}(i)
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				snapshot := registry.Snapshot()
				assert.Contains(t, snapshot, Session(stable))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, registry.Len())
}

package keylock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLock_SerializesSameKey(t *testing.T) {
	var m Map
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		maxSeen int
	)

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := m.Lock("file")
			defer unlock()

			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, m.Len())
}

func TestRLock_SharedButExcludesWriter(t *testing.T) {
	var m Map

	r1 := m.RLock("k")
	r2 := m.RLock("k")

	_, ok := m.TryLock("k")
	require.False(t, ok, "writer must wait for readers")

	r1()
	r2()

	unlock, ok := m.TryLock("k")
	require.True(t, ok)
	unlock()
	assert.Equal(t, 0, m.Len())
}

func TestLock_IndependentKeys(t *testing.T) {
	var m Map

	a := m.Lock("a")
	b, ok := m.TryLock("b")
	require.True(t, ok)
	assert.Equal(t, 2, m.Len())

	a()
	b()
	assert.Equal(t, 0, m.Len())
}

package kv_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"story-playback/internal/kv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSetDelete(t *testing.T) {
	ctx := context.Background()
	m := kv.NewMemory()

	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, m.Set(ctx, "k", []byte("v1")))
	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)

	v[0] = 'x'
	again, _ := m.Get(ctx, "k")
	assert.Equal(t, []byte("v1"), again, "callers must not alias stored bytes")

	require.NoError(t, m.Delete(ctx, "k"))
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestMemoryInstancesAreIndependent(t *testing.T) {
	ctx := context.Background()
	a, b := kv.NewMemory(), kv.NewMemory()
	require.NoError(t, a.Set(ctx, "k", []byte("a")))

	_, err := b.Get(ctx, "k")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestMemoryUpdate(t *testing.T) {
	ctx := context.Background()
	m := kv.NewMemory()

	require.NoError(t, m.Update(ctx, "k", func(cur []byte) ([]byte, error) {
		assert.Nil(t, cur)
		return []byte("1"), nil
	}))
	v, _ := m.Get(ctx, "k")
	assert.Equal(t, []byte("1"), v)

	boom := errors.New("boom")
	err := m.Update(ctx, "k", func([]byte) ([]byte, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	v, _ = m.Get(ctx, "k")
	assert.Equal(t, []byte("1"), v)

	require.NoError(t, m.Update(ctx, "k", func([]byte) ([]byte, error) { return nil, nil }))
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestMemoryUpdateIsAtomic(t *testing.T) {
	ctx := context.Background()
	m := kv.NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Update(ctx, "n", func(cur []byte) ([]byte, error) {
				n, _ := strconv.Atoi(string(cur))
				return []byte(strconv.Itoa(n + 1)), nil
			})
		}()
	}
	wg.Wait()

	v, err := m.Get(ctx, "n")
	require.NoError(t, err)
	assert.Equal(t, "50", string(v))
}

func TestMemoryHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := kv.NewMemory()
	assert.ErrorIs(t, m.Set(ctx, "k", []byte("v")), context.Canceled)
}

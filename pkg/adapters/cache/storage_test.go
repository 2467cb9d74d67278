package cache_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quicknote/pkg/adapters/cache"
	"github.com/aretw0/quicknote/pkg/adapters/memory"
	"github.com/aretw0/quicknote/pkg/core"
)

// countingStorage counts reads that reach the wrapped storage.
type countingStorage struct {
	*memory.Storage
	reads  int
	failOn string
	events chan core.Event
}

func (c *countingStorage) GetString(ctx context.Context, ns core.Namespace, key, def string) (string, error) {
	c.reads++
	return c.Storage.GetString(ctx, ns, key, def)
}

func (c *countingStorage) GetInt64(ctx context.Context, ns core.Namespace, key string, def int64) (int64, error) {
	c.reads++
	return c.Storage.GetInt64(ctx, ns, key, def)
}

func (c *countingStorage) SetString(ctx context.Context, ns core.Namespace, key, value string) error {
	if key == c.failOn {
		return errors.New("disk full")
	}
	return c.Storage.SetString(ctx, ns, key, value)
}

func (c *countingStorage) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	return c.events, nil
}

// pausedStorage holds a read after it reached the wrapped storage until
// resume is closed, so a write can land in between.
type pausedStorage struct {
	*memory.Storage
	reached chan struct{}
	resume  chan struct{}
}

func (p *pausedStorage) GetString(ctx context.Context, ns core.Namespace, key, def string) (string, error) {
	v, err := p.Storage.GetString(ctx, ns, key, def)
	if p.reached != nil {
		close(p.reached)
		<-p.resume
	}
	return v, err
}

func (p *pausedStorage) GetInt64(ctx context.Context, ns core.Namespace, key string, def int64) (int64, error) {
	v, err := p.Storage.GetInt64(ctx, ns, key, def)
	if p.reached != nil {
		close(p.reached)
		<-p.resume
	}
	return v, err
}

// readDuring starts a read through c, runs write while the read is held
// between the wrapped storage and the cache, then lets the read finish.
func readDuring(t *testing.T, c *cache.Storage, inner *pausedStorage, read func() error, write func()) {
	t.Helper()
	inner.reached = make(chan struct{})
	inner.resume = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- read() }()

	select {
	case <-inner.reached:
	case <-time.After(2 * time.Second):
		t.Fatal("read never reached the wrapped storage")
	}
	write()
	close(inner.resume)
	require.NoError(t, <-done)
	inner.reached = nil
}

func newPaused(t *testing.T) (*cache.Storage, *pausedStorage) {
	t.Helper()
	inner := &pausedStorage{Storage: memory.New()}
	c, err := cache.New(inner, 8)
	require.NoError(t, err)
	return c, inner
}

func newCached(t *testing.T) (*cache.Storage, *countingStorage) {
	t.Helper()
	inner := &countingStorage{Storage: memory.New(), events: make(chan core.Event, 1)}
	c, err := cache.New(inner, 8)
	require.NoError(t, err)
	return c, inner
}

func TestStorage_ReadsAreCached(t *testing.T) {
	ctx := context.Background()
	c, inner := newCached(t)
	require.NoError(t, inner.Storage.SetString(ctx, core.NamespaceNotes, "note_1", "hi"))

	for range 3 {
		v, err := c.GetString(ctx, core.NamespaceNotes, "note_1", "")
		require.NoError(t, err)
		assert.Equal(t, "hi", v)
	}
	assert.Equal(t, 1, inner.reads)

	state := c.State().(cache.StorageState)
	assert.Equal(t, int64(2), state.Hits)
	assert.Equal(t, int64(1), state.Misses)
	assert.Equal(t, "memory-storage", state.Inner)
}

func TestStorage_DefaultsAreNotCached(t *testing.T) {
	ctx := context.Background()
	c, inner := newCached(t)

	v, err := c.GetInt64(ctx, core.NamespaceNotes, "timestamp_1", -1)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), v)

	// Written behind the cache's back: must still be seen.
	require.NoError(t, inner.Storage.SetInt64(ctx, core.NamespaceNotes, "timestamp_1", 42))
	v, err = c.GetInt64(ctx, core.NamespaceNotes, "timestamp_1", -1)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)
}

func TestStorage_WriteThrough(t *testing.T) {
	ctx := context.Background()
	c, inner := newCached(t)

	require.NoError(t, c.SetString(ctx, core.NamespaceNotes, "note_2", "saved"))
	got, err := inner.Storage.GetString(ctx, core.NamespaceNotes, "note_2", "")
	require.NoError(t, err)
	assert.Equal(t, "saved", got)

	v, err := c.GetString(ctx, core.NamespaceNotes, "note_2", "")
	require.NoError(t, err)
	assert.Equal(t, "saved", v)
	assert.Zero(t, inner.reads, "read after write is served from cache")
}

func TestStorage_FailedWriteInvalidates(t *testing.T) {
	ctx := context.Background()
	c, inner := newCached(t)
	inner.failOn = "note_3"

	require.NoError(t, inner.Storage.SetString(ctx, core.NamespaceNotes, "note_3", "old"))
	v, _ := c.GetString(ctx, core.NamespaceNotes, "note_3", "")
	require.Equal(t, "old", v)

	assert.Error(t, c.SetString(ctx, core.NamespaceNotes, "note_3", "new"))
	v, err := c.GetString(ctx, core.NamespaceNotes, "note_3", "")
	require.NoError(t, err)
	assert.Equal(t, "old", v)
}

func TestStorage_Delete(t *testing.T) {
	ctx := context.Background()
	c, _ := newCached(t)

	require.NoError(t, c.SetString(ctx, core.NamespaceNotes, "note_4", "x"))
	require.NoError(t, c.SetInt64(ctx, core.NamespaceNotes, "timestamp_4", 1))
	require.NoError(t, c.Delete(ctx, core.NamespaceNotes, "note_4", "timestamp_4"))

	v, err := c.GetString(ctx, core.NamespaceNotes, "note_4", "gone")
	require.NoError(t, err)
	assert.Equal(t, "gone", v)
	n, err := c.GetInt64(ctx, core.NamespaceNotes, "timestamp_4", -1)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), n)
}

func TestStorage_WatchPurges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c, inner := newCached(t)

	require.NoError(t, c.SetString(ctx, core.NamespaceNotes, "note_5", "mine"))
	events, err := c.Watch(ctx, "")
	require.NoError(t, err)

	// Another process changes the value and the storage reports it.
	require.NoError(t, inner.Storage.SetString(ctx, core.NamespaceNotes, "note_5", "theirs"))
	inner.events <- core.Event{Type: core.EventExternalChange, Namespace: core.NamespaceNotes}

	select {
	case e := <-events:
		assert.Equal(t, core.EventExternalChange, e.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("event not forwarded")
	}

	v, err := c.GetString(ctx, core.NamespaceNotes, "note_5", "")
	require.NoError(t, err)
	assert.Equal(t, "theirs", v)

	close(inner.events)
	_, ok := <-events
	assert.False(t, ok, "closing the source closes the forwarded channel")
}

func TestStorage_WatchUnsupported(t *testing.T) {
	c, err := cache.New(memory.New(), 0)
	require.NoError(t, err)
	_, err = c.Watch(context.Background(), "")
	assert.Error(t, err)
	assert.Equal(t, cache.DefaultSize, c.State().(cache.StorageState).Size)
}

func TestStorage_WriteDuringMissWins(t *testing.T) {
	ctx := context.Background()
	c, inner := newPaused(t)
	require.NoError(t, inner.Storage.SetString(ctx, core.NamespaceNotes, "note_1", "old"))

	readDuring(t, c, inner, func() error {
		_, err := c.GetString(ctx, core.NamespaceNotes, "note_1", "")
		return err
	}, func() {
		require.NoError(t, c.SetString(ctx, core.NamespaceNotes, "note_1", "new"))
	})

	v, err := c.GetString(ctx, core.NamespaceNotes, "note_1", "")
	require.NoError(t, err)
	stored, err := inner.Storage.GetString(ctx, core.NamespaceNotes, "note_1", "")
	require.NoError(t, err)
	assert.Equal(t, "new", stored)
	assert.Equal(t, stored, v)
}

func TestStorage_IntWriteDuringMissWins(t *testing.T) {
	ctx := context.Background()
	c, inner := newPaused(t)
	require.NoError(t, inner.Storage.SetInt64(ctx, core.NamespaceNotes, "timestamp_1", 1))

	readDuring(t, c, inner, func() error {
		_, err := c.GetInt64(ctx, core.NamespaceNotes, "timestamp_1", -1)
		return err
	}, func() {
		require.NoError(t, c.SetInt64(ctx, core.NamespaceNotes, "timestamp_1", 2))
	})

	v, err := c.GetInt64(ctx, core.NamespaceNotes, "timestamp_1", -1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

func TestStorage_DeleteDuringMissWins(t *testing.T) {
	ctx := context.Background()
	c, inner := newPaused(t)
	require.NoError(t, inner.Storage.SetString(ctx, core.NamespaceNotes, "note_2", "old"))

	readDuring(t, c, inner, func() error {
		_, err := c.GetString(ctx, core.NamespaceNotes, "note_2", "")
		return err
	}, func() {
		require.NoError(t, c.Delete(ctx, core.NamespaceNotes, "note_2"))
	})

	v, err := c.GetString(ctx, core.NamespaceNotes, "note_2", "gone")
	require.NoError(t, err)
	assert.Equal(t, "gone", v)
}

func TestStorage_ConcurrentReadersAndWriter(t *testing.T) {
	ctx := context.Background()
	c, err := cache.New(memory.New(), 8)
	require.NoError(t, err)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				_, _ = c.GetString(ctx, core.NamespaceNotes, "note_3", "")
				c.Purge()
			}
		}()
	}
	for i := range 200 {
		require.NoError(t, c.SetString(ctx, core.NamespaceNotes, "note_3", strconv.Itoa(i)))
	}
	close(stop)
	wg.Wait()

	v, err := c.GetString(ctx, core.NamespaceNotes, "note_3", "")
	require.NoError(t, err)
	assert.Equal(t, "199", v)
}

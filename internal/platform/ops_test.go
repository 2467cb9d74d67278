package platform_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quicknote/internal/platform"
	"github.com/aretw0/quicknote/pkg/adapters/badger"
	"github.com/aretw0/quicknote/pkg/adapters/cache"
	"github.com/aretw0/quicknote/pkg/adapters/fs"
	"github.com/aretw0/quicknote/pkg/adapters/memory"
	"github.com/aretw0/quicknote/pkg/core"
)

func TestInit_Adapters(t *testing.T) {
	t.Run("fs", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "store")
		storage, err := platform.Init(dir)
		require.NoError(t, err)
		assert.IsType(t, &fs.Repository{}, storage)
		assert.DirExists(t, dir)
	})

	t.Run("badger", func(t *testing.T) {
		storage, err := platform.Init(t.TempDir(), platform.WithAdapter("badger"))
		require.NoError(t, err)
		defer storage.(*badger.Repository).Close()
		assert.IsType(t, &badger.Repository{}, storage)
	})

	t.Run("memory", func(t *testing.T) {
		storage, err := platform.Init("", platform.WithAdapter("memory"))
		require.NoError(t, err)
		assert.IsType(t, &memory.Storage{}, storage)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := platform.Init("", platform.WithAdapter("s3"))
		assert.Error(t, err)
	})
}

func TestInit_Options(t *testing.T) {
	t.Run("Injected Storage Wins", func(t *testing.T) {
		injected := memory.New()
		storage, err := platform.Init("ignored", platform.WithStorage(injected), platform.WithAdapter("s3"))
		require.NoError(t, err)
		assert.Same(t, injected, storage)
	})

	t.Run("Cache Wraps Storage", func(t *testing.T) {
		storage, err := platform.Init("", platform.WithAdapter("memory"), platform.WithCacheSize(4))
		require.NoError(t, err)
		cached, ok := storage.(*cache.Storage)
		require.True(t, ok)
		assert.IsType(t, &memory.Storage{}, cached.Unwrap())
	})

	t.Run("Must Exist", func(t *testing.T) {
		_, err := platform.Init(filepath.Join(t.TempDir(), "missing"), platform.WithMustExist(true))
		assert.Error(t, err)
	})

	t.Run("Read Only", func(t *testing.T) {
		dir := t.TempDir()
		storage, err := platform.Init(dir, platform.WithReadOnly(true))
		require.NoError(t, err)
		err = storage.SetString(context.Background(), core.NamespaceNotes, "note_1", "x")
		assert.ErrorIs(t, err, core.ErrReadOnly)
		_, statErr := os.Stat(filepath.Join(dir, "NOTES.json"))
		assert.True(t, os.IsNotExist(statErr))
	})
}

func TestNew_WiresService(t *testing.T) {
	ctx := context.Background()
	stamp := time.Date(2024, 5, 6, 7, 8, 0, 0, time.UTC)

	var got []core.Event
	svc, err := platform.New(t.TempDir(),
		platform.WithNow(func() time.Time { return stamp }),
		platform.WithNotifier(core.NotifierFunc(func(_ context.Context, e core.Event) {
			got = append(got, e)
		})),
		platform.WithEventBuffer(3),
	)
	require.NoError(t, err)
	defer svc.Close()

	require.NoError(t, svc.SaveNote(ctx, 1, "hello"))
	note, saved, err := svc.LoadNoteRecord(ctx, 1)
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Equal(t, "hello", note.Content)
	assert.True(t, stamp.Equal(note.LastModified))

	require.Len(t, got, 1)
	assert.Equal(t, core.EventNoteSaved, got[0].Type)

	state := svc.State().(core.ServiceState)
	assert.Equal(t, 3, state.EventBufferSize)
	assert.Equal(t, "fs-storage", state.StorageType)
}

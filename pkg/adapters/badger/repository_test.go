package badger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quicknote/pkg/adapters/badger"
	"github.com/aretw0/quicknote/pkg/core"
)

func newInMemory(t *testing.T) *badger.Repository {
	t.Helper()
	repo := badger.NewRepository(badger.Config{InMemory: true})
	require.NoError(t, repo.Initialize(context.Background()))
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRepository_Defaults(t *testing.T) {
	ctx := context.Background()
	repo := newInMemory(t)

	s, err := repo.GetString(ctx, core.NamespaceNotes, "note_1", "def")
	require.NoError(t, err)
	assert.Equal(t, "def", s)

	n, err := repo.GetInt64(ctx, core.NamespaceNotes, "timestamp_1", -1)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), n)
}

func TestRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newInMemory(t)

	require.NoError(t, repo.SetString(ctx, core.NamespaceNotes, "note_2", "hello"))
	require.NoError(t, repo.SetInt64(ctx, core.NamespaceNotes, "timestamp_2", 1700000000123))
	require.NoError(t, repo.SetInt64(ctx, core.NamespaceNotes, "negative", -42))

	s, err := repo.GetString(ctx, core.NamespaceNotes, "note_2", "")
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	n, err := repo.GetInt64(ctx, core.NamespaceNotes, "timestamp_2", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000123), n)

	n, err = repo.GetInt64(ctx, core.NamespaceNotes, "negative", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(-42), n)

	// String and integer spaces are separate.
	s, err = repo.GetString(ctx, core.NamespaceNotes, "timestamp_2", "none")
	require.NoError(t, err)
	assert.Equal(t, "none", s)

	// Namespaces are separate.
	s, err = repo.GetString(ctx, core.NamespaceTodos, "note_2", "none")
	require.NoError(t, err)
	assert.Equal(t, "none", s)
}

func TestRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := newInMemory(t)

	require.NoError(t, repo.SetString(ctx, core.NamespaceNotes, "note_3", "x"))
	require.NoError(t, repo.SetInt64(ctx, core.NamespaceNotes, "timestamp_3", 9))
	require.NoError(t, repo.Delete(ctx, core.NamespaceNotes, "note_3", "timestamp_3", "absent"))

	s, err := repo.GetString(ctx, core.NamespaceNotes, "note_3", "gone")
	require.NoError(t, err)
	assert.Equal(t, "gone", s)
	n, err := repo.GetInt64(ctx, core.NamespaceNotes, "timestamp_3", -1)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), n)
}

func TestRepository_Persistent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	repo := badger.NewRepository(badger.Config{Path: dir})
	require.NoError(t, repo.SetString(ctx, core.NamespaceTodos, "todos_5", "[]"))
	require.NoError(t, repo.Close())

	reopened := badger.NewRepository(badger.Config{Path: dir})
	defer reopened.Close()
	s, err := reopened.GetString(ctx, core.NamespaceTodos, "todos_5", "")
	require.NoError(t, err)
	assert.Equal(t, "[]", s)
}

func TestRepository_ReadOnlyRejectsWrites(t *testing.T) {
	repo := badger.NewRepository(badger.Config{InMemory: true, ReadOnly: true})
	defer repo.Close()

	err := repo.SetString(context.Background(), core.NamespaceNotes, "note_1", "x")
	assert.ErrorIs(t, err, core.ErrReadOnly)
}

func TestRepository_ClosedFails(t *testing.T) {
	repo := badger.NewRepository(badger.Config{InMemory: true})
	require.NoError(t, repo.Close())

	_, err := repo.GetString(context.Background(), core.NamespaceNotes, "note_1", "")
	assert.Error(t, err)
	assert.NoError(t, repo.Close(), "Close is idempotent")
}

func TestRepository_RequiresPath(t *testing.T) {
	repo := badger.NewRepository(badger.Config{})
	assert.Error(t, repo.Initialize(context.Background()))
}

func TestRepository_State(t *testing.T) {
	repo := newInMemory(t)
	state, ok := repo.State().(badger.RepositoryState)
	require.True(t, ok)
	assert.True(t, state.Open)
	assert.True(t, state.InMemory)
	assert.NotNil(t, state.OpenedAt)
	assert.Equal(t, "badger-storage", repo.ComponentType())
}

func TestRepository_WorksWithService(t *testing.T) {
	ctx := context.Background()
	svc := core.NewService(newInMemory(t))

	require.NoError(t, svc.SaveNote(ctx, 8, "  trimmed  "))
	note, err := svc.LoadNote(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, "trimmed", note)

	todos := []core.TodoItem{{Text: "a", Completed: true}, {Text: "b"}}
	require.NoError(t, svc.SaveTodos(ctx, 8, todos))
	loaded, err := svc.LoadTodos(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, todos, loaded)
}

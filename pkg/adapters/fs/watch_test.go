package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quicknote/pkg/adapters/fs"
	"github.com/aretw0/quicknote/pkg/core"
)

func TestWatch_ReportsNamespaceChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := newRepo(t)
	events, err := repo.Watch(ctx, "")
	require.NoError(t, err)

	// A second process writing the same store.
	other := fs.NewRepository(fs.Config{Path: repo.Path})
	require.NoError(t, other.SetString(ctx, core.NamespaceTodos, "todos_4", "[]"))

	select {
	case e := <-events:
		assert.Equal(t, core.EventExternalChange, e.Type)
		assert.Equal(t, core.NamespaceTodos, e.Namespace)
		assert.NotZero(t, e.Timestamp)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for change event")
	}

	cancel()
	assert.Eventually(t, func() bool {
		for {
			select {
			case _, ok := <-events:
				if !ok {
					return true
				}
			default:
				return false
			}
		}
	}, 2*time.Second, 10*time.Millisecond, "channel must close after cancel")
}

func TestWatch_IgnoresUnrelatedFiles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := newRepo(t)
	events, err := repo.Watch(ctx, "NOTES.json")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(repo.Path, "readme.txt"), []byte("x"), 0644))
	require.NoError(t, repo.SetString(ctx, core.NamespaceTodos, "todos_1", "[]"))

	select {
	case e := <-events:
		t.Fatalf("unexpected event %v", e)
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, repo.SetString(ctx, core.NamespaceNotes, "note_1", "x"))
	select {
	case e := <-events:
		assert.Equal(t, core.NamespaceNotes, e.Namespace)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for NOTES event")
	}
}

func TestWatch_InvalidPattern(t *testing.T) {
	repo := newRepo(t)
	_, err := repo.Watch(context.Background(), "[")
	assert.Error(t, err)
}

package fs

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/supervisor"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quicknote/pkg/core"
)

// A watcher whose fsnotify handle dies is restarted by the supervisor and
// keeps reporting note changes on the same channel.
func TestWatcherSupervisor_RestartKeepsReportingNotes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := NewRepository(Config{Path: t.TempDir()})
	require.NoError(t, repo.Initialize(ctx))

	events := make(chan core.Event, 4)
	created := make(chan *watchWorker, 2)

	sup := supervisor.New("notes-watcher", supervisor.StrategyOneForOne, supervisor.Spec{
		Name: "fs-watcher",
		Type: string(worker.TypeGoroutine),
		Factory: func() (worker.Worker, error) {
			w := newWatchWorker(repo, string(core.NamespaceNotes)+FileExt, events)
			created <- w
			return w, nil
		},
		Backoff: supervisor.Backoff{
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     50 * time.Millisecond,
			Multiplier:      1,
			ResetDuration:   50 * time.Millisecond,
			MaxRestarts:     2,
			MaxDuration:     200 * time.Millisecond,
		},
		RestartPolicy: supervisor.RestartOnFailure,
	})
	require.NoError(t, sup.Start(ctx))

	first := nextWorker(t, created)
	waitWatcherActive(t, repo)
	_ = first.watcher.Close()

	second := nextWorker(t, created)
	require.NotSame(t, first, second, "a fresh worker replaces the failed one")
	waitWatcherActive(t, repo)

	other := NewRepository(Config{Path: repo.Path})
	require.NoError(t, other.SetString(ctx, core.NamespaceNotes, "note_1", "after restart"))

	select {
	case e := <-events:
		assert.Equal(t, core.EventExternalChange, e.Type)
		assert.Equal(t, core.NamespaceNotes, e.Namespace)
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported after restart")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	require.NoError(t, sup.Stop(stopCtx))
}

func nextWorker(t *testing.T, ch <-chan *watchWorker) *watchWorker {
	t.Helper()
	select {
	case w := <-ch:
		return w
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for watch worker")
		return nil
	}
}

// waitWatcherActive waits until a worker has its directory watch in place.
func waitWatcherActive(t *testing.T, repo *Repository) {
	t.Helper()
	require.Eventually(t, func() bool {
		state, ok := repo.State().(RepositoryState)
		return ok && state.WatcherActive
	}, 2*time.Second, 10*time.Millisecond, "watcher never became active")
}

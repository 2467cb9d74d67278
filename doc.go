// Package quicknote is the composition root of the quick note widget store.
//
// Each home-screen widget owns a free-text note and a checklist of todo
// items, keyed by its widget id. The core domain (pkg/core) persists them
// through a small key-value Storage port; adapters provide that port on
// JSON files (default), BadgerDB or memory, optionally behind an LRU cache.
//
// An edit Session (pkg/session) keeps the text being typed in memory and
// saves it once the user pauses for a second, while todo changes are saved
// immediately. The renderer (pkg/render) builds what a widget displays.
//
// Usage:
//
//	svc, err := quicknote.New("./notes", quicknote.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer svc.Close()
//
//	s, err := quicknote.Open(ctx, svc, 42)
//	if err != nil {
//		return err // quicknote.ErrInvalidWidget for id <= 0
//	}
//	s.SetText("buy milk")
//	defer s.Close()
package quicknote

// Package autosave debounces writes of an in-progress value to a
// snapshot.Store.
//
// A Persister is mounted with Start, which restores the saved snapshot
// without writing it back. Every Update restarts the delay; when the value
// has been quiet for the whole delay the latest value is written. ForceSave
// writes immediately and Stop cancels anything pending:
//
//	p, err := autosave.New[Draft](key, store, Draft{},
//	    autosave.WithDelay[Draft](3*time.Second),
//	    autosave.WithOnLoad(func(s snapshot.Snapshot[Draft]) { restore(s.Payload) }),
//	)
//	if err := p.Start(ctx); err != nil { ... }
//	p.Update(draft)
//	defer p.Stop(ctx)
//
// A failed write leaves the value in memory with StatusError. Nothing is
// retried automatically; the next Update or ForceSave tries again.
package autosave

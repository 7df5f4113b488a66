// Package watcher reports changes to Go sources under a directory tree.
//
// It watches every directory with fsnotify, drops events that cannot affect
// generated guards (non-Go files, hidden directories, vendor, testdata and
// configured excludes) and coalesces bursts from editors and git checkouts
// with a Debouncer before emitting them as batches.
//
// Usage:
//
//	w, err := watcher.New(watcher.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	go func() { _ = w.Start(ctx, root) }()
//
//	for batch := range w.Events() {
//	    regenerate(watcher.Dirs(root, batch))
//	}
package watcher

// Package watcher maintains the live set of kernel directory watches and
// turns raw fsnotify notifications into change events.
//
// It is split into two halves:
//   - Tree owns the WatchSet: the directories currently holding a watch.
//     It adds watches recursively, skips excluded paths and never infers
//     membership from the notifier's own bookkeeping.
//   - Source is the producer: it reads fsnotify notifications, converts
//     them to Event values and pushes them into a bounded queue that the
//     router drains.
//
// Usage:
//
//	src, err := watcher.NewSource(fsys, watcher.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	tree := watcher.NewTree(fsys, src.Notifier(), excluder)
//	for _, root := range mapping.Roots() {
//	    tree.AddWatch(root)
//	}
//	go src.Run(ctx)
//	for ev := range src.Events() {
//	    // route ev
//	}
package watcher

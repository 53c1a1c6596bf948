package wbuild

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchSpec declares what a watch task observes and what it re-runs.
// Exclude globs are matched against slash-relative paths and every ancestor
// of a changed path, so excluded subtrees are neither traversed nor able to
// retrigger a run (a build writing into its own output directory must not
// rebuild itself).
type WatchSpec struct {
	Root     string
	Exclude  []string
	OnChange string   // task to run when a change settles
	Profile  *Profile // nil inherits the invoking profile
}

// Watcher observes a filesystem subtree and re-runs a trigger function
// whenever a change under a non-excluded path settles. At most one run is
// in flight at a time; changes arriving mid-run coalesce into a single
// queued re-run. A failed triggered run is reported and watching continues.
type Watcher struct {
	spec    WatchSpec
	out     *Output
	trigger func(ctx context.Context) error

	fsw    *fsnotify.Watcher
	settle time.Duration // quiet period before a burst of events triggers
	poll   time.Duration // how often settled events are checked for
}

// NewWatcher creates a watcher for the given spec. The trigger is invoked
// serially, never concurrently with itself.
func NewWatcher(spec WatchSpec, out *Output, trigger func(ctx context.Context) error) *Watcher {
	if spec.Root == "" {
		spec.Root = "."
	}
	return &Watcher{
		spec:    spec,
		out:     out,
		trigger: trigger,
		settle:  250 * time.Millisecond,
		poll:    100 * time.Millisecond,
	}
}

// Run registers the watched subtree and blocks processing change events
// until ctx is cancelled. Cancellation waits for an in-flight triggered run
// to finish; children are never force-killed mid-run by the watcher itself.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()
	w.fsw = fsw

	if err := w.addRecursive(w.spec.Root); err != nil {
		return err
	}

	w.out.Printf("watching %s (on change: %s)\n", w.spec.Root, w.spec.OnChange)
	return w.loop(ctx, fsw.Events, fsw.Errors)
}

// loop is the single goroutine owning the trigger state: a running flag and
// a pending flag are all that is needed for coalescing.
func (w *Watcher) loop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) error {
	tick := time.NewTicker(w.poll)
	defer tick.Stop()

	var (
		dirtyAt time.Time // zero means no unprocessed change
		running bool
		pending bool
	)
	runDone := make(chan error, 1)
	start := func() {
		running = true
		go func() { runDone <- w.trigger(ctx) }()
	}

	for {
		select {
		case <-ctx.Done():
			if running {
				<-runDone
			}
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			// New directories join the watch set so edits inside them
			// are seen too.
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = w.addRecursive(ev.Name)
				}
			}
			dirtyAt = time.Now()

		case <-tick.C:
			if dirtyAt.IsZero() || time.Since(dirtyAt) < w.settle {
				continue
			}
			dirtyAt = time.Time{}
			if running {
				pending = true
			} else {
				start()
			}

		case err := <-runDone:
			running = false
			if err != nil {
				w.out.Errorf("triggered run failed: %v (still watching)\n", err)
			}
			if pending {
				pending = false
				start()
			}

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			w.out.Errorf("watch error: %v\n", err)
		}
	}
}

// relevant reports whether an event should mark the tree dirty: content
// changes only (no chmod), under a non-excluded path.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	const ops = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename
	if ev.Op&ops == 0 {
		return false
	}
	return !w.excluded(ev.Name)
}

// excluded reports whether p, or any directory above it, matches an
// exclusion glob.
func (w *Watcher) excluded(p string) bool {
	rel, err := filepath.Rel(w.spec.Root, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return false
	}

	// Check the path itself and each ancestor, so "web/pkg" excludes
	// everything beneath web/pkg.
	for probe := rel; probe != "." && probe != "/"; probe = path.Dir(probe) {
		for _, glob := range w.spec.Exclude {
			if ok, _ := path.Match(glob, probe); ok {
				return true
			}
		}
	}
	return false
}

// addRecursive registers root and every non-excluded directory below it.
func (w *Watcher) addRecursive(root string) error {
	if w.fsw == nil {
		return nil
	}
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && w.excluded(p) {
			return fs.SkipDir
		}
		return w.fsw.Add(p)
	})
}

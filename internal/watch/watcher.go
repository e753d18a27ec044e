package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrClosed is returned by Next once the watcher has been closed.
var ErrClosed = errors.New("watcher closed")

// Excluder decides whether changes below a path are ignored.
type Excluder interface {
	Match(path string) bool
}

// Event is a single filesystem change.
type Event struct {
	Op   fsnotify.Op
	Path string
}

// Type returns a short name for the change: created, modified, deleted,
// moved or attrib.
func (e Event) Type() string {
	switch {
	case e.Op.Has(fsnotify.Create):
		return "created"
	case e.Op.Has(fsnotify.Write):
		return "modified"
	case e.Op.Has(fsnotify.Remove):
		return "deleted"
	case e.Op.Has(fsnotify.Rename):
		return "moved"
	default:
		return "attrib"
	}
}

// Options configures the watch behaviour.
type Options struct {
	// Root is the directory to watch recursively.
	Root string

	// Exclude drops events on matching paths and keeps matching
	// directories out of the watch. May be nil.
	Exclude Excluder

	// Debounce is the quiet period that closes a batch. With zero, a batch
	// holds the first event plus whatever is already queued.
	Debounce time.Duration

	// Logger is used for structured logging.
	Logger *slog.Logger
}

// DefaultOptions returns sensible default watch options.
func DefaultOptions() Options {
	return Options{
		Root:     ".",
		Debounce: 100 * time.Millisecond,
		Logger:   slog.Default(),
	}
}

// Watcher delivers batches of change events for a directory tree. It runs
// no goroutines of its own; events that arrive while the caller is busy stay
// queued in fsnotify until the next call to Next.
type Watcher struct {
	fs   *fsnotify.Watcher
	root string
	opts Options
}

// New creates a watcher and registers every non-excluded directory below
// opts.Root.
func New(opts Options) (*Watcher, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %q: %w", opts.Root, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("watching root: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("watching root: %s is not a directory", root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{fs: fsw, root: root, opts: opts}

	if err := w.addRecursive(root); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching root: %w", err)
	}

	opts.Logger.Debug("watcher started",
		slog.String("root", root),
		slog.Int("directories", len(fsw.WatchList())),
	)

	return w, nil
}

// Root returns the absolute path of the watched tree.
func (w *Watcher) Root() string { return w.root }

// WatchList returns the directories currently watched.
func (w *Watcher) WatchList() []string { return w.fs.WatchList() }

// Close stops watching. Pending and future Next calls return ErrClosed.
func (w *Watcher) Close() error { return w.fs.Close() }

// Next blocks until at least one relevant event arrives and returns the
// batch it opens. The batch is closed once no further event arrives within
// the debounce period.
func (w *Watcher) Next(ctx context.Context) ([]Event, error) {
	var (
		batch []Event
		timer *time.Timer
		quiet <-chan time.Time
	)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-quiet:
			return batch, nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil, ErrClosed
			}

			e, relevant := w.accept(ev)
			if !relevant {
				continue
			}

			batch = append(batch, e)

			if w.opts.Debounce <= 0 {
				return w.drain(batch), nil
			}

			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
				quiet = timer.C
			} else {
				timer.Reset(w.opts.Debounce)
			}

		case watchErr, ok := <-w.fs.Errors:
			if !ok {
				return nil, ErrClosed
			}

			return nil, fmt.Errorf("watching %s: %w", w.root, watchErr)
		}
	}
}

// drain appends events that are already queued without blocking.
func (w *Watcher) drain(batch []Event) []Event {
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return batch
			}

			if e, relevant := w.accept(ev); relevant {
				batch = append(batch, e)
			}
		default:
			return batch
		}
	}
}

// accept filters ev and registers newly created directories.
func (w *Watcher) accept(ev fsnotify.Event) (Event, bool) {
	if ev.Op == 0 {
		return Event{}, false
	}

	// Permission changes alone do not alter content.
	if ev.Op == fsnotify.Chmod {
		return Event{}, false
	}

	if w.excluded(ev.Name) {
		return Event{}, false
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(ev.Name); err != nil {
				w.opts.Logger.Warn("watching new directory failed",
					slog.String("path", ev.Name),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	return Event{Op: ev.Op, Path: ev.Name}, true
}

func (w *Watcher) excluded(path string) bool {
	return w.opts.Exclude != nil && w.opts.Exclude.Match(path)
}

// addRecursive walks dir and adds all non-excluded directories to the watcher.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Entries may vanish between listing and visiting.
			if path != dir && errors.Is(err, fs.ErrNotExist) {
				return nil
			}

			return err
		}

		if !d.IsDir() {
			return nil
		}

		if path != w.root && w.excluded(path) {
			return filepath.SkipDir
		}

		return w.fs.Add(path)
	})
}

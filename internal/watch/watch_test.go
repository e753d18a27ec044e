package watch

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// baseExcluder excludes any path whose final element is one of its names.
// Matching the base keeps the temp dir prefix (often /tmp) out of play.
type baseExcluder []string

func (b baseExcluder) Match(path string) bool {
	return slices.Contains(b, filepath.Base(path))
}

func newTestWatcher(t *testing.T, dir string, mutate func(*Options)) *Watcher {
	t.Helper()

	opts := DefaultOptions()
	opts.Root = dir
	opts.Debounce = 50 * time.Millisecond

	if mutate != nil {
		mutate(&opts)
	}

	w, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	return w
}

func nextWithTimeout(t *testing.T, w *Watcher) ([]Event, error) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	return w.Next(ctx)
}

// ---------------------------------------------------------------------------
// Event
// ---------------------------------------------------------------------------

func TestEvent_Type(t *testing.T) {
	tests := []struct {
		op   fsnotify.Op
		want string
	}{
		{fsnotify.Create, "created"},
		{fsnotify.Write, "modified"},
		{fsnotify.Remove, "deleted"},
		{fsnotify.Rename, "moved"},
		{fsnotify.Chmod, "attrib"},
		{fsnotify.Create | fsnotify.Write, "created"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Event{Op: tt.op}.Type())
		})
	}
}

// ---------------------------------------------------------------------------
// New
// ---------------------------------------------------------------------------

func TestNew_SkipsExcludedDirs(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pkg", "sub"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git", "objects"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tmp"), 0o755))

	w := newTestWatcher(t, dir, func(o *Options) {
		o.Exclude = baseExcluder{".git", "tmp"}
	})

	watched := make(map[string]bool)
	for _, p := range w.WatchList() {
		watched[p] = true
	}

	assert.True(t, watched[dir], "root should be watched")
	assert.True(t, watched[filepath.Join(dir, "pkg")])
	assert.True(t, watched[filepath.Join(dir, "pkg", "sub")])
	assert.False(t, watched[filepath.Join(dir, ".git")])
	assert.False(t, watched[filepath.Join(dir, ".git", "objects")])
	assert.False(t, watched[filepath.Join(dir, "tmp")])
}

func TestNew_RootMatchingExcluderIsStillWatched(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tmp")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pkg"), 0o755))

	w := newTestWatcher(t, dir, func(o *Options) {
		o.Exclude = baseExcluder{"tmp"}
	})

	assert.ElementsMatch(t, []string{dir, filepath.Join(dir, "pkg")}, w.WatchList())
}

func TestNew_NonExistentRoot(t *testing.T) {
	opts := DefaultOptions()
	opts.Root = "/nonexistent/dir/12345"

	_, err := New(opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watching root")
}

func TestNew_RootIsFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0o644))

	opts := DefaultOptions()
	opts.Root = f

	_, err := New(opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

// ---------------------------------------------------------------------------
// Next
// ---------------------------------------------------------------------------

func TestNext_ReturnsBatch(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir, nil)

	target := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(target, []byte("package main"), 0o644))

	batch, err := nextWithTimeout(t, w)
	require.NoError(t, err)
	require.NotEmpty(t, batch)
	assert.Equal(t, target, batch[0].Path)
}

func TestNext_DropsExcludedEvents(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir, func(o *Options) {
		o.Exclude = baseExcluder{"ignored.txt"}
	})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644))
	time.Sleep(100 * time.Millisecond)

	kept := filepath.Join(dir, "kept.txt")
	require.NoError(t, os.WriteFile(kept, []byte("x"), 0o644))

	batch, err := nextWithTimeout(t, w)
	require.NoError(t, err)
	require.NotEmpty(t, batch)

	for _, e := range batch {
		assert.Equal(t, kept, e.Path)
	}
}

func TestNext_WatchesNewDirectories(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir, nil)

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))

	_, err := nextWithTimeout(t, w)
	require.NoError(t, err)
	assert.Contains(t, w.WatchList(), sub)

	nested := filepath.Join(sub, "file.txt")
	require.NoError(t, os.WriteFile(nested, []byte("x"), 0o644))

	batch, err := nextWithTimeout(t, w)
	require.NoError(t, err)
	require.NotEmpty(t, batch)
	assert.Equal(t, nested, batch[0].Path)
}

func TestNext_CoalescesRapidEvents(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir, func(o *Options) {
		o.Debounce = 200 * time.Millisecond
	})

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "f.txt"), []byte{byte(i)}, 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	batch, err := nextWithTimeout(t, w)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(batch), 2, "rapid writes should land in one batch")
}

func TestNext_ContextCancelled(t *testing.T) {
	w := newTestWatcher(t, t.TempDir(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNext_Closed(t *testing.T) {
	w := newTestWatcher(t, t.TempDir(), nil)
	require.NoError(t, w.Close())

	_, err := nextWithTimeout(t, w)
	assert.ErrorIs(t, err, ErrClosed)
}

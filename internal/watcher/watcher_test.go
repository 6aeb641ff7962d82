package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcher_FiresOnceAfterBurst(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "templates.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0644))

	var calls atomic.Int32
	changed := make(chan string, 4)
	w, err := New(path, 100*time.Millisecond, func(p string) {
		calls.Add(1)
		changed <- p
	})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte(`[{"id":"a"}]`), 0644))
	}

	select {
	case p := <-changed:
		require.Equal(t, w.Path(), p)
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}

	time.Sleep(300 * time.Millisecond)
	require.Equal(t, int32(1), calls.Load())
}

func TestWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "templates.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0644))

	changed := make(chan string, 1)
	w, err := New(path, 50*time.Millisecond, func(p string) { changed <- p })
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0644))

	select {
	case <-changed:
		t.Fatal("unexpected notification for another file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_SeesReplaceByRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "templates.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0644))

	changed := make(chan string, 1)
	w, err := New(path, 50*time.Millisecond, func(p string) {
		select {
		case changed <- p:
		default:
		}
	})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	tmp := filepath.Join(dir, ".templates.json.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(`[{"id":"b"}]`), 0644))
	require.NoError(t, os.Rename(tmp, path))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification after rename")
	}
}

func TestWatcher_StopIdempotent(t *testing.T) {
	dir := t.TempDir()
	w, err := New(filepath.Join(dir, "x.json"), 0, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "gone", "x.json"), 0, nil)
	require.NoError(t, err)
	require.Error(t, w.Start())
}

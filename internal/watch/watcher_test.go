package watch

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWatcherFiresOnceForWriteBurst(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "design.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	var fired atomic.Int32
	w, err := New(path, 50*time.Millisecond, func() { fired.Add(1) }, nil)
	require.NoError(t, err)
	defer func() { require.NoError(t, w.Close()) }()

	// A burst of writes inside the settle window collapses to one reload.
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte(`{"rev":1}`), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return fired.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond, "watcher never fired")

	// Give a trailing timer a chance to misfire before asserting the count.
	time.Sleep(150 * time.Millisecond)
	require.EqualValues(t, 1, fired.Load(), "burst should debounce to one callback")
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "design.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	var fired atomic.Int32
	w, err := New(path, 20*time.Millisecond, func() { fired.Add(1) }, nil)
	require.NoError(t, err)
	defer func() { require.NoError(t, w.Close()) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644))
	time.Sleep(150 * time.Millisecond)
	require.EqualValues(t, 0, fired.Load(), "sibling file writes must not fire")
}

func TestWatcherCloseStopsGoroutine(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "design.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	w, err := New(path, 20*time.Millisecond, func() {}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestWatcherMissingDirectory(t *testing.T) {
	defer goleak.VerifyNone(t)

	_, err := New(filepath.Join(t.TempDir(), "nope", "design.json"), 0, func() {}, nil)
	require.Error(t, err)
}

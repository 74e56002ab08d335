package watcher_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/kinship/internal/pubsub"
	"github.com/zjrosen/kinship/internal/watcher"
)

func startWatcher(t *testing.T, path string) <-chan pubsub.Event[watcher.Event] {
	t.Helper()
	w, err := watcher.New(watcher.Config{Path: path, Debounce: 50 * time.Millisecond})
	require.NoError(t, err, "failed to create watcher")
	t.Cleanup(func() { _ = w.Stop() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	events := w.Broker().Subscribe(ctx)

	require.NoError(t, w.Start(), "failed to start watcher")
	return events
}

func expectEvent(t *testing.T, events <-chan pubsub.Event[watcher.Event], want pubsub.EventType) pubsub.Event[watcher.Event] {
	t.Helper()
	select {
	case event := <-events:
		require.Equal(t, want, event.Type)
		return event
	case <-time.After(2 * time.Second):
		require.FailNow(t, "expected notification but got timeout")
	}
	return pubsub.Event[watcher.Event]{}
}

func expectQuiet(t *testing.T, events <-chan pubsub.Event[watcher.Event]) {
	t.Helper()
	select {
	case event := <-events:
		t.Fatalf("unexpected notification: %v", event.Type)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "family.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: a"), 0o644))
	events := startWatcher(t, path)

	// Rapid writes should coalesce into single notification
	for i := range 10 {
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("name: a%d", i)), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	event := expectEvent(t, events, pubsub.ChangedEvent)
	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	assert.Equal(t, abs, event.Payload.Path)
	expectQuiet(t, events)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "family.yaml")
	other := filepath.Join(dir, "other.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: a"), 0o644))
	require.NoError(t, os.WriteFile(other, []byte("name: b"), 0o644))
	events := startWatcher(t, path)

	require.NoError(t, os.WriteFile(other, []byte("name: c"), 0o644))
	expectQuiet(t, events)
}

func TestWatcher_AtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "family.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: a"), 0o644))
	events := startWatcher(t, path)

	temp := filepath.Join(dir, ".family.tmp")
	require.NoError(t, os.WriteFile(temp, []byte("name: b"), 0o644))
	require.NoError(t, os.Rename(temp, path))

	expectEvent(t, events, pubsub.ChangedEvent)
}

func TestWatcher_Removed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "family.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: a"), 0o644))
	events := startWatcher(t, path)

	require.NoError(t, os.Remove(path))
	expectEvent(t, events, pubsub.RemovedEvent)
}

func TestWatcher_Stop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "family.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: a"), 0o644))

	w, err := watcher.New(watcher.DefaultConfig(path))
	require.NoError(t, err)
	events := w.Broker().Subscribe(context.Background())
	require.NoError(t, w.Start())

	done := make(chan struct{})
	go func() {
		assert.NoError(t, w.Stop(), "Stop returned error")
		assert.NoError(t, w.Stop(), "second Stop returned error")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop() timed out - possible deadlock")
	}

	_, ok := <-events
	require.False(t, ok, "subscriptions close with the watcher")
}

func TestWatcher_StartMissingDirectory(t *testing.T) {
	w, err := watcher.New(watcher.DefaultConfig(filepath.Join(t.TempDir(), "nope", "family.yaml")))
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	require.Error(t, w.Start())
}

func TestDefaultConfig(t *testing.T) {
	cfg := watcher.DefaultConfig("/docs/family.yaml")

	assert.Equal(t, "/docs/family.yaml", cfg.Path)
	assert.Equal(t, 300*time.Millisecond, cfg.Debounce)
}

package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelevantEvents(t *testing.T) {
	w := &Watcher{cfg: Config{Roots: []string{"/r"}}, ignores: defaultIgnores}
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"SidecarWritten", fsnotify.Event{Name: "/r/a/.tagger.yaml", Op: fsnotify.Write}, true},
		{"PlainSidecarRemoved", fsnotify.Event{Name: "/r/tagger.yaml", Op: fsnotify.Remove}, true},
		{"SidecarChmod", fsnotify.Event{Name: "/r/.tagger.yaml", Op: fsnotify.Chmod}, false},
		{"FileCreated", fsnotify.Event{Name: "/r/new.jpg", Op: fsnotify.Create}, true},
		{"FileRenamed", fsnotify.Event{Name: "/r/old.jpg", Op: fsnotify.Rename}, true},
		{"FileWritten", fsnotify.Event{Name: "/r/notes.txt", Op: fsnotify.Write}, false},
		{"TempSidecarCreated", fsnotify.Event{Name: "/r/.tagger.yaml.wip-123", Op: fsnotify.Create}, false},
		{"GitInternals", fsnotify.Event{Name: "/r/.git/index", Op: fsnotify.Create}, false},
		{"EditorSwap", fsnotify.Event{Name: "/r/x.swp", Op: fsnotify.Create}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.relevant(tt.event))
		})
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
	_, err = New(Config{Roots: []string{t.TempDir()}, Ignore: []string{"["}})
	assert.Error(t, err)
	_, err = New(Config{Roots: []string{filepath.Join(t.TempDir(), "missing")}})
	assert.Error(t, err)
}

func TestSidecarChangesAreDebounced(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))

	var (
		mu        sync.Mutex
		calls     int
		collected []string
	)
	fired := make(chan struct{}, 10)
	w, err := New(Config{
		Roots:    []string{root},
		Debounce: 100 * time.Millisecond,
		OnChange: func(_ context.Context, changed []string) error {
			mu.Lock()
			calls++
			collected = append(collected, changed...)
			mu.Unlock()
			fired <- struct{}{}
			return nil
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	sidecarPath := filepath.Join(sub, ".tagger.yaml")
	for _, content := range []string{"- !DirTag [a]\n", "- !DirTag [a, b]\n"} {
		require.NoError(t, os.WriteFile(sidecarPath, []byte(content), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
	}
	time.Sleep(250 * time.Millisecond)
	cancel()
	require.NoError(t, <-errCh)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{sidecarPath}, collected)

	assert.Error(t, w.Run(context.Background()), "second run")
}

package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
		{EventType(42), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestNewFileWatcher(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.NotNil(t, watcher.watcher)
	assert.NotNil(t, watcher.debouncer)
	assert.Empty(t, watcher.filters)
	assert.Empty(t, watcher.handlers)
}

func TestFileWatcherAddFilterAndHandler(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	watcher.AddFilter(SourceFilter)
	watcher.AddFilter(NoTempFilter)
	assert.Len(t, watcher.filters, 2)

	called := false
	watcher.AddHandler(func(events []ChangeEvent) error {
		called = true
		return nil
	})
	require.Len(t, watcher.handlers, 1)

	require.NoError(t, watcher.handlers[0]([]ChangeEvent{{Type: EventTypeCreated, Path: "a.tsx"}}))
	assert.True(t, called)
}

func TestFollowFileReportsWrites(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "component.tsx")
	other := filepath.Join(dir, "other.tsx")
	require.NoError(t, os.WriteFile(target, []byte("v1"), 0o644))

	watcher, err := NewFileWatcher(30*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	abs, err := watcher.AddFile(target)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(abs))

	var mu sync.Mutex
	var paths []string
	watcher.AddHandler(func(events []ChangeEvent) error {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			paths = append(paths, e.Path)
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(target, []byte("v2"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(paths) > 0
	}, 2*time.Second, 20*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, p := range paths {
		assert.Equal(t, "component.tsx", filepath.Base(p))
	}
}

func TestAddFileRejectsDirectoriesAndMissing(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	_, err = watcher.AddFile(t.TempDir())
	assert.Error(t, err)

	_, err = watcher.AddFile(filepath.Join(t.TempDir(), "missing.tsx"))
	assert.Error(t, err)
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"component.tsx", "component.tsx", false},
		{"./src//component.tsx", "src/component.tsx", false},
		{"/tmp/x.tsx", "/tmp/x.tsx", false},
		{"../../../etc/passwd", "", true},
		{"src/../../x.tsx", "", true},
		{"  ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := ValidatePath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}

func TestSourceFilter(t *testing.T) {
	testCases := []struct {
		path     string
		expected bool
	}{
		{"component.tsx", true},
		{"util.ts", true},
		{"legacy.jsx", true},
		{"bundle.js", true},
		{"main.go", false},
		{"style.css", false},
		{"README", false},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.expected, SourceFilter(tc.path))
		})
	}
}

func TestNoTempFilter(t *testing.T) {
	testCases := []struct {
		path     string
		expected bool
	}{
		{"component.tsx", true},
		{"component.tsx~", false},
		{".component.tsx.swp", false},
		{".#component.tsx", false},
		{"src/4913", false},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.expected, NoTempFilter(tc.path))
		})
	}
}

func TestNoGitFilter(t *testing.T) {
	testCases := []struct {
		path     string
		expected bool
	}{
		{"src/app.tsx", true},
		{".git/config", false},
		{"src/.git/HEAD", false},
		{"app.tsx", true},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.expected, NoGitFilter(tc.path))
		})
	}
}

func TestSameFileFilter(t *testing.T) {
	abs, err := filepath.Abs("component.tsx")
	require.NoError(t, err)

	filter := SameFileFilter(abs)
	assert.True(t, filter("component.tsx"))
	assert.True(t, filter(abs))
	assert.False(t, filter("other.tsx"))
}

func TestDebouncer(t *testing.T) {
	debouncer := &Debouncer{
		delay:   50 * time.Millisecond,
		events:  make(chan ChangeEvent, 100),
		output:  make(chan []ChangeEvent, 10),
		pending: make([]ChangeEvent, 0),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go debouncer.start(ctx)

	debouncer.events <- ChangeEvent{Path: "a.tsx", Type: EventTypeCreated}
	debouncer.events <- ChangeEvent{Path: "a.tsx", Type: EventTypeModified}
	debouncer.events <- ChangeEvent{Path: "b.tsx", Type: EventTypeModified}

	select {
	case batch := <-debouncer.output:
		require.Len(t, batch, 2)
		assert.Equal(t, "a.tsx", batch[0].Path)
		assert.Equal(t, EventTypeModified, batch[0].Type, "last event per path wins")
		assert.Equal(t, "b.tsx", batch[1].Path)
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer did not flush")
	}
}

func TestFileWatcherDoubleStop(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)

	assert.NoError(t, watcher.Stop())
	assert.NoError(t, watcher.Stop())
}

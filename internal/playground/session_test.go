package playground

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/tsxrunner/internal/errors"
)

func newTestSession() *Session {
	return NewSession(NewRunner(Options{}), Sample, nil)
}

func TestSessionStartsIdle(t *testing.T) {
	s := newTestSession()

	snap := s.Snapshot()
	assert.Equal(t, StatusIdle, snap.Status)
	assert.Equal(t, Sample, snap.Source)
	assert.Empty(t, snap.HTML)
	assert.Nil(t, snap.Error)
	assert.Zero(t, snap.Runs)
	assert.Empty(t, snap.Shown())
}

func TestSessionScenarios(t *testing.T) {
	s := newTestSession()

	// A: the sample renders the button.
	snap := s.Run(context.Background())
	assert.Equal(t, StatusRendered, snap.Status)
	assert.Contains(t, snap.HTML, "Test Button")
	assert.Nil(t, snap.Error)

	// B: an unknown import replaces the output with the error.
	snap = s.Submit(context.Background(), "import { x } from \"unknown-package\";\nexport default x;")
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Empty(t, snap.HTML)
	require.NotNil(t, snap.Error)
	assert.Contains(t, snap.Error.Message, `"unknown-package" is not available`)
	assert.Contains(t, snap.Shown(), "Error: ")

	// C: a string default export.
	snap = s.Submit(context.Background(), `export default "not a component";`)
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, errors.KindExport, snap.Error.Kind)

	// A success clears the stale error.
	snap = s.Submit(context.Background(), Sample)
	assert.Equal(t, StatusRendered, snap.Status)
	assert.Nil(t, snap.Error)
	assert.Equal(t, 4, snap.Runs)
}

func TestSessionSetSourceKeepsResult(t *testing.T) {
	s := newTestSession()
	rendered := s.Run(context.Background())

	snap := s.SetSource("export default 1;")
	assert.Equal(t, "export default 1;", snap.Source)
	assert.Equal(t, rendered.Status, snap.Status)
	assert.Equal(t, rendered.HTML, snap.HTML)
	assert.Equal(t, rendered.Runs, snap.Runs)

	// The published snapshot taken before the edit is unchanged.
	assert.Equal(t, Sample, rendered.Source)
}

func TestSessionReset(t *testing.T) {
	s := NewSession(NewRunner(Options{}), Sample, nil)
	s.SetSource("export default 1;")

	assert.Equal(t, Sample, s.Reset().Source)
	assert.Equal(t, Sample, s.Source())
	assert.Equal(t, Sample, s.Initial())
}

func TestSessionSubscribe(t *testing.T) {
	s := newTestSession()
	ch, cancel := s.Subscribe()

	s.Run(context.Background())

	select {
	case snap := <-ch:
		assert.Equal(t, StatusRendered, snap.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot published")
	}

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
}

func TestSessionSlowSubscriberSeesLatest(t *testing.T) {
	s := newTestSession()
	ch, cancel := s.Subscribe()
	defer cancel()

	s.SetSource("a")
	s.SetSource("b")
	s.SetSource("c")

	snap := <-ch
	assert.Equal(t, "c", snap.Source)
}

func TestSessionConcurrentSubmits(t *testing.T) {
	s := newTestSession()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				s.Submit(context.Background(), Sample)
			} else {
				s.Submit(context.Background(), `export default "nope";`)
			}
		}(i)
	}
	wg.Wait()

	snap := s.Snapshot()
	assert.Equal(t, 8, snap.Runs)
	assert.True(t, (snap.Status == StatusRendered) != (snap.Error != nil))
}

func TestFollowReRunsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "component.tsx")
	require.NoError(t, os.WriteFile(path, []byte(Sample), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewSession(NewRunner(Options{}), "", nil)
	var mu sync.Mutex
	var seen []*Snapshot
	f, err := Follow(ctx, s, path, 20*time.Millisecond, nil, func(snap *Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, snap)
	})
	require.NoError(t, err)
	defer f.Stop()

	assert.True(t, filepath.IsAbs(f.Path()))
	assert.Equal(t, StatusRendered, s.Snapshot().Status)

	require.NoError(t, os.WriteFile(path, []byte(`export default "broken";`), 0o644))

	require.Eventually(t, func() bool {
		return s.Snapshot().Status == StatusFailed
	}, 3*time.Second, 20*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, len(seen), 2)
}

func TestFollowMissingFile(t *testing.T) {
	s := newTestSession()
	_, err := Follow(context.Background(), s, filepath.Join(t.TempDir(), "missing.tsx"), time.Millisecond, nil, nil)
	assert.Error(t, err)
}

package playground

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/conneroisu/tsxrunner/internal/logging"
	"github.com/conneroisu/tsxrunner/internal/watcher"
)

// Follower keeps a session in step with a source file on disk.
type Follower struct {
	session *Session
	watcher *watcher.FileWatcher
	path    string
	logger  logging.Logger
}

// Follow loads path into the session, runs it and re-runs it after every
// debounced write until ctx is done or Stop is called. onRun, if set, sees
// each resulting snapshot.
func Follow(ctx context.Context, session *Session, path string, debounce time.Duration, logger logging.Logger, onRun func(*Snapshot)) (*Follower, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	fw, err := watcher.NewFileWatcher(debounce, logger)
	if err != nil {
		return nil, err
	}
	abs, err := fw.AddFile(path)
	if err != nil {
		_ = fw.Stop()
		return nil, fmt.Errorf("following %s: %w", path, err)
	}
	fw.AddFilter(watcher.NoTempFilter)

	f := &Follower{
		session: session,
		watcher: fw,
		path:    abs,
		logger:  logger.WithComponent("follow"),
	}

	snap, err := f.reload(ctx)
	if err != nil {
		_ = fw.Stop()
		return nil, err
	}
	if onRun != nil {
		onRun(snap)
	}

	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		for _, e := range events {
			if e.Type == watcher.EventTypeDeleted {
				f.logger.Warn(ctx, nil, "Followed file removed, keeping last source", "path", f.path)
				return nil
			}
		}
		snap, err := f.reload(ctx)
		if err != nil {
			return err
		}
		if onRun != nil {
			onRun(snap)
		}
		return nil
	})

	if err := fw.Start(ctx); err != nil {
		_ = fw.Stop()
		return nil, err
	}
	f.logger.Info(ctx, "Following source file", "path", f.path)

	return f, nil
}

// Path returns the absolute path being followed.
func (f *Follower) Path() string {
	return f.path
}

// Stop stops watching the file.
func (f *Follower) Stop() error {
	return f.watcher.Stop()
}

func (f *Follower) reload(ctx context.Context) (*Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.path, err)
	}

	return f.session.Submit(ctx, string(data)), nil
}

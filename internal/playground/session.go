package playground

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/conneroisu/tsxrunner/internal/logging"
)

// Session owns the source buffer and the result shown for it.
//
// Reads are lock free. Runs are serialized so the shown result always
// belongs to the most recently finished run; buffer edits may interleave
// with a run and never disturb the shown result.
type Session struct {
	runner  *Runner
	logger  logging.Logger
	initial string

	state atomic.Pointer[Snapshot]

	runMu   sync.Mutex // serializes runs
	stateMu sync.Mutex // serializes snapshot transitions

	subMu       sync.Mutex
	subscribers map[int]chan *Snapshot
	nextSubID   int
}

// NewSession creates an idle session whose buffer holds source.
func NewSession(runner *Runner, source string, logger logging.Logger) *Session {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Session{
		runner:      runner,
		logger:      logger.WithComponent("session"),
		initial:     source,
		subscribers: make(map[int]chan *Snapshot),
	}
	s.state.Store(idleSnapshot(source))

	return s
}

// Snapshot returns the current state.
func (s *Session) Snapshot() *Snapshot {
	return s.state.Load()
}

// Source returns the current buffer text.
func (s *Session) Source() string {
	return s.state.Load().Source
}

// SetSource replaces the buffer. The shown result is kept.
func (s *Session) SetSource(source string) *Snapshot {
	return s.transition(func(cur *Snapshot) *Snapshot {
		return cur.withSource(source)
	})
}

// Reset puts the text the session started with back in the buffer.
func (s *Session) Reset() *Snapshot {
	return s.SetSource(s.initial)
}

// Initial returns the text the session started with.
func (s *Session) Initial() string {
	return s.initial
}

// Run executes the current buffer and publishes the outcome.
func (s *Session) Run(ctx context.Context) *Snapshot {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	return s.runLocked(ctx, s.Source())
}

// Submit replaces the buffer and runs it as one step, so the shown result
// always matches the submitted text.
func (s *Session) Submit(ctx context.Context, source string) *Snapshot {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.SetSource(source)
	return s.runLocked(ctx, source)
}

func (s *Session) runLocked(ctx context.Context, source string) *Snapshot {
	res, err := s.runner.Run(ctx, source)
	at := time.Now()

	next := s.transition(func(cur *Snapshot) *Snapshot {
		return cur.withResult(res, err, at)
	})

	if err != nil {
		s.logger.Info(ctx, "Run failed", "run", next.Runs, "kind", next.Error.Kind, "error", next.Error.Message)
	} else {
		s.logger.Info(ctx, "Run rendered", "run", next.Runs, "bytes", len(next.HTML), "duration_ms", next.Duration.Milliseconds())
	}

	return next
}

func (s *Session) transition(fn func(*Snapshot) *Snapshot) *Snapshot {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	next := fn(s.state.Load())
	s.state.Store(next)
	s.publish(next)

	return next
}

// Subscribe returns a channel receiving every published snapshot. Slow
// readers only see the latest one. The returned function unsubscribes.
func (s *Session) Subscribe() (<-chan *Snapshot, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	ch := make(chan *Snapshot, 1)
	s.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			delete(s.subscribers, id)
			close(ch)
		})
	}
}

func (s *Session) publish(snap *Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subscribers {
		select {
		case ch <- snap:
			continue
		default:
		}
		// Replace the stale pending snapshot.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

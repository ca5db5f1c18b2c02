package playground

import (
	"time"

	"github.com/conneroisu/tsxrunner/internal/errors"
	"github.com/conneroisu/tsxrunner/internal/sandbox"
)

// Status is the outcome shown in the output pane.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusRendered Status = "rendered"
	StatusFailed   Status = "failed"
)

// Snapshot is the complete, immutable playground state. After the first
// run it carries exactly one of HTML or Error. Snapshots are only built
// through the constructors below and never modified once published.
type Snapshot struct {
	Source   string                  `json:"source"`
	Status   Status                  `json:"status"`
	HTML     string                  `json:"html,omitempty"`
	Error    *errors.PlaygroundError `json:"error,omitempty"`
	Console  []sandbox.LogEntry      `json:"console,omitempty"`
	Duration time.Duration           `json:"duration"`
	Runs     int                     `json:"runs"`
	RanAt    time.Time               `json:"ran_at,omitempty"`
}

func idleSnapshot(source string) *Snapshot {
	return &Snapshot{Source: source, Status: StatusIdle}
}

// withSource replaces the buffer and keeps the shown result.
func (s *Snapshot) withSource(source string) *Snapshot {
	next := *s
	next.Source = source
	return &next
}

// withResult replaces the shown result and keeps the buffer. Exactly one of
// res.HTML or runErr is shown.
func (s *Snapshot) withResult(res Result, runErr error, at time.Time) *Snapshot {
	next := &Snapshot{
		Source:   s.Source,
		Console:  res.Console,
		Duration: res.Duration,
		Runs:     s.Runs + 1,
		RanAt:    at,
	}
	if runErr != nil {
		next.Status = StatusFailed
		next.Error = errors.As(runErr)
		return next
	}
	next.Status = StatusRendered
	next.HTML = res.HTML
	return next
}

// Shown reports what the output pane displays: the markup for a rendered
// snapshot or the error message for a failed one.
func (s *Snapshot) Shown() string {
	switch s.Status {
	case StatusRendered:
		return s.HTML
	case StatusFailed:
		return "Error: " + s.Error.Message
	default:
		return ""
	}
}

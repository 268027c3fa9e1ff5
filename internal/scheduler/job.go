package scheduler

import (
	"context"
	"time"
)

// Job represents a scheduled job
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string

	// Schedule returns a seconds-first cron spec, e.g. "0 30 6 * * 2-6"
	Schedule() string

	Run(ctx context.Context) error
}

// Run is one execution of a job, retries included
type Run struct {
	Job      string        `json:"job"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Attempts int           `json:"attempts"`
	Error    string        `json:"error,omitempty"`
	Kind     string        `json:"kind,omitempty"` // error kind of the last attempt
}

// OK reports whether the run ended without error
func (r Run) OK() bool {
	return r.Error == ""
}

// runLogSize is the number of runs kept per job
const runLogSize = 100

// runLog keeps the most recent runs of one job, oldest first
type runLog struct {
	runs []Run
}

func (l *runLog) add(r Run) {
	l.runs = append(l.runs, r)
	if len(l.runs) > runLogSize {
		l.runs = l.runs[len(l.runs)-runLogSize:]
	}
}

func (l *runLog) last() (Run, bool) {
	if len(l.runs) == 0 {
		return Run{}, false
	}
	return l.runs[len(l.runs)-1], true
}

// failures counts failed runs
func (l *runLog) failures() int {
	n := 0
	for _, r := range l.runs {
		if !r.OK() {
			n++
		}
	}
	return n
}

func (l *runLog) snapshot() []Run {
	out := make([]Run, len(l.runs))
	copy(out, l.runs)
	return out
}

package usecase

import (
	"sync"
	"time"
)

// Progress is the run state exposed to the status listener. The
// coordinator is the only writer; the listener only takes snapshots.
type Progress struct {
	mu sync.Mutex

	runID        string
	totalTargets int
	currentIndex int
	attempted    int
	succeeded    int
	duplicates   int
	failed       int
	startedAt    time.Time
}

// ProgressSnapshot is a consistent point-in-time copy of the run state.
type ProgressSnapshot struct {
	RunID        string  `json:"run_id"`
	TotalTargets int     `json:"total_targets"`
	CurrentIndex int     `json:"current_index"`
	Attempted    int     `json:"attempted"`
	Succeeded    int     `json:"succeeded"`
	Duplicates   int     `json:"duplicates"`
	Failed       int     `json:"failed"`
	ElapsedSec   float64 `json:"elapsed_seconds"`
}

// NewProgress creates the progress tracker for a run.
func NewProgress(runID string, totalTargets int) *Progress {
	return &Progress{
		runID:        runID,
		totalTargets: totalTargets,
		startedAt:    time.Now(),
	}
}

func (p *Progress) record(index int, succeeded, duplicates, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentIndex = index
	p.attempted = succeeded + duplicates + failed
	p.succeeded = succeeded
	p.duplicates = duplicates
	p.failed = failed
}

// Snapshot returns a copy of the current run state.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ProgressSnapshot{
		RunID:        p.runID,
		TotalTargets: p.totalTargets,
		CurrentIndex: p.currentIndex,
		Attempted:    p.attempted,
		Succeeded:    p.succeeded,
		Duplicates:   p.duplicates,
		Failed:       p.failed,
		ElapsedSec:   time.Since(p.startedAt).Seconds(),
	}
}

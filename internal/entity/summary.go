package entity

import "time"

// RunSummary aggregates the result of one crawl run. It is owned and
// mutated only by the run coordinator and persisted once at run end.
type RunSummary struct {
	RunID        string
	TotalTargets int
	StartIndex   int
	Attempted    int
	Succeeded    int
	Duplicates   int
	Failed       int
	Unprocessed  int
	StartedAt    time.Time
	Elapsed      time.Duration
}

// SuccessRate returns the fraction of attempted targets that yielded a
// primary or duplicate document, as a percentage.
func (s *RunSummary) SuccessRate() float64 {
	if s.Attempted == 0 {
		return 0
	}
	return float64(s.Succeeded+s.Duplicates) / float64(s.Attempted) * 100
}

// ImportSummary aggregates the result of one knowledge-base import run.
type ImportSummary struct {
	DatasetID   string
	Imported    int
	Failed      int
	FailedPaths []string
}

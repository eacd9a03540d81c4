package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Asterovim/jina-reader-crawler/internal/entity"
	"github.com/Asterovim/jina-reader-crawler/internal/repository"
	"github.com/Asterovim/jina-reader-crawler/pkg/metrics"
	"github.com/Asterovim/jina-reader-crawler/pkg/utils"
)

// Coordinator drives the crawl: one target at a time in resolved
// order, pacing before every fetch, classifying successes against the
// dedup registry and routing every terminal outcome to exactly one
// sink destination. Partial failure never halts the run.
type Coordinator struct {
	fetcher    *Fetcher
	pacer      *Pacer
	dedup      *DedupRegistry
	sink       repository.SinkRepository
	progress   *Progress
	startIndex int
	timeBudget time.Duration // 0 = unlimited
}

// NewCoordinator creates a run coordinator. startIndex is the 1-based
// resume offset; targets below it are skipped entirely.
func NewCoordinator(
	fetcher *Fetcher,
	pacer *Pacer,
	dedup *DedupRegistry,
	sink repository.SinkRepository,
	progress *Progress,
	startIndex int,
	timeBudget time.Duration,
) *Coordinator {
	return &Coordinator{
		fetcher:    fetcher,
		pacer:      pacer,
		dedup:      dedup,
		sink:       sink,
		progress:   progress,
		startIndex: startIndex,
		timeBudget: timeBudget,
	}
}

// Run processes the resolved targets and returns the run summary. The
// time budget is checked only at target boundaries: an in-flight fetch
// is never aborted by it. The returned error is non-nil only for
// invalid resume configuration; per-target failures are counted, not
// raised.
func (c *Coordinator) Run(ctx context.Context, runID string, targets []entity.CrawlTarget) (*entity.RunSummary, error) {
	if c.startIndex < 1 {
		return nil, fmt.Errorf("start index must be >= 1, got %d", c.startIndex)
	}
	if c.startIndex > len(targets) {
		return nil, fmt.Errorf("start index %d exceeds total targets %d", c.startIndex, len(targets))
	}

	summary := &entity.RunSummary{
		RunID:        runID,
		TotalTargets: len(targets),
		StartIndex:   c.startIndex,
		StartedAt:    time.Now(),
	}

	if c.startIndex > 1 {
		slog.Info("resuming from offset",
			"start_index", c.startIndex, "skipped", c.startIndex-1)
	}

	for i, target := range targets {
		if target.Index < c.startIndex {
			continue
		}

		if c.stopForBudget(summary) {
			summary.Unprocessed = len(targets) - i
			break
		}

		if err := c.pacer.Wait(ctx); err != nil {
			slog.Warn("run cancelled while pacing", "next_index", target.Index)
			summary.Unprocessed = len(targets) - i
			break
		}

		c.processTarget(ctx, target, summary)

		summary.Attempted = summary.Succeeded + summary.Duplicates + summary.Failed
		c.progress.record(target.Index, summary.Succeeded, summary.Duplicates, summary.Failed)
		metrics.TargetsRemaining.Set(float64(len(targets) - i - 1))
	}

	summary.Elapsed = time.Since(summary.StartedAt)

	if err := c.sink.WriteSummary(ctx, summary); err != nil {
		slog.Error("failed to write run summary", "error", err)
	}

	slog.Info("run complete",
		"run_id", summary.RunID,
		"total", summary.TotalTargets,
		"attempted", summary.Attempted,
		"succeeded", summary.Succeeded,
		"duplicates", summary.Duplicates,
		"failed", summary.Failed,
		"unprocessed", summary.Unprocessed,
		"elapsed", summary.Elapsed.String())

	return summary, nil
}

// stopForBudget reports whether the wall-clock budget has expired.
func (c *Coordinator) stopForBudget(summary *entity.RunSummary) bool {
	if c.timeBudget <= 0 {
		return false
	}
	elapsed := time.Since(summary.StartedAt)
	if elapsed <= c.timeBudget {
		return false
	}
	slog.Warn("time budget reached, stopping before next target",
		"budget", c.timeBudget.String(), "elapsed", elapsed.String())
	return true
}

// processTarget resolves one target to its sink destination and
// updates the counters.
func (c *Coordinator) processTarget(ctx context.Context, target entity.CrawlTarget, summary *entity.RunSummary) {
	slog.Info("processing target",
		"index", target.Index, "total", summary.TotalTargets, "url", target.URL)

	outcome := c.fetcher.Fetch(ctx, target)

	if outcome.Failed() {
		summary.Failed++
		metrics.PagesTotal.WithLabelValues("failed").Inc()
		if err := c.sink.AppendFailedURL(ctx, target.URL, outcome.Err.Error()); err != nil {
			slog.Error("failed to record failed URL", "url", target.URL, "error", err)
		}
		return
	}

	doc := outcome.Document
	firstIndex, duplicate := c.dedup.Classify(doc.Title, target.Index)

	if duplicate {
		summary.Duplicates++
		metrics.PagesTotal.WithLabelValues("duplicate").Inc()
		slug := utils.TitleSlug(doc.Title)
		path, err := c.sink.WriteDuplicate(ctx, doc, slug)
		if err != nil {
			slog.Error("failed to archive duplicate", "url", target.URL, "error", err)
			return
		}
		slog.Info("duplicate title archived",
			"url", target.URL, "title", doc.Title, "first_index", firstIndex, "path", path)
		return
	}

	summary.Succeeded++
	metrics.PagesTotal.WithLabelValues("success").Inc()
	path, err := c.sink.WriteDocument(ctx, doc)
	if err != nil {
		slog.Error("failed to persist document", "url", target.URL, "error", err)
		return
	}
	slog.Info("document saved", "url", target.URL, "title", doc.Title, "path", path)
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Asterovim/jina-reader-crawler/internal/entity"
	"github.com/Asterovim/jina-reader-crawler/internal/repository"
	"github.com/Asterovim/jina-reader-crawler/pkg/metrics"
	"github.com/Asterovim/jina-reader-crawler/pkg/utils"
)

// retryVerdict is the decision after a failed extraction attempt.
type retryVerdict int

const (
	verdictRetry retryVerdict = iota
	verdictFail
)

// decide is the pure retry decision: given the error of attempt n (out
// of 1 + maxRetries total attempts), keep retrying only while the error
// is retriable and budget remains.
func decide(err error, attempt, maxRetries int) retryVerdict {
	if !repository.IsRetriable(err) {
		return verdictFail
	}
	if attempt > maxRetries {
		return verdictFail
	}
	return verdictRetry
}

// Fetcher wraps the extraction collaborator with per-request timeout,
// bounded retries and backoff. It collapses each target's attempt
// chain into exactly one terminal Outcome and never returns an error
// to its caller.
type Fetcher struct {
	extractor      repository.ExtractorRepository
	pacer          *Pacer
	requestTimeout time.Duration
	maxRetries     int
}

// NewFetcher creates a fetch executor. maxRetries is the number of
// additional attempts after the first (total attempts = 1 + maxRetries).
func NewFetcher(extractor repository.ExtractorRepository, pacer *Pacer, requestTimeout time.Duration, maxRetries int) *Fetcher {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Fetcher{
		extractor:      extractor,
		pacer:          pacer,
		requestTimeout: requestTimeout,
		maxRetries:     maxRetries,
	}
}

// Fetch resolves one target to its terminal outcome.
func (f *Fetcher) Fetch(ctx context.Context, target entity.CrawlTarget) entity.Outcome {
	domain := utils.Domain(target.URL)

	for attempt := 1; ; attempt++ {
		doc, err := f.attempt(ctx, target.URL, domain)
		if err == nil {
			metrics.FetchAttemptsTotal.WithLabelValues("success").Inc()
			return entity.Outcome{Target: target, Document: doc, Attempts: attempt}
		}

		if decide(err, attempt, f.maxRetries) == verdictFail {
			metrics.FetchAttemptsTotal.WithLabelValues("terminal_error").Inc()
			slog.Error("fetch failed terminally",
				"url", target.URL, "attempts", attempt, "error", err)
			return entity.Outcome{Target: target, Err: err, Attempts: attempt}
		}

		metrics.FetchAttemptsTotal.WithLabelValues("retriable_error").Inc()
		backoff := f.pacer.Backoff(attempt)
		slog.Warn("retriable fetch failure, backing off",
			"url", target.URL,
			"attempt", attempt,
			"max_attempts", f.maxRetries+1,
			"backoff", backoff.String(),
			"error", err)

		if sleepErr := sleepCtx(ctx, backoff); sleepErr != nil {
			// Run cancelled mid-backoff: surface the last fetch error.
			return entity.Outcome{Target: target, Err: err, Attempts: attempt}
		}
	}
}

// attempt performs a single extraction call under the request timeout
// and validates the minimum success contract (non-empty markdown).
func (f *Fetcher) attempt(ctx context.Context, pageURL, domain string) (*entity.Document, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.requestTimeout)
	defer cancel()

	start := time.Now()
	doc, err := f.extractor.Extract(attemptCtx, pageURL)
	metrics.FetchDuration.WithLabelValues(domain).Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", repository.ErrFetchTimeout, f.requestTimeout)
		}
		return nil, err
	}

	if doc.Markdown == "" {
		return nil, repository.ErrEmptyContent
	}
	return doc, nil
}

// sleepCtx blocks for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

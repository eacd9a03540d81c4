package usecase

import (
	"context"
	"math/rand"
	"time"

	"github.com/Asterovim/jina-reader-crawler/pkg/metrics"
)

// Pacer computes the anti-fingerprinting delays between requests and
// the backoff between retry attempts. The distributions are policy
// knobs, not security guarantees.
type Pacer struct {
	minDelay  time.Duration
	maxDelay  time.Duration
	retryBase time.Duration
	rng       *rand.Rand
}

// NewPacer creates a pacer sampling inter-request delays uniformly from
// [minDelay, maxDelay] and scaling retry backoff from retryBase.
func NewPacer(minDelay, maxDelay, retryBase time.Duration) *Pacer {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Pacer{
		minDelay:  minDelay,
		maxDelay:  maxDelay,
		retryBase: retryBase,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Delay samples one inter-request delay.
func (p *Pacer) Delay() time.Duration {
	spread := p.maxDelay - p.minDelay
	if spread <= 0 {
		return p.minDelay
	}
	return p.minDelay + time.Duration(p.rng.Int63n(int64(spread)))
}

// Wait blocks for one sampled delay, returning early with the context
// error on cancellation.
func (p *Pacer) Wait(ctx context.Context) error {
	d := p.Delay()
	metrics.DelaySeconds.Observe(d.Seconds())

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Backoff returns the delay before retry attempt n+1, given that
// attempt n just failed: the base delay doubled per attempt, plus up to
// half of itself as jitter.
func (p *Pacer) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.retryBase << (attempt - 1)
	if d <= 0 {
		return 0
	}
	return d + time.Duration(p.rng.Int63n(int64(d/2)+1))
}

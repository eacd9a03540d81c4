package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacerDelayBounds(t *testing.T) {
	p := NewPacer(10*time.Millisecond, 40*time.Millisecond, time.Millisecond)

	for i := 0; i < 200; i++ {
		d := p.Delay()
		assert.GreaterOrEqual(t, d, 10*time.Millisecond)
		assert.LessOrEqual(t, d, 40*time.Millisecond)
	}
}

func TestPacerDelayDegenerateRange(t *testing.T) {
	p := NewPacer(5*time.Millisecond, 5*time.Millisecond, time.Millisecond)
	assert.Equal(t, 5*time.Millisecond, p.Delay())

	// max below min collapses to min
	p = NewPacer(5*time.Millisecond, time.Millisecond, time.Millisecond)
	assert.Equal(t, 5*time.Millisecond, p.Delay())
}

func TestPacerBackoffGrows(t *testing.T) {
	base := 8 * time.Millisecond
	p := NewPacer(0, 0, base)

	for attempt := 1; attempt <= 4; attempt++ {
		expected := base << (attempt - 1)
		d := p.Backoff(attempt)
		assert.GreaterOrEqual(t, d, expected, "attempt %d", attempt)
		assert.LessOrEqual(t, d, expected+expected/2, "attempt %d", attempt)
	}
}

func TestPacerBackoffClampsAttempt(t *testing.T) {
	p := NewPacer(0, 0, 4*time.Millisecond)
	assert.GreaterOrEqual(t, p.Backoff(0), 4*time.Millisecond)
}

func TestPacerWaitCancelled(t *testing.T) {
	p := NewPacer(time.Hour, time.Hour, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := p.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestPacerWaitCompletes(t *testing.T) {
	p := NewPacer(time.Millisecond, 2*time.Millisecond, time.Millisecond)
	require.NoError(t, p.Wait(context.Background()))
}

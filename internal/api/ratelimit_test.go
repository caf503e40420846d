package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterSettingsDefaults(t *testing.T) {
	t.Parallel()

	s := limiterSettings{}.withDefaults()
	assert.Equal(t, 1.0, s.PerSecond)
	assert.Equal(t, 1, s.Burst)
	assert.Equal(t, 5*time.Minute, s.SweepInterval)
	assert.Equal(t, 10*time.Minute, s.StaleAfter)

	// Explicit values survive.
	s = limiterSettings{PerSecond: 2.5, Burst: 7, SweepInterval: time.Second, StaleAfter: time.Minute}.withDefaults()
	assert.Equal(t, 2.5, s.PerSecond)
	assert.Equal(t, 7, s.Burst)
	assert.Equal(t, time.Second, s.SweepInterval)
	assert.Equal(t, time.Minute, s.StaleAfter)
}

func TestRateLimiterExhaustsBurst(t *testing.T) {
	t.Parallel()

	// Refill slow enough that no token comes back during the test.
	rl := newRateLimiter(limiterSettings{PerSecond: 0.0001, Burst: 3})

	for i := range 3 {
		assert.True(t, rl.allow("10.0.0.1"), "request %d within burst", i)
	}
	assert.False(t, rl.allow("10.0.0.1"), "request beyond burst")
}

func TestRateLimiterIPsAreIndependent(t *testing.T) {
	t.Parallel()

	rl := newRateLimiter(limiterSettings{PerSecond: 0.0001, Burst: 1})

	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))

	// A different IP gets its own bucket.
	assert.True(t, rl.allow("10.0.0.2"))
}

func TestRateLimiterSweepDropsStaleBuckets(t *testing.T) {
	t.Parallel()

	rl := newRateLimiter(limiterSettings{
		PerSecond:     0.0001,
		Burst:         1,
		SweepInterval: time.Millisecond,
		StaleAfter:    time.Millisecond,
	})

	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))

	// Age the bucket and the sweep clock past their thresholds.
	rl.mu.Lock()
	rl.buckets["10.0.0.1"].lastSeen = time.Now().Add(-time.Minute)
	rl.lastSweep = time.Now().Add(-time.Minute)
	rl.mu.Unlock()

	// The sweep drops the stale bucket, so the IP starts over with a
	// full burst.
	assert.True(t, rl.allow("10.0.0.1"))

	rl.mu.Lock()
	assert.Len(t, rl.buckets, 1)
	rl.mu.Unlock()
}

func TestRateLimiterSweepKeepsActiveBuckets(t *testing.T) {
	t.Parallel()

	rl := newRateLimiter(limiterSettings{
		PerSecond:     0.0001,
		Burst:         1,
		SweepInterval: time.Millisecond,
		StaleAfter:    time.Hour,
	})

	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))

	// Force a sweep; the recently seen bucket must survive, so the IP
	// stays exhausted.
	rl.mu.Lock()
	rl.lastSweep = time.Now().Add(-time.Minute)
	rl.mu.Unlock()

	assert.False(t, rl.allow("10.0.0.1"))
}

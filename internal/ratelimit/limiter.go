// File: internal/ratelimit/limiter.go
package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/sourcing-cli/internal/config"
)

// Window and jitter tuning. The limiter deliberately randomizes its delays
// so outbound traffic does not look mechanical to anti-bot heuristics.
const (
	windowSize        = 60 * time.Second
	burstWindow       = 10 * time.Second
	firstDelayFactor  = 0.5
	burstJitterFactor = 0.5
	normalJitterMin   = -500 * time.Millisecond
	normalJitterMax   = 1500 * time.Millisecond
)

// Stats is a point-in-time snapshot of limiter state.
type Stats struct {
	RequestsInLastMinute int
	MaxRequestsPerMinute int
	SinceLastRequest     time.Duration
	MinDelay             time.Duration
	MaxDelay             time.Duration
}

// Limiter is a sliding-window request throttle with burst detection.
//
// Wait is the only intentionally blocking operation in the sourcing
// subsystem; it is safe for concurrent use, guarded by a single mutex.
type Limiter struct {
	requestsPerMinute int
	minDelay          time.Duration
	maxDelay          time.Duration
	burstSize         int

	mu           sync.Mutex
	requestTimes []time.Time
	lastRequest  time.Time
	rng          *rand.Rand

	// Injectable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	logger *zap.Logger
}

// New creates a Limiter from configuration.
func New(cfg config.RateLimitConfig, logger *zap.Logger) *Limiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Limiter{
		requestsPerMinute: cfg.RequestsPerMinute,
		minDelay:          cfg.MinDelay,
		maxDelay:          cfg.MaxDelay,
		burstSize:         cfg.BurstSize,
		rng:               rand.New(rand.NewSource(time.Now().UnixNano())),
		now:               time.Now,
		sleep:             sleepCtx,
		logger:            logger.Named("ratelimit"),
	}
	l.logger.Info("Rate limiter configured.",
		zap.Int("requests_per_minute", cfg.RequestsPerMinute),
		zap.Duration("min_delay", cfg.MinDelay),
		zap.Duration("max_delay", cfg.MaxDelay),
		zap.Int("burst_size", cfg.BurstSize))
	return l
}

// Wait blocks until it is safe to issue the next request, then records the
// request time. It returns the delay actually applied (never negative).
// A cancelled context aborts the wait without recording a request.
func (l *Limiter) Wait(ctx context.Context) (time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.cleanup(now)

	delay := l.calculateDelay(now)
	delay = l.enforceWindow(now, delay)
	if delay < 0 {
		delay = 0
	}

	if delay > 0 {
		l.logger.Debug("Throttling request.", zap.Duration("delay", delay))
		if err := l.sleep(ctx, delay); err != nil {
			return 0, err
		}
	}

	actual := l.now()
	l.requestTimes = append(l.requestTimes, actual)
	l.lastRequest = actual
	return delay, nil
}

// Reset clears all history so the next Wait behaves as a first call.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requestTimes = nil
	l.lastRequest = time.Time{}
}

// Snapshot returns current limiter statistics.
func (l *Limiter) Snapshot() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	s := Stats{
		RequestsInLastMinute: l.countRecent(now, windowSize),
		MaxRequestsPerMinute: l.requestsPerMinute,
		MinDelay:             l.minDelay,
		MaxDelay:             l.maxDelay,
	}
	if !l.lastRequest.IsZero() {
		s.SinceLastRequest = now.Sub(l.lastRequest)
	}
	return s
}

// cleanup drops timestamps that have fallen out of the sliding window.
func (l *Limiter) cleanup(now time.Time) {
	i := 0
	for i < len(l.requestTimes) && now.Sub(l.requestTimes[i]) >= windowSize {
		i++
	}
	if i > 0 {
		l.requestTimes = append(l.requestTimes[:0], l.requestTimes[i:]...)
	}
}

func (l *Limiter) countRecent(now time.Time, window time.Duration) int {
	n := 0
	for _, t := range l.requestTimes {
		if now.Sub(t) < window {
			n++
		}
	}
	return n
}

// enforceWindow forces a wait until the oldest request leaves the window
// when the per-minute budget is already spent.
func (l *Limiter) enforceWindow(now time.Time, base time.Duration) time.Duration {
	if len(l.requestTimes) >= l.requestsPerMinute {
		oldest := l.requestTimes[0]
		wait := windowSize - now.Sub(oldest)
		if wait > 0 {
			l.logger.Warn("Per-minute budget exhausted, forcing wait.", zap.Duration("wait", wait))
			if wait > base {
				return wait
			}
		}
	}
	return base
}

// calculateDelay produces the randomized pacing delay. The first request
// gets a short warm-up; a detected burst escalates toward maxDelay with
// extra jitter.
func (l *Limiter) calculateDelay(now time.Time) time.Duration {
	if l.lastRequest.IsZero() {
		return l.uniform(time.Duration(float64(l.minDelay)*firstDelayFactor), l.minDelay)
	}

	sinceLast := now.Sub(l.lastRequest)
	recent := l.countRecent(now, burstWindow)

	var base, jitter time.Duration
	if recent >= l.burstSize {
		base = l.maxDelay
		jitter = l.uniform(0, time.Duration(float64(l.maxDelay)*burstJitterFactor))
		l.logger.Debug("Burst detected, escalating delay.", zap.Int("recent", recent))
	} else {
		base = l.uniform(l.minDelay, l.maxDelay)
		jitter = l.uniform(normalJitterMin, normalJitterMax)
	}

	needed := l.minDelay - sinceLast
	if needed < 0 {
		needed = 0
	}
	delay := base + jitter
	if needed > delay {
		return needed
	}
	return delay
}

func (l *Limiter) uniform(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(l.rng.Int63n(int64(hi-lo)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

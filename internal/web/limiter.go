package web

// limiter.go bounds concurrent CSV exports.
//
// An export sorts and serializes the whole filtered history, so only a few
// run at once. Requests wait up to maxWait for a slot before failing with
// errTooManyExports.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

var errTooManyExports = errors.New("too many concurrent exports, please try again later")

const (
	defaultExportConcurrency = 2
	defaultExportWait        = 10 * time.Second
)

type exportLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	running atomic.Int32
}

func newExportLimiter(maxConcurrent int, maxWait time.Duration) *exportLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultExportConcurrency
	}
	if maxWait <= 0 {
		maxWait = defaultExportWait
	}
	return &exportLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// acquire takes a slot. The caller must release it.
func (l *exportLimiter) acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.running.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errTooManyExports
	}
}

func (l *exportLimiter) release() {
	l.running.Add(-1)
	<-l.slots
}

func (l *exportLimiter) active() int {
	return int(l.running.Load())
}

// waitForDrain blocks until no export is running or ctx is done.
func (l *exportLimiter) waitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.active() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

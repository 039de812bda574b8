// Package proc probes whether the host process has exited before the
// installation directory may be touched.
package proc

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shirou/gopsutil/v3/process"
	log "github.com/sirupsen/logrus"
)

var errStillRunning = errors.New("process still running")

// Waiter polls a pid at a fixed interval until it exits or a timeout elapses.
type Waiter struct {
	interval time.Duration
	timeout  time.Duration
}

func NewWaiter(interval, timeout time.Duration) *Waiter {
	return &Waiter{
		interval: interval,
		timeout:  timeout,
	}
}

// Wait blocks until the process identified by pid no longer exists, returning
// true, or until the timeout elapses, returning false. A probe error meaning
// "no such process" counts as exited; other probe errors are retried on the
// next tick.
func (w *Waiter) Wait(ctx context.Context, pid int32) bool {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	probe := func() error {
		running, err := process.PidExistsWithContext(ctx, pid)
		if err != nil {
			if errors.Is(err, process.ErrorProcessNotRunning) {
				return nil
			}
			log.Debugf("liveness probe for pid %d: %v", pid, err)
			return err
		}
		if running {
			return errStillRunning
		}
		return nil
	}

	bo := backoff.WithContext(backoff.NewConstantBackOff(w.interval), ctx)
	if err := backoff.Retry(probe, bo); err != nil {
		log.Warnf("pid %d still alive after %s: %v", pid, w.timeout, err)
		return false
	}
	return true
}

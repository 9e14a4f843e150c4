// Package scheduler triggers synchronization runs on a fixed, re-configurable period.
//
// The scheduler never waits for a run: it calls the trigger and goes back to
// sleep. A tick that lands while a run is active is logged and dropped, so
// runs never queue up behind each other.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultInterval is the period used when none is configured.
const DefaultInterval = 1800 * time.Second

// ErrInvalidInterval is returned for non-positive periods.
var ErrInvalidInterval = errors.New("interval must be positive")

// TriggerFunc starts a run in the background and returns its id.
type TriggerFunc func() (string, error)

// Scheduler fires trigger every interval until its context ends.
type Scheduler struct {
	trigger TriggerFunc

	mu       sync.RWMutex
	interval time.Duration
	reset    chan struct{}
}

// New returns a scheduler; a non-positive interval falls back to DefaultInterval.
func New(interval time.Duration, trigger TriggerFunc) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		trigger:  trigger,
		interval: interval,
		reset:    make(chan struct{}, 1),
	}
}

// Interval returns the current period.
func (s *Scheduler) Interval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.interval
}

// SetInterval changes the period. The next tick is d after the call.
func (s *Scheduler) SetInterval(d time.Duration) error {
	if d <= 0 {
		return ErrInvalidInterval
	}

	s.mu.Lock()
	s.interval = d
	s.mu.Unlock()

	select {
	case s.reset <- struct{}{}:
	default:
	}

	logrus.WithField("interval_s", d.Seconds()).Info("scheduler interval updated")
	return nil
}

// Start blocks, firing the trigger on every tick, until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	interval := s.Interval()
	logrus.WithField("interval_s", interval.Seconds()).Info("scheduler started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.Info("scheduler stopped")
			return
		case <-s.reset:
			ticker.Reset(s.Interval())
		case <-ticker.C:
			s.fire()
		}
	}
}

func (s *Scheduler) fire() {
	runID, err := s.trigger()
	if err != nil {
		logrus.WithError(err).Warn("scheduled synchronization not started")
		return
	}
	logrus.WithField("run_id", runID).Info("scheduled synchronization started")
}

package scheduler

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Every fires every interval, the first time one full interval after the scheduler starts
func Every(interval time.Duration) cron.Schedule {
	return cron.Every(interval)
}

// delayedSchedule fires delay after its first activation request, then every interval.
// cron asks for the first activation when the scheduler starts (or when the entry is
// added to a running scheduler), so the delay counts from there.
type delayedSchedule struct {
	mu      sync.Mutex
	delay   time.Duration
	started bool
	every   cron.ConstantDelaySchedule
}

// After fires delay after the scheduler starts and then every interval after each activation
func After(delay, interval time.Duration) cron.Schedule {
	return &delayedSchedule{delay: delay, every: cron.Every(interval)}
}

func (s *delayedSchedule) Next(t time.Time) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		s.started = true
		return t.Add(s.delay)
	}
	return s.every.Next(t)
}

package daemon

import (
	"context"
	"errors"
	"time"
)

// Scheduler provides a mechanism to execute a callback function repeatedly at a specified interval.
type Scheduler struct {
	settings schedulerSettings
	ticker   *time.Ticker  // Internal ticker for managing timed events.
	quit     chan struct{} // Channel for signaling termination.
	done     chan struct{} // Closed once the schedule loop has returned.
}

// Encapsulates the configuration options for a Scheduler.
type schedulerSettings struct {
	Callback        func()        // Function to be executed at each interval.
	Interval        time.Duration // Duration between callback executions.
	LaunchInitially bool          // Flag indicating whether to execute the callback immediately upon scheduling.
}

// ScheduleWithCtx launches a Scheduler with the provided settings.
//
// Launches a time.Ticker that signals the execution of the callback function at regular intervals.
// Callbacks run one at a time, never overlapping.
// Returns an error only if invalid settings are provided (e.g., interval <= 0 or nil callback).
func (s *Scheduler) ScheduleWithCtx(ctx context.Context, settings schedulerSettings) error {
	if settings.Interval <= 0 {
		return errors.New("interval must be larger than 0")
	}
	if settings.Callback == nil {
		return errors.New("callback is nil")
	}

	s.quit = make(chan struct{})
	s.done = make(chan struct{})
	s.settings = settings
	go s.runSchedule(ctx, s.quit, s.done)
	return nil
}

func (s *Scheduler) runSchedule(ctx context.Context, quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	if s.settings.LaunchInitially {
		s.settings.Callback()
	}

	s.ticker = time.NewTicker(s.settings.Interval)
	defer s.ticker.Stop()

	for {
		select {
		case <-s.ticker.C:
			s.settings.Callback()
		case <-quit:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop gracefully terminates Scheduler, waiting for the running callback to return.
// It is safe to call Stop on a Scheduler which was never launched, and to call it more than once.
// Stop must not be called from within the callback.
func (s *Scheduler) Stop() {
	if s.quit == nil {
		return
	}

	select {
	case <-s.quit:
	default:
		close(s.quit)
	}
	<-s.done
}

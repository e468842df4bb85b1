package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Daemon keeps the status record fresh for bars which keep the process
// running and read one record per line.
type Daemon struct {
	interval  time.Duration
	logger    *slog.Logger
	scheduler scheduler
	runner    runner
}

type scheduler interface {
	ScheduleWithCtx(context.Context, schedulerSettings) error
	Stop()
}

type runner interface {
	Run(context.Context) error
}

func NewDaemon(
	interval time.Duration,
	scheduler scheduler,
	runner runner,
	logger *slog.Logger,
) *Daemon {
	return &Daemon{
		interval:  interval,
		scheduler: scheduler,
		runner:    runner,
		logger:    logger,
	}
}

// Start launches scheduler, which utilizes built-in Ticker (https://pkg.go.dev/time#Ticker),
// and produces a fresh record on every tick until context is canceled.
//
// Each run starts from scratch, nothing is carried over between ticks.
// Failed mail checks are reported by the runner itself, so only
// inability to deliver the record stops the daemon.
func (d *Daemon) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	err := d.scheduler.ScheduleWithCtx(ctx, schedulerSettings{
		LaunchInitially: true,       // Print the first record right away.
		Interval:        d.interval, // Time interval between mail checks.
		Callback: func() {
			if err := d.runner.Run(ctx); err != nil {
				select {
				case errCh <- fmt.Errorf("task execution failed: %w", err):
				default:
				}
			}
		},
	})
	if err != nil {
		return fmt.Errorf("launch scheduler: %w", err)
	}
	defer d.scheduler.Stop()

	d.logger.DebugContext(ctx, "daemon started", slog.Duration("interval", d.interval))

	// Graceful termination and error handling
	select {
	// If the context is canceled (e.g., through external signal)
	// returning the context's error to indicate graceful termination.
	case <-ctx.Done():
		return ctx.Err()

	// If record could not be delivered there is no one to read it anymore.
	case err := <-errCh:
		return err
	}
}

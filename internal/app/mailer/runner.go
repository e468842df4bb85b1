package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hickar/mailbar/internal/app/config"
	"github.com/hickar/mailbar/internal/pkg/logger"

	"github.com/google/uuid"
)

type MailRetriever interface {
	GetUnread(context.Context, config.Config) ([]Message, error)
}

// Forwarder delivers run outcome to its consumer.
type Forwarder interface {
	Forward(context.Context, Summary) error
	Fail(context.Context, error) error
}

type TaskRunner struct {
	cfg           config.Config
	mailRetriever MailRetriever
	forwarder     Forwarder
	logger        *slog.Logger
}

func NewRunner(
	cfg config.Config,
	mailRetriever MailRetriever,
	forwarder Forwarder,
	logger *slog.Logger,
) TaskRunner {
	return TaskRunner{
		cfg:           cfg,
		mailRetriever: mailRetriever,
		forwarder:     forwarder,
		logger:        logger,
	}
}

// Summarize retrieves unread messages from all configured mailboxes
// and ranks them. Failure in any mailbox discards everything gathered so far.
func (r *TaskRunner) Summarize(ctx context.Context) (Summary, error) {
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	messages, err := r.mailRetriever.GetUnread(ctx, r.cfg)
	if err != nil {
		return Summary{}, fmt.Errorf("retrieve mail: %w", err)
	}

	return Rank(messages, r.cfg.PreviewLimit), nil
}

// Run produces exactly one outcome for the forwarder: either the summary
// or the error which prevented it. Errors of every kind are handled the same way,
// so only forwarder's own failure is returned.
func (r *TaskRunner) Run(ctx context.Context) error {
	// run_id ties together log lines of a single check in watch mode.
	ctx = logger.WithAttrs(ctx,
		slog.String("run_id", uuid.New().String()),
		slog.String("user", r.cfg.User),
	)

	summary, err := r.Summarize(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "mail summary failed", slog.Any("error", err))

		if err = r.forwarder.Fail(ctx, err); err != nil {
			return fmt.Errorf("forward failure: %w", err)
		}
		return nil
	}

	r.logger.InfoContext(ctx, fmt.Sprintf("found %d unread messages", summary.Count))

	if err = r.forwarder.Forward(ctx, summary); err != nil {
		return fmt.Errorf("forward summary: %w", err)
	}

	return nil
}

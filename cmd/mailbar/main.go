package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hickar/mailbar/internal/app/config"
	"github.com/hickar/mailbar/internal/app/daemon"
	"github.com/hickar/mailbar/internal/app/mailer"
	"github.com/hickar/mailbar/internal/app/retriever"
	"github.com/hickar/mailbar/internal/app/widget"
	"github.com/hickar/mailbar/internal/pkg/logger"
)

var (
	configFilepath = flag.String("config", "", "Filepath to optional YAML configuration file. Environment variables take precedence over it")
	envFilepath    = flag.String("env-file", "./.env", "Filepath to environment variables file. Ignored when missing")
	interval       = flag.Duration("interval", 0, "Print a fresh record every interval instead of exiting after the first one")
)

type options struct {
	configFilepath string
	envFilepath    string
	interval       time.Duration
	dialer         retriever.Dialer
}

func main() {
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	code := run(ctx, os.Stdout, os.Stderr, options{
		configFilepath: *configFilepath,
		envFilepath:    *envFilepath,
		interval:       *interval,
	})

	cancel()
	os.Exit(code)
}

// run prints status records to stdout and logs to stderr.
// Exit code is non-zero only when configuration is invalid or
// records can not be written.
func run(ctx context.Context, stdout, stderr io.Writer, opts options) int {
	cfg, err := config.LoadConfig(opts.configFilepath, opts.envFilepath)
	if err != nil {
		logger.New(stderr, slog.LevelWarn).ErrorContext(ctx, "failed to load configuration", slog.Any("error", err))
		_ = widget.NewStatusWriter(stdout, cfg).Fail(ctx, err)
		return 1
	}

	level, levelErr := logger.ParseLevel(cfg.LogLevel)
	log := logger.New(stderr, level)
	if levelErr != nil {
		log.WarnContext(ctx, "falling back to default log level", slog.Any("error", levelErr))
	}

	dialer := opts.dialer
	if dialer == nil {
		dialer = retriever.TLSDialer(cfg.Timeout)
	}

	runner := mailer.NewRunner(
		cfg,
		retriever.NewIMAPRetriever(dialer, log.With(slog.String("module", "retriever"))),
		widget.NewStatusWriter(stdout, cfg),
		log.With(slog.String("module", "runner")),
	)

	if opts.interval <= 0 {
		if err = runner.Run(ctx); err != nil {
			log.ErrorContext(ctx, "failed to print status", slog.Any("error", err), slog.String("module", "main"))
			return 1
		}
		return 0
	}

	d := daemon.NewDaemon(
		opts.interval,
		&daemon.Scheduler{},
		&runner,
		log.With(slog.String("module", "daemon")),
	)
	// Cancellation of ctx is the regular way to stop the daemon.
	if err = d.Start(ctx); err != nil && !errors.Is(err, ctx.Err()) {
		log.ErrorContext(ctx, "daemon exited with error", slog.Any("error", err), slog.String("module", "main"))
		return 1
	}

	return 0
}

package cli

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/onchange/internal/config"
	"github.com/hupe1980/onchange/internal/dispatch"
	"github.com/hupe1980/onchange/internal/exclude"
	"github.com/hupe1980/onchange/internal/logging"
	"github.com/hupe1980/onchange/internal/project"
	"github.com/hupe1980/onchange/internal/watch"
)

// errNoRun is returned when no --run flag was given.
var errNoRun = errors.New("at least one --run <command|set> is required")

// session is everything resolved before the watcher is built.
type session struct {
	file     *project.File
	commands []project.Command
}

// prepare loads the project file and resolves the run request. Every
// configuration and usage error surfaces here, before anything is watched.
func prepare(cmd *cobra.Command, cfg *config.Config, names []string) (*session, error) {
	if len(names) == 0 {
		return nil, usageError(cmd, errNoRun)
	}

	f, err := project.Load(cfg.File)
	if err != nil {
		return nil, failure(err)
	}

	logger := logging.FromContext(cmd.Context())
	for _, s := range f.Unknown {
		logger.Debug("ignoring unknown section", slog.String("section", s))
	}

	cmds, err := f.Resolve(names)
	if err != nil {
		return nil, usageError(cmd, err)
	}

	return &session{file: f, commands: cmds}, nil
}

func runWatch(cmd *cobra.Command, opts *runOptions) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	s, err := prepare(cmd, cfg, opts.run)
	if err != nil {
		return err
	}

	policy, err := dispatch.ParseEventPolicy(cfg.LogEvents)
	if err != nil {
		return failure(err)
	}

	excl, err := exclude.Build(s.file, cfg.Dir, logger)
	if err != nil {
		return failure(err)
	}

	watchOpts := watch.Options{
		Root:     cfg.Dir,
		Exclude:  excl,
		Debounce: cfg.Debounce,
		Logger:   logger,
	}

	w, err := watch.New(watchOpts)
	if err != nil {
		return failure(err)
	}
	defer w.Close()

	// Trap SIGINT / SIGTERM for graceful shutdown.
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Debug("watching",
		slog.String("root", w.Root()),
		slog.Int("directories", len(w.WatchList())),
		slog.Int("commands", len(s.commands)),
	)

	return runLoop(sigCtx, w, dispatch.NewShellRunner(), s, dispatch.Options{
		Policy:  policy,
		Initial: opts.initial,
		Logger:  logger,
	})
}

// runLoop drives the dispatch loop; its errors have already been logged as
// fatal events.
func runLoop(ctx context.Context, src dispatch.Source, runner dispatch.Runner, s *session, opts dispatch.Options) error {
	if err := dispatch.Loop(ctx, src, runner, s.commands, opts); err != nil {
		return &ExitError{Code: 1, Err: err, Logged: true}
	}

	return nil
}

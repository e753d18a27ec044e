// Package dispatch runs the resolved command list whenever the watched tree
// changes.
//
// The loop alternates between waiting for a batch of change events and
// running every command in order. The first failing command ends the loop
// with a *CommandFailedError; nothing is retried.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hupe1980/onchange/internal/logging"
	"github.com/hupe1980/onchange/internal/project"
	"github.com/hupe1980/onchange/internal/watch"
)

// Source yields batches of change events.
type Source interface {
	Next(ctx context.Context) ([]watch.Event, error)
}

// EventPolicy selects which events of a batch are logged. A batch triggers
// exactly one dispatch under every policy.
type EventPolicy int

const (
	// LogFirstEvent logs the first event of a batch and discards the rest.
	LogFirstEvent EventPolicy = iota
	// LogAllEvents logs every event of a batch.
	LogAllEvents
)

// ParseEventPolicy converts "first" or "all" to an EventPolicy.
func ParseEventPolicy(s string) (EventPolicy, error) {
	switch s {
	case "first", "":
		return LogFirstEvent, nil
	case "all":
		return LogAllEvents, nil
	default:
		return LogFirstEvent, fmt.Errorf("unknown event policy %q", s)
	}
}

// Options configures the loop.
type Options struct {
	Policy EventPolicy

	// Initial dispatches once before waiting for the first batch.
	Initial bool

	Logger *slog.Logger
}

// CommandFailedError reports the command that stopped a dispatch.
type CommandFailedError struct {
	Name     string
	ExitCode int
	Err      error
}

func (e *CommandFailedError) Error() string {
	if e.ExitCode > 0 {
		return fmt.Sprintf("command %q failed with exit code %d", e.Name, e.ExitCode)
	}

	return fmt.Sprintf("command %q failed: %v", e.Name, e.Err)
}

func (e *CommandFailedError) Unwrap() error { return e.Err }

// Loop waits for change batches from src and dispatches cmds after each
// one. It returns nil when ctx is cancelled and an error when waiting fails
// or a command fails; the error has already been logged as a fatal event.
func Loop(ctx context.Context, src Source, runner Runner, cmds []project.Command, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.Initial {
		if err := RunAll(ctx, runner, cmds, logger); err != nil {
			return ignoreCancel(ctx, err)
		}
	}

	for {
		batch, err := src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			logging.Fatal(logger, err.Error())

			return fmt.Errorf("waiting for changes: %w", err)
		}

		if len(batch) == 0 {
			continue
		}

		logBatch(logger, batch, opts.Policy)

		if err := RunAll(ctx, runner, cmds, logger); err != nil {
			return ignoreCancel(ctx, err)
		}
	}
}

// RunAll runs cmds in order, logging each before it starts. The first
// failure is logged as a fatal event and returned as a *CommandFailedError;
// the remaining commands are not started.
func RunAll(ctx context.Context, runner Runner, cmds []project.Command, logger *slog.Logger) error {
	for _, cmd := range cmds {
		logging.Event(logger, "run "+cmd.Name, cmd.Shell)

		res := runner.Run(ctx, cmd)
		if res.OK() {
			continue
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		failed := &CommandFailedError{Name: cmd.Name, ExitCode: res.ExitCode, Err: res.Err}
		logging.Fatal(logger, failed.Error())

		return failed
	}

	return nil
}

func logBatch(logger *slog.Logger, batch []watch.Event, policy EventPolicy) {
	switch policy {
	case LogAllEvents:
		for _, e := range batch {
			logging.Event(logger, e.Type(), e.Path)
		}
	default:
		logging.Event(logger, batch[0].Type(), batch[0].Path)
	}
}

func ignoreCancel(ctx context.Context, err error) error {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return nil
	}

	return err
}

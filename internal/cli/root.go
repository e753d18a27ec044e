// Package cli implements the cobra command tree for onchange.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/onchange/internal/config"
	"github.com/hupe1980/onchange/internal/logging"
)

// ExitError wraps an error with a specific process exit code.
type ExitError struct {
	Code int
	Err  error

	// Logged marks errors already reported as a fatal event.
	Logged bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute builds the command tree, runs it, and returns the exit code.
func Execute() int {
	return execute(NewRootCommand(), os.Stderr)
}

func execute(cmd *cobra.Command, stderr io.Writer) int {
	err := cmd.Execute()
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if !exitErr.Logged {
			fmt.Fprintf(stderr, "Error: %v\n", exitErr)
		}

		return exitErr.Code
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)

	return 1
}

// NewRootCommand constructs the top-level cobra.Command with all
// subcommands attached.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "onchange --run <command|set> [--run ...]",
		Short: "Run commands whenever files in a directory tree change",
		Long: `onchange watches a directory tree and, on every change, runs an ordered
list of shell commands declared in the .onchange project file.

Each --run names a command or a set of commands. The list is built once at
startup in the order given and replayed on every change. The first command
that fails stops onchange with exit code 1.

Project file (.onchange):

  [ignore]
  dirs = tmp, build

  [command]
  test = go test ./...
  lint = golangci-lint run

  [set]
  ci = lint, test`,
		Example: `  onchange --run test
  onchange --run ci --run docs
  onchange plan --run ci`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return &ExitError{Code: 1, Err: err}
			}

			logger := logging.SetupWithWriter(cfg, cmd.OutOrStdout())

			ctx := cmd.Context()
			ctx = config.NewContext(ctx, cfg)
			ctx = logging.NewContext(ctx, logger)
			cmd.SetContext(ctx)

			logger.Debug("configuration loaded",
				slog.String("logLevel", cfg.LogLevel),
				slog.String("logFormat", cfg.LogFormat),
				slog.String("file", cfg.File),
				slog.String("dir", cfg.Dir),
			)

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, opts)
		},
	}

	// Global persistent flags.
	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .onchange.yaml)")
	pf.String("log-level", config.LogLevelInfo, "log level: debug, info, warn, error")
	pf.String("log-format", config.LogFormatEvent, "log format: event, text, json")
	pf.Bool("no-color", false, "disable colored output")
	pf.BoolP("quiet", "q", false, "suppress non-essential output")
	pf.String("file", config.DefaultProjectFile, "project file declaring ignores, commands and sets")
	pf.String("dir", ".", "root of the watched directory tree")
	pf.StringArrayVar(&opts.run, "run", nil, "command or set to run on change (repeatable, order matters)")

	registerWatchFlags(cmd, opts)

	_ = cmd.RegisterFlagCompletionFunc("run", completeRunNames)

	// Flag parsing errors are usage errors.
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return usageError(c, err)
	})

	cmd.AddCommand(
		newVersionCommand(),
		newPlanCommand(opts),
		newCheckCommand(),
		newCompletionCommand(),
	)

	return cmd
}

// usageError prints the usage of cmd and wraps err with exit code 1.
func usageError(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", cmd.UsageString())

	return &ExitError{Code: 1, Err: err}
}

// failure wraps err with exit code 1.
func failure(err error) error {
	return &ExitError{Code: 1, Err: err}
}

package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hupe1980/onchange/internal/config"
	"github.com/hupe1980/onchange/internal/exclude"
	"github.com/hupe1980/onchange/internal/output"
	"github.com/hupe1980/onchange/internal/project"
)

// planResult is the printable form of a resolved run request.
type planResult struct {
	File     string            `json:"file" yaml:"file"`
	Root     string            `json:"root" yaml:"root"`
	Commands []project.Command `json:"commands" yaml:"commands"`
	Exclude  []string          `json:"exclude" yaml:"exclude"`
}

func newPlanCommand(opts *runOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan --run <command|set> [--run ...]",
		Short: "Print the resolved command list without watching",
		Long: `Plan resolves the --run names against the project file and prints the
command list that would run on every change, followed by the exclusion
patterns applied to the watched tree. Nothing is watched or executed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlan(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "yaml", "output format: "+output.DefaultRegistry().AvailableFormats())

	return cmd
}

func runPlan(cmd *cobra.Command, opts *runOptions) error {
	cfg := config.FromContext(cmd.Context())

	encode, err := output.DefaultRegistry().Encoder(opts.output)
	if err != nil {
		return usageError(cmd, err)
	}

	s, err := prepare(cmd, cfg, opts.run)
	if err != nil {
		return err
	}

	// No logger: the ignore events would interleave with the document.
	excl, err := exclude.Build(s.file, cfg.Dir, nil)
	if err != nil {
		return failure(err)
	}

	root, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return failure(err)
	}

	result := planResult{
		File:     s.file.Path,
		Root:     root,
		Commands: s.commands,
	}

	for _, p := range excl {
		result.Exclude = append(result.Exclude, p.String())
	}

	if err := encode(cmd.OutOrStdout(), result); err != nil {
		return failure(fmt.Errorf("writing plan: %w", err))
	}

	return nil
}

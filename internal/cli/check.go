package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/onchange/internal/config"
	"github.com/hupe1980/onchange/internal/project"
)

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the project file",
		Long: `Check loads the project file and verifies that a [command] section exists
and that every set references defined commands.

Exit codes:
  0  Project file is valid
  1  Project file is missing or invalid`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromContext(cmd.Context())

			f, err := project.Load(cfg.File)
			if err != nil {
				return failure(err)
			}

			w := cmd.OutOrStdout()

			for _, s := range f.Unknown {
				fmt.Fprintf(w, "warning: unknown section [%s]\n", s)
			}

			_, err = fmt.Fprintf(w, "%s: ok (%d commands, %d sets, %d ignore entries)\n",
				f.Path, len(f.Commands), len(f.Sets), len(f.Ignore))

			return err
		},
	}
}

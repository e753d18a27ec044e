package cli

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/onchange/internal/config"
	"github.com/hupe1980/onchange/internal/project"
)

// runOptions holds the flags shared by the watch and plan commands.
type runOptions struct {
	run     []string
	initial bool
	output  string
}

// registerWatchFlags adds the watch loop flags to a cobra command. Their
// values are read back through config.Load.
func registerWatchFlags(cmd *cobra.Command, opts *runOptions) {
	f := cmd.Flags()
	f.Duration("debounce", config.DefaultDebounce, "quiet period that closes a batch of changes")
	f.String("log-events", config.LogEventsFirst, "events logged per batch: first, all")
	f.BoolVar(&opts.initial, "initial", false, "run the commands once before waiting for changes")
}

// completeRunNames offers the command and set names of the project file.
func completeRunNames(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	path := config.DefaultProjectFile
	if f := cmd.Flag("file"); f != nil && f.Value.String() != "" {
		path = f.Value.String()
	}

	f, err := project.Load(path)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	names := make([]string, 0, len(f.Commands)+len(f.Sets))
	for _, c := range f.Commands {
		names = append(names, c.Name+"\tcommand: "+c.Shell)
	}

	for _, s := range f.Sets {
		names = append(names, s.Name+"\tset")
	}

	return names, cobra.ShellCompDirectiveNoFileComp
}

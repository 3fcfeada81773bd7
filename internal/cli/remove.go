package cli

import (
	"github.com/spf13/cobra"
)

// RemoveOptions holds flags for the remove command.
type RemoveOptions struct {
	*RootOptions
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RemoveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:     "remove FILE ID...",
		Aliases: []string{"rm"},
		Short:   "Append tombstones for the given ids",
		Long: `Append a tombstone record for each id, removing it from the live view.

Removal is idempotent: deleting an id that was never allocated or is
already deleted still appends a tombstone but changes nothing observable.
The id's last payload remains recoverable via list --include-deleted.

Examples:
  jsonlog remove todo.json 3
  jsonlog rm todo.json 1 2 3`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(opts, cmd, args)
		},
	}

	return cmd
}

func runRemove(opts *RemoveOptions, cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args[1:])
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	}

	db, err := openLog(cmd, opts.RootOptions, args[0], false)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, id := range ids {
		if err := db.Delete(id); err != nil {
			return WrapExitError(ExitCommandError, "remove failed", err)
		}
	}
	return nil
}

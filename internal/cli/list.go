package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/jsonlog/record"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	IncludeDeleted bool
	Filter         string
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:     "list FILE [ID...]",
		Aliases: []string{"ls"},
		Short:   "Print records as JSON lines",
		Long: `Print records from the log as JSON lines, one object per record, in
ascending id order.

By default the live view is printed: ids whose most recent record is a
tombstone are absent. With --include-deleted the historical view is printed
instead: a deleted id reappears with the payload of its last upsert and no
deletion marker.

Positional ids restrict the output to those records. --filter restricts it
further with a CEL expression over the variables id and doc.

Examples:
  jsonlog list todo.json
  jsonlog ls -d todo.json 3 7
  jsonlog list todo.json --filter 'doc.done == false'`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd, args)
		},
	}

	cmd.Flags().BoolVarP(&opts.IncludeDeleted, "include-deleted", "d", false, "print the historical view (deleted ids keep their last payload)")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "CEL expression selecting records (variables: id, doc)")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args[1:])
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	}

	var flt *filter
	if opts.Filter != "" {
		flt, err = compileFilter(opts.Filter)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid filter expression", err)
		}
	}

	db, err := openLog(cmd, opts.RootOptions, args[0], true)
	if err != nil {
		return err
	}
	defer db.Close()

	var records []record.RecordData[Object]
	if opts.IncludeDeleted {
		records = db.RecordsIncludeDeleted()
	} else {
		records = db.Records()
	}
	records = selectIDs(records, ids)
	if flt != nil {
		records = flt.Select(records)
	}

	if err := printRecords(cmd.OutOrStdout(), records); err != nil {
		return WrapExitError(ExitCommandError, "failed to print records", err)
	}
	return nil
}

package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/jsonlog"
)

// Object is the document type the CLI works with: an arbitrary flat JSON
// object. The engine never interprets its fields.
type Object = map[string]any

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose bool
}

// NewRootCommand creates the root command for the jsonlog CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "jsonlog",
		Short: "Single-file append-only JSON record store",
		Long: `jsonlog manages single-file append-only JSON record logs.

Each line of a log file is one JSON object: either an upsert carrying a
numeric id plus the document fields, or a tombstone ({"id":N,"deleted":true})
marking the id as deleted. Records are never rewritten; current state is
reconstructed by replaying the log.`,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (engine debug events on stderr)")

	// Add subcommands
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))

	return cmd
}

// openLog opens the record log for a command. readOnly must be true
// exactly when the command performs no writes; the engine then opens the
// file without write or create access.
func openLog(cmd *cobra.Command, opts *RootOptions, path string, readOnly bool) (*jsonlog.Database[Object], error) {
	engineOpts := jsonlog.Options[Object]{ReadOnly: readOnly}
	if opts.Verbose {
		engineOpts.Logger = slog.New(slog.NewTextHandler(
			cmd.ErrOrStderr(),
			&slog.HandlerOptions{Level: slog.LevelDebug},
		))
	}
	db, err := jsonlog.Open(path, engineOpts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open log", err)
	}
	return db, nil
}

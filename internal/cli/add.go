package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Schema string
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add FILE",
		Short: "Insert documents read from stdin",
		Long: `Read a stream of JSON objects from stdin and insert each as a new
record, printing the allocated id per document.

Reserved "id" and "deleted" keys in the input are stripped, so records
printed by list can be piped back in to duplicate them under fresh ids.
With --schema each document is validated against a CUE schema before
anything is written; the first rejection aborts the stream.

Examples:
  echo '{"title":"write docs"}' | jsonlog add todo.json
  jsonlog add todo.json --schema todo.cue < batch.ndjson`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.Schema, "schema", "", "CUE schema file documents must satisfy")

	return cmd
}

func runAdd(opts *AddOptions, cmd *cobra.Command, args []string) error {
	var schema *Schema
	if opts.Schema != "" {
		var err error
		schema, err = LoadSchema(opts.Schema)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid schema", err)
		}
	}

	db, err := openLog(cmd, opts.RootOptions, args[0], false)
	if err != nil {
		return err
	}
	defer db.Close()

	dec := json.NewDecoder(cmd.InOrStdin())
	for {
		var doc Object
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return WrapExitError(ExitCommandError, "invalid input document", err)
		}
		stripReserved(doc)

		if schema != nil {
			if err := schema.Validate(doc); err != nil {
				return WrapExitError(ExitFailure, "document rejected by schema", err)
			}
		}

		id, err := db.Insert(doc)
		if err != nil {
			return WrapExitError(ExitCommandError, "insert failed", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
}

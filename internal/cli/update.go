package cli

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/jsonlog"
	"github.com/roach88/jsonlog/record"
)

// UpdateOptions holds flags for the update command.
type UpdateOptions struct {
	*RootOptions
	Expr   string
	DryRun bool
	Schema string
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:     "update FILE [ID...]",
		Aliases: []string{"upd"},
		Short:   "Rewrite records from stdin or with an expression",
		Long: `Rewrite existing records.

Without --expr, a stream of full records (JSON objects carrying an "id"
field) is read from stdin and each is upserted under its id. This pairs
with list: pipe records out, edit them, pipe them back.

With --expr, a CEL expression over the variables id and doc is applied to
the selected live records (all of them, or the positional ids) and each
result becomes the record's replacement document. The expression must
produce an object. --dry-run prints the rewritten records instead of
writing them and requires --expr.

Examples:
  jsonlog list todo.json | edit | jsonlog update todo.json
  jsonlog update todo.json --expr '{"title": doc.title, "done": true}' 3 7
  jsonlog update todo.json --expr '{"title": doc.title, "priority": doc.priority + 1}' -n`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.DryRun && opts.Expr == "" {
				return NewExitError(ExitCommandError, "--dry-run requires --expr")
			}
			if len(args) > 1 && opts.Expr == "" {
				return NewExitError(ExitCommandError, "selecting ids requires --expr; the stdin stream carries its own ids")
			}
			return runUpdate(opts, cmd, args)
		},
	}

	cmd.Flags().StringVarP(&opts.Expr, "expr", "e", "", "CEL expression producing the replacement document (variables: id, doc)")
	cmd.Flags().BoolVarP(&opts.DryRun, "dry-run", "n", false, "print rewritten records instead of writing them")
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "CUE schema file rewritten documents must satisfy")

	return cmd
}

func runUpdate(opts *UpdateOptions, cmd *cobra.Command, args []string) error {
	var schema *Schema
	if opts.Schema != "" {
		var err error
		schema, err = LoadSchema(opts.Schema)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid schema", err)
		}
	}

	if opts.Expr != "" {
		return runUpdateExpr(opts, cmd, args, schema)
	}
	return runUpdateStream(opts, cmd, args, schema)
}

// runUpdateExpr applies a CEL transform to the selected live records.
func runUpdateExpr(opts *UpdateOptions, cmd *cobra.Command, args []string, schema *Schema) error {
	ids, err := parseIDs(args[1:])
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	}
	tr, err := compileTransform(opts.Expr)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid expression", err)
	}

	db, err := openLog(cmd, opts.RootOptions, args[0], opts.DryRun)
	if err != nil {
		return err
	}
	defer db.Close()

	selected := selectIDs(db.Records(), ids)
	rewritten := make([]record.RecordData[Object], 0, len(selected))
	for _, rec := range selected {
		doc, err := tr.Apply(rec)
		if err != nil {
			return WrapExitError(ExitCommandError, "expression failed", err)
		}
		if schema != nil {
			if err := schema.Validate(doc); err != nil {
				return WrapExitError(ExitFailure, "document rejected by schema", err)
			}
		}
		rewritten = append(rewritten, record.RecordData[Object]{ID: rec.ID, Doc: doc})
	}

	if opts.DryRun {
		if err := printRecords(cmd.OutOrStdout(), rewritten); err != nil {
			return WrapExitError(ExitCommandError, "failed to print records", err)
		}
		return nil
	}

	for _, rec := range rewritten {
		if err := upsertDoc(db, rec.ID, rec.Doc); err != nil {
			return err
		}
	}
	return nil
}

// runUpdateStream upserts full records read from stdin.
func runUpdateStream(opts *UpdateOptions, cmd *cobra.Command, args []string, schema *Schema) error {
	db, err := openLog(cmd, opts.RootOptions, args[0], false)
	if err != nil {
		return err
	}
	defer db.Close()

	dec := json.NewDecoder(cmd.InOrStdin())
	for {
		var data record.RecordData[Object]
		if err := dec.Decode(&data); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return WrapExitError(ExitCommandError, "invalid input record", err)
		}

		if schema != nil {
			if err := schema.Validate(data.Doc); err != nil {
				return WrapExitError(ExitFailure, "document rejected by schema", err)
			}
		}
		if err := upsertDoc(db, data.ID, data.Doc); err != nil {
			return err
		}
	}
}

// upsertDoc writes doc under id unconditionally, ignoring the current live
// payload (the replacement was computed from it already, or came from the
// caller's stream).
func upsertDoc(db *jsonlog.Database[Object], id record.ID, doc Object) error {
	err := db.Upsert(id, func(*Object) *Object { return &doc })
	if err != nil {
		return WrapExitError(ExitCommandError, "update failed", err)
	}
	return nil
}

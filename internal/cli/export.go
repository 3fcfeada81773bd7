package cli

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/roach88/jsonlog/record"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Database       string
	IncludeDeleted bool
}

// exportSchema is applied idempotently to the target database. The
// document column holds the payload as JSON text, queryable with SQLite's
// json functions.
const exportSchema = `
CREATE TABLE IF NOT EXISTS records (
	id       INTEGER PRIMARY KEY,
	document TEXT NOT NULL
)`

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Dump a view of the log into a SQLite database",
		Long: `Materialize a view of the log into the records table of a SQLite
database for downstream querying. The dump is one-way: the engine never
reads SQLite back, and re-exporting replaces rows by id.

By default the live view is exported; --include-deleted exports the
historical view instead.

Examples:
  jsonlog export todo.json --db todo.db
  jsonlog export todo.json --db todo.db --include-deleted`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the target SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().BoolVarP(&opts.IncludeDeleted, "include-deleted", "d", false, "export the historical view (deleted ids keep their last payload)")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command, args []string) error {
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

	out, err := openExportDB(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open export database", err)
	}
	defer out.Close()

	if err := writeExport(out, records); err != nil {
		return WrapExitError(ExitCommandError, "export failed", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "exported %d record(s) to %s\n", len(records), opts.Database)
	return nil
}

// openExportDB opens the target database and applies the export schema.
// Safe to call against an existing export.
func openExportDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	// Single writer; SQLite rejects concurrent writers anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragma: %w", err)
	}
	if _, err := db.Exec(exportSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

// writeExport replaces the exported rows in a single transaction, so a
// failed export never leaves a half-written table.
func writeExport(db *sql.DB, records []record.RecordData[Object]) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, rec := range records {
		doc, err := json.Marshal(rec.Doc)
		if err != nil {
			return fmt.Errorf("encode record %d: %w", rec.ID, err)
		}
		_, err = tx.Exec(
			`INSERT OR REPLACE INTO records (id, document) VALUES (?, ?)`,
			int64(rec.ID), string(doc),
		)
		if err != nil {
			return fmt.Errorf("write record %d: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

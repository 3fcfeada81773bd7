package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/roach88/jsonlog/record"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation failure (schema rejection, write conflict)
	ExitCommandError = 2 // Command error (bad flags, unreadable log, invalid input)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// printRecords writes records to w as JSON lines, one object per record,
// the id flattened into the document fields. HTML escaping is disabled so
// the output round-trips byte-for-byte through the log format.
func printRecords(w io.Writer, records []record.RecordData[Object]) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("print record %d: %w", rec.ID, err)
		}
	}
	return nil
}

// parseIDs converts positional id arguments.
func parseIDs(args []string) ([]record.ID, error) {
	ids := make([]record.ID, 0, len(args))
	for _, arg := range args {
		n, err := strconv.ParseUint(arg, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid record id %q", arg)
		}
		ids = append(ids, record.ID(n))
	}
	return ids, nil
}

// selectIDs filters records to the requested ids. An empty id list selects
// everything.
func selectIDs(records []record.RecordData[Object], ids []record.ID) []record.RecordData[Object] {
	if len(ids) == 0 {
		return records
	}
	wanted := make(map[record.ID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	out := make([]record.RecordData[Object], 0, len(ids))
	for _, rec := range records {
		if wanted[rec.ID] {
			out = append(out, rec)
		}
	}
	return out
}

// stripReserved drops the reserved log keys from an externally supplied
// document, mirroring what the log format would reject otherwise. Input
// streams routinely contain them when records are piped back in from list.
func stripReserved(doc Object) {
	delete(doc, "id")
	delete(doc, "deleted")
}

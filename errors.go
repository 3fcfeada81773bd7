package jsonlog

import "errors"

var (
	// ErrReadOnly is returned by mutating calls on a handle opened with
	// Options.ReadOnly.
	ErrReadOnly = errors.New("log opened read-only")

	// ErrConflict is returned by the append protocol when, after
	// re-replaying, the cursor does not sit at the physical end of the
	// file: another writer appended in the window between the last
	// successful parse and the end-of-stream check. Nothing was written;
	// the caller may retry the whole logical operation after re-reading
	// current state.
	ErrConflict = errors.New("log does not end at the replay cursor")
)

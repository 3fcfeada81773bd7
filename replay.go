package jsonlog

import (
	"bytes"
	"fmt"
	"io"

	"github.com/roach88/jsonlog/record"
)

// Reload parses any bytes appended to the file since the handle last read
// it and folds the resulting records into history. It is purely additive
// and idempotent: already-consumed bytes are never revisited, and calling
// it with no new bytes changes nothing.
//
// The cursor only advances past fully parsed records. A line without its
// terminating newline is a write still in flight from another handle;
// Reload reports it as a *record.DecodeError wrapping io.ErrUnexpectedEOF
// and leaves the cursor in place, so a later Reload retries from the same
// position once the writer finishes. A complete line that fails to decode
// is reported the same way; the engine cannot tell transient truncation
// from durable corruption, so retry policy belongs to the caller.
func (d *Database[T]) Reload() error {
	size, err := d.size()
	if err != nil {
		return err
	}
	if d.offset >= size {
		return nil
	}

	pending := make([]byte, size-d.offset)
	if _, err := d.file.ReadAt(pending, d.offset); err != nil {
		return fmt.Errorf("read log: %w", err)
	}

	for len(pending) > 0 {
		nl := bytes.IndexByte(pending, '\n')
		if nl < 0 {
			return &record.DecodeError{Offset: d.offset, Err: io.ErrUnexpectedEOF}
		}
		rec, err := record.Decode[T](pending[:nl])
		if err != nil {
			return &record.DecodeError{Offset: d.offset, Err: err}
		}
		d.fold(rec)
		d.offset += int64(nl) + 1
		pending = pending[nl+1:]
	}
	return nil
}

// size returns the current physical length of the log file.
func (d *Database[T]) size() (int64, error) {
	info, err := d.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat log: %w", err)
	}
	return info.Size(), nil
}

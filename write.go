package jsonlog

import (
	"fmt"

	"github.com/roach88/jsonlog/record"
)

// Insert allocates the next identifier, appends an upsert carrying doc and
// returns the new id.
//
// The id is taken from the allocator before the append; if the append
// fails the in-memory allocator keeps the bumped value. Identifiers are
// never reused either way.
func (d *Database[T]) Insert(doc T) (record.ID, error) {
	if d.readOnly {
		return 0, ErrReadOnly
	}
	id := d.nextID
	d.nextID++
	if err := d.append(record.Upsert(id, doc)); err != nil {
		return 0, err
	}
	return id, nil
}

// Upsert invokes resolve with the current live document for id, or nil if
// the id is not live. The resolver's return drives what is appended:
//
//   - a document: an upsert for id is appended
//   - nil, with a live document present: a tombstone is appended
//   - nil, with no live document: nothing is appended and no I/O happens
func (d *Database[T]) Upsert(id record.ID, resolve func(cur *T) *T) error {
	if d.readOnly {
		return ErrReadOnly
	}
	var cur *T
	if data, ok := d.Get(id); ok {
		doc := data.Doc
		cur = &doc
	}
	next := resolve(cur)
	switch {
	case next != nil:
		return d.append(record.Upsert(id, *next))
	case cur != nil:
		return d.append(record.Tombstone[T](id))
	default:
		return nil
	}
}

// Delete unconditionally appends a tombstone for id. Deleting an id that
// was never allocated or is already tombstoned still appends a record but
// has no observable effect on either view.
func (d *Database[T]) Delete(id record.ID) error {
	if d.readOnly {
		return ErrReadOnly
	}
	return d.append(record.Tombstone[T](id))
}

// append runs the optimistic append protocol: re-replay to absorb other
// writers, then hand off to appendAt for the end-of-stream check and the
// physical write.
func (d *Database[T]) append(rec record.Record[T]) error {
	if err := d.Reload(); err != nil {
		return err
	}
	return d.appendAt(rec)
}

// appendAt performs steps 2-4 of the append protocol against the current
// cursor: verify the cursor sits exactly at the physical end of the file,
// write the encoded line, then fold the record into history. On any error
// before the write, nothing is appended and history is untouched.
//
// The check is best-effort: a writer racing into the window between the
// size probe and the write is not detected. Split out from append so the
// conflict rule is testable without staging a real race.
func (d *Database[T]) appendAt(rec record.Record[T]) error {
	size, err := d.size()
	if err != nil {
		return err
	}
	if d.offset != size {
		return fmt.Errorf("append at offset %d of %d bytes: %w", d.offset, size, ErrConflict)
	}

	line, err := record.Encode(rec)
	if err != nil {
		return err
	}
	// One write call per record, terminator included: readers either see
	// the whole line or a missing newline, never a torn record boundary.
	if _, err := d.file.WriteAt(line, d.offset); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	d.logger.Debug("appended record",
		"id", uint32(rec.ID),
		"deleted", rec.Deleted,
		"offset", d.offset,
		"bytes", len(line),
	)
	d.offset += int64(len(line))
	d.fold(rec)
	return nil
}

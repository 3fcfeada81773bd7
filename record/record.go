package record

// ID identifies a record within one log instance. IDs are allocated
// strictly increasing starting at 1 and are never reused, even after the
// id has been tombstoned.
type ID uint32

// Record is one log entry: either an upsert carrying a document or a
// tombstone marking an id as logically deleted.
//
// Doc is meaningful only when Deleted is false; a tombstone carries no
// payload.
type Record[T any] struct {
	ID      ID
	Deleted bool
	Doc     T
}

// Upsert builds an upsert record for id carrying doc.
func Upsert[T any](id ID, doc T) Record[T] {
	return Record[T]{ID: id, Doc: doc}
}

// Tombstone builds a tombstone record for id.
func Tombstone[T any](id ID) Record[T] {
	return Record[T]{ID: id, Deleted: true}
}

// Data returns the id/document pairing for an upsert record.
// ok is false for a tombstone.
func (r Record[T]) Data() (RecordData[T], bool) {
	if r.Deleted {
		return RecordData[T]{}, false
	}
	return RecordData[T]{ID: r.ID, Doc: r.Doc}, true
}

// RecordData pairs an identifier with its document payload. This is what
// the read views return, and the JSON shape the CLI's update stream
// accepts: the id field flattened into the document object.
type RecordData[T any] struct {
	ID  ID
	Doc T
}

// MarshalJSON renders the pairing as a single flattened object with the
// id injected, matching the upsert line format without the terminator.
func (d RecordData[T]) MarshalJSON() ([]byte, error) {
	line, err := Encode(Upsert(d.ID, d.Doc))
	if err != nil {
		return nil, err
	}
	// Encode terminates the line; strip it for embedding.
	return line[:len(line)-1], nil
}

// UnmarshalJSON splits a flattened object back into id and document.
// A present-and-false "deleted" marker is accepted and dropped; a
// tombstone shape is rejected because it carries no document.
func (d *RecordData[T]) UnmarshalJSON(data []byte) error {
	rec, err := Decode[T](data)
	if err != nil {
		return err
	}
	if rec.Deleted {
		return errMarkerOnData
	}
	d.ID = rec.ID
	d.Doc = rec.Doc
	return nil
}

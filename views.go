package jsonlog

import (
	"cmp"
	"slices"

	"github.com/roach88/jsonlog/record"
)

// Records returns the live view in ascending id order.
//
// History is scanned newest to oldest; the first occurrence of each id in
// that scan is authoritative, and the id is kept only if that occurrence
// is an upsert. A currently tombstoned id is absent; a live id shows its
// latest payload.
//
// The returned documents alias history; callers must not mutate them.
func (d *Database[T]) Records() []record.RecordData[T] {
	seen := make(map[record.ID]bool, len(d.records))
	var out []record.RecordData[T]
	for i := len(d.records) - 1; i >= 0; i-- {
		rec := d.records[i]
		if seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		if data, ok := rec.Data(); ok {
			out = append(out, data)
		}
	}
	sortByID(out)
	return out
}

// RecordsIncludeDeleted returns the historical view in ascending id order:
// tombstones are discarded from the scan entirely, then the newest
// remaining upsert per id wins. An id that was upserted and later deleted
// still appears, showing the payload of its last upsert; the view does not
// distinguish "still live" from "was deleted". Callers needing that
// distinction intersect with Records.
func (d *Database[T]) RecordsIncludeDeleted() []record.RecordData[T] {
	seen := make(map[record.ID]bool, len(d.records))
	var out []record.RecordData[T]
	for i := len(d.records) - 1; i >= 0; i-- {
		data, ok := d.records[i].Data()
		if !ok {
			continue
		}
		if seen[data.ID] {
			continue
		}
		seen[data.ID] = true
		out = append(out, data)
	}
	sortByID(out)
	return out
}

// Get looks id up in the live view. ok is false for an id that was never
// allocated or is currently tombstoned, even if a historical payload
// exists.
func (d *Database[T]) Get(id record.ID) (record.RecordData[T], bool) {
	for i := len(d.records) - 1; i >= 0; i-- {
		if d.records[i].ID == id {
			return d.records[i].Data()
		}
	}
	return record.RecordData[T]{}, false
}

// Count returns the cardinality of the live view.
func (d *Database[T]) Count() int {
	seen := make(map[record.ID]bool, len(d.records))
	n := 0
	for i := len(d.records) - 1; i >= 0; i-- {
		rec := d.records[i]
		if seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		if !rec.Deleted {
			n++
		}
	}
	return n
}

func sortByID[T any](records []record.RecordData[T]) {
	slices.SortFunc(records, func(a, b record.RecordData[T]) int {
		return cmp.Compare(a.ID, b.ID)
	})
}

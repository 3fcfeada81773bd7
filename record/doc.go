// Package record defines the on-disk and in-memory shape of one log entry.
//
// A log is UTF-8 text with one JSON object per line, newline terminated.
// Two shapes exist:
//
//	{"id":1,"title":"first","done":false}   upsert: id plus the document fields
//	{"id":1,"deleted":true}                 tombstone: id and the marker, nothing else
//
// There is no explicit variant discriminant. Decode dispatches on the
// "deleted" marker: present-and-true selects the strict tombstone schema
// (exactly the id and the marker), anything else decodes as an upsert with
// a present-and-false marker accepted and dropped. Any other marker value
// is a decode error. The dispatch rule lives in Decode so it can be tested
// directly instead of depending on codec trial order.
//
// The package also provides MarshalCanonical, a deterministic JSON
// rendering (sorted keys, NFC-normalized strings, no HTML escaping) used
// by the hashing change fingerprint in package tag.
package record

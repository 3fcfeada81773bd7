// Package jsonlog is an embedded, single-file, append-only record store.
//
// Documents are JSON objects keyed by a monotonically allocated numeric
// identifier. The log is only ever appended to; current state is
// reconstructed by replaying it. One handle owns:
//
//   - a resumable replay cursor (the byte offset parsed so far)
//   - the full in-memory history of every record parsed or appended
//   - the identifier allocator's high-water mark
//   - a change-fingerprint accumulator (package tag)
//
// # Views
//
// Records is the live view: per id, the most recent record wins, and ids
// whose most recent record is a tombstone are absent. RecordsIncludeDeleted
// is the historical view: tombstones are ignored entirely, so a deleted id
// reappears with its last upsert payload. Both views are pure functions of
// history, returned in ascending id order.
//
// # Concurrency
//
// A handle is synchronous and not safe for concurrent mutation; all of its
// state is private and unsynchronized. The supported concurrency model is
// multiple independent handles on the same file, each with its own cursor
// and history. The append protocol re-replays before every write and
// verifies the cursor sits at the physical end of the file, so a write
// racing another writer fails with ErrConflict instead of silently losing
// an update. The check is detection, not a lock: callers needing strict
// mutual exclusion must add one externally.
package jsonlog

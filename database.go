package jsonlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/roach88/jsonlog/record"
	"github.com/roach88/jsonlog/tag"
)

// Options configures an open handle.
type Options[T any] struct {
	// ReadOnly opens the underlying file without write or create access.
	// Every mutating call on a read-only handle fails with ErrReadOnly.
	ReadOnly bool

	// Tag selects the change-fingerprint accumulator folded over every
	// record the handle processes. Defaults to tag.NewCounting.
	Tag tag.CacheTag[T]

	// Logger receives per-record debug events. Defaults to a discard
	// logger; the engine never logs above debug level.
	Logger *slog.Logger
}

// Database is one open handle on a record log. The type parameter T is the
// document payload: an externally defined type that serializes to and from
// a flat JSON object. The engine never interprets its fields.
//
// All state below is unsynchronized and private to the handle; see the
// package documentation for the concurrency model.
type Database[T any] struct {
	file     *os.File
	path     string
	readOnly bool

	offset  int64 // byte offset parsed so far; never moves backwards
	records []record.Record[T]
	nextID  record.ID
	tag     tag.CacheTag[T]
	logger  *slog.Logger
}

// Open opens (and, unless read-only, creates) the log at path and performs
// the initial full replay. No query is valid on a handle before Open
// returns.
func Open[T any](path string, opts Options[T]) (*Database[T], error) {
	var (
		file *os.File
		err  error
	)
	if opts.ReadOnly {
		file, err = os.Open(path)
	} else {
		file, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	}
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	ct := opts.Tag
	if ct == nil {
		ct = tag.NewCounting[T]()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	db := &Database[T]{
		file:     file,
		path:     path,
		readOnly: opts.ReadOnly,
		nextID:   1,
		tag:      ct,
		logger: logger.With(
			"handle", uuid.Must(uuid.NewV7()).String(),
			"path", path,
		),
	}
	if err := db.Reload(); err != nil {
		file.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the underlying file and discards the in-memory history.
// The handle must not be used afterwards.
func (d *Database[T]) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	d.records = nil
	if err != nil {
		return fmt.Errorf("close log: %w", err)
	}
	return nil
}

// Tag returns the current change fingerprint. The value is stable across
// repeated reads with no intervening appends or reloads.
func (d *Database[T]) Tag() uint64 {
	return d.tag.Tag()
}

// fold appends one record to history and updates the identifier allocator
// and the fingerprint. Replayed and freshly appended records go through
// identical bookkeeping, which keeps read-after-write consistent within
// the handle.
func (d *Database[T]) fold(rec record.Record[T]) {
	if rec.ID >= d.nextID {
		d.nextID = rec.ID + 1
	}
	d.records = append(d.records, rec)
	d.tag.Fold(rec)
	d.logger.Debug("folded record",
		"id", uint32(rec.ID),
		"deleted", rec.Deleted,
		"history", len(d.records),
	)
}

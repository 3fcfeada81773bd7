package jsonlog

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jsonlog/record"
)

func fileSize(t *testing.T, path string) int64 {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info.Size()
}

func TestInsertAllocatesSequentialIDs(t *testing.T) {
	db, _ := openTemp(t)

	for want := record.ID(1); want <= 3; want++ {
		id, err := db.Insert(obj{"n": int(want)})
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}
}

func TestInsertBurnsIDOnFailedAppend(t *testing.T) {
	db, path := openTemp(t)
	appendRaw(t, path, `{"id":1,"a":"`)

	_, err := db.Insert(obj{"a": "x"})
	require.Error(t, err)

	appendRaw(t, path, `x"}`+"\n")
	id, err := db.Insert(obj{"a": "y"})
	require.NoError(t, err)
	assert.Equal(t, record.ID(2), id)
}

func TestUpsertResolverSeesCurrentPayload(t *testing.T) {
	db, _ := openTemp(t)
	id, err := db.Insert(obj{"a": "x"})
	require.NoError(t, err)

	var observed *obj
	err = db.Upsert(id, func(cur *obj) *obj {
		observed = cur
		return &obj{"a": "y"}
	})
	require.NoError(t, err)
	require.NotNil(t, observed)
	assert.Equal(t, obj{"a": "x"}, *observed)

	data, ok := db.Get(id)
	require.True(t, ok)
	assert.Equal(t, obj{"a": "y"}, data.Doc)
}

func TestUpsertNilResolvesToTombstone(t *testing.T) {
	db, _ := openTemp(t)
	id, err := db.Insert(obj{"a": "x"})
	require.NoError(t, err)

	require.NoError(t, db.Upsert(id, func(*obj) *obj { return nil }))

	_, ok := db.Get(id)
	assert.False(t, ok)

	historical := db.RecordsIncludeDeleted()
	require.Len(t, historical, 1)
	assert.Equal(t, obj{"a": "x"}, historical[0].Doc)
}

func TestUpsertNilOnMissingIDIsPureNoop(t *testing.T) {
	db, path := openTemp(t)

	var observed *obj = &obj{}
	err := db.Upsert(5, func(cur *obj) *obj {
		observed = cur
		return nil
	})
	require.NoError(t, err)
	assert.Nil(t, observed)
	assert.Zero(t, fileSize(t, path))

	// The no-op burned nothing; the allocator is untouched.
	id, err := db.Insert(obj{"a": "x"})
	require.NoError(t, err)
	assert.Equal(t, record.ID(1), id)
}

func TestUpsertOnMissingIDWithDocumentCreatesIt(t *testing.T) {
	db, _ := openTemp(t)

	require.NoError(t, db.Upsert(9, func(*obj) *obj { return &obj{"a": "x"} }))

	data, ok := db.Get(9)
	require.True(t, ok)
	assert.Equal(t, obj{"a": "x"}, data.Doc)

	// High-water mark moved past the upserted id.
	id, err := db.Insert(obj{"a": "y"})
	require.NoError(t, err)
	assert.Equal(t, record.ID(10), id)
}

func TestDeleteUnknownIDStillAppends(t *testing.T) {
	db, path := openTemp(t)

	require.NoError(t, db.Delete(3))
	assert.Positive(t, fileSize(t, path))
	assert.Zero(t, db.Count())
	assert.Empty(t, db.RecordsIncludeDeleted())
}

func TestAppendAtStaleCursorConflicts(t *testing.T) {
	db, path := openTemp(t)
	_, err := db.Insert(obj{"a": "x"})
	require.NoError(t, err)

	// Another writer lands a record the handle has not replayed.
	appendRaw(t, path, `{"id":2,"a":"y"}`+"\n")
	sizeBefore := fileSize(t, path)
	historyBefore := len(db.records)
	tagBefore := db.Tag()

	err = db.appendAt(record.Upsert(3, obj{"a": "z"}))
	require.ErrorIs(t, err, ErrConflict)

	// Nothing was written or folded.
	assert.Equal(t, sizeBefore, fileSize(t, path))
	assert.Equal(t, historyBefore, len(db.records))
	assert.Equal(t, tagBefore, db.Tag())
}

func TestAppendReloadsBeforeWriting(t *testing.T) {
	db, path := openTemp(t)
	appendRaw(t, path, `{"id":1,"a":"x"}`+"\n")

	// The public mutation path absorbs the foreign record first, so the
	// append lands cleanly after it.
	require.NoError(t, db.Delete(1))
	assert.Zero(t, db.Count())

	historical := db.RecordsIncludeDeleted()
	require.Len(t, historical, 1)
	assert.Equal(t, obj{"a": "x"}, historical[0].Doc)
}

func TestTwoHandlesInterleave(t *testing.T) {
	path := tempLog(t)

	a, err := Open[obj](path, Options[obj]{})
	require.NoError(t, err)
	defer a.Close()

	b, err := Open[obj](path, Options[obj]{})
	require.NoError(t, err)
	defer b.Close()

	id, err := a.Insert(obj{"a": "x"})
	require.NoError(t, err)

	require.NoError(t, b.Reload())
	data, ok := b.Get(id)
	require.True(t, ok)
	assert.Equal(t, obj{"a": "x"}, data.Doc)

	require.NoError(t, b.Delete(id))

	require.NoError(t, a.Reload())
	_, ok = a.Get(id)
	assert.False(t, ok)
}

func TestAppendFailsWhileTruncatedLinePending(t *testing.T) {
	db, path := openTemp(t)
	appendRaw(t, path, `{"id":1,"a":"`)
	sizeBefore := fileSize(t, path)

	require.Error(t, db.Delete(1))
	assert.Equal(t, sizeBefore, fileSize(t, path))
}

func TestTagChangesOnEveryAppend(t *testing.T) {
	db, _ := openTemp(t)
	seen := map[uint64]bool{db.Tag(): true}

	id, err := db.Insert(obj{"a": "x"})
	require.NoError(t, err)
	assert.False(t, seen[db.Tag()])
	seen[db.Tag()] = true

	require.NoError(t, db.Upsert(id, func(*obj) *obj { return &obj{"a": "y"} }))
	assert.False(t, seen[db.Tag()])
	seen[db.Tag()] = true

	require.NoError(t, db.Delete(id))
	assert.False(t, seen[db.Tag()])

	// Reads leave the tag alone.
	before := db.Tag()
	db.Records()
	db.RecordsIncludeDeleted()
	db.Count()
	assert.Equal(t, before, db.Tag())
}

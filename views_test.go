package jsonlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jsonlog/record"
)

func seedLog(t *testing.T, lines ...string) *Database[obj] {
	t.Helper()
	db, path := openTemp(t)
	for _, line := range lines {
		appendRaw(t, path, line+"\n")
	}
	require.NoError(t, db.Reload())
	return db
}

func ids(records []record.RecordData[obj]) []record.ID {
	out := make([]record.ID, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestRecordsLastWriterWins(t *testing.T) {
	db := seedLog(t,
		`{"id":1,"a":"old"}`,
		`{"id":1,"a":"new"}`,
	)

	live := db.Records()
	require.Len(t, live, 1)
	assert.Equal(t, obj{"a": "new"}, live[0].Doc)
}

func TestRecordsHidesTombstonedIDs(t *testing.T) {
	db := seedLog(t,
		`{"id":1,"a":"x"}`,
		`{"id":2,"a":"y"}`,
		`{"id":1,"deleted":true}`,
	)

	assert.Equal(t, []record.ID{2}, ids(db.Records()))
}

func TestRecordsAscendingOrder(t *testing.T) {
	db := seedLog(t,
		`{"id":3,"a":"c"}`,
		`{"id":1,"a":"a"}`,
		`{"id":2,"a":"b"}`,
	)

	assert.Equal(t, []record.ID{1, 2, 3}, ids(db.Records()))
}

func TestRecordsIncludeDeletedRecoversLastUpsert(t *testing.T) {
	db := seedLog(t,
		`{"id":1,"a":"first"}`,
		`{"id":1,"a":"second"}`,
		`{"id":1,"deleted":true}`,
	)

	assert.Empty(t, db.Records())

	historical := db.RecordsIncludeDeleted()
	require.Len(t, historical, 1)
	assert.Equal(t, obj{"a": "second"}, historical[0].Doc)
}

func TestTombstoneOnlyIDAppearsInNeitherView(t *testing.T) {
	db := seedLog(t,
		`{"id":9,"deleted":true}`,
		`{"id":1,"a":"x"}`,
	)

	assert.Equal(t, []record.ID{1}, ids(db.Records()))
	assert.Equal(t, []record.ID{1}, ids(db.RecordsIncludeDeleted()))
}

func TestGetOnLiveID(t *testing.T) {
	db := seedLog(t, `{"id":4,"a":"x"}`)

	data, ok := db.Get(4)
	require.True(t, ok)
	assert.Equal(t, record.ID(4), data.ID)
	assert.Equal(t, obj{"a": "x"}, data.Doc)
}

func TestGetOnTombstonedID(t *testing.T) {
	db := seedLog(t,
		`{"id":4,"a":"x"}`,
		`{"id":4,"deleted":true}`,
	)

	_, ok := db.Get(4)
	assert.False(t, ok)
}

func TestGetOnUnknownID(t *testing.T) {
	db := seedLog(t, `{"id":1,"a":"x"}`)

	_, ok := db.Get(42)
	assert.False(t, ok)
}

func TestCountIgnoresSupersededAndDeleted(t *testing.T) {
	db := seedLog(t,
		`{"id":1,"a":"x"}`,
		`{"id":1,"a":"y"}`,
		`{"id":2,"a":"z"}`,
		`{"id":3,"a":"w"}`,
		`{"id":3,"deleted":true}`,
	)

	assert.Equal(t, 2, db.Count())
}

package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jsonlog/record"
)

func TestFilterMatchesOnDocumentFields(t *testing.T) {
	flt, err := compileFilter(`doc.done == true`)
	require.NoError(t, err)

	assert.True(t, flt.Match(record.RecordData[Object]{ID: 1, Doc: Object{"done": true}}))
	assert.False(t, flt.Match(record.RecordData[Object]{ID: 2, Doc: Object{"done": false}}))
}

func TestFilterMatchesOnID(t *testing.T) {
	flt, err := compileFilter(`id > 2`)
	require.NoError(t, err)

	assert.False(t, flt.Match(record.RecordData[Object]{ID: 2, Doc: Object{}}))
	assert.True(t, flt.Match(record.RecordData[Object]{ID: 3, Doc: Object{}}))
}

func TestFilterDropsRecordsThatError(t *testing.T) {
	flt, err := compileFilter(`doc.missing == "x"`)
	require.NoError(t, err)

	assert.False(t, flt.Match(record.RecordData[Object]{ID: 1, Doc: Object{"other": "y"}}))
}

func TestFilterDropsNonBooleanResults(t *testing.T) {
	flt, err := compileFilter(`doc.title`)
	require.NoError(t, err)

	assert.False(t, flt.Match(record.RecordData[Object]{ID: 1, Doc: Object{"title": "x"}}))
}

func TestFilterSelectPreservesOrder(t *testing.T) {
	flt, err := compileFilter(`"keep" in doc`)
	require.NoError(t, err)

	records := []record.RecordData[Object]{
		{ID: 1, Doc: Object{"keep": 1}},
		{ID: 2, Doc: Object{"drop": 1}},
		{ID: 3, Doc: Object{"keep": 2}},
	}
	got := flt.Select(records)
	require.Len(t, got, 2)
	assert.Equal(t, record.ID(1), got[0].ID)
	assert.Equal(t, record.ID(3), got[1].ID)
}

func TestCompileRejectsEmptyAndMalformedExpressions(t *testing.T) {
	_, err := compileFilter("")
	require.Error(t, err)

	_, err = compileFilter("   ")
	require.Error(t, err)

	_, err = compileFilter(`doc ==`)
	require.Error(t, err)

	_, err = compileFilter(`unknown_var == 1`)
	require.Error(t, err)
}

func TestTransformProducesReplacementDocument(t *testing.T) {
	tr, err := compileTransform(`{"title": doc.title, "n": id}`)
	require.NoError(t, err)

	doc, err := tr.Apply(record.RecordData[Object]{ID: 7, Doc: Object{"title": "x"}})
	require.NoError(t, err)
	assert.Equal(t, "x", doc["title"])
	assert.EqualValues(t, 7, doc["n"])
}

func TestTransformStripsReservedKeys(t *testing.T) {
	tr, err := compileTransform(`{"id": 99, "deleted": true, "title": "x"}`)
	require.NoError(t, err)

	doc, err := tr.Apply(record.RecordData[Object]{ID: 1, Doc: Object{}})
	require.NoError(t, err)
	assert.NotContains(t, doc, "id")
	assert.NotContains(t, doc, "deleted")
	assert.Equal(t, "x", doc["title"])
}

func TestTransformRejectsNonObjectResult(t *testing.T) {
	tr, err := compileTransform(`[1, 2, 3]`)
	require.NoError(t, err)

	_, err = tr.Apply(record.RecordData[Object]{ID: 1, Doc: Object{}})
	require.Error(t, err)
}

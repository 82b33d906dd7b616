package pronote

import (
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	src "github.com/Spok95/curriculum-sync/internal/source/pronote"
)

func TestIntegrationMetadata(t *testing.T) {
	var r src.Response
	require.NoError(t, gojson.Unmarshal([]byte(`{"success":true,"data":{
		"evaluations":[{"subject":"Maths","grade":"A"}],
		"gradebook":{"t1":{"avg":14}},
		"notebook":[{"type":"retard"}]}}`), &r))

	existing := []byte(`{"evaluations": [{"grade": "A", "subject": "Maths"}], "custom": 1}`)
	meta, changed, err := integrationMetadata(existing, &r, syncData{Homework: 2, Lessons: 5})
	require.NoError(t, err)
	assert.False(t, changed, "same evaluations in another key order")

	var got map[string]any
	require.NoError(t, gojson.Unmarshal(meta, &got))
	assert.EqualValues(t, 1, got["custom"])
	assert.NotNil(t, got["gradebook"])
	assert.NotNil(t, got["notebook"])
	assert.NotNil(t, got["carnet_correspondance"])
	sd := got["sync_data"].(map[string]any)
	assert.EqualValues(t, 2, sd["homework"])
	assert.EqualValues(t, 5, sd["lessons"])
	assert.EqualValues(t, 0, sd["absences"])

	_, changed, err = integrationMetadata(nil, &r, syncData{})
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestIntegrationMetadataLegacy(t *testing.T) {
	var r src.Response
	require.NoError(t, gojson.Unmarshal([]byte(`{"success":true,
		"grades":[{"n":12}],"carnet_correspondance":[{"m":"x"}]}`), &r))

	meta, changed, err := integrationMetadata(nil, &r, syncData{})
	require.NoError(t, err)
	assert.True(t, changed)

	var got map[string]any
	require.NoError(t, gojson.Unmarshal(meta, &got))
	assert.NotNil(t, got["notes"])
	assert.NotNil(t, got["carnet_correspondance"])
	_, hasNotebook := got["notebook"]
	assert.False(t, hasNotebook)
	_, hasEval := got["evaluations"]
	assert.False(t, hasEval)
}

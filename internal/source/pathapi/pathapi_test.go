package pathapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/curriculum-sync/internal/ingest"
	"github.com/Spok95/curriculum-sync/internal/source"
)

const examplePayload = `{"status":"success","data":{"classrooms":[{"name":"6ème","subjects":[{"name":"Mathématiques","chapters":[{"title":"Fractions","subchapters":[{"title":"Addition de fractions"}]}]}]}]}}`

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(source.New("path-api", source.Options{}), srv.URL+"/classrooms", srv.URL+"/chapters")
}

func TestFetchClassrooms(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = io.WriteString(w, examplePayload)
	})

	got, err := c.FetchClassrooms(context.Background())
	require.NoError(t, err)
	want := []ingest.RawNode{{
		Name: "6ème",
		Children: []ingest.RawNode{{
			Name: "Mathématiques",
			Children: []ingest.RawNode{{
				Name:     "Fractions",
				Children: []ingest.RawNode{{Name: "Addition de fractions"}},
			}},
		}},
	}}
	assert.Equal(t, want, got)
}

func TestFetchClassrooms_InvalidEnvelope(t *testing.T) {
	for name, body := range map[string]string{
		"status_error":       `{"status":"error","data":{"classrooms":[]}}`,
		"missing_classrooms": `{"status":"success","data":{"other":1}}`,
	} {
		t.Run(name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) { _, _ = io.WriteString(w, body) })
			_, err := c.FetchClassrooms(context.Background())
			assert.True(t, source.IsFetchError(err), "err: %v", err)
		})
	}
}

func TestFetchPrompts(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, map[string]string{"classroom": "CM1", "subject": "Français"}, req)
		_, _ = io.WriteString(w, `{"status":"success","data":{"chapters":[
			{"id":1,"title":"Grammaire","prompts":["p1"],"subChapters":[
				{"id":11,"title":"Le nom","prompts":{"intro":"x"}},
				{"id":12,"title":"Le verbe","prompts":null}
			]},
			{"id":2,"title":"Lecture"}
		]}}`)
	})

	got, err := c.FetchPrompts(context.Background(), "CM1", "Français")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Grammaire", got[0].Name)
	assert.JSONEq(t, `["p1"]`, string(got[0].Payload))
	require.Len(t, got[0].Children, 2)
	assert.JSONEq(t, `{"intro":"x"}`, string(got[0].Children[0].Payload))
	assert.Nil(t, got[0].Children[1].Payload)
	assert.Nil(t, got[1].Payload)
	assert.Empty(t, got[1].Children)
}

func TestFetchPrompts_HTTPError(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	})
	_, err := c.FetchPrompts(context.Background(), "CM1", "Maths")
	var fe *source.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusInternalServerError, fe.StatusCode)
}

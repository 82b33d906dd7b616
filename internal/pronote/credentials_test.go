package pronote

import (
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	src "github.com/Spok95/curriculum-sync/internal/source/pronote"
)

func TestRotateCredentials(t *testing.T) {
	old := []byte(`{"pronote_url":"https://demo.index-education.net/pronote/eleve.html",
		"username":"eleve","password":"secret","deviceUUID":"dev-1","extra":"keep"}`)
	tok := src.Token{Kind: 0, URL: "https://other/pronote", Username: "eleve2", Token: "tok-2"}

	out, err := RotateCredentials(old, tok)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, gojson.Unmarshal(out, &got))
	assert.Equal(t, "https://demo.index-education.net/pronote/eleve.html", got["pronote_url"])
	assert.Equal(t, "https://other/pronote", got["base_url"])
	assert.Equal(t, "eleve2", got["username"])
	assert.Equal(t, "tok-2", got["password"])
	assert.Equal(t, "dev-1", got["uuid"])
	assert.Equal(t, "dev-1", got["deviceUUID"])
	assert.Equal(t, "student", got["space"])
	assert.EqualValues(t, 6, got["kind"])
	assert.Equal(t, "keep", got["extra"])

	ri, ok := got["refresh_info"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "tok-2", ri["token"])
	assert.Equal(t, "https://other/pronote", ri["url"])
}

func TestRotateCredentialsFromEmpty(t *testing.T) {
	out, err := RotateCredentials(nil, src.Token{Kind: 3, URL: "https://u", Username: "a", Token: "t"})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, gojson.Unmarshal(out, &got))
	assert.Equal(t, "https://u", got["pronote_url"])
	assert.EqualValues(t, 3, got["kind"])
	_, hasUUID := got["uuid"]
	assert.False(t, hasUUID)
}

func TestUsableCredentials(t *testing.T) {
	assert.False(t, usableCredentials(nil))
	assert.False(t, usableCredentials([]byte("null")))
	assert.False(t, usableCredentials([]byte(" {} ")))
	assert.True(t, usableCredentials([]byte(`{"username":"x"}`)))
}

package curriculum

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/curriculum-sync/internal/ingest"
	"github.com/Spok95/curriculum-sync/internal/normalize"
	"github.com/Spok95/curriculum-sync/internal/source"
	"github.com/Spok95/curriculum-sync/internal/source/pathapi"
)

func TestPromptItemsUsage(t *testing.T) {
	e := ingest.NewEngine(normalize.Normalizer{}, nil)
	cases := []PromptSelection{
		{},
		{Classroom: "6ème"},
		{Subject: "Mathématiques"},
		{Classroom: "  ", Subject: "Mathématiques"},
	}
	for _, sel := range cases {
		_, err := PromptItems(context.Background(), nil, nil, e, sel, false)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUsage), "%+v: %v", sel, err)
	}
}

func TestPathItemsFetchFailureIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","message":"maintenance"}`))
	}))
	defer srv.Close()

	client := pathapi.New(source.New("path", source.Options{}), srv.URL, srv.URL)
	_, err := PathItems(context.Background(), nil, client, ingest.NewEngine(PathNormalizer, nil), false)
	require.Error(t, err)
	assert.True(t, source.IsFetchError(err))
	assert.Contains(t, err.Error(), "maintenance")
}

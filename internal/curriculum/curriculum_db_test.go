//go:build testutil
// +build testutil

package curriculum_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/curriculum-sync/internal/curriculum"
	"github.com/Spok95/curriculum-sync/internal/db"
	"github.com/Spok95/curriculum-sync/internal/ingest"
	"github.com/Spok95/curriculum-sync/internal/models"
	"github.com/Spok95/curriculum-sync/internal/source"
	"github.com/Spok95/curriculum-sync/internal/source/pathapi"
	"github.com/Spok95/curriculum-sync/internal/testutil/testdb"
)

const classroomsBody = `{"status":"success","data":{"classrooms":[{"name":"6ème","subjects":[{"name":"Mathématiques",
	"chapters":[{"title":"Fractions","subchapters":[{"title":"Addition de fractions"}]}]}]}]}}`

const promptsBody = `{"status":"success","data":{"chapters":[
	{"id":1,"title":"Fractions","prompts":["Explique une fraction"],
	 "subChapters":[{"id":2,"title":"Addition de fractions","prompts":["Additionne"]},{"id":3,"title":"Inconnue","prompts":["x"]}]},
	{"id":4,"title":"Géométrie","prompts":["y"]}]}}`

func newAPI(t *testing.T) *pathapi.Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/classrooms", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(classroomsBody)) })
	mux.HandleFunc("/chapters", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(promptsBody)) })
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return pathapi.New(source.New("path", source.Options{}), srv.URL+"/classrooms", srv.URL+"/chapters")
}

func run(ctx context.Context, h *testdb.DBHandle, op string, items []ingest.Item[*db.Session], force bool) *ingest.Result {
	o := &ingest.Orchestrator[*db.Session]{Op: op, Session: db.NewSession(h.DB), Locks: ingest.NewRunLock()}
	return o.Run(ctx, items, force)
}

func TestLoadPathThenPrompts(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	require.NoError(t, err)
	defer h.Close()

	api := newAPI(t)
	engine := ingest.NewEngine(curriculum.PathNormalizer, nil)

	items, err := curriculum.PathItems(ctx, h.DB, api, engine, false)
	require.NoError(t, err)
	res := run(ctx, h, curriculum.OpLoadPath, items, false)
	require.False(t, res.Failed(), "errors: %#v", res.Errors)
	for _, kind := range []string{"classrooms", "subjects", "chapters", "subchapters"} {
		assert.Equal(t, 1, res.Stats[kind].Created, kind)
	}

	// второй прогон ничего не меняет
	items, err = curriculum.PathItems(ctx, h.DB, api, engine, false)
	require.NoError(t, err)
	res = run(ctx, h, curriculum.OpLoadPath, items, false)
	for kind, tally := range res.Stats {
		assert.Zero(t, tally.Created, kind)
		assert.Zero(t, tally.Updated, kind)
	}

	states, err := db.GetSyncStates(ctx, h.DB, []string{"path:6ème"})
	require.NoError(t, err)
	assert.NotNil(t, states["path:6ème"].LastSuccessAt, "sync_state not written")

	pitems, err := curriculum.PromptItems(ctx, h.DB, api, engine,
		curriculum.PromptSelection{Classroom: "6ème", Subject: "Mathématiques"}, false)
	require.NoError(t, err)
	res = run(ctx, h, curriculum.OpLoadPrompt, pitems, false)
	require.False(t, res.Failed(), "errors: %#v", res.Errors)
	assert.Equal(t, ingest.Tally{Updated: 1, Skipped: 1}, res.Stats["chapters"])
	assert.Equal(t, ingest.Tally{Updated: 1, Skipped: 1}, res.Stats["subchapters"])

	n, err := db.CountNodes(ctx, h.DB, models.LevelChapter)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "load-prompts must not create chapters")

	_, err = curriculum.PromptItems(ctx, h.DB, api, engine,
		curriculum.PromptSelection{Classroom: "5ème", Subject: "Mathématiques"}, false)
	assert.Error(t, err, "unknown pair is fatal")
}

func TestPathItems_ReloadsSyncStateUnderLock(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	require.NoError(t, err)
	defer h.Close()

	api := newAPI(t)
	engine := ingest.NewEngine(curriculum.PathNormalizer, nil)

	// список собран до того, как параллельный запуск отметил класс
	items, err := curriculum.PathItems(ctx, h.DB, api, engine, false)
	require.NoError(t, err)
	require.NoError(t, db.MarkSyncSuccess(ctx, h.DB, "path:6ème", "other-run", time.Now(), nil))

	o := &ingest.Orchestrator[*db.Session]{
		Op: curriculum.OpLoadPath, Session: db.NewSession(h.DB), Locks: ingest.NewRunLock(), Freshness: time.Hour,
	}
	res := o.Run(ctx, items, false)
	require.Len(t, res.Items, 1)
	assert.Equal(t, ingest.ItemSkipped, res.Items[0].Status)

	n, err := db.CountNodes(ctx, h.DB, models.LevelClassroom)
	require.NoError(t, err)
	assert.Zero(t, n)
}

package pronote

import (
	"testing"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/curriculum-sync/internal/ingest"
	"github.com/Spok95/curriculum-sync/internal/models"
	src "github.com/Spok95/curriculum-sync/internal/source/pronote"
)

func paris(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skip("no tzdata")
	}
	return loc
}

func decode[T any](t *testing.T, raw string) T {
	t.Helper()
	var v T
	require.NoError(t, gojson.Unmarshal([]byte(raw), &v))
	return v
}

func TestBuilderHomework(t *testing.T) {
	b := builder{loc: paris(t), studentID: 7, integrationID: 3}

	t.Run("date_only", func(t *testing.T) {
		h := decode[src.Homework](t, `{"id":"hw1","date":"2025-03-10","subject":"Maths","description":" Ex 3 ","done":true}`)
		p, err := b.homework(h)
		require.NoError(t, err)
		assert.Equal(t, "Maths - 10/03/2025", p.Title)
		assert.Equal(t, "Ex 3", p.Description)
		assert.Equal(t, models.StatusCompleted, p.Status)
		assert.Equal(t, models.PlanningHomework, p.Type)
		assert.Equal(t, int64(7), p.StudentID)
		require.NotNil(t, p.IntegrationID)
		assert.Equal(t, int64(3), *p.IntegrationID)
		require.NotNil(t, p.ReferenceID)
		assert.Equal(t, "hw1", *p.ReferenceID)
		assert.Equal(t, "23:59:59", p.EndDate.Format("15:04:05"))
		assert.Equal(t, p.StartDate.YearDay(), p.EndDate.YearDay())

		var meta map[string]any
		require.NoError(t, gojson.Unmarshal(p.Metadata, &meta))
		assert.Equal(t, "hw1", meta["pronote_id"])
		assert.Equal(t, "Maths", meta["pronote_subject"])
		assert.NotNil(t, meta["pronote_raw"])
	})

	t.Run("timed_and_default_subject", func(t *testing.T) {
		h := decode[src.Homework](t, `{"id":5,"date":"2025-03-10T07:30:00Z","subject":"N/A"}`)
		p, err := b.homework(h)
		require.NoError(t, err)
		// 07:30 UTC = 08:30 à Paris en mars
		assert.Equal(t, "Devoir - 08:30", p.Title)
		assert.Equal(t, models.StatusToDo, p.Status)
		assert.Equal(t, "5", *p.ReferenceID)
	})

	t.Run("missing_id", func(t *testing.T) {
		_, err := b.homework(src.Homework{Date: "2025-03-10"})
		var ve *ingest.ValidationError
		require.ErrorAs(t, err, &ve)
	})

	t.Run("bad_date", func(t *testing.T) {
		_, err := b.homework(src.Homework{ID: "x", Date: "demain"})
		var ve *ingest.ValidationError
		require.ErrorAs(t, err, &ve)
	})
}

func TestBuilderLesson(t *testing.T) {
	b := builder{loc: paris(t), studentID: 7, integrationID: 3}

	l := decode[src.Lesson](t, `{"id":"l1","subject":"Histoire","start":"2025-03-10T08:00:00Z",
		"end":"2025-03-10T09:00:00Z","room":"B12","group":"4A","raw":{"teacher":{"name":"M. Dupont"}}}`)
	p, err := b.lesson(l)
	require.NoError(t, err)
	assert.Equal(t, "Histoire - 09:00-10:00", p.Title)
	assert.Equal(t, "Salle: B12 | Professeur: M. Dupont | Groupe: 4A", p.Description)
	assert.Equal(t, models.PlanningCourse, p.Type)
	assert.Equal(t, models.StatusToDo, p.Status)

	t.Run("default_end_and_subject", func(t *testing.T) {
		l := decode[src.Lesson](t, `{"id":"l2","start":"2025-03-10 14:00:00"}`)
		p, err := b.lesson(l)
		require.NoError(t, err)
		assert.Equal(t, "Cours - 14:00-15:00", p.Title)
		assert.Equal(t, "", p.Description)
		assert.Equal(t, time.Hour, p.EndDate.Sub(p.StartDate))
	})
}

func TestBuilderAbsence(t *testing.T) {
	b := builder{loc: paris(t), studentID: 7, integrationID: 3}

	a := decode[src.Absence](t, `{"id":"a1","date":"2025-01-02","reason":"Malade"}`)
	p, err := b.absence(a)
	require.NoError(t, err)
	assert.Equal(t, "Absence", p.Title)
	assert.Equal(t, "Malade", p.Description)
	assert.Equal(t, models.PlanningOther, p.Type)
	assert.Equal(t, models.StatusCompleted, p.Status)
	assert.Nil(t, p.ReferenceID)
	assert.Equal(t, 24*time.Hour, p.EndDate.Sub(p.StartDate))

	_, err = b.absence(src.Absence{ID: "a2"})
	var ve *ingest.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestMergeJSON(t *testing.T) {
	out, err := mergeJSON([]byte(`{"a":1,"pronote_id":"old"}`), []byte(`{"pronote_id":"new","b":true}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1,"b":true,"pronote_id":"new"}`, string(out))

	out, err = mergeJSON(nil, []byte(`{"x":1}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1}`, string(out))

	out, err = mergeJSON([]byte(`[1,2]`), []byte(`{"x":1}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1}`, string(out))
}

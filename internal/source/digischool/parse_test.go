package digischool

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/curriculum-sync/internal/ingest"
	"github.com/Spok95/curriculum-sync/internal/source"
)

const base = "https://www.digischool.fr"

const indexHTML = `<html><body>
<a href="/primaire/cm1">Réviser</a>
<a href="/primaire/cm2"> Réviser </a>
<a href="/primaire/cp">Découvrir</a>
</body></html>`

const sectionHTML = `<html><body>
<h1 class="tw-headings-h3-36-regular">CM1 Cours et Exercices</h1>
<ul><li>Accueil</li><li class="after:tw-inline-block">Primaire</li></ul>
<a class="tw-w-56" href="/primaire/cm1/francais"><h3>Français</h3><h3>ignored</h3></a>
<a class="tw-w-56" href="/primaire/cm1/mathematiques"><div><h3>Mathématiques</h3></div></a>
<a class="tw-w-56" href="/primaire/cm1/vide"><span>no title</span></a>
</body></html>`

const subjectHTML = `<html><body>
<div id="chapitre-1">
  <h2>Grammaire</h2>
  <a href="/cours/le-nom"><span class="tw-ml-1">Cours</span><p class="tw-body-s-16-bold">I. Le nom</p></a>
  <a href="/quiz/le-nom"><span class="tw-ml-1">Quiz</span><p class="tw-body-s-16-bold">Quiz le nom</p></a>
  <a href="https://cdn.example/audio"><span class="tw-ml-1">Cours</span><p class="tw-body-s-16-bold">Cours audio - Le verbe</p><img alt="premium"></a>
</div>
<div id="chapitre-2">
  <a href="/cours/sans-titre">Lecture suivie</a>
</div>
<div id="chapitre-4"><h2>Unreachable</h2></div>
</body></html>`

const legacySubjectHTML = `<html><body>
<div class="tw-min-w-full tw-pt-4">
  <h2>Les nombres</h2>
  <a href="/cours/nombres"><span class="tw-ml-1">Cours</span><p class="tw-body-s-16-bold">Compter jusqu'à 100</p><span class="tw-text-premium-dark">premium</span></a>
</div>
<div class="tw-min-w-full tw-pt-4">
  <h2>Géométrie</h2>
</div>
</body></html>`

func doc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return d
}

func TestParseSections(t *testing.T) {
	got := parseSections(doc(t, indexHTML), base)
	assert.Equal(t, []Section{
		{Text: "Réviser", Href: base + "/primaire/cm1", Level: "cm1"},
		{Text: "Réviser", Href: base + "/primaire/cm2", Level: "cm2"},
	}, got)
}

func TestParseSubjectPages(t *testing.T) {
	got := parseSubjectPages(doc(t, sectionHTML), base)
	assert.Equal(t, []SubjectPage{
		{Classroom: "CM1", Category: "Primaire", Subject: "Français", Href: base + "/primaire/cm1/francais"},
		{Classroom: "CM1", Category: "Primaire", Subject: "Mathématiques", Href: base + "/primaire/cm1/mathematiques"},
	}, got)
}

func TestParseChapters(t *testing.T) {
	got := parseChapters(doc(t, subjectHTML), base)
	require.Len(t, got, 2, "numbering stops at the first gap")

	assert.Equal(t, "Grammaire", got[0].Title)
	require.Len(t, got[0].Links, 3)
	assert.Equal(t, Link{Type: "Cours", Title: "I. Le nom", Href: base + "/cours/le-nom"}, got[0].Links[0])
	assert.Equal(t, "Quiz", got[0].Links[1].Type)
	assert.Equal(t, Link{Type: "Cours", Title: "Le verbe", Href: "https://cdn.example/audio", Premium: true}, got[0].Links[2])

	assert.Equal(t, "Chapitre 2", got[1].Title)
	require.Len(t, got[1].Links, 1)
	assert.Equal(t, "Lecture suivie", got[1].Links[0].Title)
}

func TestParseChapters_LegacyLayout(t *testing.T) {
	got := parseChapters(doc(t, legacySubjectHTML), base)
	require.Len(t, got, 2)
	assert.Equal(t, "Les nombres", got[0].Title)
	require.Len(t, got[0].Links, 1)
	assert.True(t, got[0].Links[0].Premium)
	assert.Equal(t, "Géométrie", got[1].Title)
	assert.Empty(t, got[1].Links)
}

func TestBuildTree(t *testing.T) {
	page := SubjectPage{Classroom: "CM1", Subject: "Français"}
	tree := BuildTree(page, parseChapters(doc(t, subjectHTML), base))

	want := ingest.RawNode{Name: "CM1", Children: []ingest.RawNode{{
		Name: "Français",
		Children: []ingest.RawNode{
			{Name: "Grammaire", Children: []ingest.RawNode{{Name: "Le nom"}, {Name: "Le verbe"}}},
			{Name: "Chapitre 2", Children: []ingest.RawNode{{Name: "Lecture suivie"}}},
		},
	}}}
	assert.Equal(t, want, tree)
}

func TestBuildTree_KeepsRomanNumeralsInTitles(t *testing.T) {
	page := SubjectPage{Classroom: "CM2", Subject: "Histoire"}
	chapters := []Chapter{{Title: "Les rois", Links: []Link{
		{Type: "Cours", Title: "Le règne de Louis XIV."},
		{Type: "Cours", Title: "Le règne de Louis XVI."},
		{Type: "Cours", Title: "MI) Les nombres"},
		{Type: "Quiz", Title: "Quiz Louis XIV"},
	}}}

	tree := BuildTree(page, chapters)

	subs := tree.Children[0].Children[0].Children
	require.Len(t, subs, 3)
	assert.Equal(t, "Le règne de Louis XIV.", subs[0].Name)
	assert.Equal(t, "Le règne de Louis XVI.", subs[1].Name)
	assert.Equal(t, "MI) Les nombres", subs[2].Name)
}

func TestScraper_EndToEnd(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/primaire", func(w http.ResponseWriter, r *http.Request) { _, _ = io.WriteString(w, indexHTML) })
	mux.HandleFunc("/primaire/cm1", func(w http.ResponseWriter, r *http.Request) { _, _ = io.WriteString(w, sectionHTML) })
	mux.HandleFunc("/primaire/cm1/francais", func(w http.ResponseWriter, r *http.Request) { _, _ = io.WriteString(w, subjectHTML) })
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := New(source.New("digischool", source.Options{}), srv.URL+"/")
	ctx := context.Background()

	sections, err := s.Sections(ctx, "/primaire")
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, srv.URL+"/primaire/cm1", sections[0].Href)

	pages, err := s.SubjectPages(ctx, sections[0].Href)
	require.NoError(t, err)
	require.Len(t, pages, 2)

	tree, err := s.Subject(ctx, pages[0])
	require.NoError(t, err)
	assert.Equal(t, "CM1", tree.Name)
	assert.Equal(t, 7, tree.Count())

	_, err = s.Subject(ctx, pages[1])
	assert.True(t, source.IsFetchError(err), "missing page: %v", err)
}

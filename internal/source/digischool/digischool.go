// Package digischool скрейпер программы digischool.fr: индекс раздела ->
// страницы уровней -> страницы предметов с главами и уроками.
package digischool

import (
	"context"
	"strings"

	"github.com/Spok95/curriculum-sync/internal/ingest"
	"github.com/Spok95/curriculum-sync/internal/source"
)

type Scraper struct {
	http    *source.Client
	baseURL string
}

func New(c *source.Client, baseURL string) *Scraper {
	return &Scraper{http: c, baseURL: strings.TrimRight(baseURL, "/")}
}

// Sections ссылки "Réviser" индексной страницы раздела (например /primaire).
func (s *Scraper) Sections(ctx context.Context, path string) ([]Section, error) {
	doc, err := s.http.FetchPage(ctx, s.baseURL+path)
	if err != nil {
		return nil, err
	}
	return parseSections(doc, s.baseURL), nil
}

// SubjectPages карточки предметов страницы уровня.
func (s *Scraper) SubjectPages(ctx context.Context, sectionURL string) ([]SubjectPage, error) {
	doc, err := s.http.FetchPage(ctx, sectionURL)
	if err != nil {
		return nil, err
	}
	return parseSubjectPages(doc, s.baseURL), nil
}

// Subject загружает страницу предмета и строит дерево от класса.
func (s *Scraper) Subject(ctx context.Context, page SubjectPage) (ingest.RawNode, error) {
	doc, err := s.http.FetchPage(ctx, page.Href)
	if err != nil {
		return ingest.RawNode{}, err
	}
	return BuildTree(page, parseChapters(doc, s.baseURL)), nil
}

// BuildTree: каждый урок (кроме Quiz) становится подглавой под своим
// названием, чистку выполняет нормализатор движка.
func BuildTree(page SubjectPage, chapters []Chapter) ingest.RawNode {
	subject := ingest.RawNode{Name: page.Subject}
	for _, ch := range chapters {
		cn := ingest.RawNode{Name: ch.Title}
		for _, l := range ch.Links {
			if l.Type == linkTypeQuiz || strings.TrimSpace(l.Title) == "" {
				continue
			}
			cn.Children = append(cn.Children, ingest.RawNode{Name: l.Title})
		}
		subject.Children = append(subject.Children, cn)
	}
	return ingest.RawNode{Name: page.Classroom, Children: []ingest.RawNode{subject}}
}

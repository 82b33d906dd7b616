package curriculum

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Spok95/curriculum-sync/internal/db"
	"github.com/Spok95/curriculum-sync/internal/ingest"
	"github.com/Spok95/curriculum-sync/internal/models"
	"github.com/Spok95/curriculum-sync/internal/normalize"
	"github.com/Spok95/curriculum-sync/internal/source/digischool"
	"github.com/Spok95/curriculum-sync/internal/source/pathapi"
)

// ErrUsage неверные аргументы команды.
var ErrUsage = errors.New("usage")

// Нормализаторы по источникам: API программы отдаёт уже чистые имена с
// диакритикой, страницы digischool транслитерируются.
var (
	PathNormalizer   = normalize.Normalizer{}
	ScrapeNormalizer = normalize.Normalizer{Transliterate: true}
)

// PathItems один запрос дерева, затем по элементу на класс. Ошибка
// получения дерева фатальна для запуска.
func PathItems(ctx context.Context, pool *sql.DB, client *pathapi.Client, e *ingest.Engine, force bool) ([]ingest.Item[*db.Session], error) {
	classrooms, err := client.FetchClassrooms(ctx)
	if err != nil {
		return nil, err
	}
	scopes := make([]string, len(classrooms))
	for i, c := range classrooms {
		scopes[i] = "path:" + PathNormalizer.Normalize(c.Name)
	}
	states, err := db.GetSyncStates(ctx, pool, scopes)
	if err != nil {
		return nil, fmt.Errorf("load sync state: %w", err)
	}

	items := make([]ingest.Item[*db.Session], 0, len(classrooms))
	for i, c := range classrooms {
		items = append(items, &pathItem{
			state:  newState(scopes[i], states, pool),
			engine: e,
			node:   c,
			force:  force,
		})
	}
	return items, nil
}

// PromptSelection: пара класс/предмет либо All.
type PromptSelection struct {
	Classroom string
	Subject   string
	All       bool
}

// PromptItems пары для загрузки промптов. Неизвестная пара фатальна.
func PromptItems(ctx context.Context, pool *sql.DB, client *pathapi.Client, e *ingest.Engine, sel PromptSelection, force bool) ([]ingest.Item[*db.Session], error) {
	classroom := PathNormalizer.Normalize(sel.Classroom)
	subject := PathNormalizer.Normalize(sel.Subject)
	if !sel.All && (classroom == "" || subject == "") {
		return nil, fmt.Errorf("%w: give classroom and subject, or --all", ErrUsage)
	}

	var pairs []models.SubjectPair
	if sel.All {
		all, err := db.ListSubjectPairs(ctx, pool)
		if err != nil {
			return nil, fmt.Errorf("list subject pairs: %w", err)
		}
		if len(all) == 0 {
			return nil, errors.New("no classroom/subject pairs in store, run load-path first")
		}
		pairs = all
	} else {
		p, err := db.FindSubjectPair(ctx, pool, classroom, subject)
		if err != nil {
			return nil, fmt.Errorf("find subject pair: %w", err)
		}
		if p == nil {
			return nil, fmt.Errorf("unknown classroom/subject %q / %q", classroom, subject)
		}
		pairs = append(pairs, *p)
	}

	scopes := make([]string, len(pairs))
	for i, p := range pairs {
		scopes[i] = "prompts:" + p.ClassroomName + "/" + p.SubjectName
	}
	states, err := db.GetSyncStates(ctx, pool, scopes)
	if err != nil {
		return nil, fmt.Errorf("load sync state: %w", err)
	}

	items := make([]ingest.Item[*db.Session], 0, len(pairs))
	for i, p := range pairs {
		items = append(items, &promptItem{
			state:  newState(scopes[i], states, pool),
			engine: e,
			client: client,
			pair:   p,
			force:  force,
		})
	}
	return items, nil
}

// ScrapeItems обходит индексы разделов и страницы уровней; каждая
// карточка предмета становится элементом. Сбой обхода индекса фатален.
// wait вызывается перед каждой загрузкой индекса, может быть nil.
func ScrapeItems(ctx context.Context, pool *sql.DB, s *digischool.Scraper, e *ingest.Engine, sections []string, wait ingest.Waiter, force bool) ([]ingest.Item[*db.Session], error) {
	pause := func() error {
		if wait == nil {
			return nil
		}
		return wait.Wait(ctx)
	}

	var pages []digischool.SubjectPage
	for _, path := range sections {
		if err := pause(); err != nil {
			return nil, err
		}
		secs, err := s.Sections(ctx, path)
		if err != nil {
			return nil, err
		}
		for _, sec := range secs {
			if err := pause(); err != nil {
				return nil, err
			}
			ps, err := s.SubjectPages(ctx, sec.Href)
			if err != nil {
				return nil, err
			}
			pages = append(pages, ps...)
		}
	}

	scopes := make([]string, len(pages))
	for i, p := range pages {
		scopes[i] = "digischool:" + ScrapeNormalizer.Normalize(p.Classroom) + "/" + ScrapeNormalizer.Normalize(p.Subject)
	}
	states, err := db.GetSyncStates(ctx, pool, scopes)
	if err != nil {
		return nil, fmt.Errorf("load sync state: %w", err)
	}

	items := make([]ingest.Item[*db.Session], 0, len(pages))
	for i, p := range pages {
		items = append(items, &scrapeItem{
			state:   newState(scopes[i], states, pool),
			engine:  e,
			scraper: s,
			page:    p,
			force:   force,
		})
	}
	return items, nil
}

// Package curriculum элементы работы загрузки программы: дерево из API,
// промпты по парам класс/предмет, скрейпинг digischool.
package curriculum

import (
	"context"
	"database/sql"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/Spok95/curriculum-sync/internal/ctxutil"
	"github.com/Spok95/curriculum-sync/internal/db"
	"github.com/Spok95/curriculum-sync/internal/ingest"
	"github.com/Spok95/curriculum-sync/internal/models"
	"github.com/Spok95/curriculum-sync/internal/source/digischool"
	"github.com/Spok95/curriculum-sync/internal/source/pathapi"
)

const (
	OpLoadPath   = "load-path"
	OpLoadPrompt = "load-prompts"
	OpScrape     = "scrape-digischool"
)

// state отметки свежести элемента в sync_state.
type state struct {
	scope string
	last  *time.Time
	pool  *sql.DB
	stats ingest.Stats
}

func newState(scope string, states map[string]models.SyncState, pool *sql.DB) state {
	st := state{scope: scope, pool: pool}
	if s, ok := states[scope]; ok {
		st.last = s.LastSuccessAt
	}
	return st
}

func (s *state) Key() string { return s.scope }

func (s *state) LastSyncAt() *time.Time { return s.last }

// Reload отметка из sync_state на момент захвата RunLock.
func (s *state) Reload(ctx context.Context, sess *db.Session) (*time.Time, error) {
	states, err := db.GetSyncStates(ctx, sess.DB(), []string{s.scope})
	if err != nil {
		return s.last, err
	}
	if st, ok := states[s.scope]; ok {
		s.last = st.LastSuccessAt
	}
	return s.last, nil
}

func (s *state) MarkSynced(ctx context.Context, sess *db.Session, at time.Time) error {
	tx, err := sess.Tx(ctx)
	if err != nil {
		return err
	}
	stats, err := gojson.Marshal(s.stats)
	if err != nil {
		return err
	}
	runID, _ := ctxutil.RunID(ctx)
	if err := db.MarkSyncSuccess(ctx, tx, s.scope, runID, at, stats); err != nil {
		return err
	}
	s.last = &at
	return nil
}

// RecordFailure пишет в пул, вне отброшенной транзакции элемента.
func (s *state) RecordFailure(ctx context.Context, at time.Time, err error) error {
	if s.pool == nil {
		return nil
	}
	runID, _ := ctxutil.RunID(ctx)
	return db.MarkSyncFailure(ctx, s.pool, s.scope, runID, at, err.Error())
}

// upsert общий шаг: дерево под parentID в транзакции сессии.
func upsert(ctx context.Context, sess *db.Session, e *ingest.Engine, level models.Level, parentID int64, nodes []ingest.RawNode, opts ingest.UpsertOptions) (ingest.Stats, error) {
	tx, err := sess.Tx(ctx)
	if err != nil {
		return nil, &ingest.PersistenceError{Op: "begin", Err: err}
	}
	return e.UpsertLevel(ctx, db.Nodes(tx), level, parentID, nodes, opts)
}

// pathItem один класс из ответа API программы. Дерево уже получено
// при разборе списка работ.
type pathItem struct {
	state
	engine *ingest.Engine
	node   ingest.RawNode
	force  bool
}

func (it *pathItem) Sync(ctx context.Context, sess *db.Session) (ingest.Stats, error) {
	stats, err := upsert(ctx, sess, it.engine, models.LevelClassroom, 0,
		[]ingest.RawNode{it.node}, ingest.UpsertOptions{Force: it.force})
	if err != nil {
		return nil, err
	}
	it.stats = stats
	return stats, nil
}

// promptItem пара класс/предмет: промпты глав и подглав, без создания узлов.
type promptItem struct {
	state
	engine *ingest.Engine
	client *pathapi.Client
	pair   models.SubjectPair
	force  bool
}

func (it *promptItem) Sync(ctx context.Context, sess *db.Session) (ingest.Stats, error) {
	chapters, err := it.client.FetchPrompts(ctx, it.pair.ClassroomName, it.pair.SubjectName)
	if err != nil {
		return nil, err
	}
	stats, err := upsert(ctx, sess, it.engine, models.LevelChapter, it.pair.SubjectID,
		chapters, ingest.UpsertOptions{Force: it.force, UpdateOnly: true})
	if err != nil {
		return nil, err
	}
	it.stats = stats
	return stats, nil
}

// scrapeItem карточка предмета digischool.
type scrapeItem struct {
	state
	engine  *ingest.Engine
	scraper *digischool.Scraper
	page    digischool.SubjectPage
	force   bool
}

func (it *scrapeItem) Sync(ctx context.Context, sess *db.Session) (ingest.Stats, error) {
	tree, err := it.scraper.Subject(ctx, it.page)
	if err != nil {
		return nil, err
	}
	stats, err := upsert(ctx, sess, it.engine, models.LevelClassroom, 0,
		[]ingest.RawNode{tree}, ingest.UpsertOptions{Force: it.force})
	if err != nil {
		return nil, err
	}
	it.stats = stats
	return stats, nil
}

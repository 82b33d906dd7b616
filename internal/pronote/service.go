// Package pronote синхронизация интеграций PRONOTE: домашние задания,
// уроки и отсутствия в planning, оценки и карнет в metadata интеграции.
package pronote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Spok95/curriculum-sync/internal/db"
	"github.com/Spok95/curriculum-sync/internal/ingest"
	"github.com/Spok95/curriculum-sync/internal/logging"
	"github.com/Spok95/curriculum-sync/internal/models"
	src "github.com/Spok95/curriculum-sync/internal/source/pronote"
)

const (
	Op = "sync-pronote"
	// Freshness интеграции моложе часа пропускаются без --force.
	Freshness = time.Hour

	kindHomework = "homework"
	kindLessons  = "lessons"
	kindAbsences = "absences"
	kindGrades   = "grades"
)

// planningRecord ограничения колонок planning.
type planningRecord struct {
	Title       string `validate:"required,max=255"`
	ReferenceID string `validate:"max=255"`
}

type Service struct {
	fetcher  src.Fetcher
	loc      *time.Location
	log      *zap.Logger
	validate *validator.Validate
}

func NewService(f src.Fetcher, loc *time.Location, log *zap.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{fetcher: f, loc: loc, log: log, validate: validator.New()}
}

// Items оборачивает интеграции в элементы работы оркестратора.
func (s *Service) Items(list []models.Integration, force bool) []ingest.Item[*db.Session] {
	out := make([]ingest.Item[*db.Session], 0, len(list))
	for _, in := range list {
		out = append(out, &Item{svc: s, in: in, force: force})
	}
	return out
}

// Item одна интеграция. Держит копию строки: metadata и credentials
// меняются в Sync и пишутся в MarkSynced.
type Item struct {
	svc   *Service
	in    models.Integration
	force bool
}

func (it *Item) Key() string { return fmt.Sprintf("pronote:%d", it.in.ID) }

func (it *Item) LastSyncAt() *time.Time { return it.in.LastSyncAt }

// Reload перечитывает интеграцию под блокировкой: параллельный запуск
// мог уже повернуть токен, старый credentials после этого невалиден.
func (it *Item) Reload(ctx context.Context, sess *db.Session) (*time.Time, error) {
	cur, err := db.GetIntegration(ctx, sess.DB(), it.in.ID)
	if err != nil || cur == nil {
		return it.in.LastSyncAt, err
	}
	it.in.Credentials = cur.Credentials
	it.in.Metadata = cur.Metadata
	it.in.LastSyncAt = cur.LastSyncAt
	return cur.LastSyncAt, nil
}

func (it *Item) Sync(ctx context.Context, sess *db.Session) (ingest.Stats, error) {
	return it.svc.sync(ctx, sess, &it.in, it.force)
}

func (it *Item) MarkSynced(ctx context.Context, sess *db.Session, at time.Time) error {
	tx, err := sess.Tx(ctx)
	if err != nil {
		return err
	}
	it.in.LastSyncAt = &at
	return db.SaveIntegrationSync(ctx, tx, &it.in)
}

func checkIntegration(in *models.Integration) error {
	name := fmt.Sprintf("%d", in.ID)
	switch {
	case in.Type != models.IntegrationPronote:
		return &ingest.ValidationError{Kind: "integration", Record: name, Reason: "not a pronote integration"}
	case in.StudentID == nil:
		return &ingest.ValidationError{Kind: "integration", Record: name, Reason: "no student linked"}
	case !usableCredentials(in.Credentials):
		return &ingest.ValidationError{Kind: "integration", Record: name, Reason: "missing credentials"}
	}
	return nil
}

func (s *Service) sync(ctx context.Context, sess *db.Session, in *models.Integration, force bool) (ingest.Stats, error) {
	log := logging.FromContext(ctx, s.log).With(zap.Int64("integration_id", in.ID))
	if err := checkIntegration(in); err != nil {
		return nil, err
	}

	resp, err := s.fetcher.Fetch(ctx, in.Credentials)
	if err != nil {
		return nil, err
	}
	if err := resp.Check(); err != nil {
		return nil, err
	}

	if resp.NewToken != nil {
		creds, err := RotateCredentials(in.Credentials, *resp.NewToken)
		if err != nil {
			return nil, fmt.Errorf("rotate credentials: %w", err)
		}
		if err := db.SaveIntegrationCredentials(ctx, sess.DB(), in.ID, creds); err != nil {
			return nil, &ingest.PersistenceError{Op: "save credentials", Err: err}
		}
		in.Credentials = creds
		log.Info("pronote token rotated")
	}

	tx, err := sess.Tx(ctx)
	if err != nil {
		return nil, &ingest.PersistenceError{Op: "begin", Err: err}
	}

	b := builder{loc: s.loc, studentID: *in.StudentID, integrationID: in.ID}
	stats := ingest.Stats{}

	for _, h := range resp.HomeworkList() {
		p, err := b.homework(h)
		if err = s.admit(log, stats, kindHomework, p, err); err != nil {
			continue
		}
		if err := s.upsertByReference(ctx, tx, kindHomework, p, force, stats); err != nil {
			return nil, err
		}
	}
	for _, l := range resp.LessonList() {
		p, err := b.lesson(l)
		if err = s.admit(log, stats, kindLessons, p, err); err != nil {
			continue
		}
		if err := s.upsertByReference(ctx, tx, kindLessons, p, force, stats); err != nil {
			return nil, err
		}
	}
	for _, a := range resp.AbsenceList() {
		p, err := b.absence(a)
		if err = s.admit(log, stats, kindAbsences, p, err); err != nil {
			continue
		}
		if err := s.insertAbsence(ctx, tx, p, stats); err != nil {
			return nil, err
		}
	}

	sd := syncData{
		Homework: processed(stats[kindHomework]),
		Lessons:  processed(stats[kindLessons]),
		Absences: stats[kindAbsences].Created,
	}
	meta, gradesChanged, err := integrationMetadata(in.Metadata, resp, sd)
	if err != nil {
		return nil, fmt.Errorf("build metadata: %w", err)
	}
	in.Metadata = meta
	if _, key := resp.Evaluations(); key != "" {
		if gradesChanged {
			stats.Updated(kindGrades)
		} else {
			stats.Unchanged(kindGrades)
		}
	}
	return stats, nil
}

// admit пропускает запись, не прошедшую сборку или проверку.
func (s *Service) admit(log *zap.Logger, stats ingest.Stats, kind string, p models.Planning, err error) error {
	if err == nil {
		rec := planningRecord{Title: p.Title}
		if p.ReferenceID != nil {
			rec.ReferenceID = *p.ReferenceID
		}
		if verr := s.validate.Struct(rec); verr != nil {
			err = &ingest.ValidationError{Kind: kind, Record: p.Title, Reason: verr.Error()}
		}
	}
	if err != nil {
		var ve *ingest.ValidationError
		if !errors.As(err, &ve) {
			// ошибки сборки metadata не зависят от записи
			log.Error("build record", zap.String("kind", kind), zap.Error(err))
		} else {
			log.Warn("record skipped", zap.String("kind", kind), zap.Error(err))
		}
		stats.Skipped(kind)
		return err
	}
	return nil
}

// upsertByReference: домашние задания и уроки ищутся по внешнему id.
// Найденная запись обновляется, только если изменилась или force.
func (s *Service) upsertByReference(ctx context.Context, q db.Querier, kind string, p models.Planning, force bool, stats ingest.Stats) error {
	existing, err := db.FindPlanningByReference(ctx, q, p.StudentID, p.Type, *p.ReferenceID)
	if err != nil {
		return &ingest.PersistenceError{Op: "find " + kind, Err: err}
	}
	if existing == nil {
		if err := db.InsertPlanning(ctx, q, &p); err != nil {
			return &ingest.PersistenceError{Op: "insert " + kind, Err: err}
		}
		stats.Created(kind)
		return nil
	}
	if !force && existing.SameContent(p) {
		stats.Unchanged(kind)
		return nil
	}
	meta, err := mergeJSON(existing.Metadata, p.Metadata)
	if err != nil {
		return fmt.Errorf("merge %s metadata: %w", kind, err)
	}
	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	p.Metadata = meta
	p.UpdatedAt = time.Now()
	if err := db.UpdatePlanning(ctx, q, &p); err != nil {
		return &ingest.PersistenceError{Op: "update " + kind, Err: err}
	}
	stats.Updated(kind)
	return nil
}

// insertAbsence создаёт отсутствие, если на это начало его ещё нет.
func (s *Service) insertAbsence(ctx context.Context, q db.Querier, p models.Planning, stats ingest.Stats) error {
	existing, err := db.FindPlanningByStart(ctx, q, p.StudentID, p.Type, p.StartDate)
	if err != nil {
		return &ingest.PersistenceError{Op: "find absences", Err: err}
	}
	if existing != nil {
		stats.Unchanged(kindAbsences)
		return nil
	}
	if err := db.InsertPlanning(ctx, q, &p); err != nil {
		return &ingest.PersistenceError{Op: "insert absences", Err: err}
	}
	stats.Created(kindAbsences)
	return nil
}

func processed(t ingest.Tally) int { return t.Created + t.Updated + t.Unchanged }

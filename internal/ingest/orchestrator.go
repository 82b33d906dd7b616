package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/curriculum-sync/internal/ctxutil"
	"github.com/Spok95/curriculum-sync/internal/logging"
	"github.com/Spok95/curriculum-sync/internal/metrics"
	"github.com/Spok95/curriculum-sync/internal/observability"
)

// Session единица работы с хранилищем, которой владеет один запуск.
// Isolate отбрасывает незавершённую работу упавшего элемента; если
// отбрасывать нечего, это no-op.
type Session interface {
	Commit() error
	Isolate() (bool, error)
}

// Item элемент работы: пара класс/предмет, корень иерархии, интеграция.
type Item[S Session] interface {
	// Key идентификатор в отчёте, логах и ключ RunLock.
	Key() string
	// LastSyncAt последняя успешная синхронизация или nil.
	LastSyncAt() *time.Time
	Sync(ctx context.Context, s S) (Stats, error)
	// MarkSynced продвигает отметку свежести в той же сессии, до Commit.
	MarkSynced(ctx context.Context, s S, at time.Time) error
}

// FailureRecorder опционально: элемент сам сохраняет след неудачи уже
// после отката (например last_error в sync_state).
type FailureRecorder interface {
	RecordFailure(ctx context.Context, at time.Time, err error) error
}

// Reloader опционально: элемент перечитывает своё состояние из хранилища.
// Вызывается под RunLock, свежесть проверяется повторно: параллельный
// запуск (таймер serve и ручной trigger) мог синхронизировать элемент,
// пока этот ждал блокировку.
type Reloader[S Session] interface {
	Reload(ctx context.Context, s S) (*time.Time, error)
}

var errRecent = errors.New("synced by a concurrent run")

type Waiter interface {
	Wait(ctx context.Context) error
}

// Orchestrator обрабатывает элементы строго по очереди: fetch, upsert и
// commit одного элемента заканчиваются до начала следующего.
type Orchestrator[S Session] struct {
	Op      string
	Session S
	// Freshness окно свежести; 0 отключает пропуск "recent".
	Freshness time.Duration
	// Throttle пауза перед каждым обращением к источнику; nil без паузы.
	Throttle Waiter
	Locks    *RunLock
	Log      *zap.Logger
	Now      func() time.Time
}

func (o *Orchestrator[S]) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Fresh: элемент синхронизирован менее Freshness назад.
func (o *Orchestrator[S]) Fresh(last *time.Time, now time.Time) bool {
	return o.Freshness > 0 && last != nil && now.Sub(*last) < o.Freshness
}

// Run прогоняет items. Ошибка элемента не прерывает запуск: она уходит в
// Result.Errors, а сессия изолируется перед следующим элементом.
func (o *Orchestrator[S]) Run(ctx context.Context, items []Item[S], force bool) *Result {
	runID, ok := ctxutil.RunID(ctx)
	if !ok {
		runID = uuid.NewString()
		ctx = ctxutil.WithRunID(ctx, runID)
	}
	ctx = ctxutil.WithOp(ctx, o.Op)
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	log := logging.FromContext(ctx, o.Log)

	res := NewResult(o.Op, runID, o.now())
	metrics.Runs.WithLabelValues(o.Op).Inc()
	log.Info("run started", zap.Int("items", len(items)), zap.Bool("force", force))

	for _, it := range items {
		key := it.Key()
		ictx := ctxutil.WithItem(ctx, key)
		ilog := logging.FromContext(ictx, o.Log)

		now := o.now()
		if !force && o.Fresh(it.LastSyncAt(), now) {
			res.skip(key, "recent")
			metrics.Items.WithLabelValues(o.Op, string(ItemSkipped)).Inc()
			ilog.Info("skipped, synced recently", zap.Time("last_sync_at", *it.LastSyncAt()))
			continue
		}

		stats, err := o.process(ictx, it, force)
		if errors.Is(err, errRecent) {
			res.skip(key, "recent")
			metrics.Items.WithLabelValues(o.Op, string(ItemSkipped)).Inc()
			ilog.Info("skipped, " + errRecent.Error())
			continue
		}
		if err == nil {
			res.succeed(key, stats)
			for _, kind := range stats.Kinds() {
				t := stats[kind]
				metrics.AddNodes(kind, t.Created, t.Updated, t.Skipped)
			}
			metrics.Items.WithLabelValues(o.Op, string(ItemOK)).Inc()
			ilog.Info("item synced", zap.Any("stats", stats))
			continue
		}

		rolledBack, ierr := o.Session.Isolate()
		if ierr != nil {
			ilog.Error("isolate session", zap.Error(ierr))
		}
		res.fail(key, err)
		if rec, ok := it.(FailureRecorder); ok {
			if rerr := rec.RecordFailure(ictx, now, err); rerr != nil {
				ilog.Error("record failure", zap.Error(rerr))
			}
		}
		metrics.Items.WithLabelValues(o.Op, string(ItemFailed)).Inc()
		observability.CaptureItemErr(ictx, err)
		ilog.Error("item failed", zap.Error(err), zap.String("class", Classify(err)), zap.String("cause", Cause(err)), zap.Bool("rolled_back", rolledBack))
	}

	res.FinishedAt = o.now()
	log.Info("run finished",
		zap.Int("ok", res.Count(ItemOK)),
		zap.Int("skipped", res.Count(ItemSkipped)),
		zap.Int("failed", res.Count(ItemFailed)),
		zap.Duration("took", res.Duration()))
	return res
}

func (o *Orchestrator[S]) process(ctx context.Context, it Item[S], force bool) (stats Stats, err error) {
	defer func() {
		if r := recover(); r != nil {
			stats, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	if o.Throttle != nil {
		if err := o.Throttle.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if o.Locks != nil {
		unlock := o.Locks.Lock(it.Key())
		defer unlock()
		if rl, ok := it.(Reloader[S]); ok && !force {
			last, err := rl.Reload(ctx, o.Session)
			if err != nil {
				return nil, persistErr("reload", err)
			}
			if o.Fresh(last, o.now()) {
				return nil, errRecent
			}
		}
	}

	stats, err = it.Sync(ctx, o.Session)
	if err != nil {
		return nil, err
	}
	if err := it.MarkSynced(ctx, o.Session, o.now()); err != nil {
		return nil, persistErr("mark synced", err)
	}
	if err := o.Session.Commit(); err != nil {
		return nil, persistErr("commit", err)
	}
	return stats, nil
}

package pronote

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/curriculum-sync/internal/db"
	"github.com/Spok95/curriculum-sync/internal/ingest"
)

// Runner общий вход для CLI, периодической задачи и HTTP-триггера.
// Locks разделяется между конкурентными запусками одного процесса.
type Runner struct {
	Pool      *sql.DB
	Service   *Service
	Locks     *ingest.RunLock
	Freshness time.Duration
	Log       *zap.Logger
}

// Run выбирает интеграции и синхронизирует их в собственной сессии.
// Ошибка только при сбое выбора; ошибки интеграций в Result.
func (r *Runner) Run(ctx context.Context, sel Selection, force bool) (*ingest.Result, error) {
	list, err := Select(ctx, r.Pool, sel)
	if err != nil {
		return nil, err
	}
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}
	if len(list) == 0 {
		log.Warn("no active pronote integrations selected", zap.Int64("student_id", sel.StudentID))
	}
	o := &ingest.Orchestrator[*db.Session]{
		Op:        Op,
		Session:   db.NewSession(r.Pool),
		Freshness: r.Freshness,
		Locks:     r.Locks,
		Log:       log,
	}
	return o.Run(ctx, r.Service.Items(list, force), force), nil
}

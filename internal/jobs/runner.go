package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/curriculum-sync/internal/observability"
)

type Job func(ctx context.Context) error

// Runner периодические задачи режима serve. Паника задачи не роняет
// процесс: она уходит в sentry как ошибка запуска.
type Runner struct {
	ctx context.Context
	log *zap.Logger
	wg  sync.WaitGroup
}

func New(ctx context.Context, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{ctx: ctx, log: log}
}

// Every запускает fn каждые interval; при immediate первый запуск сразу.
func (r *Runner) Every(interval time.Duration, name string, immediate bool, fn Job) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if immediate {
			r.runOnce(name, fn)
		}
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-t.C:
				r.runOnce(name, fn)
			}
		}
	}()
}

// Wait ждёт завершения всех циклов после отмены контекста.
func (r *Runner) Wait() { r.wg.Wait() }

func (r *Runner) runOnce(name string, fn Job) {
	start := time.Now()
	err := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("panic in job %s: %v", name, rec)
			}
		}()
		return fn(r.ctx)
	}()
	observe(name, start, err)
	if err != nil {
		observability.CaptureErr(err)
		r.log.Error("job failed", zap.String("job", name), zap.Error(err))
	}
}

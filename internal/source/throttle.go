package source

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Throttle пауза между элементами работы. Первый Wait не ждёт.
type Throttle struct {
	lim *rate.Limiter
}

// NewThrottle: delay<=0 отключает паузу.
func NewThrottle(delay time.Duration) *Throttle {
	if delay <= 0 {
		return &Throttle{lim: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Throttle{lim: rate.NewLimiter(rate.Every(delay), 1)}
}

func (t *Throttle) Wait(ctx context.Context) error { return t.lim.Wait(ctx) }

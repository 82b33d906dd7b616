package ctxutil

import (
	"context"
	"time"
)

// приватные ключи, чтобы исключить коллизии
type key int

const (
	keyRunID key = iota
	keyItem
	keyOpName
)

// WithRunID /RunID id запуска, общий для логов, sentry и sync_state
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, keyRunID, runID)
}

func RunID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyRunID).(string)
	return v, ok
}

// WithItem /Item ключ текущего элемента работы
func WithItem(ctx context.Context, item string) context.Context {
	return context.WithValue(ctx, keyItem, item)
}

func Item(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyItem).(string)
	return v, ok
}

// WithOp /Op имя операции (load-path, sync-pronote ...)
func WithOp(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, keyOpName, name)
}

func Op(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyOpName).(string)
	return v, ok
}

var (
	DefaultDBTimeout = 5 * time.Second
)

// WithTimeout обёртка над context.WithTimeout; d<=0 значит без таймаута.
func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}

// WithDBTimeout стандартный таймаут для БД. Если у родителя осталось
// меньше, берём остаток.
func WithDBTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if dl, ok := parent.Deadline(); ok {
		remain := time.Until(dl)
		if remain < DefaultDBTimeout {
			return context.WithTimeout(parent, remain)
		}
	}
	return context.WithTimeout(parent, DefaultDBTimeout)
}

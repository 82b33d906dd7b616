package ingest

import "sync"

// RunLock не даёт двум запускам одновременно обрабатывать один и тот же
// корень иерархии или интеграцию (serve: таймер + ручной запуск).
// Уникальные ограничения в БД остаются основной защитой.
type RunLock struct {
	mu    sync.Mutex
	byKey map[string]*sync.Mutex
}

func NewRunLock() *RunLock {
	return &RunLock{byKey: make(map[string]*sync.Mutex)}
}

// Lock блокирует key и возвращает функцию разблокировки.
func (l *RunLock) Lock(key string) func() {
	l.mu.Lock()
	m, ok := l.byKey[key]
	if !ok {
		m = &sync.Mutex{}
		l.byKey[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return func() { m.Unlock() }
}

// TryLock как Lock, но без ожидания.
func (l *RunLock) TryLock(key string) (func(), bool) {
	l.mu.Lock()
	m, ok := l.byKey[key]
	if !ok {
		m = &sync.Mutex{}
		l.byKey[key] = m
	}
	l.mu.Unlock()

	if !m.TryLock() {
		return nil, false
	}
	return func() { m.Unlock() }, true
}

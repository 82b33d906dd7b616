package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Session держит транзакцию текущего элемента работы.
// Один запуск = одна Session, не для конкурентного использования.
type Session struct {
	db   *sql.DB
	tx   *sql.Tx
	opts *sql.TxOptions
}

func NewSession(database *sql.DB) *Session {
	return &Session{db: database, opts: &sql.TxOptions{Isolation: sql.LevelReadCommitted}}
}

// DB возвращает пул. Через него пишем то, что должно пережить откат
// элемента (учёт ошибок).
func (s *Session) DB() *sql.DB { return s.db }

// Tx возвращает открытую транзакцию, при первом вызове начинает её.
func (s *Session) Tx(ctx context.Context) (*sql.Tx, error) {
	if s.tx != nil {
		return s.tx, nil
	}
	tx, err := s.db.BeginTx(ctx, s.opts)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	s.tx = tx
	return tx, nil
}

// Commit фиксирует открытую транзакцию; без неё ничего не делает.
func (s *Session) Commit() error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Isolate откатывает транзакцию упавшего элемента, следующий начнёт
// новую из того же пула. Если транзакции нет, Session остаётся рабочей.
// Возвращает true, если что-то было отброшено.
func (s *Session) Isolate() (bool, error) {
	if s.tx == nil {
		return false, nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return true, fmt.Errorf("rollback: %w", err)
	}
	return true, nil
}

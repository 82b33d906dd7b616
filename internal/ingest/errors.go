package ingest

import (
	"errors"
	"fmt"

	"github.com/Spok95/curriculum-sync/internal/db"
	"github.com/Spok95/curriculum-sync/internal/source"
)

// ValidationError запись не прошла проверку. Запись (и её поддерево)
// пропускается, элемент продолжается. На уровне элемента (нет ученика у
// интеграции) это сбой элемента.
type ValidationError struct {
	Kind   string
	Record string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Record == "" {
		return fmt.Sprintf("invalid %s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Kind, e.Record, e.Reason)
}

// PersistenceError сбой записи или коммита.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *PersistenceError) Unwrap() error { return e.Err }

func persistErr(op string, err error) error {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// Классы ошибок в Result.Errors и метриках.
const (
	ClassFetch       = "fetch"
	ClassValidation  = "validation"
	ClassPersistence = "persistence"
	ClassInternal    = "internal"
)

// Classify относит err к таксономии. Необёрнутые ошибки БД тоже считаются
// persistence.
func Classify(err error) string {
	var (
		ve *ValidationError
		pe *PersistenceError
	)
	switch {
	case err == nil:
		return ""
	case source.IsFetchError(err):
		return ClassFetch
	case errors.As(err, &ve):
		return ClassValidation
	case errors.As(err, &pe), db.IsDBError(err):
		return ClassPersistence
	}
	return ClassInternal
}

// Cause уточняет persistence-ошибку классом SQLSTATE (integrity, data,
// connection, serialization); для остальных классов пусто.
func Cause(err error) string {
	if Classify(err) != ClassPersistence {
		return ""
	}
	return db.Cause(err)
}

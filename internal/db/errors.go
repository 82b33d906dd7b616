package db

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// SQLState достаёт код ошибки Postgres для обоих драйверов:
// pgx в бинарнике, lib/pq в тестовой обвязке.
func SQLState(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), true
	}
	return "", false
}

func IsUniqueViolation(err error) bool {
	code, ok := SQLState(err)
	return ok && code == "23505"
}

// IsIntegrityViolation: класс 23 (unique, FK, not null, check).
func IsIntegrityViolation(err error) bool {
	code, ok := SQLState(err)
	return ok && strings.HasPrefix(code, "23")
}

// IsDataException: класс 22, битые байты или слишком длинные значения.
func IsDataException(err error) bool {
	code, ok := SQLState(err)
	return ok && strings.HasPrefix(code, "22")
}

func IsConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	code, ok := SQLState(err)
	return ok && strings.HasPrefix(code, "08")
}

// IsSerializationFailure: класс 40, откат транзакции сервером
// (serialization failure, deadlock).
func IsSerializationFailure(err error) bool {
	code, ok := SQLState(err)
	return ok && strings.HasPrefix(code, "40")
}

// Причины сбоя записи для отчёта и логов.
const (
	CauseIntegrity     = "integrity"
	CauseData          = "data"
	CauseConnection    = "connection"
	CauseSerialization = "serialization"
	CauseOther         = "other"
)

// Cause относит ошибку БД к классу SQLSTATE; "" если ошибка не из БД.
func Cause(err error) string {
	switch {
	case err == nil:
		return ""
	case IsIntegrityViolation(err):
		return CauseIntegrity
	case IsDataException(err):
		return CauseData
	case IsConnectionError(err):
		return CauseConnection
	case IsSerializationFailure(err):
		return CauseSerialization
	case IsDBError(err):
		return CauseOther
	}
	return ""
}

// IsDBError: ошибка пришла из слоя БД.
func IsDBError(err error) bool {
	if _, ok := SQLState(err); ok {
		return true
	}
	return errors.Is(err, sql.ErrTxDone) || IsConnectionError(err)
}

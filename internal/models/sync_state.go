package models

import (
	"encoding/json"
	"time"
)

// SyncState отметки свежести одного элемента работы.
type SyncState struct {
	Scope         string          `db:"scope"`
	LastSuccessAt *time.Time      `db:"last_success_at"`
	LastAttemptAt *time.Time      `db:"last_attempt_at"`
	LastError     *string         `db:"last_error"`
	RunID         *string         `db:"run_id"`
	Stats         json.RawMessage `db:"stats"`
}

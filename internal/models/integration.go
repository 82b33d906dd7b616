package models

import (
	"encoding/json"
	"time"
)

type IntegrationType string

const (
	IntegrationPronote      IntegrationType = "pronote"
	IntegrationEcoleDirecte IntegrationType = "ecole_directe"
	IntegrationOther        IntegrationType = "other"
)

// Integration подключение к внешнему аккаунту ученика.
type Integration struct {
	ID          int64           `db:"id"`
	Name        string          `db:"name"`
	Type        IntegrationType `db:"type"`
	IsActive    bool            `db:"is_active"`
	StudentID   *int64          `db:"student_id"`
	StudentName string          `db:"student_name"`
	Credentials json.RawMessage `db:"credentials"`
	Metadata    json.RawMessage `db:"metadata"`
	LastSyncAt  *time.Time      `db:"last_sync_at"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

type Student struct {
	ID        int64  `db:"id"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
}

func (s Student) FullName() string { return s.FirstName + " " + s.LastName }

package models

import (
	"encoding/json"
	"time"
)

type PlanningType string

const (
	PlanningHomework PlanningType = "homework"
	PlanningCourse   PlanningType = "course"
	PlanningOther    PlanningType = "other"
)

type PlanningStatus string

const (
	StatusToDo      PlanningStatus = "to_do"
	StatusCompleted PlanningStatus = "completed"
)

// Planning запись календаря ученика. У импортированных в ReferenceID
// лежит id во внешней системе.
type Planning struct {
	ID            int64           `db:"id"`
	StudentID     int64           `db:"student_id"`
	IntegrationID *int64          `db:"integration_id"`
	Title         string          `db:"title"`
	Description   string          `db:"description"`
	Type          PlanningType    `db:"type"`
	Status        PlanningStatus  `db:"status"`
	StartDate     time.Time       `db:"start_date"`
	EndDate       time.Time       `db:"end_date"`
	ReferenceID   *string         `db:"reference_id"`
	Metadata      json.RawMessage `db:"metadata"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

// SameContent: записи отображаются одинаково.
func (p Planning) SameContent(o Planning) bool {
	return p.Title == o.Title &&
		p.Description == o.Description &&
		p.Status == o.Status &&
		p.StartDate.Equal(o.StartDate) &&
		p.EndDate.Equal(o.EndDate)
}

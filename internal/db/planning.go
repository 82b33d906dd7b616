package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/Spok95/curriculum-sync/internal/models"
)

const planningSelect = `
	SELECT id, student_id, integration_id, title, COALESCE(description, ''), type,
	       COALESCE(status, ''), start_date, end_date, reference_id, metadata, created_at, updated_at
	FROM planning`

func scanPlanning(sc rowScanner) (*models.Planning, error) {
	var (
		p        models.Planning
		typ      string
		status   string
		metadata []byte
	)
	if err := sc.Scan(&p.ID, &p.StudentID, &p.IntegrationID, &p.Title, &p.Description, &typ,
		&status, &p.StartDate, &p.EndDate, &p.ReferenceID, &metadata, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Type = models.PlanningType(typ)
	p.Status = models.PlanningStatus(status)
	if len(metadata) > 0 {
		p.Metadata = metadata
	}
	return &p, nil
}

// FindPlanningByReference запись ученика по внешнему id. Нет: nil, nil.
func FindPlanningByReference(ctx context.Context, q Querier, studentID int64, typ models.PlanningType, ref string) (*models.Planning, error) {
	p, err := scanPlanning(q.QueryRowContext(ctx,
		planningSelect+` WHERE student_id = $1 AND type = $2 AND reference_id = $3`,
		studentID, string(typ), ref))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// FindPlanningByStart запись ученика по типу и точному началу (отсутствия).
func FindPlanningByStart(ctx context.Context, q Querier, studentID int64, typ models.PlanningType, start time.Time) (*models.Planning, error) {
	p, err := scanPlanning(q.QueryRowContext(ctx,
		planningSelect+` WHERE student_id = $1 AND type = $2 AND start_date = $3 ORDER BY id LIMIT 1`,
		studentID, string(typ), start))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func InsertPlanning(ctx context.Context, q Querier, p *models.Planning) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = p.CreatedAt
	return q.QueryRowContext(ctx, `
		INSERT INTO planning (student_id, integration_id, title, description, type, status,
		                      start_date, end_date, reference_id, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING id
	`, p.StudentID, p.IntegrationID, p.Title, p.Description, string(p.Type), string(p.Status),
		p.StartDate, p.EndDate, p.ReferenceID, nullJSON(p.Metadata), p.CreatedAt).Scan(&p.ID)
}

func UpdatePlanning(ctx context.Context, q Querier, p *models.Planning) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	_, err := q.ExecContext(ctx, `
		UPDATE planning
		SET title = $2, description = $3, status = $4, start_date = $5, end_date = $6,
		    metadata = $7, integration_id = $8, updated_at = $9
		WHERE id = $1
	`, p.ID, p.Title, p.Description, string(p.Status), p.StartDate, p.EndDate,
		nullJSON(p.Metadata), p.IntegrationID, p.UpdatedAt)
	return err
}

// CountPlanning число записей ученика по типу.
func CountPlanning(ctx context.Context, q Querier, studentID int64, typ models.PlanningType) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT count(*) FROM planning WHERE student_id = $1 AND type = $2`,
		studentID, string(typ)).Scan(&n)
	return n, err
}

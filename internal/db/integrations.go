package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/Spok95/curriculum-sync/internal/models"
)

const integrationSelect = `
	SELECT i.id, i.name, i.type, i.is_active, i.student_id,
	       COALESCE(s.first_name || ' ' || s.last_name, ''),
	       i.credentials, i.metadata, i.last_sync_at, i.created_at, i.updated_at
	FROM integrations i
	LEFT JOIN students s ON s.id = i.student_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIntegration(sc rowScanner) (*models.Integration, error) {
	var (
		in          models.Integration
		typ         string
		credentials []byte
		metadata    []byte
	)
	if err := sc.Scan(&in.ID, &in.Name, &typ, &in.IsActive, &in.StudentID, &in.StudentName,
		&credentials, &metadata, &in.LastSyncAt, &in.CreatedAt, &in.UpdatedAt); err != nil {
		return nil, err
	}
	in.Type = models.IntegrationType(typ)
	if len(credentials) > 0 {
		in.Credentials = credentials
	}
	if len(metadata) > 0 {
		in.Metadata = metadata
	}
	return &in, nil
}

// GetIntegration по id. Нет строки: nil, nil.
func GetIntegration(ctx context.Context, q Querier, id int64) (*models.Integration, error) {
	in, err := scanIntegration(q.QueryRowContext(ctx, integrationSelect+` WHERE i.id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return in, err
}

// ListIntegrationsByIDs возвращает найденные; отсутствующие id вызывающий
// определяет сам.
func ListIntegrationsByIDs(ctx context.Context, q Querier, ids []int64) ([]models.Integration, error) {
	return listIntegrations(ctx, q, integrationSelect+` WHERE i.id = ANY($1) ORDER BY i.id`, pq.Array(ids))
}

// ListActiveIntegrations активные интеграции типа typ; studentID опционален.
func ListActiveIntegrations(ctx context.Context, q Querier, typ models.IntegrationType, studentID *int64) ([]models.Integration, error) {
	if studentID != nil {
		return listIntegrations(ctx, q,
			integrationSelect+` WHERE i.type = $1 AND i.is_active AND i.student_id = $2 ORDER BY i.id`,
			string(typ), *studentID)
	}
	return listIntegrations(ctx, q,
		integrationSelect+` WHERE i.type = $1 AND i.is_active ORDER BY i.id`, string(typ))
}

func listIntegrations(ctx context.Context, q Querier, query string, args ...any) ([]models.Integration, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Integration
	for rows.Next() {
		in, err := scanIntegration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *in)
	}
	return out, rows.Err()
}

func CreateIntegration(ctx context.Context, q Querier, in *models.Integration) error {
	now := time.Now()
	if in.CreatedAt.IsZero() {
		in.CreatedAt = now
	}
	in.UpdatedAt = in.CreatedAt
	return q.QueryRowContext(ctx, `
		INSERT INTO integrations (name, type, is_active, student_id, credentials, metadata, last_sync_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING id
	`, in.Name, string(in.Type), in.IsActive, in.StudentID, nullJSON(in.Credentials), nullJSON(in.Metadata),
		in.LastSyncAt, in.CreatedAt).Scan(&in.ID)
}

// SaveIntegrationSync пишет результат синхронизации: credentials (ротация
// токена), metadata и last_sync_at.
func SaveIntegrationSync(ctx context.Context, q Querier, in *models.Integration) error {
	in.UpdatedAt = time.Now()
	_, err := q.ExecContext(ctx, `
		UPDATE integrations
		SET credentials = $2, metadata = $3, last_sync_at = $4, updated_at = $5
		WHERE id = $1
	`, in.ID, nullJSON(in.Credentials), nullJSON(in.Metadata), in.LastSyncAt, in.UpdatedAt)
	return err
}

func CreateStudent(ctx context.Context, q Querier, s *models.Student) error {
	return q.QueryRowContext(ctx,
		`INSERT INTO students (first_name, last_name) VALUES ($1, $2) RETURNING id`,
		s.FirstName, s.LastName).Scan(&s.ID)
}

// GetStudent по id. Нет: nil, nil.
func GetStudent(ctx context.Context, q Querier, id int64) (*models.Student, error) {
	var s models.Student
	err := q.QueryRowContext(ctx,
		`SELECT id, first_name, last_name FROM students WHERE id = $1`, id).
		Scan(&s.ID, &s.FirstName, &s.LastName)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// SaveIntegrationCredentials сохраняет новые учётные данные сразу, вне
// транзакции синхронизации: старый токен после ротации уже недействителен.
func SaveIntegrationCredentials(ctx context.Context, q Querier, id int64, credentials []byte) error {
	_, err := q.ExecContext(ctx,
		`UPDATE integrations SET credentials = $2, updated_at = $3 WHERE id = $1`,
		id, nullJSON(credentials), time.Now())
	return err
}

package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Spok95/curriculum-sync/internal/models"
)

// Запросы зафиксированы по таблице уровня: имя таблицы никогда не
// собирается из входных данных.
type levelSQL struct {
	find   string
	insert string
	update string
}

var nodeSQL = map[models.Level]levelSQL{
	models.LevelClassroom: {
		find: `
			SELECT id, 0, name, NULL::jsonb, created_at, updated_at
			FROM classrooms
			WHERE name = $1`,
		insert: `
			INSERT INTO classrooms (name, created_at, updated_at)
			VALUES ($1, $2, $2)
			RETURNING id`,
		update: `UPDATE classrooms SET name = $2, updated_at = $3 WHERE id = $1`,
	},
	models.LevelSubject: {
		find: `
			SELECT id, classroom_id, name, prompts, created_at, updated_at
			FROM subjects
			WHERE classroom_id = $1 AND name = $2`,
		insert: `
			INSERT INTO subjects (classroom_id, name, prompts, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $4)
			RETURNING id`,
		update: `UPDATE subjects SET name = $2, prompts = $3, updated_at = $4 WHERE id = $1`,
	},
	models.LevelChapter: {
		find: `
			SELECT id, subject_id, name, prompts, created_at, updated_at
			FROM chapters
			WHERE subject_id = $1 AND name = $2`,
		insert: `
			INSERT INTO chapters (subject_id, name, prompts, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $4)
			RETURNING id`,
		update: `UPDATE chapters SET name = $2, prompts = $3, updated_at = $4 WHERE id = $1`,
	},
	models.LevelSubChapter: {
		find: `
			SELECT id, chapter_id, name, prompts, created_at, updated_at
			FROM sub_chapters
			WHERE chapter_id = $1 AND name = $2`,
		insert: `
			INSERT INTO sub_chapters (chapter_id, name, prompts, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $4)
			RETURNING id`,
		update: `UPDATE sub_chapters SET name = $2, prompts = $3, updated_at = $4 WHERE id = $1`,
	},
}

func levelQueries(level models.Level) (levelSQL, error) {
	q, ok := nodeSQL[level]
	if !ok {
		return levelSQL{}, fmt.Errorf("unknown level %d", level)
	}
	return q, nil
}

// NodeRepo хранилище узлов программы поверх Querier (обычно транзакция Session).
type NodeRepo struct {
	q Querier
}

func Nodes(q Querier) *NodeRepo { return &NodeRepo{q: q} }

// FindByNameAndParent точное совпадение имени среди детей parentID.
// Нет строки: nil, nil.
func (r *NodeRepo) FindByNameAndParent(ctx context.Context, level models.Level, parentID int64, name string) (*models.Node, error) {
	qs, err := levelQueries(level)
	if err != nil {
		return nil, err
	}
	var row *sql.Row
	if level == models.LevelClassroom {
		row = r.q.QueryRowContext(ctx, qs.find, name)
	} else {
		row = r.q.QueryRowContext(ctx, qs.find, parentID, name)
	}

	n := models.Node{Level: level}
	var prompts []byte
	if err := row.Scan(&n.ID, &n.ParentID, &n.Name, &prompts, &n.CreatedAt, &n.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if len(prompts) > 0 {
		n.Prompts = prompts
	}
	return &n, nil
}

// CreateNode вставляет узел и заполняет ID. Пустые даты = now.
func (r *NodeRepo) CreateNode(ctx context.Context, n *models.Node) error {
	qs, err := levelQueries(n.Level)
	if err != nil {
		return err
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	n.UpdatedAt = n.CreatedAt

	var row *sql.Row
	if n.Level == models.LevelClassroom {
		row = r.q.QueryRowContext(ctx, qs.insert, n.Name, n.CreatedAt)
	} else {
		row = r.q.QueryRowContext(ctx, qs.insert, n.ParentID, n.Name, nullJSON(n.Prompts), n.CreatedAt)
	}
	return row.Scan(&n.ID)
}

// UpdateNode переписывает имя, промпты и updated_at.
func (r *NodeRepo) UpdateNode(ctx context.Context, n *models.Node) error {
	qs, err := levelQueries(n.Level)
	if err != nil {
		return err
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = time.Now()
	}
	if n.Level == models.LevelClassroom {
		_, err = r.q.ExecContext(ctx, qs.update, n.ID, n.Name, n.UpdatedAt)
	} else {
		_, err = r.q.ExecContext(ctx, qs.update, n.ID, n.Name, nullJSON(n.Prompts), n.UpdatedAt)
	}
	return err
}

// ListSubjectPairs все пары класс/предмет в стабильном порядке.
func ListSubjectPairs(ctx context.Context, q Querier) ([]models.SubjectPair, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT c.id, c.name, s.id, s.name
		FROM subjects s
		JOIN classrooms c ON c.id = s.classroom_id
		ORDER BY c.name, s.name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.SubjectPair
	for rows.Next() {
		var p models.SubjectPair
		if err := rows.Scan(&p.ClassroomID, &p.ClassroomName, &p.SubjectID, &p.SubjectName); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// FindSubjectPair пара по именам класса и предмета. Нет: nil, nil.
func FindSubjectPair(ctx context.Context, q Querier, classroom, subject string) (*models.SubjectPair, error) {
	row := q.QueryRowContext(ctx, `
		SELECT c.id, c.name, s.id, s.name
		FROM subjects s
		JOIN classrooms c ON c.id = s.classroom_id
		WHERE c.name = $1 AND s.name = $2
	`, classroom, subject)
	var p models.SubjectPair
	if err := row.Scan(&p.ClassroomID, &p.ClassroomName, &p.SubjectID, &p.SubjectName); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// CountNodes число строк уровня (для тестов и отчёта migrate).
func CountNodes(ctx context.Context, q Querier, level models.Level) (int, error) {
	var table string
	switch level {
	case models.LevelClassroom:
		table = "classrooms"
	case models.LevelSubject:
		table = "subjects"
	case models.LevelChapter:
		table = "chapters"
	case models.LevelSubChapter:
		table = "sub_chapters"
	default:
		return 0, fmt.Errorf("unknown level %d", level)
	}
	var n int
	err := q.QueryRowContext(ctx, `SELECT count(*) FROM `+table).Scan(&n)
	return n, err
}

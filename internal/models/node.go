package models

import (
	"encoding/json"
	"time"
)

// Level уровень узла программы: класс → предмет → глава → подглава.
type Level int

const (
	LevelClassroom Level = iota
	LevelSubject
	LevelChapter
	LevelSubChapter
)

var levelKinds = [...]string{"classrooms", "subjects", "chapters", "subchapters"}

// Levels от корня к листьям.
var Levels = []Level{LevelClassroom, LevelSubject, LevelChapter, LevelSubChapter}

func (l Level) Valid() bool { return l >= LevelClassroom && l <= LevelSubChapter }

// Kind ключ статистики и отчётов.
func (l Level) Kind() string {
	if !l.Valid() {
		return "unknown"
	}
	return levelKinds[l]
}

// Child уровень ниже; для подглав ok=false.
func (l Level) Child() (Level, bool) {
	if l >= LevelSubChapter || !l.Valid() {
		return 0, false
	}
	return l + 1, true
}

// Node строка одного уровня программы. У классов ParentID=0.
type Node struct {
	ID        int64           `db:"id"`
	Level     Level           `db:"-"`
	ParentID  int64           `db:"parent_id"`
	Name      string          `db:"name"`
	Prompts   json.RawMessage `db:"prompts"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// SubjectPair пара класс/предмет (элемент работы load-prompts).
type SubjectPair struct {
	ClassroomID   int64  `db:"classroom_id"`
	ClassroomName string `db:"classroom_name"`
	SubjectID     int64  `db:"subject_id"`
	SubjectName   string `db:"subject_name"`
}

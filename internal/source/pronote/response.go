// Package pronote получение данных PRONOTE: мост pawnote (скрипт или
// HTTP) и импорт уже выгруженного файла.
package pronote

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/Spok95/curriculum-sync/internal/source"
)

const sourceName = "pronote"

// ID внешний идентификатор: в выгрузках бывает и строкой, и числом.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := gojson.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	if _, err := strconv.ParseFloat(string(b), 64); err != nil {
		return err
	}
	*id = ID(b)
	return nil
}

type Homework struct {
	ID          ID     `json:"id"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Done        bool   `json:"done"`

	Raw json.RawMessage `json:"-"`
}

func (h *Homework) UnmarshalJSON(b []byte) error {
	type plain Homework
	var p plain
	if err := gojson.Unmarshal(b, &p); err != nil {
		return err
	}
	*h = Homework(p)
	h.Raw = append(json.RawMessage(nil), b...)
	return nil
}

type Lesson struct {
	ID      ID     `json:"id"`
	Subject string `json:"subject"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Room    string `json:"room"`
	Teacher string `json:"teacher"`
	Group   string `json:"group"`
	// RawTeacher raw.teacher: строка или {"name": ...}
	RawTeacher json.RawMessage `json:"-"`

	Raw json.RawMessage `json:"-"`
}

func (l *Lesson) UnmarshalJSON(b []byte) error {
	type plain Lesson
	var p struct {
		plain
		Extra struct {
			Teacher json.RawMessage `json:"teacher"`
		} `json:"raw"`
	}
	if err := gojson.Unmarshal(b, &p); err != nil {
		return err
	}
	*l = Lesson(p.plain)
	l.RawTeacher = p.Extra.Teacher
	l.Raw = append(json.RawMessage(nil), b...)
	return nil
}

// TeacherName преподаватель урока с запасным вариантом из raw.teacher.
func (l Lesson) TeacherName() string {
	if t := strings.TrimSpace(l.Teacher); t != "" {
		return t
	}
	if len(l.RawTeacher) == 0 {
		return ""
	}
	var s string
	if err := gojson.Unmarshal(l.RawTeacher, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := gojson.Unmarshal(l.RawTeacher, &obj); err == nil {
		return strings.TrimSpace(obj.Name)
	}
	return ""
}

type Absence struct {
	ID     ID     `json:"id"`
	Date   string `json:"date"`
	Reason string `json:"reason"`

	Raw json.RawMessage `json:"-"`
}

func (a *Absence) UnmarshalJSON(b []byte) error {
	type plain Absence
	var p plain
	if err := gojson.Unmarshal(b, &p); err != nil {
		return err
	}
	*a = Absence(p)
	a.Raw = append(json.RawMessage(nil), b...)
	return nil
}

// Token новый токен pawnote для следующего входа.
type Token struct {
	Kind     int    `json:"kind"`
	URL      string `json:"url"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// Data формат pawnote.
type Data struct {
	Assignments []Homework      `json:"assignments"`
	LessonsList []Lesson        `json:"lessons_list"`
	Absences    []Absence       `json:"absences"`
	Evaluations json.RawMessage `json:"evaluations"`
	Gradebook   json.RawMessage `json:"gradebook"`
	Notebook    json.RawMessage `json:"notebook"`
}

// Response ответ моста. Поддерживает и формат data.*, и старый плоский
// (homework, lessons, absences, grades, carnet_correspondance).
type Response struct {
	Success     bool   `json:"success"`
	Error       string `json:"error"`
	NeedsQRCode bool   `json:"needs_qr_code"`
	NewToken    *Token `json:"new_token"`
	Data        *Data  `json:"data"`

	Homework []Homework      `json:"homework"`
	Lessons  []Lesson        `json:"lessons"`
	Absences []Absence       `json:"absences"`
	Grades   json.RawMessage `json:"grades"`
	Carnet   json.RawMessage `json:"carnet_correspondance"`
}

// Check: неуспех или требование QR-кода превращаются в FetchError.
func (r *Response) Check() error {
	if r.NeedsQRCode {
		msg := r.Error
		if msg == "" {
			msg = "token expired"
		}
		return &source.FetchError{Source: sourceName, Reason: "token expired, reconnect via QR code: " + msg}
	}
	if !r.Success {
		msg := r.Error
		if msg == "" {
			msg = "unknown error"
		}
		return &source.FetchError{Source: sourceName, Reason: "fetch failed: " + msg}
	}
	return nil
}

func (r *Response) HomeworkList() []Homework {
	if r.Data != nil && r.Data.Assignments != nil {
		return r.Data.Assignments
	}
	return r.Homework
}

func (r *Response) LessonList() []Lesson {
	if r.Data != nil && r.Data.LessonsList != nil {
		return r.Data.LessonsList
	}
	return r.Lessons
}

func (r *Response) AbsenceList() []Absence {
	if r.Data != nil && r.Data.Absences != nil {
		return r.Data.Absences
	}
	return r.Absences
}

// Evaluations оценки и ключ метаданных под них ("evaluations" либо
// "notes" для старого формата). Без оценок key пустой.
func (r *Response) Evaluations() (raw json.RawMessage, key string) {
	if r.Data != nil && isArray(r.Data.Evaluations) {
		return r.Data.Evaluations, "evaluations"
	}
	if isArray(r.Grades) {
		return r.Grades, "notes"
	}
	return nil, ""
}

func (r *Response) Gradebook() json.RawMessage {
	if r.Data != nil && present(r.Data.Gradebook) {
		return r.Data.Gradebook
	}
	return nil
}

// Notebook карнет; legacy=true если пришёл в старом поле.
func (r *Response) Notebook() (raw json.RawMessage, legacy bool) {
	if r.Data != nil && isArray(r.Data.Notebook) {
		return r.Data.Notebook, false
	}
	if isArray(r.Carnet) {
		return r.Carnet, true
	}
	return nil, false
}

func isArray(b json.RawMessage) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && (b[0] == '[' || b[0] == '{')
}

// present аналог truthy-проверки: не null, не false, не пусто.
func present(b json.RawMessage) bool {
	switch string(bytes.TrimSpace(b)) {
	case "", "null", "false", "0", `""`, "[]", "{}":
		return false
	}
	return true
}

package pronote

import (
	"encoding/json"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/Spok95/curriculum-sync/internal/ingest"
	"github.com/Spok95/curriculum-sync/internal/models"
	src "github.com/Spok95/curriculum-sync/internal/source/pronote"
)

const (
	defaultHomeworkSubject = "Devoir"
	defaultLessonSubject   = "Cours"
	absenceTitle           = "Absence"
)

// builder переводит записи PRONOTE в planning одного ученика.
type builder struct {
	loc           *time.Location
	studentID     int64
	integrationID int64
}

func (b builder) homework(h src.Homework) (models.Planning, error) {
	id := string(h.ID)
	if id == "" {
		return models.Planning{}, &ingest.ValidationError{Kind: "homework", Record: h.Subject, Reason: "missing id"}
	}
	start, ok := parseTime(h.Date, b.loc)
	if !ok {
		return models.Planning{}, &ingest.ValidationError{Kind: "homework", Record: id, Reason: "bad date " + quote(h.Date)}
	}
	subject := strings.TrimSpace(h.Subject)
	if subject == "" || subject == "N/A" {
		subject = defaultHomeworkSubject
	}
	title := subject + " - " + start.Format("15:04")
	if start.Hour() == 0 && start.Minute() == 0 {
		title = subject + " - " + start.Format("02/01/2006")
	}
	status := models.StatusToDo
	if h.Done {
		status = models.StatusCompleted
	}
	meta, err := marshalMeta(map[string]any{
		"pronote_id":      id,
		"pronote_subject": strings.TrimSpace(h.Subject),
		"pronote_raw":     rawOrNull(h.Raw),
	})
	if err != nil {
		return models.Planning{}, err
	}
	return models.Planning{
		StudentID:     b.studentID,
		IntegrationID: &b.integrationID,
		Title:         title,
		Description:   strings.TrimSpace(h.Description),
		Type:          models.PlanningHomework,
		Status:        status,
		StartDate:     start,
		EndDate:       endOfDay(start),
		ReferenceID:   &id,
		Metadata:      meta,
	}, nil
}

func (b builder) lesson(l src.Lesson) (models.Planning, error) {
	id := string(l.ID)
	if id == "" {
		return models.Planning{}, &ingest.ValidationError{Kind: "lessons", Record: l.Subject, Reason: "missing id"}
	}
	start, ok := parseTime(l.Start, b.loc)
	if !ok {
		return models.Planning{}, &ingest.ValidationError{Kind: "lessons", Record: id, Reason: "bad start " + quote(l.Start)}
	}
	end, ok := parseTime(l.End, b.loc)
	if !ok || end.Before(start) {
		end = start.Add(time.Hour)
	}
	subject := strings.TrimSpace(l.Subject)
	if subject == "" {
		subject = defaultLessonSubject
	}

	var parts []string
	if room := strings.TrimSpace(l.Room); room != "" {
		parts = append(parts, "Salle: "+room)
	}
	if teacher := l.TeacherName(); teacher != "" {
		parts = append(parts, "Professeur: "+teacher)
	}
	if group := strings.TrimSpace(l.Group); group != "" {
		parts = append(parts, "Groupe: "+group)
	}

	meta, err := marshalMeta(map[string]any{
		"pronote_id":      id,
		"pronote_subject": strings.TrimSpace(l.Subject),
		"pronote_room":    strings.TrimSpace(l.Room),
		"pronote_raw":     rawOrNull(l.Raw),
	})
	if err != nil {
		return models.Planning{}, err
	}
	return models.Planning{
		StudentID:     b.studentID,
		IntegrationID: &b.integrationID,
		Title:         subject + " - " + start.Format("15:04") + "-" + end.Format("15:04"),
		Description:   strings.Join(parts, " | "),
		Type:          models.PlanningCourse,
		Status:        models.StatusToDo,
		StartDate:     start,
		EndDate:       end,
		ReferenceID:   &id,
		Metadata:      meta,
	}, nil
}

// absence без ReferenceID: отсутствия различаются по (ученик, other, начало).
func (b builder) absence(a src.Absence) (models.Planning, error) {
	start, ok := parseTime(a.Date, b.loc)
	if !ok {
		return models.Planning{}, &ingest.ValidationError{Kind: "absences", Record: string(a.ID), Reason: "bad date " + quote(a.Date)}
	}
	reason := strings.TrimSpace(a.Reason)
	meta, err := marshalMeta(map[string]any{
		"pronote_id":     string(a.ID),
		"pronote_type":   "absence",
		"pronote_reason": reason,
		"pronote_raw":    rawOrNull(a.Raw),
	})
	if err != nil {
		return models.Planning{}, err
	}
	return models.Planning{
		StudentID:     b.studentID,
		IntegrationID: &b.integrationID,
		Title:         absenceTitle,
		Description:   reason,
		Type:          models.PlanningOther,
		Status:        models.StatusCompleted,
		StartDate:     start,
		EndDate:       start.AddDate(0, 0, 1),
		Metadata:      meta,
	}, nil
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseTime: дата без зоны считается местной (loc), с зоной переводится в loc.
func parseTime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), true
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}

func marshalMeta(m map[string]any) (json.RawMessage, error) {
	b, err := gojson.Marshal(m)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func rawOrNull(b json.RawMessage) json.RawMessage {
	if len(b) == 0 {
		return json.RawMessage("null")
	}
	return b
}

// mergeJSON накладывает ключи patch на объект base. Не-объект base
// заменяется.
func mergeJSON(base, patch []byte) (json.RawMessage, error) {
	out := map[string]json.RawMessage{}
	if len(base) > 0 {
		if err := gojson.Unmarshal(base, &out); err != nil || out == nil {
			out = map[string]json.RawMessage{}
		}
	}
	var p map[string]json.RawMessage
	if err := gojson.Unmarshal(patch, &p); err != nil {
		return nil, err
	}
	for k, v := range p {
		out[k] = v
	}
	return gojson.Marshal(out)
}

func quote(s string) string { return `"` + s + `"` }

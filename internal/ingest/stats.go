package ingest

import (
	"sort"
	"time"
)

type Tally struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
}

func (t Tally) Add(o Tally) Tally {
	return Tally{
		Created:   t.Created + o.Created,
		Updated:   t.Updated + o.Updated,
		Unchanged: t.Unchanged + o.Unchanged,
		Skipped:   t.Skipped + o.Skipped,
	}
}

// Total все учтённые записи вида.
func (t Tally) Total() int { return t.Created + t.Updated + t.Unchanged + t.Skipped }

// Stats счётчики по виду записей (classrooms, subjects, homework ...).
type Stats map[string]Tally

func (s Stats) touch(kind string) { s[kind] = s[kind] }

func (s Stats) Created(kind string)   { t := s[kind]; t.Created++; s[kind] = t }
func (s Stats) Updated(kind string)   { t := s[kind]; t.Updated++; s[kind] = t }
func (s Stats) Unchanged(kind string) { t := s[kind]; t.Unchanged++; s[kind] = t }
func (s Stats) Skipped(kind string)   { t := s[kind]; t.Skipped++; s[kind] = t }

// Merge добавляет o в s.
func (s Stats) Merge(o Stats) {
	for k, t := range o {
		s[k] = s[k].Add(t)
	}
}

var kindOrder = map[string]int{
	"classrooms": 0, "subjects": 1, "chapters": 2, "subchapters": 3,
	"homework": 10, "lessons": 11, "absences": 12, "grades": 13,
}

// Kinds ключи в порядке отчёта: уровни программы, потом виды PRONOTE,
// остальное по алфавиту.
func (s Stats) Kinds() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, iok := kindOrder[out[i]]
		rj, jok := kindOrder[out[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		}
		return out[i] < out[j]
	})
	return out
}

type ItemStatus string

const (
	ItemOK      ItemStatus = "ok"
	ItemSkipped ItemStatus = "skipped"
	ItemFailed  ItemStatus = "failed"
)

type ItemOutcome struct {
	Key    string     `json:"key"`
	Status ItemStatus `json:"status"`
	Note   string     `json:"note,omitempty"`
	Stats  Stats      `json:"stats,omitempty"`
}

type ItemError struct {
	Key     string `json:"key"`
	Class   string `json:"class"`
	Cause   string `json:"cause,omitempty"`
	Message string `json:"message"`
}

// Result итог одного запуска. Не сохраняется, живёт до отчёта.
type Result struct {
	RunID      string        `json:"run_id"`
	Op         string        `json:"op"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Stats      Stats         `json:"stats"`
	Items      []ItemOutcome `json:"items"`
	Errors     []ItemError   `json:"errors"`
}

func NewResult(op, runID string, startedAt time.Time) *Result {
	return &Result{RunID: runID, Op: op, StartedAt: startedAt, Stats: Stats{}, Items: []ItemOutcome{}, Errors: []ItemError{}}
}

func (r *Result) succeed(key string, st Stats) {
	r.Stats.Merge(st)
	r.Items = append(r.Items, ItemOutcome{Key: key, Status: ItemOK, Stats: st})
}

func (r *Result) skip(key, note string) {
	r.Items = append(r.Items, ItemOutcome{Key: key, Status: ItemSkipped, Note: note})
}

func (r *Result) fail(key string, err error) {
	r.Items = append(r.Items, ItemOutcome{Key: key, Status: ItemFailed, Note: err.Error()})
	r.Errors = append(r.Errors, ItemError{Key: key, Class: Classify(err), Cause: Cause(err), Message: err.Error()})
}

// Failed: есть хотя бы одна ошибка элемента; команда завершится с ненулевым кодом.
func (r *Result) Failed() bool { return len(r.Errors) > 0 }

// Count число элементов с данным статусом.
func (r *Result) Count(status ItemStatus) int {
	n := 0
	for _, it := range r.Items {
		if it.Status == status {
			n++
		}
	}
	return n
}

func (r *Result) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

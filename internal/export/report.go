package export

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/Spok95/curriculum-sync/internal/ingest"
)

// ResultSheets раскладывает итог запуска на листы Summary, Items, Errors.
func ResultSheets(res *ingest.Result) []SheetSpec {
	summary := SheetSpec{
		Title:  "Summary",
		Header: []string{"Kind", "Created", "Updated", "Unchanged", "Skipped", "Total"},
	}
	for _, kind := range res.Stats.Kinds() {
		t := res.Stats[kind]
		summary.Rows = append(summary.Rows, []string{
			kind, strconv.Itoa(t.Created), strconv.Itoa(t.Updated), strconv.Itoa(t.Unchanged), strconv.Itoa(t.Skipped),
			strconv.Itoa(t.Total()),
		})
	}

	items := SheetSpec{Title: "Items", Header: []string{"Item", "Status", "Note"}}
	for _, it := range res.Items {
		items.Rows = append(items.Rows, []string{it.Key, string(it.Status), it.Note})
	}

	errs := SheetSpec{Title: "Errors", Header: []string{"Item", "Class", "Cause", "Message"}}
	for _, e := range res.Errors {
		errs.Rows = append(errs.Rows, []string{e.Key, e.Class, e.Cause, e.Message})
	}

	run := SheetSpec{
		Title:  "Run",
		Header: []string{"Field", "Value"},
		Rows: [][]string{
			{"op", res.Op},
			{"run_id", res.RunID},
			{"started_at", res.StartedAt.Format(time.RFC3339)},
			{"finished_at", res.FinishedAt.Format(time.RFC3339)},
			{"duration", res.Duration().Round(time.Millisecond).String()},
		},
	}
	return []SheetSpec{summary, items, errs, run}
}

// WriteResult сохраняет итог в xlsx.
func WriteResult(res *ingest.Result, path string) error {
	wb, err := NewWorkbook(ResultSheets(res))
	if err != nil {
		return err
	}
	if err := wb.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

var invalidFileRe = regexp.MustCompile(`[\\/:*?"<>|]+`)

// ReportFilename имя файла отчёта по умолчанию: op_run_дата.xlsx.
func ReportFilename(res *ingest.Result) string {
	id := res.RunID
	if len(id) > 8 {
		id = id[:8]
	}
	name := fmt.Sprintf("%s_%s_%s.xlsx", res.Op, res.StartedAt.Format("2006-01-02_1504"), id)
	return invalidFileRe.ReplaceAllString(name, "_")
}

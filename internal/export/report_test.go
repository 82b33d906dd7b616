package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/curriculum-sync/internal/ingest"
)

func sampleResult() *ingest.Result {
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	res := ingest.NewResult("load-path", "0b7f6c1e-1111-2222-3333-444455556666", start)
	res.FinishedAt = start.Add(1500 * time.Millisecond)
	res.Stats["subjects"] = ingest.Tally{Created: 2}
	res.Stats["classrooms"] = ingest.Tally{Created: 1, Unchanged: 1}
	res.Items = append(res.Items,
		ingest.ItemOutcome{Key: "path:6ème", Status: ingest.ItemOK},
		ingest.ItemOutcome{Key: "path:5ème", Status: ingest.ItemFailed, Note: "boom"})
	res.Errors = append(res.Errors, ingest.ItemError{Key: "path:5ème", Class: ingest.ClassPersistence, Cause: "integrity", Message: "boom"})
	return res
}

func TestResultSheets(t *testing.T) {
	sheets := ResultSheets(sampleResult())
	require.Len(t, sheets, 4)

	summary := sheets[0]
	require.Len(t, summary.Rows, 2)
	assert.Equal(t, []string{"classrooms", "1", "0", "1", "0", "2"}, summary.Rows[0])
	assert.Equal(t, "subjects", summary.Rows[1][0])

	assert.Len(t, sheets[1].Rows, 2)
	assert.Equal(t, []string{"path:5ème", "persistence", "integrity", "boom"}, sheets[2].Rows[0])
	assert.Equal(t, "1.5s", sheets[3].Rows[4][1])
}

func TestWriteResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteResult(sampleResult(), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"Summary", "Items", "Errors", "Run"}, f.GetSheetList())
	v, err := f.GetCellValue("Errors", "D2")
	require.NoError(t, err)
	assert.Equal(t, "boom", v)
}

func TestReportFilenameAndColName(t *testing.T) {
	assert.Equal(t, "load-path_2025-03-10_0800_0b7f6c1e.xlsx", ReportFilename(sampleResult()))
	assert.Equal(t, "A", colName(1))
	assert.Equal(t, "Z", colName(26))
	assert.Equal(t, "AA", colName(27))
}

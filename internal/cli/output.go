package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"

	"github.com/Spok95/curriculum-sync/internal/ingest"
)

// Коды выхода.
const (
	ExitSuccess      = 0
	ExitItemsFailed  = 1 // запуск прошёл, но есть ошибки элементов
	ExitCommandError = 2 // аргументы, конфиг, фатальный сбой списка работ
)

type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode: не ExitError считается ошибкой команды.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

var ValidFormats = []string{"text", "json"}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// WriteResult печатает итог: таблица по видам и список ошибок, либо JSON.
func WriteResult(w io.Writer, format string, res *ingest.Result) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintf(w, "%s run %s: ok %d, skipped %d, failed %d in %s\n",
		res.Op, res.RunID, res.Count(ingest.ItemOK), res.Count(ingest.ItemSkipped),
		res.Count(ingest.ItemFailed), res.Duration().Round(time.Millisecond))

	if len(res.Stats) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "KIND\tCREATED\tUPDATED\tUNCHANGED\tSKIPPED\tTOTAL")
		for _, kind := range res.Stats.Kinds() {
			t := res.Stats[kind]
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\n", kind, t.Created, t.Updated, t.Unchanged, t.Skipped, t.Total())
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	for _, it := range res.Items {
		if it.Status == ingest.ItemSkipped {
			fmt.Fprintf(w, "skipped %s: %s\n", it.Key, it.Note)
		}
	}
	if len(res.Errors) > 0 {
		fmt.Fprintf(w, "errors (%d):\n", len(res.Errors))
		for _, e := range res.Errors {
			class := e.Class
			if e.Cause != "" {
				class += "/" + e.Cause
			}
			fmt.Fprintf(w, "  %s [%s] %s\n", e.Key, class, e.Message)
		}
	}
	return nil
}

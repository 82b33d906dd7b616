package pronote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/exec"
	"strings"

	gojson "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/Spok95/curriculum-sync/internal/source"
)

// Fetcher получает данные ученика по учётным данным интеграции.
type Fetcher interface {
	Fetch(ctx context.Context, credentials json.RawMessage) (*Response, error)
}

// ScriptFetcher запускает мост pawnote (npm run fetch) с учётными данными
// последним аргументом и ищет JSON-ответ в выводе.
type ScriptFetcher struct {
	Command []string
	Dir     string
	Log     *zap.Logger
}

func NewScriptFetcher(command, dir string, log *zap.Logger) *ScriptFetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &ScriptFetcher{Command: strings.Fields(command), Dir: dir, Log: log}
}

func (f *ScriptFetcher) Fetch(ctx context.Context, credentials json.RawMessage) (*Response, error) {
	if len(f.Command) == 0 {
		return nil, &source.FetchError{Source: sourceName, Reason: "empty fetch command"}
	}
	args := append(append([]string(nil), f.Command[1:]...), string(credentials))
	cmd := exec.CommandContext(ctx, f.Command[0], args...)
	cmd.Dir = f.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctx.Err() != nil {
		return nil, &source.FetchError{Source: sourceName, Reason: "script interrupted", Err: ctx.Err()}
	}
	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		return nil, &source.FetchError{Source: sourceName, Reason: "start script", Err: runErr}
	}

	raw, ok := ExtractJSON(stdout.String())
	if !ok {
		raw, ok = firstToLast(stderr.String())
	}
	if !ok {
		reason := "no JSON in script output"
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			reason += ": " + clip(msg)
		}
		return nil, &source.FetchError{Source: sourceName, Reason: reason, Err: runErr}
	}
	if runErr != nil {
		// ненулевой код выхода не фатален, если ответ всё же разобрался
		f.Log.Warn("pronote script exited with error", zap.Error(runErr))
	}
	return parseResponse(raw)
}

// HTTPFetcher тот же мост, поднятый как HTTP-сервис: POST учётных данных,
// ответ в формате скрипта.
type HTTPFetcher struct {
	client *source.Client
	url    string
}

func NewHTTPFetcher(c *source.Client, url string) *HTTPFetcher {
	return &HTTPFetcher{client: c, url: url}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, credentials json.RawMessage) (*Response, error) {
	body, err := f.client.Do(ctx, http.MethodPost, f.url, credentials, "application/json", source.StatusOK)
	if err != nil {
		return nil, err
	}
	return parseResponse(body)
}

// FileFetcher импорт готовой выгрузки. Файл без ключа success считается
// голым блоком data.
type FileFetcher struct {
	Path string
}

func (f FileFetcher) Fetch(_ context.Context, _ json.RawMessage) (*Response, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, &source.FetchError{Source: sourceName, URL: f.Path, Reason: "read file", Err: err}
	}
	var probe map[string]json.RawMessage
	if err := gojson.Unmarshal(b, &probe); err != nil {
		return nil, &source.FetchError{Source: sourceName, URL: f.Path, Reason: "decode file", Err: err}
	}
	if _, ok := probe["success"]; ok {
		return parseResponse(b)
	}
	var d Data
	if err := gojson.Unmarshal(b, &d); err != nil {
		return nil, &source.FetchError{Source: sourceName, URL: f.Path, Reason: "decode data", Err: err}
	}
	return &Response{Success: true, Data: &d}, nil
}

func parseResponse(b []byte) (*Response, error) {
	var probe map[string]json.RawMessage
	if err := gojson.Unmarshal(b, &probe); err != nil {
		return nil, &source.FetchError{Source: sourceName, Reason: "decode response", Err: err}
	}
	if _, ok := probe["success"]; !ok {
		return nil, &source.FetchError{Source: sourceName, Reason: "response without success key"}
	}
	var r Response
	if err := gojson.Unmarshal(b, &r); err != nil {
		return nil, &source.FetchError{Source: sourceName, Reason: "decode response", Err: err}
	}
	return &r, nil
}

// ExtractJSON ищет ответ в stdout скрипта: сначала строку, начинающуюся
// с "{" и содержащую "success" (от неё до последней "}"), затем последний
// сбалансированный блок {...}.
func ExtractJSON(out string) ([]byte, bool) {
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "{") && strings.Contains(t, `"success"`) {
			if b, ok := firstToLast(strings.Join(lines[i:], "\n")); ok {
				return b, true
			}
		}
	}
	return lastBalanced(out)
}

func firstToLast(s string) ([]byte, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	b := []byte(s[start : end+1])
	if !gojson.Valid(b) {
		return nil, false
	}
	return b, true
}

func lastBalanced(s string) ([]byte, bool) {
	end := strings.LastIndex(s, "}")
	if end < 0 {
		return nil, false
	}
	depth := 0
	for i := end; i >= 0; i-- {
		switch s[i] {
		case '}':
			depth++
		case '{':
			depth--
			if depth == 0 {
				b := []byte(s[i : end+1])
				if gojson.Valid(b) {
					return b, true
				}
				return nil, false
			}
		}
	}
	return nil, false
}

func clip(s string) string {
	if len(s) > 300 {
		return s[:300] + "..."
	}
	return s
}

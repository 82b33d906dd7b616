package cli

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/curriculum-sync/internal/curriculum"
	"github.com/Spok95/curriculum-sync/internal/ingest"
)

func TestCommandPresence(t *testing.T) {
	cmd, _ := NewRootCommand()
	for _, name := range []string{"load-path", "load-prompts", "scrape-digischool", "sync-pronote", "serve", "migrate"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd, _ := NewRootCommand()
	for _, name := range []string{"format", "report", "no-notify"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
	for _, sub := range []string{"load-path", "load-prompts", "scrape-digischool", "sync-pronote"} {
		c, _, err := cmd.Find([]string{sub})
		require.NoError(t, err)
		f := c.Flags().Lookup("force")
		require.NotNil(t, f, sub)
		assert.Equal(t, "false", f.DefValue)
	}
}

func TestLoadPromptsArgs(t *testing.T) {
	cmd, _ := NewRootCommand()
	c, _, err := cmd.Find([]string{"load-prompts"})
	require.NoError(t, err)

	t.Run("pair", func(t *testing.T) {
		assert.NoError(t, c.Args(c, []string{"6ème", "Mathématiques"}))
	})
	t.Run("neither", func(t *testing.T) {
		err := c.Args(c, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, curriculum.ErrUsage))
	})
	t.Run("all_with_pair", func(t *testing.T) {
		require.NoError(t, c.Flags().Set("all", "true"))
		assert.Error(t, c.Args(c, []string{"6ème", "Mathématiques"}))
		assert.NoError(t, c.Args(c, nil))
	})
}

func TestSyncPronoteArgs(t *testing.T) {
	cmd, _ := NewRootCommand()
	c, _, err := cmd.Find([]string{"sync-pronote"})
	require.NoError(t, err)

	assert.NoError(t, c.Args(c, nil))
	require.NoError(t, c.Flags().Set("from-file", "data.json"))
	assert.Error(t, c.Args(c, nil), "from-file without integration id")
	require.NoError(t, c.Flags().Set("integration-id", "3"))
	assert.NoError(t, c.Args(c, nil))
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitCommandError, GetExitCode(errors.New("x")))
	assert.Equal(t, ExitItemsFailed, GetExitCode(&ExitError{Code: ExitItemsFailed, Message: "m"}))
	assert.Equal(t, ExitCommandError, GetExitCode(fatal("load-path", errors.New("boom"))))
}

func TestFinishItemFailures(t *testing.T) {
	var out bytes.Buffer
	opts := &RootOptions{Format: "text", Out: &out}
	res := ingest.NewResult("load-prompts", "run-1", time.Now())
	res.Stats["chapters"] = ingest.Tally{Updated: 2, Skipped: 1}
	res.Items = append(res.Items, ingest.ItemOutcome{Key: "prompts:6ème/Maths", Status: ingest.ItemFailed})
	res.Errors = append(res.Errors,
		ingest.ItemError{Key: "prompts:6ème/Maths", Class: ingest.ClassFetch, Message: "http 500"},
		ingest.ItemError{Key: "prompts:6ème/SVT", Class: ingest.ClassPersistence, Cause: "integrity", Message: "duplicate key"})
	res.FinishedAt = res.StartedAt

	err := opts.finish(res)
	assert.Equal(t, ExitItemsFailed, GetExitCode(err))
	assert.Contains(t, out.String(), "TOTAL")
	assert.Regexp(t, `chapters\s+0\s+2\s+0\s+1\s+3`, out.String())
	assert.Contains(t, out.String(), "prompts:6ème/Maths [fetch] http 500")
	assert.Contains(t, out.String(), "prompts:6ème/SVT [persistence/integrity] duplicate key")
}

func TestWriteResultJSON(t *testing.T) {
	var out bytes.Buffer
	res := ingest.NewResult("load-path", "run-2", time.Now())
	require.NoError(t, WriteResult(&out, "json", res))
	assert.Contains(t, out.String(), `"run_id": "run-2"`)
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	for _, k := range []string{"HTTP_TIMEOUT", "SYNC_FRESHNESS", "SCRAPE_DELAY", "SYNC_INTERVAL", "ADMIN_IDS", "DIGISCHOOL_SECTIONS", "TZ"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, time.Hour, cfg.FreshnessWindow)
	assert.Equal(t, time.Second, cfg.ScrapeDelay)
	assert.Equal(t, []string{"/primaire"}, cfg.DigischoolSections)
	assert.Equal(t, "Europe/Paris", cfg.Location.String())
	assert.False(t, cfg.NotifyEnabled())
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing_database_url", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		_, err := Load()
		require.Error(t, err)
	})
	t.Run("bad_duration", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("SYNC_FRESHNESS", "soon")
		_, err := Load()
		require.ErrorContains(t, err, "SYNC_FRESHNESS")
	})
	t.Run("bad_admin_ids", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("ADMIN_IDS", "1,x")
		_, err := Load()
		require.ErrorContains(t, err, "ADMIN_IDS")
	})
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs(" 1, 2 3 ")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	LogLevel    string
	Env         string // dev|prod
	SentryDSN   string
	Release     string
	HTTPAddr    string
	Location    *time.Location

	PathAPIURL         string
	PromptsAPIURL      string
	DigischoolBaseURL  string
	DigischoolSections []string
	HTTPTimeout        time.Duration
	FreshnessWindow    time.Duration
	ScrapeDelay        time.Duration

	PronoteFetchCmd  string
	PronoteScriptDir string
	PronoteBridgeURL string
	SyncInterval     time.Duration

	// Telegram-сводка по запуску; без токена не отправляем
	BotToken string
	AdminIDs []int64
}

// Load читает окружение; .env подхватывается, если есть.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, errors.New("required env DATABASE_URL is empty")
	}

	tz := getenv("TZ", "Europe/Paris")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.Local
	}

	adminIDs, err := parseIDs(os.Getenv("ADMIN_IDS"))
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS: %w", err)
	}

	cfg := &Config{
		DatabaseURL: dsn,
		LogLevel:    getenv("LOG_LEVEL", "info"),
		Env:         getenv("ENV", "dev"),
		SentryDSN:   os.Getenv("SENTRY_DSN"),
		Release:     getenv("RELEASE", "dev"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		Location:    loc,

		PathAPIURL:         getenv("PATH_API_URL", "https://api.sara.education/api/documents/classrooms"),
		PromptsAPIURL:      getenv("PROMPTS_API_URL", "https://api.sara.education/api/classroom/subject/chapters"),
		DigischoolBaseURL:  strings.TrimRight(getenv("DIGISCHOOL_BASE_URL", "https://www.digischool.fr"), "/"),
		DigischoolSections: parseList(getenv("DIGISCHOOL_SECTIONS", "/primaire")),

		PronoteFetchCmd:  getenv("PRONOTE_FETCH_CMD", "npm run fetch"),
		PronoteScriptDir: os.Getenv("PRONOTE_SCRIPT_DIR"),
		PronoteBridgeURL: os.Getenv("PRONOTE_BRIDGE_URL"),

		BotToken: os.Getenv("BOT_TOKEN"),
		AdminIDs: adminIDs,
	}

	durations := []struct {
		env string
		def time.Duration
		dst *time.Duration
	}{
		{"HTTP_TIMEOUT", 30 * time.Second, &cfg.HTTPTimeout},
		{"SYNC_FRESHNESS", time.Hour, &cfg.FreshnessWindow},
		{"SCRAPE_DELAY", time.Second, &cfg.ScrapeDelay},
		{"SYNC_INTERVAL", time.Hour, &cfg.SyncInterval},
	}
	for _, d := range durations {
		v, err := parseDuration(os.Getenv(d.env), d.def)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.env, err)
		}
		*d.dst = v
	}
	return cfg, nil
}

// NotifyEnabled: есть токен и кому слать.
func (c *Config) NotifyEnabled() bool { return c.BotToken != "" && len(c.AdminIDs) > 0 }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

func parseList(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseIDs(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad id %q: %w", p, err)
		}
		out = append(out, n)
	}
	return out, nil
}

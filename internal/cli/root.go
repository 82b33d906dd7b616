// Package cli команды ingest: загрузка программы, промптов, скрейпинг,
// синхронизация PRONOTE, serve и migrate.
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Spok95/curriculum-sync/internal/config"
	"github.com/Spok95/curriculum-sync/internal/db"
	"github.com/Spok95/curriculum-sync/internal/export"
	"github.com/Spok95/curriculum-sync/internal/ingest"
	"github.com/Spok95/curriculum-sync/internal/logging"
	"github.com/Spok95/curriculum-sync/internal/observability"
	"github.com/Spok95/curriculum-sync/internal/tg"
)

// RootOptions глобальные флаги и окружение, поднятое в PersistentPreRunE.
type RootOptions struct {
	Format string
	Report string
	// NoNotify отключает Telegram-сводку даже при настроенном токене
	NoNotify bool

	Cfg *config.Config
	Log *zap.Logger
	DB  *sql.DB

	Out     io.Writer
	closers []func()
}

// Close освобождает ресурсы в обратном порядке.
func (o *RootOptions) Close() {
	for i := len(o.closers) - 1; i >= 0; i-- {
		o.closers[i]()
	}
	o.closers = nil
}

func NewRootCommand() (*cobra.Command, *RootOptions) {
	opts := &RootOptions{Out: os.Stdout}

	cmd := &cobra.Command{
		Use:           "ingest",
		Short:         "Curriculum and PRONOTE ingestion",
		Long:          "Loads the curriculum tree, chapter prompts and digischool pages, and syncs PRONOTE integrations into Postgres.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !isValidFormat(opts.Format) {
				return WrapExitError(ExitCommandError, "invalid flag", fmt.Errorf("format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.setup(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")
	cmd.PersistentFlags().StringVar(&opts.Report, "report", "", "write the run result to this .xlsx file")
	cmd.PersistentFlags().BoolVar(&opts.NoNotify, "no-notify", false, "do not send the Telegram summary")

	cmd.AddCommand(newLoadPathCommand(opts))
	cmd.AddCommand(newLoadPromptsCommand(opts))
	cmd.AddCommand(newScrapeCommand(opts))
	cmd.AddCommand(newSyncPronoteCommand(opts))
	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))

	return cmd, opts
}

// setup конфиг, логгер, sentry, пул и миграции.
func (o *RootOptions) setup(ctx context.Context) error {
	if o.DB != nil {
		return nil
	}
	cfg, err := config.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "config", err)
	}
	o.Cfg = cfg

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		return WrapExitError(ExitCommandError, "logger", err)
	}
	o.Log = lg.Base
	o.closers = append(o.closers, lg.Closer)

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, cfg.Release)
	if err != nil {
		o.Log.Warn("sentry init failed", zap.Error(err))
	}
	o.closers = append(o.closers, flush)

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return WrapExitError(ExitCommandError, "database", err)
	}
	o.DB = database
	o.closers = append(o.closers, func() { _ = database.Close() })

	if err := db.Migrate(ctx, database, o.Log); err != nil {
		return WrapExitError(ExitCommandError, "migrate", err)
	}
	return nil
}

// finish печатает итог, пишет xlsx, шлёт сводку; ошибки элементов
// превращаются в код выхода 1.
func (o *RootOptions) finish(res *ingest.Result) error {
	if err := WriteResult(o.Out, o.Format, res); err != nil {
		return WrapExitError(ExitCommandError, "print result", err)
	}
	if o.Report != "" {
		if err := export.WriteResult(res, o.Report); err != nil {
			return WrapExitError(ExitCommandError, "write report", err)
		}
		o.Log.Info("report written", zap.String("path", o.Report))
	}
	o.notify(res)
	if res.Failed() {
		return &ExitError{Code: ExitItemsFailed, Message: fmt.Sprintf("%s: %d item(s) failed", res.Op, len(res.Errors))}
	}
	return nil
}

func (o *RootOptions) notify(res *ingest.Result) {
	if o.NoNotify || o.Cfg == nil || !o.Cfg.NotifyEnabled() {
		return
	}
	n, err := tg.NewNotifier(o.Cfg.BotToken, o.Cfg.AdminIDs, o.Log)
	if err != nil {
		o.Log.Warn("telegram notifier", zap.Error(err))
		return
	}
	if err := n.NotifyResult(res); err != nil {
		o.Log.Warn("telegram summary not delivered", zap.Error(err))
	}
}

// fatal ошибка разбора списка работ.
func fatal(op string, err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	observability.CaptureErr(err)
	return WrapExitError(ExitCommandError, op, err)
}

// Execute точка входа для main.
func Execute(ctx context.Context, args []string, stderr io.Writer) int {
	cmd, opts := NewRootCommand()
	defer opts.Close()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
	}
	return GetExitCode(err)
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Spok95/curriculum-sync/internal/app"
	"github.com/Spok95/curriculum-sync/internal/ingest"
	"github.com/Spok95/curriculum-sync/internal/jobs"
	"github.com/Spok95/curriculum-sync/internal/pronote"
)

func newServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve /healthz, /metrics and the manual sync trigger; sync PRONOTE periodically",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			// одна RunLock на процесс: задача и HTTP-триггер не пересекаются по интеграции
			runner := opts.pronoteRunner(opts.pronoteFetcher(""), ingest.NewRunLock())

			app.StartHTTP(ctx, opts.Cfg.HTTPAddr, app.Router(opts.DB, runner, opts.Log), opts.Log)
			opts.Log.Info("http listening", zap.String("addr", opts.Cfg.HTTPAddr))

			r := jobs.New(ctx, opts.Log)
			r.Every(opts.Cfg.SyncInterval, pronote.Op, true, func(ctx context.Context) error {
				res, err := runner.Run(ctx, pronote.Selection{}, false)
				if err != nil {
					return err
				}
				opts.notify(res)
				if res.Failed() {
					return fmt.Errorf("%d integration(s) failed", len(res.Errors))
				}
				return nil
			})

			<-ctx.Done()
			r.Wait()
			opts.Log.Info("serve stopped")
			return nil
		},
	}
}

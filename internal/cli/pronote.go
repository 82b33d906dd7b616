package cli

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Spok95/curriculum-sync/internal/ingest"
	"github.com/Spok95/curriculum-sync/internal/pronote"
	"github.com/Spok95/curriculum-sync/internal/source"
	srcpronote "github.com/Spok95/curriculum-sync/internal/source/pronote"
)

// pronoteFetcher: файл, иначе HTTP-мост, иначе скрипт.
func (o *RootOptions) pronoteFetcher(fromFile string) srcpronote.Fetcher {
	switch {
	case fromFile != "":
		return srcpronote.FileFetcher{Path: fromFile}
	case o.Cfg.PronoteBridgeURL != "":
		c := source.New("pronote", source.Options{Timeout: o.Cfg.HTTPTimeout, Log: o.Log})
		return srcpronote.NewHTTPFetcher(c, o.Cfg.PronoteBridgeURL)
	}
	return srcpronote.NewScriptFetcher(o.Cfg.PronoteFetchCmd, o.Cfg.PronoteScriptDir, o.Log)
}

func (o *RootOptions) pronoteRunner(f srcpronote.Fetcher, locks *ingest.RunLock) *pronote.Runner {
	return &pronote.Runner{
		Pool:      o.DB,
		Service:   pronote.NewService(f, o.Cfg.Location, o.Log),
		Locks:     locks,
		Freshness: o.Cfg.FreshnessWindow,
		Log:       o.Log,
	}
}

func newSyncPronoteCommand(opts *RootOptions) *cobra.Command {
	var (
		force         bool
		all           bool
		integrationID int64
		studentID     int64
		fromFile      string
	)
	cmd := &cobra.Command{
		Use:   "sync-pronote",
		Short: "Sync homework, lessons, absences and grades of PRONOTE integrations",
		Args: func(_ *cobra.Command, _ []string) error {
			if integrationID < 0 || studentID < 0 {
				return errors.New("ids must be positive")
			}
			if fromFile != "" && integrationID == 0 {
				return errors.New("--from-file needs --integration-id")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			sel := pronote.Selection{IntegrationID: integrationID, StudentID: studentID}
			runner := opts.pronoteRunner(opts.pronoteFetcher(fromFile), ingest.NewRunLock())
			res, err := runner.Run(ctx, sel, force)
			if err != nil {
				return fatal(pronote.Op, err)
			}
			if len(res.Items) == 0 {
				opts.Log.Warn("nothing to sync", zap.Bool("all", all), zap.Int64("student_id", studentID))
			}
			return opts.finish(res)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "sync even if synced within the freshness window")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "all active PRONOTE integrations (default)")
	cmd.Flags().Int64Var(&integrationID, "integration-id", 0, "one integration by id")
	cmd.Flags().Int64Var(&studentID, "student-id", 0, "active PRONOTE integrations of one student")
	cmd.Flags().StringVar(&fromFile, "from-file", "", "import already fetched PRONOTE data from a JSON file")
	cmd.MarkFlagsMutuallyExclusive("integration-id", "student-id", "all")
	return cmd
}

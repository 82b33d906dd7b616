package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Spok95/curriculum-sync/internal/curriculum"
	"github.com/Spok95/curriculum-sync/internal/db"
	"github.com/Spok95/curriculum-sync/internal/ingest"
	"github.com/Spok95/curriculum-sync/internal/source"
	"github.com/Spok95/curriculum-sync/internal/source/digischool"
	"github.com/Spok95/curriculum-sync/internal/source/pathapi"
)

func (o *RootOptions) pathClient() *pathapi.Client {
	c := source.New("path-api", source.Options{Timeout: o.Cfg.HTTPTimeout, Log: o.Log})
	return pathapi.New(c, o.Cfg.PathAPIURL, o.Cfg.PromptsAPIURL)
}

func (o *RootOptions) orchestrator(op string, throttle ingest.Waiter) *ingest.Orchestrator[*db.Session] {
	return &ingest.Orchestrator[*db.Session]{
		Op:        op,
		Session:   db.NewSession(o.DB),
		Freshness: o.Cfg.FreshnessWindow,
		Throttle:  throttle,
		Locks:     ingest.NewRunLock(),
		Log:       o.Log,
	}
}

func newLoadPathCommand(opts *RootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "load-path",
		Short: "Load classrooms, subjects, chapters and sub-chapters from the curriculum API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			engine := ingest.NewEngine(curriculum.PathNormalizer, opts.Log)
			items, err := curriculum.PathItems(ctx, opts.DB, opts.pathClient(), engine, force)
			if err != nil {
				return fatal(curriculum.OpLoadPath, err)
			}
			return opts.finish(opts.orchestrator(curriculum.OpLoadPath, nil).Run(ctx, items, force))
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing nodes and ignore freshness")
	return cmd
}

func newLoadPromptsCommand(opts *RootOptions) *cobra.Command {
	var (
		force bool
		all   bool
	)
	cmd := &cobra.Command{
		Use:   "load-prompts [classroom subject]",
		Short: "Load chapter and sub-chapter prompts for one classroom/subject pair or all of them",
		Example: `  ingest load-prompts "6ème" "Mathématiques"
  ingest load-prompts --all`,
		Args: func(_ *cobra.Command, args []string) error {
			switch {
			case all && len(args) > 0:
				return errors.New("give either classroom and subject, or --all")
			case !all && len(args) != 2:
				return fmt.Errorf("%w: give classroom and subject, or --all", curriculum.ErrUsage)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sel := curriculum.PromptSelection{All: all}
			if !all {
				sel.Classroom, sel.Subject = args[0], args[1]
			}
			engine := ingest.NewEngine(curriculum.PathNormalizer, opts.Log)
			items, err := curriculum.PromptItems(ctx, opts.DB, opts.pathClient(), engine, sel, force)
			if err != nil {
				return fatal(curriculum.OpLoadPrompt, err)
			}
			return opts.finish(opts.orchestrator(curriculum.OpLoadPrompt, nil).Run(ctx, items, force))
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "every classroom/subject pair in the store")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "replace prompts that are already set")
	return cmd
}

func newScrapeCommand(opts *RootOptions) *cobra.Command {
	var (
		force    bool
		sections []string
	)
	cmd := &cobra.Command{
		Use:   "scrape-digischool",
		Short: "Scrape digischool.fr section pages into the curriculum tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if len(sections) == 0 {
				sections = opts.Cfg.DigischoolSections
			}
			c := source.New("digischool", source.Options{Timeout: opts.Cfg.HTTPTimeout, Log: opts.Log})
			scraper := digischool.New(c, opts.Cfg.DigischoolBaseURL)
			throttle := source.NewThrottle(opts.Cfg.ScrapeDelay)
			engine := ingest.NewEngine(curriculum.ScrapeNormalizer, opts.Log)

			items, err := curriculum.ScrapeItems(ctx, opts.DB, scraper, engine, sections, throttle, force)
			if err != nil {
				return fatal(curriculum.OpScrape, err)
			}
			return opts.finish(opts.orchestrator(curriculum.OpScrape, throttle).Run(ctx, items, force))
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing nodes and ignore freshness")
	cmd.Flags().StringSliceVar(&sections, "section", nil, "section index path, repeatable (default from DIGISCHOOL_SECTIONS)")
	return cmd
}

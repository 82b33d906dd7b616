package cli

import (
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

// migrate: миграции уже накатил setup, команда сообщает версию.
func newMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and print the schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := goose.GetDBVersionContext(cmd.Context(), opts.DB)
			if err != nil {
				return WrapExitError(ExitCommandError, "schema version", err)
			}
			fmt.Fprintf(opts.Out, "schema version %d\n", v)
			return nil
		},
	}
}

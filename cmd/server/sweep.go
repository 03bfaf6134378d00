package main

import (
	"fmt"

	"github.com/jrsteele09/storefront-sessions/reaper"
	"github.com/spf13/cobra"
)

func newSweepCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired deny-list records once and exit (for cron)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			removed, err := reaper.New(a.authority, 0, reaper.WithLogger(a.log)).RunOnce(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired records\n", removed)
			return nil
		},
	}
}

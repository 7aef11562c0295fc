package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/willr196/vergo-db-sub002/internal/client/replay"
)

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay queued offline actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := replay.New(a.offline, a.api, a.log)
			done, err := r.ReplayAll(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "Delivered %d queued action(s)\n", done)
			return err
		},
	}
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	Short:   "Push the pending queue to GitHub now",
	GroupID: "sync",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Syncer.SyncNow(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return outputJSON(out, res)
		}
		if res.SyncedCount == 0 {
			printInfo(out, "Nothing to sync")
			return nil
		}
		printSuccess(out, fmt.Sprintf("synced %d bookmark(s), %d new", res.SyncedCount, res.AddedCount))
		if len(res.Paths) > 0 {
			printField(out, "files", strings.Join(res.Paths, ", "))
		}
		return nil
	},
}

func init() { rootCmd.AddCommand(syncCmd) }

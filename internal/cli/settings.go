package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/ghclip/internal/settings"
)

var settingsCmd = &cobra.Command{
	Use:     "settings",
	Short:   "Show or load sync settings",
	GroupID: "sync",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.Store.Settings(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return outputJSON(out, s)
		}
		printField(out, "repository", s.RepoOwner+"/"+s.RepoName)
		printField(out, "branch", s.Branch)
		printField(out, "batch size", s.BatchSize)
		printField(out, "interval", fmt.Sprintf("%d min", s.SyncIntervalMinutes))
		printField(out, "auto sync", s.AutoSync)
		printField(out, "structure", s.PartitionStrategy)
		return nil
	},
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Validate a YAML settings file without applying it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.NewLoader(args[0]).Load()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return outputJSON(out, s)
		}
		printSuccess(out, args[0]+" is valid")
		return nil
	},
}

var settingsApplyCmd = &cobra.Command{
	Use:   "apply <file>",
	Short: "Load a YAML settings file into the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := settings.NewLoader(args[0]).Apply(cmd.Context(), a.Store)
		if err != nil {
			return err
		}
		printSuccess(cmd.OutOrStdout(), fmt.Sprintf("settings applied for %s/%s", s.RepoOwner, s.RepoName))
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsCheckCmd, settingsApplyCmd)
	rootCmd.AddCommand(settingsCmd)
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	jsonOutput bool
	verbose    bool
)

// rootCmd is the root command for ghclip.
var rootCmd = &cobra.Command{
	Use:     "ghclip",
	Version: "dev",
	Short:   "Queue bookmarks locally and sync them to a GitHub repository",
	Long: `ghclip keeps a local queue of bookmarks and pushes them in batches to JSON
files in a GitHub repository, authenticating with a personal access token,
the OAuth device flow or a GitHub App.

Configuration comes from GHCLIP_*, GITHUB_* and REDIS_* environment variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at the configured level instead of warnings only")

	rootCmd.AddGroup(
		&cobra.Group{ID: "links", Title: "Links:"},
		&cobra.Group{ID: "sync", Title: "Sync:"},
		&cobra.Group{ID: "auth", Title: "Authentication:"},
		&cobra.Group{ID: "daemon", Title: "Daemon:"},
	)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the ghclip version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), rootCmd.Version)
		},
	})
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

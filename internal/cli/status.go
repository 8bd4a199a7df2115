package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/ghclip/internal/domain"
)

type statusOutput struct {
	AuthMethod           domain.AuthMethod       `json:"authMethod"`
	Connected            bool                    `json:"connected"`
	Login                string                  `json:"login,omitempty"`
	AwaitingInstallation bool                    `json:"awaitingInstallation"`
	Reconnect            *domain.ReconnectSignal `json:"reconnect,omitempty"`
	Repository           string                  `json:"repository,omitempty"`
	Pending              int                     `json:"pending"`
	Total                int                     `json:"total"`
	LastSync             *domain.SyncStatus      `json:"lastSync,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show authentication, queue and last sync",
	GroupID: "sync",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		st := statusOutput{}

		creds, err := a.Store.Credentials(ctx)
		if err != nil {
			return err
		}
		st.AuthMethod, st.Connected, st.Login = creds.Method, creds.Configured(), creds.Login()

		if st.AwaitingInstallation, err = a.Store.AwaitingInstallation(ctx); err != nil {
			return err
		}
		if st.Reconnect, err = a.Store.Reconnect(ctx); err != nil {
			return err
		}
		if st.LastSync, err = a.Store.LastSync(ctx); err != nil {
			return err
		}
		s, err := a.Store.Settings(ctx)
		if err != nil {
			return err
		}
		if s.Complete() {
			st.Repository = s.RepoOwner + "/" + s.RepoName + "@" + s.Branch
		}
		pending, err := a.Store.PendingLinks(ctx)
		if err != nil {
			return err
		}
		all, err := a.Store.AllLinks(ctx)
		if err != nil {
			return err
		}
		st.Pending, st.Total = len(pending), len(all)

		out := cmd.OutOrStdout()
		if jsonOutput {
			return outputJSON(out, st)
		}

		if st.Reconnect != nil {
			printWarning(out, st.Reconnect.Reason)
		}
		method := string(st.AuthMethod)
		if method == "" {
			method = "none"
		}
		printField(out, "auth", method)
		printField(out, "connected", st.Connected)
		if st.Login != "" {
			printField(out, "login", st.Login)
		}
		if st.AwaitingInstallation {
			printField(out, "installation", "waiting")
		}
		if st.Repository == "" {
			printField(out, "repository", "not configured")
		} else {
			printField(out, "repository", st.Repository)
		}
		printField(out, "pending", st.Pending)
		printField(out, "total", st.Total)
		if st.LastSync != nil {
			result := "ok"
			if !st.LastSync.Success {
				result = "failed: " + st.LastSync.Error
			}
			printField(out, "last sync", st.LastSync.At.Local().Format(time.DateTime)+" "+result)
		}
		return nil
	},
}

func init() { rootCmd.AddCommand(statusCmd) }

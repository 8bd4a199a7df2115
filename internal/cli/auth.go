package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/ghclip/internal/domain"
)

var authCmd = &cobra.Command{
	Use:     "auth",
	Short:   "Connect or disconnect GitHub",
	GroupID: "auth",
}

var authTokenCmd = &cobra.Command{
	Use:   "token <personal-access-token>",
	Short: "Validate and store a personal access token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.Manual.SaveManualToken(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printSuccess(cmd.OutOrStdout(), "connected as "+user.Login)
		return nil
	},
}

var authDeviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Sign in with the OAuth device flow",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.Device == nil {
			return &domain.ConfigError{Reason: "GITHUB_OAUTH_CLIENT_ID is not set"}
		}

		ctx := cmd.Context()
		code, err := a.Device.Start(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		printInfo(out, fmt.Sprintf("Open %s and enter the code:", code.VerificationURI))
		_, _ = labelColor.Fprintf(out, "\n    %s\n\n", code.UserCode)
		_, _ = dimColor.Fprintln(out, "Waiting for approval...")

		user, err := a.Device.Poll(ctx, code)
		if err != nil {
			if errors.Is(err, ctx.Err()) {
				return fmt.Errorf("device authorization cancelled")
			}
			return err
		}
		printSuccess(out, "connected as "+user.Login)
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored credentials",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Manual.Logout(cmd.Context()); err != nil {
			return err
		}
		printSuccess(cmd.OutOrStdout(), "credentials cleared")
		return nil
	},
}

func init() {
	authCmd.AddCommand(authTokenCmd, authDeviceCmd, authLogoutCmd)
	rootCmd.AddCommand(authCmd)
}

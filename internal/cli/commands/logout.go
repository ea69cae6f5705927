package commands

import (
	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.Auth().Logout(cmd.Context()); err != nil {
				return err
			}
			env.Println("✓ " + env.T("login.logged_out"))
			return nil
		},
	}
}

package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/clickreserve/click/internal/domain"
	"github.com/clickreserve/click/internal/guard"
	"github.com/clickreserve/click/internal/validation"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser(cmd.Context(), env, guard.DefaultPolicy)
			if err != nil {
				return err
			}
			printProfile(env, user)
			return nil
		},
	}
}

// NewProfileCmd creates the profile command group
func NewProfileCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update your profile",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Fetch and show your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := requireUser(cmd.Context(), env, guard.DefaultPolicy); err != nil {
				return err
			}
			user, err := env.Auth().RefreshUser(cmd.Context())
			if err != nil {
				return err
			}
			printProfile(env, user)
			return nil
		},
	})
	cmd.AddCommand(newProfileUpdateCmd(env))

	return cmd
}

func newProfileUpdateCmd(env *Env) *cobra.Command {
	var name, firstName, lastName, phone, language string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update profile fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := make(map[string]interface{})
			flags := cmd.Flags()
			if flags.Changed("name") {
				fields["name"] = name
			}
			if flags.Changed("first-name") {
				fields["first_name"] = firstName
			}
			if flags.Changed("last-name") {
				fields["last_name"] = lastName
			}
			if flags.Changed("phone") {
				fields["phone"] = validation.NormalizePhone(phone, env.Config.Region)
			}
			if flags.Changed("language") {
				fields["language"] = language
			}
			if len(fields) == 0 {
				return fmt.Errorf("nothing to update (use --name, --first-name, --last-name, --phone or --language)")
			}

			if _, err := requireUser(cmd.Context(), env, guard.DefaultPolicy); err != nil {
				return err
			}
			user, err := env.Auth().UpdateProfile(cmd.Context(), fields)
			if err != nil {
				return err
			}

			env.Println("✓ " + env.T("profile.updated"))
			printProfile(env, user)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringVar(&firstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&language, "language", "", "Preferred language for emails (ar, en, he)")

	return cmd
}

func printProfile(env *Env, user *domain.UserProfile) {
	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s:\t%s\n", env.T("common.name"), user.DisplayName())
	fmt.Fprintf(w, "%s:\t%s\n", env.T("common.email"), user.Email)
	if user.Phone != "" {
		fmt.Fprintf(w, "%s:\t%s\n", env.T("common.phone"), user.Phone)
	}
	fmt.Fprintf(w, "ID:\t%s\n", user.ID)
	if user.IsHost {
		fmt.Fprintln(w, "Role:\tHost")
	}
	if user.IsAgent {
		fmt.Fprintln(w, "Role:\tAgent")
	}
	w.Flush()
}

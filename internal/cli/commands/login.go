package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/clickreserve/click/internal/auth"
	"github.com/clickreserve/click/internal/guard"
	"github.com/clickreserve/click/internal/validation"
)

// NewLoginCmd creates the login command
func NewLoginCmd(env *Env) *cobra.Command {
	var identifier, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with your email or phone number",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, env, identifier, password)
		},
	}

	cmd.Flags().StringVar(&identifier, "identifier", "", "Email or phone (or set CLICK_IDENTIFIER)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set CLICK_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(cmd *cobra.Command, env *Env, identifier, password string) error {
	// Check for environment variables (useful for CI/CD)
	identifier = envOr(identifier, "CLICK_IDENTIFIER")
	password = envOr(password, "CLICK_PASSWORD")

	if identifier != "" {
		var err error
		if password, err = env.password(password, env.T("common.password")); err != nil {
			return err
		}
	}

	form := validation.LoginForm{Identifier: identifier, Password: password}
	if err := env.Validator.Validate(env.Lang(), form); err != nil {
		return err
	}
	if !validation.IsEmail(identifier) {
		identifier = validation.NormalizePhone(identifier, env.Config.Region)
	}

	user, err := env.Auth().Login(cmd.Context(), identifier, password)
	if err != nil {
		var unverified *auth.UnverifiedEmailError
		if errors.As(err, &unverified) {
			return errors.New(commandFor(guard.VerifyPendingLocation(unverified.Email)))
		}
		return err
	}

	env.Println("✓ " + env.T("login.success"))
	env.Printf("  User: %s (%s)\n", user.DisplayName(), user.Email)
	if user.IsHost {
		env.Println("  Role: Host")
	}
	return nil
}

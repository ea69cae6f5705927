package commands

import (
	"github.com/spf13/cobra"

	"github.com/clickreserve/click/internal/validation"
)

// NewForgotPasswordCmd creates the forgot-password command
func NewForgotPasswordCmd(env *Env) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Email a password reset link",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.Validator.Validate(env.Lang(), validation.EmailForm{Email: email}); err != nil {
				return err
			}
			if _, err := env.Auth().RequestPasswordReset(cmd.Context(), email); err != nil {
				return err
			}
			env.Println("✓ " + env.T("password_reset.sent"))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email address")

	return cmd
}

// NewResetPasswordCmd creates the reset-password command
func NewResetPasswordCmd(env *Env) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "reset-password <token | link>",
		Short: "Choose a new password using the token from the reset email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form := validation.ResetPasswordForm{Token: tokenFromArg(args[0])}

			password = envOr(password, "CLICK_PASSWORD")
			if password == "" && env.ReadPassword != nil {
				var err error
				if form.Password, err = env.ReadPassword(env.T("common.password")); err != nil {
					return err
				}
				if form.ConfirmPassword, err = env.ReadPassword(env.T("common.confirm_password")); err != nil {
					return err
				}
			} else {
				form.Password, form.ConfirmPassword = password, password
			}

			if err := env.Validator.Validate(env.Lang(), form); err != nil {
				return err
			}
			if _, err := env.Auth().ResetPassword(cmd.Context(), form.Token, form.Password); err != nil {
				return err
			}
			env.Println("✓ " + env.T("password_reset.done"))
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "New password (or set CLICK_PASSWORD, will prompt if not provided)")

	return cmd
}

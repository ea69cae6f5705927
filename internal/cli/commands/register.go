package commands

import (
	"github.com/spf13/cobra"

	"github.com/clickreserve/click/internal/api"
	"github.com/clickreserve/click/internal/domain"
	"github.com/clickreserve/click/internal/guard"
	"github.com/clickreserve/click/internal/validation"
)

// NewRegisterCmd creates the register command
func NewRegisterCmd(env *Env) *cobra.Command {
	var form validation.RegisterForm

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a Click account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd, env, form)
		},
	}

	cmd.Flags().StringVar(&form.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&form.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&form.Phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&form.Password, "password", "", "Password (or set CLICK_PASSWORD, will prompt if not provided)")

	return cmd
}

func runRegister(cmd *cobra.Command, env *Env, form validation.RegisterForm) error {
	var err error
	if form.Password == "" {
		form.Password = envOr("", "CLICK_PASSWORD")
	}
	if form.Password == "" && env.ReadPassword != nil {
		if form.Password, err = env.ReadPassword(env.T("common.password")); err != nil {
			return err
		}
		if form.ConfirmPassword, err = env.ReadPassword(env.T("common.confirm_password")); err != nil {
			return err
		}
	} else {
		form.ConfirmPassword = form.Password
	}

	if err := env.Validator.Validate(env.Lang(), form); err != nil {
		return err
	}

	req := api.RegisterRequest{
		Name:     form.Name,
		Email:    form.Email,
		Phone:    validation.NormalizePhone(form.Phone, env.Config.Region),
		Password: form.Password,
		Language: string(env.Lang()),
	}
	if _, err := env.Auth().Register(cmd.Context(), req); err != nil {
		return err
	}

	env.Println("✓ " + env.T("register.success"))
	env.Printf("  %s %s\n", env.T("verify_pending.sent_verification_link"), domain.MaskEmail(form.Email))
	env.Printf("\n%s\n", commandFor(guard.VerifyPendingLocation(form.Email)))
	return nil
}

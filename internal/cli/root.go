package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clickreserve/click/internal/cli/commands"
	"github.com/clickreserve/click/internal/config"
	"github.com/clickreserve/click/internal/i18n"
	"github.com/clickreserve/click/internal/logger"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the command tree over env
func NewRootCmd(env *commands.Env) *cobra.Command {
	var lang string

	rootCmd := &cobra.Command{
		Use:   "click",
		Short: "Click - reservations from your terminal",
		Long: `Click CLI - sign up, sign in and manage your Click account.

Agents can search customers and confirm their pending bookings with
'click agent'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if lang == "" {
				return nil
			}
			l, ok := i18n.Parse(lang)
			if !ok {
				return fmt.Errorf("unsupported language %q", lang)
			}
			env.SetLang(l)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&lang, "lang", "", "Language for this command (ar, en, he)")

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			env.Printf("click version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewRegisterCmd(env))
	rootCmd.AddCommand(commands.NewLoginCmd(env))
	rootCmd.AddCommand(commands.NewLogoutCmd(env))
	rootCmd.AddCommand(commands.NewWhoamiCmd(env))
	rootCmd.AddCommand(commands.NewProfileCmd(env))
	rootCmd.AddCommand(commands.NewVerifyEmailCmd(env))
	rootCmd.AddCommand(commands.NewVerifyPendingCmd(env))
	rootCmd.AddCommand(commands.NewForgotPasswordCmd(env))
	rootCmd.AddCommand(commands.NewResetPasswordCmd(env))
	rootCmd.AddCommand(commands.NewAgentCmd(env))
	rootCmd.AddCommand(commands.NewReceiptCmd(env))
	rootCmd.AddCommand(commands.NewPolicyCmd(env))
	rootCmd.AddCommand(commands.NewLanguageCmd(env))

	rootCmd.SetOut(env.Out)
	rootCmd.SetErr(env.Err)

	return rootCmd
}

// Execute loads the configuration and runs the root command
func Execute(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}

	log := logger.InitWithWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	env, err := commands.NewEnv(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	defer env.Close()

	if err := NewRootCmd(env).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

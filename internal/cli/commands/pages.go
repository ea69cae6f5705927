package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clickreserve/click/internal/i18n"
	"github.com/clickreserve/click/internal/policy"
	"github.com/clickreserve/click/internal/receipt"
)

// NewReceiptCmd creates the receipt command
func NewReceiptCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "receipt <payment-success-url | query>",
		Short: "Show the reservation receipt from a payment success link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, ok, err := receipt.ParseURL(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s", env.T("receipt.missing"))
			}
			return receipt.Render(env.Out, env.Catalog.For(env.Lang()), r)
		},
	}
}

// NewPolicyCmd creates the policy command
func NewPolicyCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "policy",
		Short: "Show the privacy policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := policy.Load(env.Lang())
			if err != nil {
				return err
			}
			return doc.Render(env.Out)
		},
	}
}

// NewLanguageCmd creates the language command
func NewLanguageCmd(env *Env) *cobra.Command {
	var next bool

	cmd := &cobra.Command{
		Use:   "language [ar|en|he]",
		Short: "Show or set the interface language",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang := env.Lang()
			switch {
			case next:
				lang = i18n.Next(lang)
			case len(args) == 1:
				l, ok := i18n.Parse(args[0])
				if !ok {
					return fmt.Errorf("unsupported language %q (want %s)", args[0], supportedList())
				}
				lang = l
			default:
				env.Printf("%s (%s, %s)\n", lang, env.Catalog.T(lang, "language_name"), lang.Direction())
				return nil
			}

			if err := env.Prefs.SetLanguage(string(lang)); err != nil {
				return fmt.Errorf("failed to save language: %w", err)
			}
			env.SetLang(lang)
			env.Printf("✓ %s (%s)\n", env.Catalog.T(lang, "language_name"), lang.Direction())
			return nil
		},
	}

	cmd.Flags().BoolVar(&next, "toggle", false, "Switch to the next language (ar → en → he)")

	return cmd
}

func supportedList() string {
	codes := make([]string, len(i18n.Supported))
	for i, l := range i18n.Supported {
		codes[i] = string(l)
	}
	return strings.Join(codes, ", ")
}

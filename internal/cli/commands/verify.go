package commands

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/clickreserve/click/internal/auth"
	"github.com/clickreserve/click/internal/cooldown"
	"github.com/clickreserve/click/internal/domain"
	"github.com/clickreserve/click/internal/validation"
)

// NewVerifyEmailCmd creates the verify-email command
func NewVerifyEmailCmd(env *Env) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "verify-email <token | link>",
		Short: "Confirm your email address with the token from the verification email",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var token string
			if len(args) == 1 {
				token = tokenFromArg(args[0])
			}
			return runVerifyEmail(cmd, env, token, email)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email to send a new link to if this one has expired")

	return cmd
}

// tokenFromArg accepts a bare token or a pasted verification link
func tokenFromArg(arg string) string {
	arg = strings.TrimSpace(arg)
	if i := strings.Index(arg, "token="); i >= 0 {
		arg = arg[i+len("token="):]
		if j := strings.IndexByte(arg, '&'); j >= 0 {
			arg = arg[:j]
		}
		return arg
	}
	if i := strings.LastIndexByte(arg, '/'); i >= 0 {
		return arg[i+1:]
	}
	return arg
}

func runVerifyEmail(cmd *cobra.Command, env *Env, token, email string) error {
	env.Println(env.T("verify_email.verifying"))

	_, err := env.Auth().VerifyEmail(cmd.Context(), token)
	if err == nil {
		env.Println("✓ " + env.T("verify_email.verified"))
		env.Println("  " + env.T("verify_email.verified_successfully"))
		env.Println("  " + env.T("verify_email.account_active"))
		env.Printf("\n%s: click login\n", env.T("verify_email.continue_to_login"))
		return nil
	}

	if errors.Is(err, auth.ErrNoVerificationToken) {
		return errors.New(env.T("verify_email.no_token"))
	}

	if !errors.Is(err, auth.ErrVerificationExpired) {
		env.Println("✗ " + env.T("verify_email.verification_failed"))
		env.Println("  " + env.T("verify_email.verification_error_text"))
		return err
	}

	env.Println("✗ " + env.T("verify_email.link_expired_title"))
	env.Println("  " + env.T("verify_email.link_expired_text"))

	if email == "" {
		env.Printf("\n%s click verify-pending --email <address> --resend\n", env.T("verify_email.request_new_link")+":")
		return err
	}
	return resend(cmd, env, email, false)
}

// NewVerifyPendingCmd creates the verify-pending command
func NewVerifyPendingCmd(env *Env) *cobra.Command {
	var email string
	var send, wait bool

	cmd := &cobra.Command{
		Use:   "verify-pending",
		Short: "Show verification instructions and resend the verification email",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("email is required. Run 'click register' if you do not have an account yet")
			}
			if err := env.Validator.Validate(env.Lang(), validation.EmailForm{Email: email}); err != nil {
				return err
			}

			if !send {
				printPending(env, email)
				return nil
			}
			return resend(cmd, env, email, wait)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address the verification link was sent to")
	cmd.Flags().BoolVar(&send, "resend", false, "Resend the verification email")
	cmd.Flags().BoolVar(&wait, "wait", false, "With --resend, wait for a running cooldown instead of failing")

	return cmd
}

func printPending(env *Env, email string) {
	env.Println(env.T("verify_pending.check_your_email"))
	env.Printf("%s %s\n\n", env.T("verify_pending.sent_verification_link"), domain.MaskEmail(email))
	for i := 1; i <= 3; i++ {
		env.Printf("%d. %s\n   %s\n", i, env.T(fmt.Sprintf("verify_pending.step%d_title", i)), env.T(fmt.Sprintf("verify_pending.step%d_text", i)))
	}
	env.Printf("\n%s\n  %s\n", env.T("verify_pending.check_spam_title"), env.T("verify_pending.check_spam_text"))

	timer := resendTimer(env, email, nil)
	env.Printf("\n%s ", env.T("verify_pending.didnt_receive_email"))
	if left := timer.Remaining(); left > 0 {
		env.Println(env.Tf("verify_pending.resend_in", left))
	} else {
		env.Printf("%s: click verify-pending --email %s --resend\n", env.T("verify_pending.resend_email"), email)
	}
	env.Printf("%s %s: click login\n", env.T("verify_pending.already_verified_text"), env.T("verify_pending.sign_in_here"))
}

// resendTimer restores the cooldown saved for email
func resendTimer(env *Env, email string, onTick func(int)) *cooldown.Timer {
	opts := []cooldown.Option{cooldown.WithClock(env.Clock)}
	if onTick != nil {
		opts = append(opts, cooldown.WithTickHandler(onTick))
	}
	timer := cooldown.New(opts...)

	last, err := env.Prefs.LastResend(email)
	if err != nil {
		env.Logger.Warn().Err(err).Msg("failed to read resend cooldown")
	}
	if !last.IsZero() {
		timer.Resume(last)
	}
	return timer
}

func resend(cmd *cobra.Command, env *Env, email string, wait bool) error {
	done := make(chan struct{})
	var once sync.Once
	var onTick func(int)
	if wait {
		onTick = func(left int) {
			if left == 0 {
				once.Do(func() { close(done) })
				return
			}
			fmt.Fprintf(env.Err, "\r%s ", env.Tf("verify_pending.resend_in", left))
		}
	}

	timer := resendTimer(env, email, onTick)
	defer timer.Stop()

	if left := timer.Remaining(); left > 0 {
		if !wait {
			return errors.New(env.Tf("verify_pending.resend_in", left))
		}
		select {
		case <-done:
			fmt.Fprintln(env.Err)
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		}
	}

	if !timer.Begin() {
		return errors.New(env.Tf("verify_pending.resend_in", timer.Remaining()))
	}
	env.Println(env.T("verify_pending.sending"))

	msg, err := env.Auth().ResendVerificationEmail(cmd.Context(), email)
	timer.Finish(err == nil)
	if err != nil {
		return err
	}

	if err := env.Prefs.SetLastResend(email, env.Clock.Now()); err != nil {
		env.Logger.Warn().Err(err).Msg("failed to save resend cooldown")
	}

	env.Println("✓ " + msg)
	env.Println(env.Tf("verify_pending.resend_in", int(cooldown.DefaultPeriod/time.Second)))
	return nil
}

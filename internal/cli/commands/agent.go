package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/clickreserve/click/internal/domain"
	"github.com/clickreserve/click/internal/validation"
)

// NewAgentCmd creates the agent command group
func NewAgentCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Agent dashboard: search users and confirm bookings",
	}

	cmd.AddCommand(newAgentLoginCmd(env))
	cmd.AddCommand(newAgentSearchCmd(env))
	cmd.AddCommand(newAgentConfirmCmd(env))
	cmd.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "Sign out of the agent dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.Dashboard().Logout(); err != nil {
				return err
			}
			env.Println("✓ " + env.T("agent.logged_out"))
			return nil
		},
	})

	return cmd
}

func newAgentLoginCmd(env *Env) *cobra.Command {
	var identifier, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the agent portal",
		RunE: func(cmd *cobra.Command, args []string) error {
			identifier = envOr(identifier, "CLICK_AGENT_IDENTIFIER")
			password = envOr(password, "CLICK_AGENT_PASSWORD")
			if identifier != "" {
				var err error
				if password, err = env.password(password, env.T("common.password")); err != nil {
					return err
				}
			}

			form := validation.AgentLoginForm{Identifier: identifier, Password: password}
			if err := env.Validator.Validate(env.Lang(), form); err != nil {
				return err
			}

			agent, err := env.Dashboard().Login(cmd.Context(), identifier, password)
			if err != nil {
				return localizeAgentError(env, err)
			}
			env.Println("✓ " + env.T("agent.login_success"))
			env.Printf("  Agent: %s\n", agent.DisplayName())
			return nil
		},
	}

	cmd.Flags().StringVar(&identifier, "identifier", "", "Email or phone (or set CLICK_AGENT_IDENTIFIER)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set CLICK_AGENT_PASSWORD, will prompt if not provided)")

	return cmd
}

func newAgentSearchCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "search <name or phone>",
		Short: "Search users and list pending bookings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := requireAgent(env); err != nil {
				return err
			}
			res, err := env.Dashboard().Search(cmd.Context(), args[0])
			if err != nil {
				return localizeAgentError(env, err)
			}
			printSearchResult(env, res)
			return nil
		},
	}
}

func newAgentConfirmCmd(env *Env) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "confirm [booking-id]",
		Short: "Confirm a pending booking",
		Long: `Confirm a pending booking by ID.

Without an ID, the --refresh search is run and the pending bookings it
finds are offered for interactive selection.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := requireAgent(env); err != nil {
				return err
			}

			d := env.Dashboard()
			if query != "" {
				d.SetQuery(query)
			}

			var id domain.ID
			if len(args) == 1 {
				id = domain.ID(args[0])
			} else {
				picked, err := pickBooking(cmd, env, query)
				if err != nil {
					return err
				}
				id = picked
			}

			msg, err := d.Confirm(cmd.Context(), id)
			if err != nil {
				return localizeAgentError(env, err)
			}

			env.Println("✓ " + msg)
			if res := d.LastResult(); res != nil {
				env.Println()
				printSearchResult(env, res)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&query, "refresh", "", "Search to re-run and print after confirming")

	return cmd
}

// pickBooking searches for query and lets the agent choose a pending booking
func pickBooking(cmd *cobra.Command, env *Env, query string) (domain.ID, error) {
	if env.SelectBooking == nil || query == "" {
		return "", fmt.Errorf("a booking ID is required (or pass --refresh <search> in an interactive terminal to pick one)")
	}

	res, err := env.Dashboard().Search(cmd.Context(), query)
	if err != nil {
		return "", err
	}
	return env.SelectBooking(res.AllPendingBookings)
}

func printSearchResult(env *Env, res *domain.SearchResult) {
	if len(res.SearchedUsers) == 0 {
		env.Println(env.T("agent.no_users"))
	} else {
		env.Println(env.T("agent.searched_users") + ":")
		w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPHONE\tPENDING")
		fmt.Fprintln(w, "──\t────\t─────\t───────")
		for _, u := range res.SearchedUsers {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", u.ID, u.Name, u.Phone, len(u.PendingBookings))
		}
		w.Flush()
	}

	env.Println()
	if len(res.AllPendingBookings) == 0 {
		env.Println(env.T("agent.no_pending"))
		return
	}

	env.Println(env.T("agent.pending_bookings") + ":")
	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLISTING\tCUSTOMER\tSTARTS\tDEPOSIT\tTOTAL\tSTATUS")
	fmt.Fprintln(w, "──\t───────\t────────\t──────\t───────\t─────\t──────")
	for _, b := range res.AllPendingBookings {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%.2f\t%s\n",
			b.ID,
			b.ListingTitle,
			b.UserName,
			b.StartDate(),
			b.DepositAmount,
			b.TotalPrice,
			b.Status,
		)
	}
	w.Flush()
}

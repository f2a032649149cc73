package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/mbenaiss/lexchat/auth"
	"github.com/mbenaiss/lexchat/backend"
	"github.com/mbenaiss/lexchat/config"
	"github.com/mbenaiss/lexchat/logging"
	"github.com/mbenaiss/lexchat/models"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type app struct {
	cfg    config.Config
	logger zerolog.Logger
	client *backend.Client
}

// identity resolves the logged in user from AUTH_TOKEN
func (a *app) identity() (models.Identity, error) {
	if a.cfg.AuthToken == "" {
		return models.Identity{}, errors.Wrap(auth.ErrNotAuthenticated, "set AUTH_TOKEN (see `lexchat login`)")
	}
	id, err := auth.FromToken(a.cfg.AuthToken, a.cfg.UserID, a.cfg.UserRole)
	if err != nil {
		return models.Identity{}, err
	}
	a.client.SetToken(id.Token)
	return id, nil
}

func main() {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "lexchat",
		Short:         "lexchat talks to lawyers from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
				cfg.LogLevel = lvl
			}
			a.cfg = cfg
			a.logger = logging.New(cfg.LogLevel, true)
			a.client = backend.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, a.logger)
			return nil
		},
	}
	rootCmd.PersistentFlags().String("log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")

	rootCmd.AddCommand(
		newLoginCmd(a),
		newLawyersCmd(a),
		newWalletCmd(a),
		newChatCmd(a),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newLoginCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print the environment to use",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")

			resp, err := a.client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			id, err := auth.FromLogin(resp)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "AUTH_TOKEN=%s\n", id.Token)
			fmt.Fprintf(out, "USER_ID=%s\n", id.UserID)
			fmt.Fprintf(out, "USER_ROLE=%s\n", id.Kind)
			return nil
		},
	}
	cmd.Flags().StringP("email", "e", "", "Account email")
	cmd.Flags().StringP("password", "p", "", "Account password")
	cobra.CheckErr(cmd.MarkFlagRequired("email"))
	cobra.CheckErr(cmd.MarkFlagRequired("password"))
	return cmd
}

func newLawyersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lawyers",
		Short: "List lawyers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.identity(); err != nil {
				return err
			}
			lawyers, err := a.client.ListLawyers(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tLOCATION\tPRICE")
			for _, l := range lawyers {
				price := l.Price
				if price <= 0 {
					price = a.cfg.ConsultationPrice
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%.0f\n", l.ID, l.Name, l.Location, price)
			}
			return w.Flush()
		},
	}
}

func newWalletCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Show or top up the wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.identity()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if amount, _ := cmd.Flags().GetFloat64("add"); amount > 0 {
				if _, err := a.client.AddMoney(ctx, id.UserID, amount); err != nil {
					return err
				}
				fmt.Fprintf(out, "Added %.0f\n", amount)
			}

			wallet, err := a.client.GetWallet(ctx, id.UserID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Balance: %.0f\n", wallet.Balance)

			if history, _ := cmd.Flags().GetBool("history"); history {
				txs, err := a.client.Transactions(ctx, id.UserID)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "DATE\tTYPE\tAMOUNT\tSTATUS")
				for _, tx := range txs {
					fmt.Fprintf(w, "%s\t%s\t%.0f\t%s\n", tx.CreatedAt.Format("2006-01-02 15:04"), tx.Type, tx.Amount, tx.Status)
				}
				return w.Flush()
			}
			return nil
		},
	}
	cmd.Flags().Float64("add", 0, "Amount to add to the wallet")
	cmd.Flags().Bool("history", false, "Show transactions")
	return cmd
}

// runContext is the command context, or background when cobra has none
func runContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

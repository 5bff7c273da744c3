package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/invoicedesk/invoicedesk/internal/seed"
)

func newSeedCmd(e *env) *cobra.Command {
	var (
		email    string
		password string
		opts     seed.Options
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a demo account with fake clients and invoices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, res, err := e.build(ctx, nil)
			if err != nil {
				return err
			}
			defer res.Close()

			user, err := a.Auth.Register(ctx, email, password)
			if err != nil {
				return fmt.Errorf("create demo user: %w", err)
			}
			out, err := seed.New(a.Clients, a.Invoices, a.Profiles, e.logger).Run(ctx, user.ID, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %s with %d clients and %d invoices\n", user.Email, out.Clients, out.Invoices)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "demo@invoicedesk.local", "demo account email")
	cmd.Flags().StringVar(&password, "password", "demo1234", "demo account password")
	cmd.Flags().IntVar(&opts.Clients, "clients", 8, "number of clients")
	cmd.Flags().IntVar(&opts.Invoices, "invoices", 40, "number of invoices")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed, 0 picks one")
	return cmd
}

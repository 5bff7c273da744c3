package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newUserCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	var email, password string
	create := &cobra.Command{
		Use:   "create",
		Short: "Provision an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				return errors.New("--email and --password are required")
			}
			ctx := cmd.Context()
			a, res, err := e.build(ctx, nil)
			if err != nil {
				return err
			}
			defer res.Close()

			user, err := a.Auth.Register(ctx, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}
	create.Flags().StringVar(&email, "email", "", "account email")
	create.Flags().StringVar(&password, "password", "", "account password, at least 6 characters")
	cmd.AddCommand(create)
	return cmd
}

/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"airwatch/internal/errs"
	"airwatch/internal/usecase/accounts"
)

var (
	userEmail    string
	userPassword string
)

// usersCmd represents the users command group
var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage accounts",
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account",
	RunE: withApp(func(cmd *cobra.Command, deps appDeps) error {
		user, err := deps.Accounts.Register(cmd.Context(), accounts.RegisterInput{
			Email:    userEmail,
			Password: userPassword,
		})
		if err != nil {
			return errs.Wrap(err, "create user")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "created user %d: %s\n", user.ID, user.Email); err != nil {
			return errs.Wrap(err, "write create output")
		}
		return nil
	}),
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE: withApp(func(cmd *cobra.Command, deps appDeps) error {
		users, err := deps.Accounts.List(cmd.Context(), 0)
		if err != nil {
			return errs.Wrap(err, "list users")
		}

		out := cmd.OutOrStdout()
		if len(users) == 0 {
			_, err := fmt.Fprintln(out, "no users")
			return err
		}
		for _, user := range users {
			state := "active"
			if !user.IsActive {
				state = "inactive"
			}
			if _, err := fmt.Fprintf(out, "%d  %s  %s\n", user.ID, user.Email, state); err != nil {
				return errs.Wrap(err, "write list output")
			}
		}
		return nil
	}),
}

func init() {
	usersCreateCmd.Flags().StringVar(&userEmail, "email", "", "Account email")
	usersCreateCmd.Flags().StringVar(&userPassword, "password", "", "Account password")
	_ = usersCreateCmd.MarkFlagRequired("email")
	_ = usersCreateCmd.MarkFlagRequired("password")

	usersCmd.AddCommand(usersCreateCmd)
	usersCmd.AddCommand(usersListCmd)
	rootCmd.AddCommand(usersCmd)
}

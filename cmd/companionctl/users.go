package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	usersCmd := &cobra.Command{Use: "users", Short: "User operations"}

	var userID, username, email, avatar string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" || username == "" || email == "" {
				return fmt.Errorf("--userId, --username and --email required")
			}
			payload := map[string]string{"userId": userID, "username": username, "email": email}
			if avatar != "" {
				payload["avatar"] = avatar
			}
			resp, err := client().R().SetBody(payload).Post("/v0/users")
			if err != nil {
				return err
			}
			if resp.IsError() {
				return fail(resp)
			}
			fmt.Fprintln(os.Stdout, resp.String())
			return nil
		},
	}
	createCmd.Flags().StringVarP(&userID, "userId", "u", "", "User ID (required)")
	createCmd.Flags().StringVarP(&username, "username", "n", "", "Username (required)")
	createCmd.Flags().StringVarP(&email, "email", "e", "", "Email (required)")
	createCmd.Flags().StringVar(&avatar, "avatar", "", "Avatar (girl|boy)")
	usersCmd.AddCommand(createCmd)

	getCmd := &cobra.Command{
		Use:   "get USER_ID",
		Short: "Get user by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client().R().Get("/v0/users/" + args[0])
			if err != nil {
				return err
			}
			if resp.IsError() {
				return fail(resp)
			}
			fmt.Fprintln(os.Stdout, resp.String())
			return nil
		},
	}
	usersCmd.AddCommand(getCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete USER_ID",
		Short: "Delete a user and everything they own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client().R().Delete("/v0/users/" + args[0])
			if err != nil {
				return err
			}
			if resp.IsError() {
				return fail(resp)
			}
			fmt.Fprintln(os.Stdout, "deleted")
			return nil
		},
	}
	usersCmd.AddCommand(deleteCmd)

	rootCmd.AddCommand(usersCmd)
}

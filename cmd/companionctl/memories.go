package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	memoriesCmd := &cobra.Command{Use: "memories", Short: "Stored fact operations"}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the authenticated user's facts",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client().R().
				SetQueryParam("limit", strconv.Itoa(limit)).
				Get("/v0/memories")
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
	listCmd.Flags().IntVarP(&limit, "limit", "l", 50, "Max facts to return")
	memoriesCmd.AddCommand(listCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete FACT_ID",
		Short: "Delete one fact by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client().R().Delete("/v0/memories/" + args[0])
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
	memoriesCmd.AddCommand(deleteCmd)

	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Dump the assembled profile text",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client().R().Get("/v0/profile")
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
	memoriesCmd.AddCommand(profileCmd)

	rootCmd.AddCommand(memoriesCmd)
}

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"github.com/companionlabs/companion/internal/auth"
)

var (
	apiFlag string
	keyFlag string
	rootCmd = &cobra.Command{
		Use:   "companionctl",
		Short: "CLI client for the companion service REST API",
	}
)

func client() *resty.Client {
	return resty.New().
		SetBaseURL(apiFlag).
		SetAuthToken(keyFlag).
		SetTimeout(30 * time.Second)
}

// fail turns a non-2xx response into an error; resty does not do this itself.
func fail(resp *resty.Response) error {
	return fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Companion service base URL")
	rootCmd.PersistentFlags().StringVarP(&keyFlag, "key", "k", auth.LocalDevAPIKey, "API key")

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Probe service health",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client().R().Get("/v0/health")
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, resp.String())
			if resp.IsError() {
				return fail(resp)
			}
			return nil
		},
	}
	rootCmd.AddCommand(healthCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Package cmd implements the eventsctl CLI commands.
package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	version string

	// Global flags
	flagAPIURL  string
	flagToken   string
	flagOutput  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "eventsctl",
	Short: "Shopmesh webhook events administration CLI",
	Long: `eventsctl manages the webhook event dispatch service.

It provides commands to register webhook subscriptions, inspect
delivery logs, toggle the dispatch engine, and fire test events.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the CLI version from build flags.
func SetVersion(v string) {
	version = v
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "Override API URL (env: SHOPMESH_API_URL)")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "Bearer token (env: SHOPMESH_API_TOKEN)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(createWebhookCmd)
	rootCmd.AddCommand(updateWebhookCmd)
	rootCmd.AddCommand(deleteWebhookCmd)
	rootCmd.AddCommand(enableWebhookCmd)
	rootCmd.AddCommand(disableWebhookCmd)
	rootCmd.AddCommand(engineCmd)
	rootCmd.AddCommand(fireCmd)
}

func initConfig() {
	if flagAPIURL == "" {
		flagAPIURL = os.Getenv("SHOPMESH_API_URL")
	}
	if flagToken == "" {
		flagToken = os.Getenv("SHOPMESH_API_TOKEN")
	}
	if flagAPIURL == "" {
		flagAPIURL = "http://localhost:8080"
	}
}

func mustClient() *Client {
	return NewClient(flagAPIURL, flagToken, flagVerbose)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show CLI version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("eventsctl version %s\n", version)
		fmt.Printf("  Go:       %s\n", runtime.Version())
		fmt.Printf("  OS/Arch:  %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "linkichat",
	Short: "linkichat — personal branding assistant daemon and CLI",
	Long: `linkichat is a local personal branding assistant. It keeps a profile of
who you are professionally, then generates networking strategies, content
posts, and profile audits in your voice via the Gemini API.

Run "linkichat serve" to start the daemon, then use the other commands to
talk to it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       version,
}

func main() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(networkingCmd)
	rootCmd.AddCommand(contentCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

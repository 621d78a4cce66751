package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const programName = "flockmanager"

// @title Flock Manager API
// @version 1.0
// @description Event check-in and passwordless login for Flock Manager.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.
func main() {
	rootCmd := &cobra.Command{
		Use:          programName,
		Short:        "Event check-in and magic-link login backend",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd.Context())
		},
	}
	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(issueTokenCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

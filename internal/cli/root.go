package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bootlace-io/bootlace/internal/logging"
	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "bootlace",
	Short: "Bootstrap the Terraform CI platform on AWS",
	Long: `Bootlace provisions the shared infrastructure a CI pipeline needs to run
Terraform safely:
  • Versioned S3 bucket for remote state
  • DynamoDB table for state locking
  • GitHub OIDC provider and trust role for keyless CI deploys
  • Generated GitHub Actions deploy workflow

Every command is idempotent: rerunning after a partial failure resumes with
the identifiers recorded in the inventory file.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(logLevel)
	},
	SilenceUsage: true,
}

// Execute runs the root command with an interrupt-aware context so scoped
// cleanup fires on Ctrl-C.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(destroyCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

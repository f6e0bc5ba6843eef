package cli

import (
	"fmt"

	"github.com/bootlace-io/bootlace/internal/engine"
	"github.com/bootlace-io/bootlace/internal/inventory"
	"github.com/bootlace-io/bootlace/internal/lockguard"
	"github.com/bootlace-io/bootlace/internal/platform"
	"github.com/bootlace-io/bootlace/internal/terraform"
	"github.com/bootlace-io/bootlace/internal/workflow"
	"github.com/spf13/cobra"
)

var (
	installOrg         string
	installRepo        string
	installRegion      string
	installBranch      string
	installPath        string
	installAutoApprove bool
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Provision the CI platform resources",
	Long: `Provisions the remote-state bucket, lock table, GitHub OIDC trust role and
CI deploy workflow. Resources that already exist are adopted instead of
recreated, and a rerun after a partial failure resumes with the recorded
identifiers.`,
	RunE: runInstall,
}

func init() {
	installCmd.Flags().StringVar(&installOrg, "org", "", "GitHub organization or user (required)")
	installCmd.Flags().StringVar(&installRepo, "repo", "", "GitHub repository name (required)")
	installCmd.Flags().StringVar(&installRegion, "region", "", "AWS region (required)")
	installCmd.Flags().StringVar(&installBranch, "branch", "main", "Branch that triggers CI deploys")
	installCmd.Flags().StringVar(&installPath, "path", "infra", "Repository path watched by the CI workflow")
	installCmd.Flags().BoolVar(&installAutoApprove, "auto-approve", false, "Skip interactive approval of the plan")
	installCmd.MarkFlagRequired("org")
	installCmd.MarkFlagRequired("repo")
	installCmd.MarkFlagRequired("region")
}

func runInstall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store := inventory.NewStore(inventory.DefaultPath)
	rec, err := store.Load()
	if err != nil {
		return err
	}
	region := resolveRegion(installRegion, rec)

	clients, err := platform.NewClients(ctx, region)
	if err != nil {
		return fmt.Errorf("failed to configure AWS clients: %w", err)
	}

	dir := platformDir()
	r := &engine.Reconciler{
		Cloud: clients,
		TF:    terraform.NewRunner(dir),
		Store: store,
		NewLockChecker: func(table string) engine.LockChecker {
			return lockguard.New(clients.Dynamo, table)
		},
		Prompts:      interactivePrompts(),
		ArtifactPath: workflow.DefaultPath,
		AutoApprove:  installAutoApprove,
		WriteConfig: func(rec *inventory.Record) error {
			return terraform.WritePlatformConfig(dir, terraform.ConfigParams{
				Region:      rec.Region,
				StateBucket: rec.StateBucket,
				LockTable:   rec.LockTable,
				RoleName:    rec.RoleName,
				Org:         rec.Org,
				Repo:        rec.Repo,
			})
		},
	}

	if err := r.Install(ctx, engine.InstallInputs{
		Region:        region,
		Org:           installOrg,
		Repo:          installRepo,
		DefaultBranch: installBranch,
		WatchPath:     installPath,
	}); err != nil {
		return err
	}

	fmt.Println("\nInstall complete! Commit the generated workflow to enable CI deploys:")
	fmt.Printf("  %s\n", workflow.DefaultPath)
	return nil
}

// resolveRegion prefers the recorded region on a resume so the clients talk
// to the region the resources actually live in.
func resolveRegion(flag string, rec *inventory.Record) string {
	if rec != nil && rec.Region != "" {
		return rec.Region
	}
	return flag
}

package cli

import (
	"fmt"
	"os"

	"github.com/bootlace-io/bootlace/internal/engine"
	"github.com/bootlace-io/bootlace/internal/inventory"
	"github.com/bootlace-io/bootlace/internal/lockguard"
	"github.com/bootlace-io/bootlace/internal/logging"
	"github.com/bootlace-io/bootlace/internal/platform"
	"github.com/bootlace-io/bootlace/internal/terraform"
	"github.com/bootlace-io/bootlace/internal/workflow"
	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Tear down the CI platform resources",
	Long: `Destroys everything install created: trust role and OIDC provider, the
drained state bucket with all its versions, the lock table, the generated
workflow and the inventory record. All remote state stored in the bucket is
permanently lost.`,
	RunE: runUninstall,
}

func runUninstall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store := inventory.NewStore(inventory.DefaultPath)
	rec, err := store.Load()
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("platform is not installed; nothing to uninstall")
	}

	clients, err := platform.NewClients(ctx, rec.Region)
	if err != nil {
		return fmt.Errorf("failed to configure AWS clients: %w", err)
	}

	dir := platformDir()
	u := &engine.Uninstaller{
		Cloud: clients,
		TF:    terraform.NewRunner(dir),
		Store: store,
		NewLockChecker: func(table string) engine.LockChecker {
			return lockguard.New(clients.Dynamo, table)
		},
		Prompts:      interactivePrompts(),
		ArtifactPath: workflow.DefaultPath,
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

	if err := u.Run(ctx); err != nil {
		return err
	}

	if err := os.RemoveAll(dir); err != nil {
		logging.Warn("failed to remove platform config directory", "path", dir, "error", err)
	}

	fmt.Println("\nUninstall complete. All platform resources are gone.")
	return nil
}

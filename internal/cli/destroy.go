package cli

import (
	"fmt"

	"github.com/bootlace-io/bootlace/internal/engine"
	"github.com/bootlace-io/bootlace/internal/inventory"
	"github.com/bootlace-io/bootlace/internal/lockguard"
	"github.com/bootlace-io/bootlace/internal/platform"
	"github.com/bootlace-io/bootlace/internal/terraform"
	"github.com/spf13/cobra"
)

var destroyCmd = &cobra.Command{
	Use:   "destroy",
	Short: "Destroy the watched infrastructure subtree",
	Long: `Destroys the resources managed by the watched configuration path. The
platform primitives bootlace itself depends on (state bucket, lock table,
trust role) stay in place; use 'bootlace uninstall' for those.`,
	RunE: runDestroy,
}

func runDestroy(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store := inventory.NewStore(inventory.DefaultPath)
	rec, err := store.Load()
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("platform is not installed; nothing to destroy")
	}

	clients, err := platform.NewClients(ctx, rec.Region)
	if err != nil {
		return fmt.Errorf("failed to configure AWS clients: %w", err)
	}

	d := &engine.Destroyer{
		TF:    terraform.NewRunner(rec.WatchPath),
		Store: store,
		NewLockChecker: func(table string) engine.LockChecker {
			return lockguard.New(clients.Dynamo, table)
		},
		Prompts: interactivePrompts(),
	}

	if err := d.Run(ctx); err != nil {
		return err
	}

	fmt.Printf("\nDestroy complete for %s. The platform itself is untouched.\n", rec.WatchPath)
	return nil
}

package cli

import (
	"fmt"

	"github.com/bootlace-io/bootlace/internal/inventory"
	"github.com/bootlace-io/bootlace/internal/lockguard"
	"github.com/bootlace-io/bootlace/internal/platform"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show installation state and live resource existence",
	Long: `Reads the inventory record and checks each platform resource against the
live account. Read-only: nothing is created or modified.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rec, err := inventory.NewStore(inventory.DefaultPath).Load()
	if err != nil {
		return err
	}
	if rec == nil {
		fmt.Println("Not installed: no inventory record found.")
		return nil
	}

	state := "partial (install did not finish)"
	if rec.Complete() {
		state = "installed"
	}
	fmt.Printf("Status: %s\n\n", state)
	fmt.Printf("  region:       %s\n", rec.Region)
	fmt.Printf("  account:      %s\n", rec.AccountID)
	fmt.Printf("  repository:   %s/%s (branch %s, path %s)\n", rec.Org, rec.Repo, rec.DefaultBranch, rec.WatchPath)
	fmt.Printf("  installed at: %s\n", rec.CreatedAt)

	clients, err := platform.NewClients(ctx, rec.Region)
	if err != nil {
		return fmt.Errorf("failed to configure AWS clients: %w", err)
	}

	bucketUp, err := clients.BucketExists(ctx, rec.StateBucket)
	if err != nil {
		return err
	}
	tableUp, err := clients.TableExists(ctx, rec.LockTable)
	if err != nil {
		return err
	}
	roleARN, err := clients.RoleARN(ctx, rec.RoleName)
	if err != nil {
		return err
	}

	fmt.Println("\nResources:")
	fmt.Printf("  state bucket: %s %s\n", rec.StateBucket, presence(bucketUp))
	fmt.Printf("  lock table:   %s %s\n", rec.LockTable, presence(tableUp))
	fmt.Printf("  trust role:   %s %s\n", rec.RoleName, presence(roleARN != ""))

	if tableUp {
		st, err := lockguard.New(clients.Dynamo, rec.LockTable).Check(ctx)
		if err != nil {
			return err
		}
		if st.Held() {
			fmt.Printf("\n  %d active lock(s) on %s:\n%s", st.Count, rec.LockTable, renderLock(st))
		}
	}
	return nil
}

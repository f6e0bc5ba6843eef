package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bootlace-io/bootlace/internal/inventory"
	"github.com/bootlace-io/bootlace/internal/lockguard"
	"github.com/bootlace-io/bootlace/internal/logging"
)

// Uninstaller fully reverses an installation: trust role and provider,
// then the drained state bucket, then the lock table, then the generated
// artifacts and the inventory record itself.
type Uninstaller struct {
	Cloud Cloud
	TF    Terraform // runs inside the platform configuration directory
	Store *inventory.Store

	NewLockChecker func(table string) LockChecker
	Prompts        Prompts
	ArtifactPath   string

	// WriteConfig rematerializes the platform configuration so the destroy
	// stage still works when the directory was cleaned since install. Nil
	// skips materialization.
	WriteConfig func(rec *inventory.Record) error
}

// Run executes the teardown. Any active lock is a hard fatal precondition
// with no removal offer: full teardown concurrent with an in-flight apply
// cannot be reasoned about. Destructive stages are attempted independently
// so one failure does not strand the rest, but the inventory record is only
// deleted once every stage has succeeded.
func (u *Uninstaller) Run(ctx context.Context) error {
	rec, err := u.Store.Load()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPreflight, err)
	}
	if rec == nil {
		return fmt.Errorf("%w: platform is not installed, nothing to uninstall", ErrPreflight)
	}

	if err := u.TF.Preflight(); err != nil {
		return fmt.Errorf("%w: %v", ErrPreflight, err)
	}

	tableUp, err := u.Cloud.TableExists(ctx, rec.LockTable)
	if err != nil {
		return err
	}
	if tableUp {
		st, err := u.NewLockChecker(rec.LockTable).Check(ctx)
		if err != nil {
			return err
		}
		if lockguard.Decide(lockguard.UninstallFlow, st) == lockguard.Refuse {
			return fmt.Errorf("%w: %d lock(s) outstanding on %s; wait for the running operation to finish",
				ErrLockConflict, st.Count, rec.LockTable)
		}
	}

	input, err := u.Prompts.ConfirmDestroy(TeardownSummary(rec))
	if err != nil {
		return err
	}
	if !ConfirmedDestroy(input) {
		return fmt.Errorf("%w: no resources were modified", ErrConfirmationDeclined)
	}

	if u.WriteConfig != nil {
		if err := u.WriteConfig(rec); err != nil {
			return err
		}
	}

	var stageErrs []error
	stage := func(name string, fn func() error) {
		if err := fn(); err != nil {
			logging.Error("uninstall stage failed", "stage", name, "error", err)
			stageErrs = append(stageErrs, fmt.Errorf("%s: %w", name, err))
		} else {
			logging.Info("uninstall stage complete", "stage", name)
		}
	}

	// Trust role and provider go first: nothing depends on them.
	stage("destroy trust resources", func() error {
		return u.TF.Destroy(ctx)
	})

	// A versioned bucket refuses deletion while non-empty.
	stage("drain state bucket", func() error {
		removed, err := u.Cloud.DrainBucket(ctx, rec.StateBucket)
		if err != nil {
			return err
		}
		logging.Info("state bucket drained", "bucket", rec.StateBucket, "removed", removed)
		return nil
	})
	stage("delete state bucket", func() error {
		return u.Cloud.DeleteBucket(ctx, rec.StateBucket)
	})
	stage("delete lock table", func() error {
		return u.Cloud.DeleteTable(ctx, rec.LockTable)
	})

	// Artifact removal is best-effort: its failure never blocks teardown.
	if err := os.Remove(u.ArtifactPath); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove CI workflow artifact", "path", u.ArtifactPath, "error", err)
	}

	if len(stageErrs) > 0 {
		// Keep the record so a retry can resume from a coherent state.
		return fmt.Errorf("uninstall incomplete, inventory retained for retry: %w", errors.Join(stageErrs...))
	}

	if err := u.Store.Delete(); err != nil {
		return err
	}
	logging.Info("uninstall complete")
	return nil
}

// TeardownSummary renders the full destruction plan shown before the
// confirmation gate: every identifier plus the original install timestamp.
func TeardownSummary(rec *inventory.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The following platform resources will be permanently destroyed:\n\n")
	fmt.Fprintf(&b, "  trust role:     %s\n", rec.RoleName)
	fmt.Fprintf(&b, "  oidc provider:  %s\n", "token.actions.githubusercontent.com")
	fmt.Fprintf(&b, "  state bucket:   %s (all versions and delete markers)\n", rec.StateBucket)
	fmt.Fprintf(&b, "  lock table:     %s\n", rec.LockTable)
	fmt.Fprintf(&b, "  ci workflow:    generated artifact and inventory record\n\n")
	fmt.Fprintf(&b, "Installed at %s in account %s (%s).\n", rec.CreatedAt, rec.AccountID, rec.Region)
	return b.String()
}

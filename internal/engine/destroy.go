package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bootlace-io/bootlace/internal/inventory"
	"github.com/bootlace-io/bootlace/internal/lockguard"
	"github.com/bootlace-io/bootlace/internal/logging"
	"github.com/bootlace-io/bootlace/internal/workflow"
)

const (
	borrowedBackendFile = "backend.tf"
	destroyPlanFile     = ".bootlace.tfplan"
)

// Destroyer tears down only the watched configuration subtree. The
// platform primitives the IaC tool itself depends on (state bucket, lock
// table, trust role) are never in scope here.
type Destroyer struct {
	TF    Terraform // runs inside the watched subtree
	Store *inventory.Store

	NewLockChecker func(table string) LockChecker
	Prompts        Prompts
}

// Run executes the scoped destroy: lock gate, remote state init (borrowing
// backend wiring if the subtree has none), destroy plan, hard literal
// confirmation, destroy. Borrowed files and the plan artifact are released
// on every exit path.
func (d *Destroyer) Run(ctx context.Context) error {
	rec, err := d.Store.Load()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPreflight, err)
	}
	if rec == nil {
		return fmt.Errorf("%w: platform is not installed", ErrPreflight)
	}

	if err := d.TF.Preflight(); err != nil {
		return fmt.Errorf("%w: %v", ErrPreflight, err)
	}

	if err := gateInstallLocks(ctx, d.NewLockChecker(rec.LockTable), d.Prompts, rec.LockTable); err != nil {
		return err
	}

	rctx := NewRunContext()
	defer rctx.Release()

	if err := d.borrowBackendWiring(rec, rctx); err != nil {
		return err
	}

	if err := d.TF.Init(ctx, map[string]string{
		"bucket":         rec.StateBucket,
		"key":            rec.WatchPath + "/terraform.tfstate",
		"region":         rec.Region,
		"dynamodb_table": rec.LockTable,
	}); err != nil {
		return err
	}

	// Terraform resolves the plan path against its own working directory,
	// which is already the watched subtree; only the orchestrator-side
	// removal needs the subtree prefix.
	rctx.Defer("destroy plan artifact", func() error {
		if err := os.Remove(filepath.Join(rec.WatchPath, destroyPlanFile)); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	})

	planText, err := d.TF.PlanDestroy(ctx, destroyPlanFile)
	if err != nil {
		return err
	}

	input, err := d.Prompts.ConfirmDestroy(scopedSummary(rec, planText))
	if err != nil {
		return err
	}
	if !ConfirmedDestroy(input) {
		return fmt.Errorf("%w: no resources were modified", ErrConfirmationDeclined)
	}

	if err := d.TF.ApplyPlan(ctx, destroyPlanFile); err != nil {
		return err
	}

	logging.Info("scoped destroy complete", "path", rec.WatchPath)
	return nil
}

// scopedSummary wraps terraform's destroy plan with the scope statement shown
// before the confirmation gate: only the watched subtree is destroyed and the
// platform primitives stay in place.
func scopedSummary(rec *inventory.Record, planText string) string {
	var b strings.Builder
	b.WriteString(planText)
	fmt.Fprintf(&b, "\nScoped destroy of %s.\n", rec.WatchPath)
	fmt.Fprintf(&b, "The platform primitives are excluded and will remain:\n")
	fmt.Fprintf(&b, "  state bucket: %s\n", rec.StateBucket)
	fmt.Fprintf(&b, "  lock table:   %s\n", rec.LockTable)
	fmt.Fprintf(&b, "  trust role:   %s\n", rec.RoleName)
	return b.String()
}

// borrowBackendWiring writes a rendered backend stanza into the watched
// subtree when it has none of its own, and registers its removal. The
// borrow is scoped: removal runs on success, failure and interrupt alike.
func (d *Destroyer) borrowBackendWiring(rec *inventory.Record, rctx *RunContext) error {
	path := filepath.Join(rec.WatchPath, borrowedBackendFile)
	if _, err := os.Stat(path); err == nil {
		return nil // subtree has its own wiring
	}

	content, err := workflow.RenderBackend(workflow.Params{
		Region:      rec.Region,
		StateBucket: rec.StateBucket,
		LockTable:   rec.LockTable,
		WatchPath:   rec.WatchPath,
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write borrowed backend wiring: %w", err)
	}
	logging.Debug("borrowed backend wiring", "path", path)

	rctx.Defer("borrowed backend wiring", func() error {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	})
	return nil
}

// gateInstallLocks applies the interactive lock policy shared by install
// and scoped destroy.
func gateInstallLocks(ctx context.Context, checker LockChecker, prompts Prompts, table string) error {
	st, err := checker.Check(ctx)
	if err != nil {
		return err
	}

	switch lockguard.Decide(lockguard.InstallFlow, st) {
	case lockguard.Proceed:
		return nil
	case lockguard.OfferRemoval:
		confirmed, err := prompts.ConfirmLockRemoval(st)
		if err != nil {
			return err
		}
		if lockguard.ResolveRemoval(confirmed) == lockguard.Refuse {
			return fmt.Errorf("%w: %d lock(s) outstanding on %s", ErrLockConflict, st.Count, table)
		}
		return checker.Remove(ctx, st.LockID)
	default:
		return fmt.Errorf("%w: %d lock(s) outstanding on %s", ErrLockConflict, st.Count, table)
	}
}

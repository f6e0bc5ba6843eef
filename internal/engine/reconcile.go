package engine

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bootlace-io/bootlace/internal/inventory"
	"github.com/bootlace-io/bootlace/internal/logging"
	"github.com/bootlace-io/bootlace/internal/naming"
	"github.com/bootlace-io/bootlace/internal/platform"
	"github.com/bootlace-io/bootlace/internal/workflow"
)

// Terraform addresses of the platform resources. Import ids differ per
// resource: buckets and tables import by name, roles by name, OIDC
// providers by ARN.
const (
	addrStateBucket  = "aws_s3_bucket.state"
	addrLockTable    = "aws_dynamodb_table.lock"
	addrOIDCProvider = "aws_iam_openid_connect_provider.github"
	addrTrustRole    = "aws_iam_role.ci"
)

// InstallInputs are the operator-supplied coordinates for an installation.
type InstallInputs struct {
	Region        string
	Org           string
	Repo          string
	DefaultBranch string
	WatchPath     string
}

// Reconciler converges the platform resources onto their desired
// configuration, tolerating resources that already exist from a prior
// partial run or out-of-band creation.
type Reconciler struct {
	Cloud Cloud
	TF    Terraform
	Store *inventory.Store

	// NewLockChecker builds a lock checker for a table name. Only invoked
	// when the lock table already exists; a first run has nothing to check.
	NewLockChecker func(table string) LockChecker

	Prompts      Prompts
	ArtifactPath string
	AutoApprove  bool

	// WriteConfig materializes the platform configuration into the runner's
	// working directory before init, keeping it in lockstep with the record.
	// Nil skips materialization.
	WriteConfig func(rec *inventory.Record) error
}

// Install runs the full install flow: preflight, load-or-init inventory,
// lock gate, plan, adopt-or-create, converge, artifact generation.
// Safe to re-run after partial failure; derived names are reused, never
// regenerated.
func (r *Reconciler) Install(ctx context.Context, in InstallInputs) error {
	if err := r.TF.Preflight(); err != nil {
		return fmt.Errorf("%w: %v", ErrPreflight, err)
	}

	account, callerARN, err := r.Cloud.Identity(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v (check your AWS credentials)", ErrAuth, err)
	}
	logging.Info("authenticated", "account", account, "principal", callerARN)

	rec, err := r.Store.Load()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPreflight, err)
	}

	if rec != nil {
		// Retry path: names recorded by the prior run are immutable.
		ok, err := r.Prompts.ConfirmReuse(rec.CreatedAt)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: run 'bootlace uninstall' before reinstalling", ErrConfirmationDeclined)
		}
		logging.Info("resuming prior installation", "created_at", rec.CreatedAt)
	} else {
		names := naming.Derive(in.Org, in.Repo, account)
		rec = &inventory.Record{
			Region:        in.Region,
			AccountID:     account,
			StateBucket:   names.StateBucket,
			LockTable:     names.LockTable,
			RoleName:      names.RoleName,
			Org:           in.Org,
			Repo:          in.Repo,
			DefaultBranch: in.DefaultBranch,
			WatchPath:     in.WatchPath,
			CreatedAt:     time.Now().UTC().Format(time.RFC3339),
		}
		// Persist before touching the cloud so a crash still pins the names.
		if err := r.Store.Save(rec); err != nil {
			return err
		}
	}

	plan, found, err := r.buildPlan(ctx, rec)
	if err != nil {
		return err
	}

	if !r.AutoApprove {
		input, err := r.Prompts.ConfirmInstall(plan)
		if err != nil {
			return err
		}
		if !ConfirmedInstall(input) {
			return fmt.Errorf("%w: no resources were modified", ErrConfirmationDeclined)
		}
	}

	if found.table {
		if err := gateInstallLocks(ctx, r.NewLockChecker(rec.LockTable), r.Prompts, rec.LockTable); err != nil {
			return err
		}
	}

	if r.WriteConfig != nil {
		if err := r.WriteConfig(rec); err != nil {
			return err
		}
	}

	if err := r.TF.Init(ctx, nil); err != nil {
		return err
	}

	// Adopt existing resources so apply converges them instead of failing
	// on duplicate creation. Import only seeds tracking; a failed import is
	// non-fatal because apply is the authoritative convergence attempt.
	for _, step := range plan.Steps {
		if step.Action != ActionAdopt {
			continue
		}
		address, id := importTarget(step, found)
		if address == "" {
			continue
		}
		if err := r.TF.Import(ctx, address, id); err != nil {
			logging.Warn("import failed, apply will reconcile", "resource", string(step.Kind), "error", err)
		}
	}

	if err := r.TF.Apply(ctx); err != nil {
		// Record keeps whatever was resolved; a retry resumes from here.
		return err
	}

	roleARN, err := r.Cloud.RoleARN(ctx, rec.RoleName)
	if err != nil {
		return err
	}
	if roleARN == "" {
		return fmt.Errorf("trust role %s not found after apply", rec.RoleName)
	}

	if err := workflow.Write(r.ArtifactPath, workflow.Params{
		Region:      rec.Region,
		StateBucket: rec.StateBucket,
		LockTable:   rec.LockTable,
		RoleARN:     roleARN,
		Branch:      rec.DefaultBranch,
		WatchPath:   rec.WatchPath,
	}); err != nil {
		return err
	}

	// The ARN is the last field written: its presence marks completion.
	rec.Merge(inventory.Record{RoleARN: roleARN})
	if err := r.Store.Save(rec); err != nil {
		return err
	}

	logging.Info("install complete", "bucket", rec.StateBucket, "table", rec.LockTable, "role", roleARN)
	return nil
}

// foundResources records which resources already exist externally, plus
// identifiers only discoverable from the live account.
type foundResources struct {
	bucket      bool
	table       bool
	providerARN string
	role        bool
}

// buildPlan queries external existence directly (not via terraform state,
// which may not exist yet) and decides adopt-vs-create per resource.
// Ordering: state bucket and lock table first, trust provider and role
// after, artifact last.
func (r *Reconciler) buildPlan(ctx context.Context, rec *inventory.Record) (*Plan, foundResources, error) {
	var found foundResources
	plan := &Plan{}

	var err error
	if found.bucket, err = r.Cloud.BucketExists(ctx, rec.StateBucket); err != nil {
		return nil, found, err
	}
	plan.add(KindStateBucket, rec.StateBucket, adoptOrCreate(found.bucket))

	if found.table, err = r.Cloud.TableExists(ctx, rec.LockTable); err != nil {
		return nil, found, err
	}
	plan.add(KindLockTable, rec.LockTable, adoptOrCreate(found.table))

	// The OIDC provider exists at most once per account. A pre-existing one
	// must be imported: duplicate creation is rejected by IAM.
	if found.providerARN, err = r.Cloud.FindOIDCProvider(ctx, platform.GitHubOIDCIssuer); err != nil {
		return nil, found, err
	}
	plan.add(KindOIDCProvider, platform.GitHubOIDCIssuer, adoptOrCreate(found.providerARN != ""))

	if found.role, err = r.roleExists(ctx, rec.RoleName); err != nil {
		return nil, found, err
	}
	plan.add(KindTrustRole, rec.RoleName, adoptOrCreate(found.role))

	artifactAction := ActionCreate
	if _, err := os.Stat(r.ArtifactPath); err == nil {
		artifactAction = ActionConverge
	}
	plan.add(KindWorkflow, r.ArtifactPath, artifactAction)

	return plan, found, nil
}

func (r *Reconciler) roleExists(ctx context.Context, name string) (bool, error) {
	arn, err := r.Cloud.RoleARN(ctx, name)
	if err != nil {
		return false, err
	}
	return arn != "", nil
}

func adoptOrCreate(exists bool) Action {
	if exists {
		return ActionAdopt
	}
	return ActionCreate
}

// importTarget maps a plan step onto the terraform import address and id.
func importTarget(step Step, found foundResources) (address, id string) {
	switch step.Kind {
	case KindStateBucket:
		return addrStateBucket, step.Name
	case KindLockTable:
		return addrLockTable, step.Name
	case KindOIDCProvider:
		return addrOIDCProvider, found.providerARN
	case KindTrustRole:
		return addrTrustRole, step.Name
	}
	return "", ""
}

// Package engine holds the lifecycle orchestrators: install-time
// reconciliation, scoped destroy, and full uninstall. Each run is a single
// linear sequence of blocking external calls; the only concurrency concern
// is across separate runs, which the lock guard handles.
package engine

import (
	"context"

	"github.com/bootlace-io/bootlace/internal/lockguard"
)

// Cloud is what the orchestrators need from the AWS control plane.
// *platform.Clients implements it.
type Cloud interface {
	Identity(ctx context.Context) (account, arn string, err error)
	BucketExists(ctx context.Context, bucket string) (bool, error)
	DrainBucket(ctx context.Context, bucket string) (int, error)
	DeleteBucket(ctx context.Context, bucket string) error
	TableExists(ctx context.Context, table string) (bool, error)
	DeleteTable(ctx context.Context, table string) error
	RoleARN(ctx context.Context, roleName string) (string, error)
	FindOIDCProvider(ctx context.Context, issuer string) (string, error)
}

// Terraform is the IaC engine boundary. *terraform.Runner implements it.
type Terraform interface {
	Preflight() error
	Init(ctx context.Context, backend map[string]string) error
	Import(ctx context.Context, address, id string) error
	Apply(ctx context.Context) error
	PlanDestroy(ctx context.Context, planFile string) (string, error)
	ApplyPlan(ctx context.Context, planFile string) error
	Destroy(ctx context.Context) error
}

// LockChecker is the lock backend boundary. *lockguard.Guard implements it.
type LockChecker interface {
	Check(ctx context.Context) (lockguard.Status, error)
	Remove(ctx context.Context, lockID string) error
}

// Prompts separates operator I/O from the decision logic. The CLI installs
// interactive implementations; tests install canned answers.
type Prompts struct {
	// ConfirmReuse is asked when install finds an existing inventory
	// record: true resumes with the recorded identifiers, false aborts.
	ConfirmReuse func(created string) (bool, error)
	// ConfirmInstall gathers the provisioning confirmation input after the
	// plan has been shown.
	ConfirmInstall func(plan *Plan) (string, error)
	// ConfirmLockRemoval is asked when an active lock is found in a flow
	// that may clear it.
	ConfirmLockRemoval func(st lockguard.Status) (bool, error)
	// ConfirmDestroy gathers the destructive confirmation input after the
	// rendered destroy plan has been shown.
	ConfirmDestroy func(planText string) (string, error)
}

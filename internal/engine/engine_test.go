package engine

import (
	"context"
	"errors"

	"github.com/bootlace-io/bootlace/internal/lockguard"
)

// fakeCloud simulates the AWS control plane with mutable resource state so
// flows can be exercised end to end.
type fakeCloud struct {
	account     string
	identityErr error

	bucket      bool
	table       bool
	role        bool
	roleARN     string
	providerARN string

	drainCount int
	calls      []string
}

func newFakeCloud() *fakeCloud {
	return &fakeCloud{account: "123456789012"}
}

func (f *fakeCloud) Identity(ctx context.Context) (string, string, error) {
	if f.identityErr != nil {
		return "", "", f.identityErr
	}
	return f.account, "arn:aws:iam::" + f.account + ":user/dev", nil
}

func (f *fakeCloud) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return f.bucket, nil
}

func (f *fakeCloud) DrainBucket(ctx context.Context, bucket string) (int, error) {
	f.calls = append(f.calls, "drain:"+bucket)
	return f.drainCount, nil
}

func (f *fakeCloud) DeleteBucket(ctx context.Context, bucket string) error {
	f.calls = append(f.calls, "delete-bucket:"+bucket)
	f.bucket = false
	return nil
}

func (f *fakeCloud) TableExists(ctx context.Context, table string) (bool, error) {
	return f.table, nil
}

func (f *fakeCloud) DeleteTable(ctx context.Context, table string) error {
	f.calls = append(f.calls, "delete-table:"+table)
	f.table = false
	return nil
}

func (f *fakeCloud) RoleARN(ctx context.Context, roleName string) (string, error) {
	if !f.role {
		return "", nil
	}
	return f.roleARN, nil
}

func (f *fakeCloud) FindOIDCProvider(ctx context.Context, issuer string) (string, error) {
	return f.providerARN, nil
}

// fakeTF records terraform invocations and lets tests fail specific steps.
type fakeTF struct {
	preflightErr error
	importErr    error
	applyErr     error
	planText     string
	planErr      error
	applyPlanErr error
	destroyErr   error

	// onApply mutates external state the way a real apply would.
	onApply func()

	calls     []string
	imports   [][2]string
	planFiles []string
}

func (f *fakeTF) Preflight() error {
	return f.preflightErr
}

func (f *fakeTF) Init(ctx context.Context, backend map[string]string) error {
	f.calls = append(f.calls, "init")
	return nil
}

func (f *fakeTF) Import(ctx context.Context, address, id string) error {
	f.calls = append(f.calls, "import")
	f.imports = append(f.imports, [2]string{address, id})
	return f.importErr
}

func (f *fakeTF) Apply(ctx context.Context) error {
	f.calls = append(f.calls, "apply")
	if f.applyErr != nil {
		return f.applyErr
	}
	if f.onApply != nil {
		f.onApply()
	}
	return nil
}

func (f *fakeTF) PlanDestroy(ctx context.Context, planFile string) (string, error) {
	f.calls = append(f.calls, "plan-destroy")
	f.planFiles = append(f.planFiles, planFile)
	return f.planText, f.planErr
}

func (f *fakeTF) ApplyPlan(ctx context.Context, planFile string) error {
	f.calls = append(f.calls, "apply-plan")
	f.planFiles = append(f.planFiles, planFile)
	return f.applyPlanErr
}

func (f *fakeTF) Destroy(ctx context.Context) error {
	f.calls = append(f.calls, "destroy")
	return f.destroyErr
}

func (f *fakeTF) called(name string) bool {
	for _, c := range f.calls {
		if c == name {
			return true
		}
	}
	return false
}

// fakeLocks is a canned lock backend.
type fakeLocks struct {
	status  lockguard.Status
	removed []string
}

func (f *fakeLocks) Check(ctx context.Context) (lockguard.Status, error) {
	return f.status, nil
}

func (f *fakeLocks) Remove(ctx context.Context, lockID string) error {
	f.removed = append(f.removed, lockID)
	f.status = lockguard.Status{}
	return nil
}

func lockCheckerFor(locks *fakeLocks) func(string) LockChecker {
	return func(string) LockChecker { return locks }
}

// autoPrompts answers every prompt affirmatively with the exact literals.
func autoPrompts() Prompts {
	return Prompts{
		ConfirmReuse:       func(string) (bool, error) { return true, nil },
		ConfirmInstall:     func(*Plan) (string, error) { return InstallPhrase, nil },
		ConfirmLockRemoval: func(lockguard.Status) (bool, error) { return true, nil },
		ConfirmDestroy:     func(string) (string, error) { return DestroyPhrase, nil },
	}
}

var errBoom = errors.New("boom")

package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bootlace-io/bootlace/internal/inventory"
	"github.com/bootlace-io/bootlace/internal/lockguard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInputs() InstallInputs {
	return InstallInputs{
		Region:        "eu-west-1",
		Org:           "acme",
		Repo:          "payments",
		DefaultBranch: "main",
		WatchPath:     "infra/live",
	}
}

func newReconciler(t *testing.T, cloud *fakeCloud, tf *fakeTF, locks *fakeLocks) *Reconciler {
	t.Helper()
	dir := t.TempDir()
	return &Reconciler{
		Cloud:          cloud,
		TF:             tf,
		Store:          inventory.NewStore(filepath.Join(dir, "inventory.json")),
		NewLockChecker: lockCheckerFor(locks),
		Prompts:        autoPrompts(),
		ArtifactPath:   filepath.Join(dir, "workflows", "deploy.yml"),
	}
}

// wireApply makes the fake apply behave like a real one: afterwards the
// role (and everything else) exists.
func wireApply(cloud *fakeCloud, tf *fakeTF) {
	tf.onApply = func() {
		cloud.bucket = true
		cloud.table = true
		cloud.role = true
		if cloud.roleARN == "" {
			cloud.roleARN = "arn:aws:iam::123456789012:role/ci-deploy-payments-x"
		}
	}
}

func TestInstallFreshRun(t *testing.T) {
	cloud := newFakeCloud()
	tf := &fakeTF{}
	wireApply(cloud, tf)
	r := newReconciler(t, cloud, tf, &fakeLocks{})

	require.NoError(t, r.Install(context.Background(), testInputs()))

	// Nothing existed, so nothing was imported.
	assert.False(t, tf.called("import"))
	assert.True(t, tf.called("apply"))

	rec, err := r.Store.Load()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.Complete())
	assert.Equal(t, "123456789012", rec.AccountID)
	assert.NotEmpty(t, rec.StateBucket)
	assert.FileExists(t, r.ArtifactPath)
}

func TestInstallIdempotentRerun(t *testing.T) {
	cloud := newFakeCloud()
	tf := &fakeTF{}
	wireApply(cloud, tf)
	r := newReconciler(t, cloud, tf, &fakeLocks{})
	ctx := context.Background()

	require.NoError(t, r.Install(ctx, testInputs()))
	first, err := r.Store.Load()
	require.NoError(t, err)

	// Second run: everything exists, names must be reused, record unchanged.
	cloud.providerARN = "arn:aws:iam::123456789012:oidc-provider/token.actions.githubusercontent.com"
	require.NoError(t, r.Install(ctx, testInputs()))
	second, err := r.Store.Load()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestInstallResumeReusesDerivedNames(t *testing.T) {
	cloud := newFakeCloud()
	cloud.bucket = true // state-store stage finished before the failure
	tf := &fakeTF{}
	wireApply(cloud, tf)
	r := newReconciler(t, cloud, tf, &fakeLocks{})

	partial := &inventory.Record{
		Region:        "eu-west-1",
		AccountID:     "123456789012",
		StateBucket:   "state-payments-cafe0123",
		LockTable:     "lock-payments-cafe0123",
		RoleName:      "ci-deploy-payments-cafe0123",
		Org:           "acme",
		Repo:          "payments",
		DefaultBranch: "main",
		WatchPath:     "infra/live",
		CreatedAt:     "2026-08-20T00:00:00Z",
	}
	require.NoError(t, r.Store.Save(partial))

	require.NoError(t, r.Install(context.Background(), testInputs()))

	rec, err := r.Store.Load()
	require.NoError(t, err)
	assert.Equal(t, "state-payments-cafe0123", rec.StateBucket, "must not mint a new name")
	assert.True(t, rec.Complete())
	// The pre-existing bucket was adopted, not recreated.
	assert.Contains(t, tf.imports, [2]string{addrStateBucket, "state-payments-cafe0123"})
}

func TestInstallExistingRecordDeclined(t *testing.T) {
	cloud := newFakeCloud()
	tf := &fakeTF{}
	r := newReconciler(t, cloud, tf, &fakeLocks{})
	require.NoError(t, r.Store.Save(&inventory.Record{CreatedAt: "2026-08-20T00:00:00Z", StateBucket: "state-x"}))

	r.Prompts.ConfirmReuse = func(string) (bool, error) { return false, nil }

	err := r.Install(context.Background(), testInputs())
	assert.ErrorIs(t, err, ErrConfirmationDeclined)
	assert.Empty(t, tf.calls)
}

func TestInstallConfirmationDeclined(t *testing.T) {
	cloud := newFakeCloud()
	tf := &fakeTF{}
	r := newReconciler(t, cloud, tf, &fakeLocks{})
	r.Prompts.ConfirmInstall = func(*Plan) (string, error) { return "y", nil }

	err := r.Install(context.Background(), testInputs())
	assert.ErrorIs(t, err, ErrConfirmationDeclined)
	assert.False(t, tf.called("apply"))
}

func TestInstallPreflight(t *testing.T) {
	tf := &fakeTF{preflightErr: errBoom}
	r := newReconciler(t, newFakeCloud(), tf, &fakeLocks{})

	err := r.Install(context.Background(), testInputs())
	assert.ErrorIs(t, err, ErrPreflight)
}

func TestInstallAuthFailure(t *testing.T) {
	cloud := newFakeCloud()
	cloud.identityErr = errBoom
	r := newReconciler(t, cloud, &fakeTF{}, &fakeLocks{})

	err := r.Install(context.Background(), testInputs())
	assert.ErrorIs(t, err, ErrAuth)
}

func TestInstallLockHeldDeclined(t *testing.T) {
	cloud := newFakeCloud()
	cloud.table = true
	tf := &fakeTF{}
	locks := &fakeLocks{status: lockguard.Status{Count: 1, LockID: "lock-1"}}
	r := newReconciler(t, cloud, tf, locks)
	r.Prompts.ConfirmLockRemoval = func(lockguard.Status) (bool, error) { return false, nil }

	err := r.Install(context.Background(), testInputs())
	assert.ErrorIs(t, err, ErrLockConflict)
	assert.False(t, tf.called("apply"))
	assert.Empty(t, locks.removed)
}

func TestInstallLockHeldCleared(t *testing.T) {
	cloud := newFakeCloud()
	cloud.table = true
	tf := &fakeTF{}
	wireApply(cloud, tf)
	locks := &fakeLocks{status: lockguard.Status{Count: 1, LockID: "lock-1"}}
	r := newReconciler(t, cloud, tf, locks)

	require.NoError(t, r.Install(context.Background(), testInputs()))
	assert.Equal(t, []string{"lock-1"}, locks.removed)
	assert.True(t, tf.called("apply"))
}

func TestInstallImportFailureNonFatal(t *testing.T) {
	cloud := newFakeCloud()
	cloud.bucket = true
	tf := &fakeTF{importErr: errBoom}
	wireApply(cloud, tf)
	r := newReconciler(t, cloud, tf, &fakeLocks{})

	// Import is only a tracking seed; apply is authoritative.
	require.NoError(t, r.Install(context.Background(), testInputs()))
	assert.True(t, tf.called("apply"))
}

func TestInstallAdoptsExistingOIDCProvider(t *testing.T) {
	cloud := newFakeCloud()
	cloud.providerARN = "arn:aws:iam::123456789012:oidc-provider/token.actions.githubusercontent.com"
	tf := &fakeTF{}
	wireApply(cloud, tf)
	r := newReconciler(t, cloud, tf, &fakeLocks{})

	require.NoError(t, r.Install(context.Background(), testInputs()))
	assert.Contains(t, tf.imports, [2]string{addrOIDCProvider, cloud.providerARN})
}

func TestInstallApplyFailureKeepsRecord(t *testing.T) {
	cloud := newFakeCloud()
	tf := &fakeTF{applyErr: errBoom}
	r := newReconciler(t, cloud, tf, &fakeLocks{})

	err := r.Install(context.Background(), testInputs())
	require.Error(t, err)

	rec, loadErr := r.Store.Load()
	require.NoError(t, loadErr)
	require.NotNil(t, rec, "derived names must survive a failed apply")
	assert.False(t, rec.Complete())
	assert.NotEmpty(t, rec.StateBucket)
}

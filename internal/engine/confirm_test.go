package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfirmedDestroy(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"DESTROY", true},
		{"destroy", false},
		{"Destroy", false},
		{"DESTROY ", false},
		{" DESTROY", false},
		{"DESTROY\n", false},
		{"yes", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ConfirmedDestroy(tt.input), "input %q", tt.input)
	}
}

func TestConfirmedInstall(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"yes", true},
		{"Yes", false},
		{"YES", false},
		{"y", false},
		{"yes\n", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ConfirmedInstall(tt.input), "input %q", tt.input)
	}
}

func TestRunContextReleasesInReverseOrder(t *testing.T) {
	rc := NewRunContext()

	var order []string
	rc.Defer("first", func() error { order = append(order, "first"); return nil })
	rc.Defer("second", func() error { order = append(order, "second"); return errBoom })
	rc.Defer("third", func() error { order = append(order, "third"); return nil })

	// The failing release in the middle must not stop the others.
	rc.Release()
	assert.Equal(t, []string{"third", "second", "first"}, order)

	// A second Release is a no-op.
	rc.Release()
	assert.Equal(t, []string{"third", "second", "first"}, order)
}

func TestPlanCounts(t *testing.T) {
	p := &Plan{}
	p.add(KindStateBucket, "state-x", ActionAdopt)
	p.add(KindLockTable, "lock-x", ActionCreate)
	p.add(KindTrustRole, "ci-x", ActionCreate)
	p.add(KindWorkflow, "deploy.yml", ActionConverge)

	counts := p.Counts()
	assert.Equal(t, 1, counts[ActionAdopt])
	assert.Equal(t, 2, counts[ActionCreate])
	assert.Equal(t, 1, counts[ActionConverge])
	assert.Zero(t, counts[ActionDestroy])
}

// Package terraform shells out to the external terraform binary. The tool
// never links the IaC engine in: plan, apply, import and destroy are
// delegated to whatever terraform the operator has on PATH, and its output
// is streamed through unchanged.
package terraform

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
)

// Runner executes terraform commands in one working directory.
type Runner struct {
	// Binary is the terraform executable. Overridable for tests.
	Binary string
	// Dir is the configuration directory terraform runs in.
	Dir string

	Stdout io.Writer
	Stderr io.Writer
}

func NewRunner(dir string) *Runner {
	return &Runner{
		Binary: "terraform",
		Dir:    dir,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Preflight verifies the terraform binary is available.
func (r *Runner) Preflight() error {
	if _, err := exec.LookPath(r.Binary); err != nil {
		return fmt.Errorf("terraform binary not found on PATH: %w", err)
	}
	return nil
}

// Init runs terraform init with the given backend settings.
func (r *Runner) Init(ctx context.Context, backend map[string]string) error {
	return r.run(ctx, initArgs(backend)...)
}

// Import adopts an existing external resource into terraform state. Callers
// treat failures as non-fatal: the subsequent apply is the authoritative
// convergence attempt.
func (r *Runner) Import(ctx context.Context, address, id string) error {
	return r.run(ctx, "import", "-input=false", address, id)
}

// Apply converges all resources in the configuration onto their desired
// settings.
func (r *Runner) Apply(ctx context.Context) error {
	return r.run(ctx, "apply", "-input=false", "-auto-approve")
}

// PlanDestroy writes a destroy plan to planFile and returns its rendered
// form for operator review.
func (r *Runner) PlanDestroy(ctx context.Context, planFile string) (string, error) {
	if err := r.run(ctx, "plan", "-destroy", "-input=false", "-out="+planFile); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	saved := r.Stdout
	r.Stdout = &buf
	err := r.run(ctx, "show", "-no-color", planFile)
	r.Stdout = saved
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ApplyPlan executes a previously saved plan file.
func (r *Runner) ApplyPlan(ctx context.Context, planFile string) error {
	return r.run(ctx, "apply", "-input=false", planFile)
}

// Destroy tears down everything in the configuration.
func (r *Runner) Destroy(ctx context.Context) error {
	return r.run(ctx, "destroy", "-input=false", "-auto-approve")
}

func (r *Runner) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, r.Binary, args...)
	cmd.Dir = r.Dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("terraform %s failed: %w", args[0], err)
	}
	return nil
}

// initArgs builds the init argument list with deterministic backend-config
// ordering.
func initArgs(backend map[string]string) []string {
	args := []string{"init", "-input=false", "-reconfigure"}

	keys := make([]string, 0, len(backend))
	for k := range backend {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		args = append(args, fmt.Sprintf("-backend-config=%s=%s", k, backend[k]))
	}
	return args
}

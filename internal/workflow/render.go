// Package workflow renders the generated CI artifacts: the GitHub Actions
// workflow that runs terraform on pushes to the watched subtree, and the
// backend wiring stanza the destroy flow can borrow when the subtree lacks
// its own. Rendering is data-driven so it stays testable apart from the
// orchestration.
package workflow

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// DefaultPath is where the generated workflow lands relative to the
// repository root.
const DefaultPath = ".github/workflows/bootlace-deploy.yml"

// Params is everything the templates interpolate. Values come from the
// inventory record so regenerated artifacts stay consistent with what was
// provisioned.
type Params struct {
	Region      string
	StateBucket string
	LockTable   string
	RoleARN     string
	Branch      string
	WatchPath   string
}

const workflowTemplate = `# Generated by bootlace. Do not edit by hand; re-run bootlace install.
name: deploy

on:
  push:
    branches:
      - {{ .Branch }}
    paths:
      - "{{ .WatchPath }}/**"

permissions:
  id-token: write
  contents: read

jobs:
  terraform:
    runs-on: ubuntu-latest
    defaults:
      run:
        working-directory: {{ .WatchPath }}
    steps:
      - uses: actions/checkout@v4

      - name: Configure AWS credentials
        uses: aws-actions/configure-aws-credentials@v4
        with:
          role-to-assume: {{ .RoleARN }}
          aws-region: {{ .Region }}

      - uses: hashicorp/setup-terraform@v3

      - name: Init
        run: |
          terraform init -input=false \
            -backend-config="bucket={{ .StateBucket }}" \
            -backend-config="region={{ .Region }}" \
            -backend-config="dynamodb_table={{ .LockTable }}"

      - name: Validate
        run: terraform validate

      - name: Plan
        run: terraform plan -input=false -out=tfplan

      - name: Apply
        if: github.ref == format('refs/heads/{0}', '{{ .Branch }}')
        run: terraform apply -input=false tfplan
`

const backendTemplate = `# Generated by bootlace: remote state wiring for the watched subtree.
terraform {
  backend "s3" {
    bucket         = {{ .StateBucket | quote }}
    key            = "{{ .WatchPath }}/terraform.tfstate"
    region         = {{ .Region | quote }}
    dynamodb_table = {{ .LockTable | quote }}
    encrypt        = true
  }
}
`

// Render produces the GitHub Actions workflow text.
func Render(p Params) (string, error) {
	return render("workflow", workflowTemplate, p)
}

// RenderBackend produces the borrowable backend.tf text.
func RenderBackend(p Params) (string, error) {
	return render("backend", backendTemplate, p)
}

func render(name, text string, p Params) (string, error) {
	tmpl, err := template.New(name).Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s template: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

// Write renders the workflow and writes it to path, creating parent
// directories as needed.
func Write(path string, p Params) error {
	content, err := Render(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create workflow directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write workflow %s: %w", path, err)
	}
	return nil
}

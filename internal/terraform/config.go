package terraform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// ConfigParams fills the platform configuration template.
type ConfigParams struct {
	Region      string
	StateBucket string
	LockTable   string
	RoleName    string
	Org         string
	Repo        string
}

const configFile = "main.tf"

// The platform resource set. Resource addresses are part of the tool's
// contract: the orchestrators import pre-existing resources by these
// addresses. The configuration itself uses local state; it IS the remote
// state infrastructure and cannot depend on it.
const configTemplate = `terraform {
  required_version = ">= 1.5.0"

  required_providers {
    aws = {
      source  = "hashicorp/aws"
      version = ">= 5.0"
    }
  }
}

provider "aws" {
  region = "{{ .Region }}"
}

resource "aws_s3_bucket" "state" {
  bucket = "{{ .StateBucket }}"

  tags = {
    ManagedBy = "bootlace"
  }
}

resource "aws_s3_bucket_versioning" "state" {
  bucket = aws_s3_bucket.state.id

  versioning_configuration {
    status = "Enabled"
  }
}

resource "aws_s3_bucket_public_access_block" "state" {
  bucket = aws_s3_bucket.state.id

  block_public_acls       = true
  block_public_policy     = true
  ignore_public_acls      = true
  restrict_public_buckets = true
}

resource "aws_dynamodb_table" "lock" {
  name         = "{{ .LockTable }}"
  billing_mode = "PAY_PER_REQUEST"
  hash_key     = "LockID"

  attribute {
    name = "LockID"
    type = "S"
  }

  tags = {
    ManagedBy = "bootlace"
  }
}

resource "aws_iam_openid_connect_provider" "github" {
  url             = "https://token.actions.githubusercontent.com"
  client_id_list  = ["sts.amazonaws.com"]
  thumbprint_list = ["6938fd4d98bab03faadb97b34396831e3780aea1"]
}

resource "aws_iam_role" "ci" {
  name = "{{ .RoleName }}"

  assume_role_policy = jsonencode({
    Version = "2012-10-17"
    Statement = [{
      Effect = "Allow"
      Action = "sts:AssumeRoleWithWebIdentity"
      Principal = {
        Federated = aws_iam_openid_connect_provider.github.arn
      }
      Condition = {
        StringEquals = {
          "token.actions.githubusercontent.com:aud" = "sts.amazonaws.com"
        }
        StringLike = {
          "token.actions.githubusercontent.com:sub" = "repo:{{ .Org }}/{{ .Repo }}:*"
        }
      }
    }]
  })

  tags = {
    ManagedBy = "bootlace"
  }
}

resource "aws_iam_role_policy_attachment" "ci_deploy" {
  role       = aws_iam_role.ci.name
  policy_arn = "arn:aws:iam::aws:policy/AdministratorAccess"
}
`

// RenderConfig produces the platform configuration for the given params.
func RenderConfig(p ConfigParams) (string, error) {
	tmpl, err := template.New(configFile).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(configTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse platform config template: %w", err)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, p); err != nil {
		return "", fmt.Errorf("failed to render platform config: %w", err)
	}
	return b.String(), nil
}

// WritePlatformConfig materializes the platform configuration into dir,
// creating it as needed. Rewriting on every run keeps the configuration in
// lockstep with the inventory record.
func WritePlatformConfig(dir string, p ConfigParams) error {
	content, err := RenderConfig(p)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create platform config directory: %w", err)
	}
	path := filepath.Join(dir, configFile)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write platform config: %w", err)
	}
	return nil
}

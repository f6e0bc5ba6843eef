package terraform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfigParams() ConfigParams {
	return ConfigParams{
		Region:      "eu-west-1",
		StateBucket: "state-payments-cafe0123",
		LockTable:   "lock-payments-cafe0123",
		RoleName:    "ci-deploy-payments-cafe0123",
		Org:         "acme",
		Repo:        "payments",
	}
}

func TestRenderConfig(t *testing.T) {
	content, err := RenderConfig(testConfigParams())
	require.NoError(t, err)

	assert.Contains(t, content, `bucket = "state-payments-cafe0123"`)
	assert.Contains(t, content, `name         = "lock-payments-cafe0123"`)
	assert.Contains(t, content, `name = "ci-deploy-payments-cafe0123"`)
	assert.Contains(t, content, `"repo:acme/payments:*"`)

	// Import addresses the orchestrators rely on.
	assert.Contains(t, content, `resource "aws_s3_bucket" "state"`)
	assert.Contains(t, content, `resource "aws_dynamodb_table" "lock"`)
	assert.Contains(t, content, `resource "aws_iam_openid_connect_provider" "github"`)
	assert.Contains(t, content, `resource "aws_iam_role" "ci"`)

	// No remote backend stanza: the platform config holds its state locally.
	assert.NotContains(t, content, `backend "s3"`)
}

func TestWritePlatformConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "platform")

	require.NoError(t, WritePlatformConfig(dir, testConfigParams()))
	first, err := os.ReadFile(filepath.Join(dir, configFile))
	require.NoError(t, err)
	assert.Contains(t, string(first), "state-payments-cafe0123")

	// Rewriting with new params replaces the file.
	p := testConfigParams()
	p.StateBucket = "state-payments-beef4567"
	require.NoError(t, WritePlatformConfig(dir, p))
	second, err := os.ReadFile(filepath.Join(dir, configFile))
	require.NoError(t, err)
	assert.Contains(t, string(second), "state-payments-beef4567")
}

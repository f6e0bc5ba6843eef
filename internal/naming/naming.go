// Package naming derives the globally-unique identifiers for the platform
// resources. Derivation is deterministic: the same (organization, repository,
// account) inputs always produce the same names, which is what makes a
// re-run of install converge on existing resources instead of minting
// duplicates.
package naming

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// maxBucketName is the S3 bucket name length limit.
	maxBucketName = 63
	// maxIAMName covers both DynamoDB table and IAM role names, which
	// allow far more than we ever generate; capped for readability.
	maxIAMName = 64

	// repoFragmentLen is how much of the repository name survives into
	// the generated identifiers. Two repositories that collide after
	// truncation are still told apart by the fingerprint.
	repoFragmentLen = 24

	fingerprintLen = 8
)

// Names holds the three derived platform identifiers.
type Names struct {
	StateBucket string
	LockTable   string
	RoleName    string
}

// Derive computes the platform resource names for a repository.
// accountID is the 12-digit AWS account identifier.
func Derive(org, repo, accountID string) Names {
	fp := Fingerprint(org, repo, accountID)
	frag := sanitize(repo)
	if len(frag) > repoFragmentLen {
		frag = frag[:repoFragmentLen]
	}
	frag = strings.Trim(frag, "-")

	return Names{
		StateBucket: clamp(fmt.Sprintf("state-%s-%s", frag, fp), maxBucketName),
		LockTable:   clamp(fmt.Sprintf("lock-%s-%s", frag, fp), maxIAMName),
		RoleName:    clamp(fmt.Sprintf("ci-deploy-%s-%s", frag, fp), maxIAMName),
	}
}

// Fingerprint returns a short stable hash over the derivation inputs.
func Fingerprint(org, repo, accountID string) string {
	sum := sha256.Sum256([]byte(org + "/" + repo + "/" + accountID))
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}

// sanitize lowercases the input and maps it onto the common charset
// accepted by S3 bucket names, DynamoDB table names and IAM role names.
func sanitize(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_', r == '-', r == '.', r == ' ':
			b.WriteByte('-')
		}
	}
	// Collapse runs introduced by the mapping above.
	out := b.String()
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	return out
}

func clamp(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.TrimRight(s[:max], "-")
}

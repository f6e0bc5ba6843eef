package platform

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
)

// GitHubOIDCIssuer is the well-known issuer of the GitHub Actions identity
// provider. At most one OIDC provider per issuer can exist in an account.
const GitHubOIDCIssuer = "token.actions.githubusercontent.com"

// RoleARN resolves the trust role's ARN, or "" if the role does not exist.
func (c *Clients) RoleARN(ctx context.Context, roleName string) (string, error) {
	out, err := c.IAM.GetRole(ctx, &iam.GetRoleInput{
		RoleName: aws.String(roleName),
	})
	if err != nil {
		var nse *iamtypes.NoSuchEntityException
		if errors.As(err, &nse) {
			return "", nil
		}
		return "", fmt.Errorf("failed to look up role %s: %w", roleName, err)
	}
	return aws.ToString(out.Role.Arn), nil
}

// RoleExists checks the trust role directly against IAM.
func (c *Clients) RoleExists(ctx context.Context, roleName string) (bool, error) {
	arn, err := c.RoleARN(ctx, roleName)
	if err != nil {
		return false, err
	}
	return arn != "", nil
}

// FindOIDCProvider returns the ARN of the account's OIDC provider for the
// given issuer, or "" if none exists. Duplicate creation of a provider for
// the same issuer is rejected by IAM, so install must import a pre-existing
// one rather than create it.
func (c *Clients) FindOIDCProvider(ctx context.Context, issuer string) (string, error) {
	out, err := c.IAM.ListOpenIDConnectProviders(ctx, &iam.ListOpenIDConnectProvidersInput{})
	if err != nil {
		return "", fmt.Errorf("failed to list OIDC providers: %w", err)
	}

	for _, p := range out.OpenIDConnectProviderList {
		// Provider ARNs end in "oidc-provider/<issuer host>".
		if strings.HasSuffix(aws.ToString(p.Arn), "/"+issuer) {
			return aws.ToString(p.Arn), nil
		}
	}
	return "", nil
}

package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"

	"github.com/newsroomlabs/usage-insight/internal/config"
)

// CognitoProvider resolves identities from a Cognito user pool.
type CognitoProvider struct {
	client     *cognitoidentityprovider.Client
	userPoolID string
}

// NewCognitoProvider builds a provider against the configured user pool.
func NewCognitoProvider(ctx context.Context, awsCfg config.AWSConfig, userPoolID string) (*CognitoProvider, error) {
	if userPoolID == "" {
		return nil, fmt.Errorf("identity user pool id is required")
	}
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(awsCfg.Region),
	}
	if awsCfg.AccessKeyID != "" && awsCfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(awsCfg.AccessKeyID, awsCfg.SecretAccessKey, ""),
		))
	}
	loaded, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := cognitoidentityprovider.NewFromConfig(loaded, func(o *cognitoidentityprovider.Options) {
		if awsCfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(awsCfg.Endpoint)
		}
	})
	return &CognitoProvider{client: client, userPoolID: userPoolID}, nil
}

// GetUserIdentity fetches the user's profile attributes from the pool.
func (p *CognitoProvider) GetUserIdentity(ctx context.Context, userID string) (Identity, error) {
	out, err := p.client.AdminGetUser(ctx, &cognitoidentityprovider.AdminGetUserInput{
		UserPoolId: aws.String(p.userPoolID),
		Username:   aws.String(userID),
	})
	if err != nil {
		return Identity{}, fmt.Errorf("cognito admin-get-user %s: %w", userID, err)
	}

	ident := Identity{
		Email:    userID,
		Username: userID,
		Status:   "unknown",
		Enabled:  out.Enabled,
	}
	if out.Username != nil && *out.Username != "" {
		ident.Username = *out.Username
	}
	for _, attr := range out.UserAttributes {
		if attr.Name == nil || attr.Value == nil {
			continue
		}
		switch *attr.Name {
		case "email":
			ident.Email = *attr.Value
		case "name":
			ident.Username = *attr.Value
		}
	}
	if status := string(out.UserStatus); status != "" {
		ident.Status = strings.ToLower(status)
	}
	return ident, nil
}

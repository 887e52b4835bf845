// Package awscfg resolves the shared AWS SDK configuration used by the
// DynamoDB and SNS clients.
package awscfg

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/go-chat-push/internal/config"
)

// Load resolves AWS settings for region. Static credentials are used when an
// access key is configured; otherwise the default provider chain applies.
func Load(ctx context.Context, cfg *config.Config, region string) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretKey, ""),
		))
	}
	return awsconfig.LoadDefaultConfig(ctx, opts...)
}

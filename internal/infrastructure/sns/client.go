package sns

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/go-chat-push/internal/config"
	"github.com/go-chat-push/internal/infrastructure/awscfg"
)

// NewClient creates an SNS client in cfg.SNSRegion, honouring the local
// endpoint override.
func NewClient(ctx context.Context, cfg *config.Config) (*sns.Client, error) {
	awsCfg, err := awscfg.Load(ctx, cfg, cfg.SNSRegion)
	if err != nil {
		return nil, err
	}
	var opts []func(*sns.Options)
	if cfg.AWSEndpointURL != "" {
		opts = append(opts, func(o *sns.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		})
	}
	return sns.NewFromConfig(awsCfg, opts...), nil
}

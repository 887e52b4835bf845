package sns

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/go-chat-push/internal/domain"
	"github.com/go-chat-push/internal/resilience/circuitbreaker"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Publisher is the part of the SNS client the transport needs.
type Publisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Options tunes publishing. Zero values fall back to defaults.
type Options struct {
	PublishTimeout time.Duration
	RatePerSecond  float64
	RateBurst      int
	Concurrency    int
}

// Transport delivers payloads through SNS mobile push. Delivery tokens are
// platform endpoint ARNs and topics are topic ARNs.
type Transport struct {
	client      Publisher
	limiter     *rate.Limiter
	breaker     *circuitbreaker.CircuitBreaker
	timeout     time.Duration
	concurrency int
}

func NewTransport(client Publisher, opts Options) *Transport {
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 10 * time.Second
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 50
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 1
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}

	cbCfg := circuitbreaker.PushPublishConfig()
	// a dead endpoint says nothing about the health of SNS itself
	cbCfg.IsSuccessful = func(err error) bool {
		return err == nil || classify(err) == domain.FailureInvalidTarget
	}

	return &Transport{
		client:      client,
		limiter:     rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.RateBurst),
		breaker:     circuitbreaker.New(cbCfg),
		timeout:     opts.PublishTimeout,
		concurrency: opts.Concurrency,
	}
}

func (t *Transport) SendOne(ctx context.Context, token string, p *domain.Payload) (domain.Outcome, error) {
	msg, err := envelope(p)
	if err != nil {
		return domain.Outcome{}, err
	}
	return t.publish(ctx, token, &sns.PublishInput{
		TargetArn:        aws.String(token),
		Message:          aws.String(msg),
		MessageStructure: aws.String("json"),
	}), nil
}

// SendMulticast publishes to every token concurrently and returns one
// outcome per token, in input order.
func (t *Transport) SendMulticast(ctx context.Context, tokens []string, p *domain.Payload) ([]domain.Outcome, error) {
	msg, err := envelope(p)
	if err != nil {
		return nil, err
	}

	outcomes := make([]domain.Outcome, len(tokens))
	var g errgroup.Group
	g.SetLimit(t.concurrency)
	for i, token := range tokens {
		g.Go(func() error {
			outcomes[i] = t.publish(ctx, token, &sns.PublishInput{
				TargetArn:        aws.String(token),
				Message:          aws.String(msg),
				MessageStructure: aws.String("json"),
			})
			return nil
		})
	}
	_ = g.Wait()
	return outcomes, nil
}

func (t *Transport) SendToTopic(ctx context.Context, topic string, p *domain.Payload) (domain.Outcome, error) {
	msg, err := envelope(p)
	if err != nil {
		return domain.Outcome{}, err
	}
	return t.publish(ctx, topic, &sns.PublishInput{
		TopicArn:         aws.String(topic),
		Message:          aws.String(msg),
		MessageStructure: aws.String("json"),
	}), nil
}

func (t *Transport) publish(ctx context.Context, target string, in *sns.PublishInput) domain.Outcome {
	if err := t.limiter.Wait(ctx); err != nil {
		return domain.Failed(target, domain.FailureTransient, fmt.Sprintf("rate limiter: %v", err))
	}

	pctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	out, err := circuitbreaker.Execute(t.breaker, func() (*sns.PublishOutput, error) {
		return t.client.Publish(pctx, in)
	})
	if err != nil {
		return domain.Failed(target, classify(err), err.Error())
	}
	return domain.Delivered(target, aws.ToString(out.MessageId))
}

// classify maps an SNS publish error onto a failure kind. Only errors that
// prove the endpoint itself is unusable are invalid_target.
func classify(err error) domain.FailureKind {
	var (
		disabled *types.EndpointDisabledException
		invalid  *types.InvalidParameterException
		notFound *types.NotFoundException
		throttle *types.ThrottledException
		internal *types.InternalErrorException
		kmsThr   *types.KMSThrottlingException
	)
	switch {
	case errors.As(err, &disabled), errors.As(err, &notFound):
		return domain.FailureInvalidTarget
	case errors.As(err, &invalid):
		// SNS also rejects oversized or malformed messages with InvalidParameter.
		if strings.Contains(invalid.ErrorMessage(), "TargetArn") {
			return domain.FailureInvalidTarget
		}
		return domain.FailureUnknown
	case errors.As(err, &throttle), errors.As(err, &internal), errors.As(err, &kmsThr),
		errors.Is(err, circuitbreaker.ErrOpen),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return domain.FailureTransient
	default:
		return domain.FailureUnknown
	}
}

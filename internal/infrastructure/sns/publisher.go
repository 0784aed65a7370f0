package sns

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/sabflip/account-link/internal/config"
	"github.com/sabflip/account-link/internal/domain"
)

// EventAccountLinked is the event_type attribute of link notifications.
const EventAccountLinked = "account.linked"

// API is the subset of *sns.Client used by Publisher.
type API interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Publisher announces completed links on an SNS topic.
type Publisher struct {
	client   API
	topicARN string
}

func NewPublisher(cfg *config.Config) (*Publisher, error) {
	if cfg.SNSTopicARN == "" {
		return nil, fmt.Errorf("SNS_TOPIC_ARN not set")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	var opts []func(*sns.Options)
	if cfg.AWSEndpointURL != "" {
		opts = append(opts, func(o *sns.Options) { o.BaseEndpoint = aws.String(cfg.AWSEndpointURL) })
	}
	return NewPublisherWithClient(sns.NewFromConfig(awsCfg, opts...), cfg.SNSTopicARN), nil
}

func NewPublisherWithClient(client API, topicARN string) *Publisher {
	return &Publisher{client: client, topicARN: topicARN}
}

type linkedEvent struct {
	UserID           string    `json:"user_id"`
	ExternalUserID   int64     `json:"external_user_id"`
	ExternalUsername string    `json:"external_username"`
	LinkedAt         time.Time `json:"linked_at"`
}

func (p *Publisher) AccountLinked(ctx context.Context, acct *domain.LinkedAccount) error {
	b, err := json.Marshal(linkedEvent{
		UserID:           acct.UserID,
		ExternalUserID:   acct.ExternalUserID,
		ExternalUsername: acct.ExternalUsername,
		LinkedAt:         acct.LinkedAt,
	})
	if err != nil {
		return err
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(b)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(EventAccountLinked)},
			"external_user_id": {
				DataType:    aws.String("Number"),
				StringValue: aws.String(strconv.FormatInt(acct.ExternalUserID, 10)),
			},
		},
	})
	return err
}

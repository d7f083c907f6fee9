package infrastructure

import (
	"context"
	"errors"
	"fmt"

	"project_outreach/internal/entities"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSPublisher is the slice of the SNS client the sender uses.
type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SMSSender delivers text messages through Amazon SNS, using the
// tenant's sending number as the origination identity.
type SMSSender struct {
	client  SNSPublisher
	smsType string
}

func NewSMSSender(ctx context.Context, region, smsType string) (*SMSSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewSMSSenderWithClient(sns.NewFromConfig(cfg), smsType), nil
}

func NewSMSSenderWithClient(client SNSPublisher, smsType string) *SMSSender {
	if smsType == "" {
		smsType = "Transactional"
	}
	return &SMSSender{client: client, smsType: smsType}
}

func (s *SMSSender) Provider() string { return "sns" }

func (s *SMSSender) Send(ctx context.Context, msg entities.OutboundMessage) error {
	if msg.To == "" {
		return errors.New("sms: empty destination")
	}

	attrs := map[string]types.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    aws.String("String"),
			StringValue: aws.String(s.smsType),
		},
	}
	if msg.From != "" {
		attrs["AWS.MM.SMS.OriginationNumber"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(msg.From),
		}
	}

	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(msg.To),
		Message:           aws.String(msg.Body),
		MessageAttributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}

// Package ses reports SES account sending limits through the AWS SDK.
//
// The send path signs its own requests and never touches the SDK; this
// client exists so operators can check provider headroom (daily quota,
// send rate, sending enabled) before dispatching a large campaign.
package ses

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/ignite/mail-dispatch/internal/config"
)

// accountAPI is the slice of the sesv2 client this package uses.
type accountAPI interface {
	GetAccount(ctx context.Context, params *sesv2.GetAccountInput, optFns ...func(*sesv2.Options)) (*sesv2.GetAccountOutput, error)
}

// Client is an AWS SES v2 API client for account-level queries.
type Client struct {
	client accountAPI
	region string
}

// Quota is the account's current sending allowance.
type Quota struct {
	Max24HourSend   float64 `json:"max_24_hour_send"`
	SentLast24Hours float64 `json:"sent_last_24_hours"`
	MaxSendRate     float64 `json:"max_send_rate"`
	SendingEnabled  bool    `json:"sending_enabled"`
}

// Remaining returns the sends left in the rolling 24-hour window.
func (q Quota) Remaining() float64 {
	r := q.Max24HourSend - q.SentLast24Hours
	if r < 0 {
		return 0
	}
	return r
}

// NewClient creates an SES account client from the app's SES config.
func NewClient(ctx context.Context, cfg appconfig.SESConfig) (*Client, error) {
	creds := credentials.NewStaticCredentialsProvider(
		cfg.AccessKey,
		cfg.SecretKey,
		"", // session token (empty for static creds)
	)

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &Client{
		client: sesv2.NewFromConfig(awsCfg),
		region: cfg.Region,
	}, nil
}

// GetQuota fetches the account's sending quota and status.
func (c *Client) GetQuota(ctx context.Context) (*Quota, error) {
	account, err := c.client.GetAccount(ctx, &sesv2.GetAccountInput{})
	if err != nil {
		return nil, fmt.Errorf("getting account info: %w", err)
	}

	q := &Quota{SendingEnabled: account.SendingEnabled}
	if account.SendQuota != nil {
		q.Max24HourSend = account.SendQuota.Max24HourSend
		q.SentLast24Hours = account.SendQuota.SentLast24Hours
		q.MaxSendRate = account.SendQuota.MaxSendRate
	}
	return q, nil
}

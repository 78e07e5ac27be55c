package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/mstgnz/carepay/ledger"
)

// SQSAPI is the part of the SQS client the publisher needs
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// RebalanceMessage is the body the ledger consumes
type RebalanceMessage struct {
	TaskID           string    `json:"task_id"`
	AccountID        string    `json:"account_id"`
	InvoiceID        string    `json:"invoice_id"`
	ReconciliationID string    `json:"reconciliation_id"`
	EnqueuedAt       time.Time `json:"enqueued_at"`
}

// SQSPublisher sends rebalancing tasks to an SQS queue
type SQSPublisher struct {
	client   SQSAPI
	queueURL string
}

// NewSQSPublisher builds a client from the default AWS chain. endpoint
// overrides the service URL, e.g. for LocalStack.
func NewSQSPublisher(ctx context.Context, queueURL, endpoint string) (*SQSPublisher, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := sqs.NewFromConfig(cfg, func(o *sqs.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return NewSQSPublisherWithClient(client, queueURL), nil
}

func NewSQSPublisherWithClient(client SQSAPI, queueURL string) *SQSPublisher {
	return &SQSPublisher{client: client, queueURL: queueURL}
}

// Publish sends the task. FIFO queues group by account and deduplicate by task id.
func (p *SQSPublisher) Publish(ctx context.Context, task *ledger.RebalanceTask) error {
	body, err := json.Marshal(RebalanceMessage{
		TaskID:           task.ID,
		AccountID:        task.AccountID,
		InvoiceID:        task.InvoiceID,
		ReconciliationID: task.ReconciliationID,
		EnqueuedAt:       task.EnqueuedAt.UTC(),
	})
	if err != nil {
		return err
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event": {
				DataType:    aws.String("String"),
				StringValue: aws.String("account.rebalance"),
			},
		},
	}
	if strings.HasSuffix(p.queueURL, ".fifo") {
		input.MessageGroupId = aws.String(task.AccountID)
		input.MessageDeduplicationId = aws.String(task.ID)
	}

	if _, err := p.client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

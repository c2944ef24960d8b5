package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"github.com/nataliagff23/checklist-clientes/domain"
)

type queue interface {
	Create(ctx context.Context, options *azqueue.CreateOptions) (azqueue.CreateResponse, error)
	EnqueueMessage(ctx context.Context, content string, options *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error)
	DequeueMessage(ctx context.Context, options *azqueue.DequeueMessageOptions) (azqueue.DequeueMessagesResponse, error)
	DeleteMessage(ctx context.Context, messageID string, popReceipt string, options *azqueue.DeleteMessageOptions) (azqueue.DeleteMessageResponse, error)
}

// Delivery is a message received from the activity queue. It stays invisible
// to other receivers until it is acknowledged or its visibility times out.
type Delivery struct {
	ID      string
	Receipt string
	Text    string
}

// ActivityQueue publishes activity events to an Azure storage queue.
type ActivityQueue struct {
	queue queue
}

// NewActivityQueue connects to the queue at queueURL, for example
// https://acme.queue.core.windows.net/activity.
func NewActivityQueue(queueURL, accessKey string) (*ActivityQueue, error) {
	account, err := AccountName(queueURL)
	if err != nil {
		return nil, err
	}
	cred, err := azqueue.NewSharedKeyCredential(account, accessKey)
	if err != nil {
		return nil, fmt.Errorf("queue credential: %w", err)
	}
	opts := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	q, err := azqueue.NewQueueClientWithSharedKeyCredential(queueURL, cred, &opts)
	if err != nil {
		return nil, err
	}
	return &ActivityQueue{queue: q}, nil
}

// Create creates the queue unless it already exists.
func (a *ActivityQueue) Create(ctx context.Context) error {
	if _, err := a.queue.Create(ctx, nil); err != nil {
		var respErr *azcore.ResponseError
		if !(errors.As(err, &respErr) && respErr.ErrorCode == "QueueAlreadyExists") {
			return err
		}
	}
	return nil
}

// Publish enqueues the JSON encoding of ev.
func (a *ActivityQueue) Publish(ctx context.Context, ev domain.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = a.queue.EnqueueMessage(ctx, string(data), nil)
	return err
}

// Receive dequeues the next message. It returns nil when the queue is empty.
func (a *ActivityQueue) Receive(ctx context.Context) (*Delivery, error) {
	resp, err := a.queue.DequeueMessage(ctx, nil)
	if err != nil {
		return nil, err
	}
	if len(resp.Messages) == 0 {
		return nil, nil
	}
	msg := resp.Messages[0]
	d := &Delivery{}
	if msg.MessageID != nil {
		d.ID = *msg.MessageID
	}
	if msg.PopReceipt != nil {
		d.Receipt = *msg.PopReceipt
	}
	if msg.MessageText != nil {
		d.Text = *msg.MessageText
	}
	return d, nil
}

// Ack removes a processed message from the queue.
func (a *ActivityQueue) Ack(ctx context.Context, d Delivery) error {
	_, err := a.queue.DeleteMessage(ctx, d.ID, d.Receipt, nil)
	return err
}

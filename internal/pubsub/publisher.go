package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"app/internal/config"

	"cloud.google.com/go/pubsub"
)

// Publisher defines an interface for publishing messages.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) (string, error)
}

// PubSubPublisher is an implementation of Publisher using Google Pub/Sub.
type PubSubPublisher struct {
	client *pubsub.Client
}

// NewPublisher creates a new PubSubPublisher using the GCP project from config.
func NewPublisher(ctx context.Context, cfg *config.Config) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, cfg.GCPProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Pub/Sub client: %w", err)
	}
	return &PubSubPublisher{client: client}, nil
}

// Publish sends the payload to the given Pub/Sub topic and returns the message ID.
func (p *PubSubPublisher) Publish(ctx context.Context, topic string, payload []byte) (string, error) {
	t := p.client.Topic(topic)
	result := t.Publish(ctx, &pubsub.Message{Data: payload})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to publish message to topic %s: %w", topic, err)
	}
	return id, nil
}

// AccessCodeEvent is the payload published on access-code lifecycle changes.
type AccessCodeEvent struct {
	Type         string    `json:"type"` // "access_code.issued" or "access_code.updated"
	AccessCodeID string    `json:"access_code_id"`
	Code         string    `json:"code"`
	LevelID      string    `json:"level_id"`
	UserID       string    `json:"user_id"`
	AmountPaid   int64     `json:"amount_paid"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// PublishAccessCodeEvent marshals and publishes a lifecycle event.
func PublishAccessCodeEvent(ctx context.Context, p Publisher, topic string, ev AccessCodeEvent) (string, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("failed to marshal access code event: %w", err)
	}
	return p.Publish(ctx, topic, payload)
}

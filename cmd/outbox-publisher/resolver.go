package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/souqline/souqline-backend/pkg/config"
	"github.com/souqline/souqline-backend/pkg/db/models"
	"github.com/souqline/souqline-backend/pkg/outbox"
)

// ResolvedEvent pairs a decoded envelope with the topic it should be published to.
type ResolvedEvent struct {
	Envelope outbox.PayloadEnvelope
	Topic    string
}

// NonRetryableError marks failures that should park the event in the DLQ
// instead of being retried.
type NonRetryableError struct {
	err error
}

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{err: err}
}

func (e NonRetryableError) Error() string {
	if e.err == nil {
		return "non-retryable outbox error"
	}
	return e.err.Error()
}

func (e NonRetryableError) Unwrap() error {
	return e.err
}

// TopicResolver routes all onboarding domain events to the single configured topic.
type TopicResolver struct {
	topic string
}

func NewTopicResolver(cfg config.PubSubConfig) (*TopicResolver, error) {
	topic := strings.TrimSpace(cfg.OnboardingTopic)
	if topic == "" {
		return nil, errors.New("onboarding topic is required")
	}
	return &TopicResolver{topic: topic}, nil
}

func (r *TopicResolver) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	if !event.EventType.IsValid() {
		return nil, NewNonRetryableError(fmt.Errorf("unknown event type %q", event.EventType))
	}
	if !event.AggregateType.IsValid() {
		return nil, NewNonRetryableError(fmt.Errorf("unknown aggregate type %q", event.AggregateType))
	}
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode payload envelope: %w", err))
	}
	if envelope.EventID == "" {
		return nil, NewNonRetryableError(errors.New("payload envelope missing event id"))
	}
	return &ResolvedEvent{Envelope: envelope, Topic: r.topic}, nil
}

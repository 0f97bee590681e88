// Package review fans manual-review flags out to the back-office queue.
//
// Flags are already persisted on the application document; publishing is a
// notification and never fails the verification that raised it.
package review

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"dsakyc/internal/platform/kafka/producer"
)

// Event is one manual-review flag raised for an application.
type Event struct {
	ApplicationID string            `json:"application_id"`
	SubjectID     string            `json:"subject_id,omitempty"`
	Step          string            `json:"step"`
	ReasonCode    string            `json:"reason_code"`
	Detail        map[string]string `json:"detail,omitempty"`
	RaisedAt      time.Time         `json:"raised_at"`
}

// Publisher delivers review events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Producer is the subset of the Kafka producer the publisher needs.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// KafkaPublisher writes events to a topic keyed by application so all flags
// for one application land on the same partition in order.
type KafkaPublisher struct {
	producer Producer
	topic    string
}

func NewKafkaPublisher(p Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: p, topic: topic}
}

func (k *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal review event: %w", err)
	}
	return k.producer.Produce(ctx, &producer.Message{
		Topic: k.topic,
		Key:   []byte(event.ApplicationID),
		Value: value,
		Headers: map[string]string{
			"event_type":  "kyc.manual_review",
			"reason_code": event.ReasonCode,
		},
	})
}

// LogPublisher records events in the service log. Used when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (l *LogPublisher) Publish(ctx context.Context, event Event) error {
	l.logger.InfoContext(ctx, "manual review flag raised",
		"application_id", event.ApplicationID,
		"subject_id", event.SubjectID,
		"step", event.Step,
		"reason_code", event.ReasonCode,
	)
	return nil
}

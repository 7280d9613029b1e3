package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
)

const (
	CloudEventsContentType = "application/cloudevents+json"
	specVersion            = "1.0"
	typeVersionSuffix      = ".v1"
)

// Envelope is the structured-mode CloudEvents record carried on every topic.
type Envelope struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Source          string          `json:"source"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	TraceParent     string          `json:"traceparent,omitempty"`
	Data            json.RawMessage `json:"data"`
}

// NewEnvelope wraps an event body; name is the unversioned event name.
func NewEnvelope(id, name, source string, at time.Time, data []byte) Envelope {
	return Envelope{
		SpecVersion:     specVersion,
		ID:              id,
		Type:            name + typeVersionSuffix,
		Source:          source,
		Time:            at.UTC(),
		DataContentType: "application/json",
		Data:            json.RawMessage(data),
	}
}

// EventName strips the version suffix from Type.
func (e Envelope) EventName() string {
	return strings.TrimSuffix(e.Type, typeVersionSuffix)
}

// EventHandlerFunc receives decoded envelopes.
type EventHandlerFunc func(ctx context.Context, name string, data []byte) error

// Handle implements MessageHandler by decoding the envelope first.
func (f EventHandlerFunc) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var env Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return fmt.Errorf("kafka: decode envelope at %s/%d/%d: %w", msg.Topic, msg.Partition, msg.Offset, err)
	}
	return f(ctx, env.EventName(), env.Data)
}

// TopicFor maps an event name such as "message.inserted" to "message.events.v1".
func TopicFor(prefix, name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return prefix + base + ".events" + typeVersionSuffix
}

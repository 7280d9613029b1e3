package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"unimate/internal/infra/broker/kafka"
)

type fakeQueue struct {
	docs   []*EventDocument
	sent   []string
	failed map[string]time.Time
}

func (q *fakeQueue) Claim(context.Context, string) (*EventDocument, error) {
	if len(q.docs) == 0 {
		return nil, nil
	}
	doc := q.docs[0]
	q.docs = q.docs[1:]
	return doc, nil
}

func (q *fakeQueue) MarkSent(_ context.Context, id string) error {
	q.sent = append(q.sent, id)
	return nil
}

func (q *fakeQueue) MarkFailed(_ context.Context, id string, next time.Time, _ string) error {
	if q.failed == nil {
		q.failed = map[string]time.Time{}
	}
	q.failed[id] = next
	return nil
}

type published struct {
	topic, key string
	payload    []byte
	headers    map[string]string
}

type fakeProducer struct {
	err  error
	msgs []published
}

func (p *fakeProducer) Publish(_ context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

func TestWorkerPublishesCloudEvents(t *testing.T) {
	queue := &fakeQueue{docs: []*EventDocument{
		{ID: "e1", Name: "message.inserted", Aggregate: "chat-1", Payload: []byte(`{"message_id":"m1"}`), Headers: map[string]string{"traceparent": "00-abc"}},
		{ID: "e2", Name: "deal.completed", Aggregate: "chat-1", Payload: []byte(`{}`)},
	}}
	producer := &fakeProducer{}
	w := &Worker{Store: queue, Producer: producer, TopicPrefix: "test."}

	n, err := w.Drain(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("drain n=%d err=%v", n, err)
	}
	if producer.msgs[0].topic != "test.message.events.v1" || producer.msgs[1].topic != "test.deal.events.v1" {
		t.Fatalf("unexpected topics %+v", producer.msgs)
	}
	var env kafka.Envelope
	if err := json.Unmarshal(producer.msgs[0].payload, &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Type != "message.inserted.v1" || env.Source != defaultSource || env.TraceParent != "00-abc" || string(env.Data) != `{"message_id":"m1"}` {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if producer.msgs[0].headers["content-type"] != kafka.CloudEventsContentType || producer.msgs[0].key != "chat-1" {
		t.Fatalf("unexpected headers %+v", producer.msgs[0])
	}
	if len(queue.sent) != 2 {
		t.Fatalf("expected both marked sent, got %v", queue.sent)
	}
}

func TestWorkerSchedulesRetryOnFailure(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	queue := &fakeQueue{docs: []*EventDocument{
		{ID: "bad", Name: "listing.created", Payload: []byte("not json")},
		{ID: "e2", Name: "listing.created", Payload: []byte(`{}`), Attempts: 1},
	}}
	w := &Worker{
		Store:    queue,
		Producer: &fakeProducer{err: errors.New("broker down")},
		Backoff:  []time.Duration{time.Second, 5 * time.Second},
		Now:      func() time.Time { return now },
	}
	if _, err := w.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if got := queue.failed["bad"]; !got.Equal(now.Add(time.Second)) {
		t.Fatalf("invalid payload retry at %v", got)
	}
	if _, err := w.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if got := queue.failed["e2"]; !got.Equal(now.Add(5 * time.Second)) {
		t.Fatalf("publish failure retry at %v", got)
	}
	if len(queue.sent) != 0 {
		t.Fatalf("nothing should be sent")
	}
}

func TestWorkerRequiresDependencies(t *testing.T) {
	if err := (&Worker{}).Run(context.Background()); !errors.Is(err, ErrWorkerNotConfigured) {
		t.Fatalf("expected ErrWorkerNotConfigured, got %v", err)
	}
}

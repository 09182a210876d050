package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// payload is the JSON message body. Field names match what subscription
// clients of the original API expect.
type payload struct {
	Item        any      `json:"item"`
	ActionType  string   `json:"actionType"`
	ChangeArray []string `json:"changeArray"`
}

// KafkaNotifier publishes change events to Kafka. Produces are asynchronous;
// delivery failures are logged, never surfaced to the mutation path.
type KafkaNotifier struct {
	client *kgo.Client
	admin  *kadm.Client
	logger *slog.Logger

	mu     sync.Mutex
	topics map[string]struct{}
}

// NewKafkaNotifier connects to the brokers and verifies the connection.
func NewKafkaNotifier(brokers []string, logger *slog.Logger) (*KafkaNotifier, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerLinger(5*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping kafka: %w", err)
	}

	return &KafkaNotifier{
		client: client,
		admin:  kadm.NewClient(client),
		logger: logger,
		topics: make(map[string]struct{}),
	}, nil
}

// Publish sends the event to its scope topic. The produce itself is
// asynchronous; only marshalling and topic creation can fail here.
func (n *KafkaNotifier) Publish(ctx context.Context, event Event) error {
	topic := event.Topic()
	if err := n.ensureTopic(ctx, topic); err != nil {
		return err
	}

	body, err := json.Marshal(payload{
		Item:        event.Item,
		ActionType:  string(event.Action),
		ChangeArray: event.Changes,
	})
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}

	record := &kgo.Record{
		Topic: topic,
		Key:   []byte(event.ScopeID.String()),
		Value: body,
	}
	n.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		if err != nil {
			n.logger.Warn("change event publish failed",
				"topic", r.Topic,
				"action", string(event.Action),
				"error", err,
			)
		}
	})
	return nil
}

// ensureTopic creates the scope topic on first use. Scope topics are
// created lazily because accounts appear at runtime.
func (n *KafkaNotifier) ensureTopic(ctx context.Context, topic string) error {
	n.mu.Lock()
	_, known := n.topics[topic]
	n.mu.Unlock()
	if known {
		return nil
	}

	_, err := n.admin.CreateTopic(ctx, 1, 1, nil, topic)
	if err != nil && !errors.Is(err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}

	n.mu.Lock()
	n.topics[topic] = struct{}{}
	n.mu.Unlock()
	return nil
}

// Close flushes buffered produces and releases the client.
func (n *KafkaNotifier) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := n.client.Flush(ctx); err != nil {
		n.logger.Warn("kafka flush on close failed", "error", err)
	}
	n.client.Close()
}

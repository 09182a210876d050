//go:build integration

package notify_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"appaccounts/internal/audit"
	"appaccounts/internal/notify"
	"appaccounts/pkg/testutil/containers"
)

func TestKafkaNotifierPublishesToScopeTopic(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	broker := containers.NewRedpandaContainer(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	notifier, err := notify.NewKafkaNotifier(broker.Brokers, logger)
	require.NoError(t, err)
	defer notifier.Close()

	scopeID := uuid.New()
	event := notify.Event{
		EntityType: "appAccountServiceType",
		ScopeID:    scopeID,
		Action:     audit.ActionUpdate,
		Item:       map[string]any{"id": uuid.New().String(), "typeName": "Repair"},
		Changes:    []string{"note: a => b"},
	}
	require.NoError(t, notifier.Publish(context.Background(), event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Brokers...),
		kgo.ConsumeTopics(event.Topic()),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, scopeID.String(), string(records[0].Key))

	var body struct {
		Item        map[string]any `json:"item"`
		ActionType  string         `json:"actionType"`
		ChangeArray []string       `json:"changeArray"`
	}
	require.NoError(t, json.Unmarshal(records[0].Value, &body))
	require.Equal(t, "update", body.ActionType)
	require.Equal(t, []string{"note: a => b"}, body.ChangeArray)
	require.Equal(t, "Repair", body.Item["typeName"])
}
